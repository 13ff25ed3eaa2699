package dispatch

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// MetricsRecorder счётчик неудачных внешних вызовов
type MetricsRecorder interface {
	ObserveDispatchFailure(kind string)
}
