package dispatch

import "errors"

var (
	// ErrQueueFull возвращается, когда очередь задач переполнена
	ErrQueueFull = errors.New("dispatch: queue is full")

	// ErrStopped возвращается при отправке задачи в остановленный диспетчер
	ErrStopped = errors.New("dispatch: dispatcher stopped")
)
