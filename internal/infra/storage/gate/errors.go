package gate

import "errors"

var (
	// ErrEntryNotFound возвращается, когда незакрытый въезд не найден
	ErrEntryNotFound = errors.New("gate.repository: open entry not found")

	// ErrDuplicateEntry возвращается, когда въезд по бронированию уже записан
	ErrDuplicateEntry = errors.New("gate.repository: entry for booking already exists")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("gate.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("gate.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("gate.repository: failed to scan row")
)
