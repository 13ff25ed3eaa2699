package get_available_slots

import "errors"

var (
	// ErrLocationNotFound возвращается, когда для локации не задан тариф
	ErrLocationNotFound = errors.New("location not found")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("usecase: internal error")
)
