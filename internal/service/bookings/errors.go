package bookings

import "errors"

var (
	// ErrVehicleNotFound возвращается, когда автомобиль пользователя не найден
	ErrVehicleNotFound = errors.New("vehicle not found")

	// ErrRateNotFound возвращается, когда для локации не задан тариф
	ErrRateNotFound = errors.New("rate not found for location")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("service: internal error")
)
