package domain

import "errors"

var (
	// ErrSlotUnavailable возвращается при пересечении окна или недоступности слота
	ErrSlotUnavailable = errors.New("slot unavailable")

	// ErrSlotNotFound возвращается, когда слот не найден
	ErrSlotNotFound = errors.New("slot not found")

	// ErrSlotOccupied возвращается при попытке перевести занятый слот в обслуживание
	ErrSlotOccupied = errors.New("slot is occupied")

	// ErrInvalidTransition возвращается при нарушении жизненного цикла
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidWindow возвращается при некорректном временном окне
	ErrInvalidWindow = errors.New("invalid time window")

	// ErrInvalidDurationType возвращается при неизвестном типе тарификации
	ErrInvalidDurationType = errors.New("invalid duration type")

	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("booking not found")

	// ErrBookingNotActive возвращается, когда бронирование не в нужном статусе для операции
	ErrBookingNotActive = errors.New("booking is not in a valid status for this operation")

	// ErrPlateMismatch возвращается, когда госномер не совпадает с бронированием
	ErrPlateMismatch = errors.New("license plate does not match booking")

	// ErrDuplicateEntry возвращается при повторном въезде без выезда
	ErrDuplicateEntry = errors.New("vehicle already entered for this booking")

	// ErrNoActiveSession возвращается, когда нет въезда без выезда
	ErrNoActiveSession = errors.New("no active parking session")

	// ErrCancellationWindowClosed возвращается при отмене позже допустимого срока
	ErrCancellationWindowClosed = errors.New("cancellation window closed")

	// ErrAccessDenied возвращается, когда у пользователя нет прав на операцию
	ErrAccessDenied = errors.New("access denied")

	// ErrVehicleNotSupported возвращается, когда слот не принимает тип транспорта
	ErrVehicleNotSupported = errors.New("vehicle type not supported by slot")
)
