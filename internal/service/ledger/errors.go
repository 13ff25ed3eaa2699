package ledger

import "errors"

var (
	// ErrReservationNotFound возвращается, когда токен резерва неизвестен леджеру
	ErrReservationNotFound = errors.New("ledger: reservation not found")

	// ErrSlotExists возвращается при повторном добавлении слота с другим ID локации
	ErrSlotExists = errors.New("ledger: slot already registered for another location")
)
