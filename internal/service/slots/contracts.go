package slots

import (
	"context"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

// SlotRepository интерфейс репозитория слотов
type SlotRepository interface {
	UpdateStatus(ctx context.Context, id int64, status domain.SlotStatus, occupantBookingID *int64) error
}

// SlotLedger интерфейс леджера слотов
type SlotLedger interface {
	SetMaintenance(ctx context.Context, slotID int64, on bool) error
	SetBlocked(ctx context.Context, slotID int64, on bool) error
	Slot(slotID int64) (*domain.ParkingSlot, error)
}

// TransactionManager интерфейс менеджера транзакций
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
