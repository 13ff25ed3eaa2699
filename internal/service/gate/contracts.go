package gate

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/internal/service/dispatch"
	"github.com/m04kA/SMC-ParkingService/internal/service/fees"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	Update(ctx context.Context, booking *domain.Booking) error
}

// EntryRepository интерфейс журнала въездов и выездов
type EntryRepository interface {
	CreateEntry(ctx context.Context, entry *domain.VehicleEntry) (*domain.VehicleEntry, error)
	GetOpenEntryByBooking(ctx context.Context, bookingID int64) (*domain.VehicleEntry, error)
	GetLatestOpenEntryByPlate(ctx context.Context, plate string) (*domain.VehicleEntry, error)
	CreateExit(ctx context.Context, exit *domain.VehicleExit) (*domain.VehicleExit, error)
}

// SlotRepository интерфейс репозитория парковочных мест
type SlotRepository interface {
	UpdateStatus(ctx context.Context, id int64, status domain.SlotStatus, occupantBookingID *int64) error
}

// SlotLedger интерфейс in-memory леджера слотов
type SlotLedger interface {
	Occupy(ctx context.Context, token uuid.UUID) error
	Vacate(ctx context.Context, token uuid.UUID) error
	Slot(slotID int64) (*domain.ParkingSlot, error)
}

// FeeCalculator интерфейс расчёта стоимости
type FeeCalculator interface {
	Breakdown(rate domain.RateSchedule, durationMinutes int, durationType domain.DurationType) (fees.Breakdown, error)
}

// PaymentCollector интерфейс платёжного сервиса
type PaymentCollector interface {
	Authorize(ctx context.Context, bookingID int64, amount decimal.Decimal) (string, error)
	Capture(ctx context.Context, txnRef string) error
}

// NotificationSink интерфейс отправки уведомлений пользователю
type NotificationSink interface {
	Notify(ctx context.Context, userID int64, eventType string, payload map[string]interface{}) error
}

// Dispatcher интерфейс очереди внешних вызовов после коммита
type Dispatcher interface {
	Submit(task dispatch.Task) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// MetricsRecorder интерфейс метрик шлагбаумов
type MetricsRecorder interface {
	ObserveGate(direction, outcome string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
