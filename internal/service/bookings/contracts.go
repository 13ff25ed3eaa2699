package bookings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/internal/integrations/userservice"
	"github.com/m04kA/SMC-ParkingService/internal/service/dispatch"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetByUserID(ctx context.Context, userID int64, status *domain.BookingStatus) ([]*domain.Booking, error)
	GetStale(ctx context.Context, deadline time.Time) ([]*domain.Booking, error)
	Update(ctx context.Context, booking *domain.Booking) error
	SetPaymentRef(ctx context.Context, id int64, ref string) error
}

// SlotRepository интерфейс репозитория парковочных мест
type SlotRepository interface {
	UpdateStatus(ctx context.Context, id int64, status domain.SlotStatus, occupantBookingID *int64) error
}

// RateRepository интерфейс репозитория тарифов
type RateRepository interface {
	GetByLocation(ctx context.Context, locationID int64) (*domain.RateSchedule, error)
}

// SlotLedger интерфейс in-memory леджера слотов
type SlotLedger interface {
	TryReserve(ctx context.Context, slotID int64, window domain.TimeWindow) (uuid.UUID, error)
	Assign(token uuid.UUID, bookingID int64) error
	Release(ctx context.Context, token uuid.UUID) error
	Extend(ctx context.Context, token uuid.UUID, newEnd time.Time) error
	Slot(slotID int64) (*domain.ParkingSlot, error)
}

// FeeCalculator интерфейс расчёта стоимости
type FeeCalculator interface {
	Compute(rate domain.RateSchedule, durationMinutes int, durationType domain.DurationType) (decimal.Decimal, error)
	Difference(rate domain.RateSchedule, fromMinutes, toMinutes int, durationType domain.DurationType) (decimal.Decimal, error)
}

// VehicleDirectory интерфейс справочника автомобилей пользователей
type VehicleDirectory interface {
	GetVehicle(ctx context.Context, userID, vehicleID int64) (*userservice.Vehicle, error)
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
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Clock источник времени
type Clock interface {
	Now() time.Time
}

// MetricsRecorder интерфейс бизнес-метрик
type MetricsRecorder interface {
	ObserveBooking(operation, outcome string)
	ObserveExpired(count int)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
