package get_available_slots

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

// SlotLedger интерфейс леджера слотов
type SlotLedger interface {
	// Available возвращает слоты, свободные на всё окно
	Available(window domain.TimeWindow, filter domain.SlotFilter) ([]domain.AvailableSlot, error)
}

// RateRepository интерфейс репозитория тарифов
type RateRepository interface {
	GetByLocation(ctx context.Context, locationID int64) (*domain.RateSchedule, error)
}

// FeeCalculator интерфейс калькулятора стоимости
type FeeCalculator interface {
	Compute(rate domain.RateSchedule, durationMinutes int, durationType domain.DurationType) (decimal.Decimal, error)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
