package process_entry

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

type GateProcessor interface {
	ProcessEntry(ctx context.Context, bookingID int64, plate, gateID string, now time.Time) (*domain.VehicleEntry, error)
}

type Clock interface {
	Now() time.Time
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
