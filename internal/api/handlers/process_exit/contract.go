package process_exit

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

type GateProcessor interface {
	ProcessExit(ctx context.Context, plate, gateID string, now time.Time) (*domain.VehicleExit, *domain.Charges, error)
}

type Clock interface {
	Now() time.Time
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
