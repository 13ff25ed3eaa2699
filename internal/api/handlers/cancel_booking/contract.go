package cancel_booking

import (
	"context"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

type BookingService interface {
	CancelBooking(ctx context.Context, bookingID int64, actor domain.Actor, reason string) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
