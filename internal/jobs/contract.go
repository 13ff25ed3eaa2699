package jobs

import (
	"context"
	"time"
)

// BookingSweeper истекает бронирования без въезда
type BookingSweeper interface {
	ExpireStaleBookings(ctx context.Context, now time.Time) (int, error)
}

type Clock interface {
	Now() time.Time
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
