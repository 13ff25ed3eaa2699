package dispatch

import (
	"context"
	"time"
)

// Task внешний вызов (уведомление, платёж), выполняемый после коммита
type Task struct {
	Kind string // notify, authorize, capture
	Name string // для логов, например "booking_confirmed booking=42"
	Run  func(ctx context.Context) error

	attempt int
}

// Config параметры ретраев
type Config struct {
	Workers     int
	QueueSize   int
	MaxAttempts int
	Backoff     time.Duration
	CallTimeout time.Duration
}
