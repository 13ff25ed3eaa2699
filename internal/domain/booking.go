package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusActive    BookingStatus = "active"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
	StatusExpired   BookingStatus = "expired"
	StatusNoShow    BookingStatus = "no_show"
)

// CanTransitionTo is the single source of truth for the booking lifecycle:
//
//	pending   -> confirmed | cancelled | expired
//	confirmed -> active | cancelled | expired | no_show
//	active    -> completed
//
// Terminal statuses have no outgoing transitions.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusCancelled || next == StatusExpired
	case StatusConfirmed:
		return next == StatusActive || next == StatusCancelled || next == StatusExpired || next == StatusNoShow
	case StatusActive:
		return next == StatusCompleted
	case StatusCompleted, StatusCancelled, StatusExpired, StatusNoShow:
		return false
	default:
		return false
	}
}

// IsValid returns true for known statuses
func (s BookingStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusActive, StatusCompleted,
		StatusCancelled, StatusExpired, StatusNoShow:
		return true
	default:
		return false
	}
}

// HoldsSlot returns true if a booking in this status keeps its slot reserved
func (s BookingStatus) HoldsSlot() bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusActive
}

// IsTerminal returns true if no further transitions are possible
func (s BookingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusExpired || s == StatusNoShow
}

// IsAbandoned returns true for statuses a cancellation may silently accept
func (s BookingStatus) IsAbandoned() bool {
	return s == StatusCancelled || s == StatusExpired || s == StatusNoShow
}

// Booking represents a reservation of a parking slot for a time window
type Booking struct {
	ID           int64
	UserID       int64
	VehicleID    int64
	VehiclePlate string // Denormalized from the vehicle directory at booking time
	SlotID       int64
	LocationID   int64
	Window       TimeWindow
	DurationType DurationType
	Rate         RateSchedule // Snapshot of the location rate at booking time
	Status       BookingStatus

	ReservationToken uuid.UUID
	EstimatedAmount  decimal.Decimal
	TotalAmount      decimal.Decimal
	PaymentRef       *string

	EntryTime *time.Time
	ExitTime  *time.Time

	CancellationReason *string
	CancelledBy        *int64
	CancelledAt        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TransitionTo moves the booking to the next status or returns ErrInvalidTransition
func (b *Booking) TransitionTo(next BookingStatus) error {
	if !b.Status.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	b.Status = next
	return nil
}

// CanBeCancelled returns true if the booking can be cancelled
func (b *Booking) CanBeCancelled() bool {
	return b.Status.CanTransitionTo(StatusCancelled)
}

// CancellationDeadline returns the last moment a regular user may cancel
func (b *Booking) CancellationDeadline(cutoff time.Duration) time.Time {
	return b.Window.Start.Add(-cutoff)
}

// IsStale returns true if the booking never started within the grace period
func (b *Booking) IsStale(now time.Time, grace time.Duration) bool {
	if b.Status != StatusPending && b.Status != StatusConfirmed {
		return false
	}
	if b.EntryTime != nil {
		return false
	}
	return b.Window.Start.Add(grace).Before(now)
}

// Actor is whoever requests a booking change
type Actor struct {
	ID       int64
	Override bool // Allows cancelling past the cutoff and on behalf of another user
}
