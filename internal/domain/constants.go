package domain

// Default booking policy values
const (
	DefaultCancelCutoffMinutes = 60
	DefaultGracePeriodMinutes  = 15
	DefaultDurationType        = DurationHourly
)

// Billing unit lengths in minutes
const (
	MinutesPerHour  = 60
	MinutesPerDay   = 1440
	MinutesPerMonth = 43200 // 30 days
)

// Business validation constants
const (
	MaxCancellationReasonLength = 500
	MaxPlateLength              = 16
	MaxGateIDLength             = 64
)

// Notification event types
const (
	EventBookingConfirmed = "booking_confirmed"
	EventBookingCancelled = "booking_cancelled"
	EventBookingExpired   = "booking_expired"
	EventBookingExtended  = "booking_extended"
	EventVehicleEntered   = "vehicle_entered"
	EventVehicleExited    = "vehicle_exited"
)

// ActiveStatuses статусы бронирований, удерживающих слот
// Используется при восстановлении леджера из БД
var ActiveStatuses = []BookingStatus{
	StatusPending,
	StatusConfirmed,
	StatusActive,
}
