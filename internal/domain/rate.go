package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DurationType selects which rate applies to a booking
type DurationType string

const (
	DurationHourly  DurationType = "hourly"
	DurationDaily   DurationType = "daily"
	DurationMonthly DurationType = "monthly"
)

// ParseDurationType converts a string to DurationType
func ParseDurationType(s string) (DurationType, error) {
	switch t := DurationType(s); t {
	case DurationHourly, DurationDaily, DurationMonthly:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDurationType, s)
	}
}

// RateSchedule is the price list of a location
type RateSchedule struct {
	LocationID int64
	Hourly     decimal.Decimal
	Daily      decimal.Decimal
	Monthly    decimal.Decimal
	TaxRate    decimal.Decimal // 0.2 = 20%
}

// IsZero returns true if no rate has been set
func (r RateSchedule) IsZero() bool {
	return r.Hourly.IsZero() && r.Daily.IsZero() && r.Monthly.IsZero()
}
