package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// VehicleEntry is an append-only record of a vehicle passing an entry gate
type VehicleEntry struct {
	ID        int64
	BookingID int64
	SlotID    int64
	Plate     string
	GateID    string
	EntryTime time.Time
	CreatedAt time.Time
}

// VehicleExit is an append-only record closing exactly one entry
type VehicleExit struct {
	ID              int64
	EntryID         int64
	BookingID       int64
	GateID          string
	ExitTime        time.Time
	DurationMinutes int
	Amount          decimal.Decimal
	CreatedAt       time.Time
}

// Charges is the fee breakdown returned at exit
type Charges struct {
	DurationMinutes int
	DurationType    DurationType
	Subtotal        decimal.Decimal
	Tax             decimal.Decimal
	Total           decimal.Decimal
	ReservedAmount  decimal.Decimal // Running total accumulated before exit
}

// NormalizePlate makes plates comparable regardless of case and separators
func NormalizePlate(plate string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(plate) {
		if r == ' ' || r == '-' || r == '.' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// PlatesMatch compares two plates after normalization
func PlatesMatch(a, b string) bool {
	na := NormalizePlate(a)
	return na != "" && na == NormalizePlate(b)
}
