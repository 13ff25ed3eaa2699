package process_exit

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

// ExitRequest HTTP request model
type ExitRequest struct {
	LicensePlate string `json:"licensePlate"`
}

// ExitResponse HTTP response model: запись выезда и чек
type ExitResponse struct {
	ID              int64           `json:"id"`
	EntryID         int64           `json:"entryId"`
	BookingID       int64           `json:"bookingId"`
	GateID          string          `json:"gateId"`
	ExitTime        time.Time       `json:"exitTime"`
	DurationMinutes int             `json:"durationMinutes"`
	DurationType    string          `json:"durationType"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Tax             decimal.Decimal `json:"tax"`
	ReservedAmount  decimal.Decimal `json:"reservedAmount"`
	Total           decimal.Decimal `json:"total"`
}

// FromDomain конвертирует запись выезда и начисления в HTTP response
func FromDomain(exit *domain.VehicleExit, charges *domain.Charges) *ExitResponse {
	return &ExitResponse{
		ID:              exit.ID,
		EntryID:         exit.EntryID,
		BookingID:       exit.BookingID,
		GateID:          exit.GateID,
		ExitTime:        exit.ExitTime,
		DurationMinutes: charges.DurationMinutes,
		DurationType:    string(charges.DurationType),
		Subtotal:        charges.Subtotal,
		Tax:             charges.Tax,
		ReservedAmount:  charges.ReservedAmount,
		Total:           charges.Total,
	}
}
