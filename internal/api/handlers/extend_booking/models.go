package extend_booking

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExtendBookingRequest HTTP request model
type ExtendBookingRequest struct {
	EndTime string `json:"endTime"` // RFC3339
}

// ExtendBookingResponse HTTP response model
type ExtendBookingResponse struct {
	BookingID   int64           `json:"bookingId"`
	EndTime     time.Time       `json:"endTime"`
	ExtraAmount decimal.Decimal `json:"extraAmount"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}
