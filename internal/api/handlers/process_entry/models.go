package process_entry

import (
	"time"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

// EntryRequest HTTP request model
type EntryRequest struct {
	BookingID    int64  `json:"bookingId"`
	LicensePlate string `json:"licensePlate"`
}

// EntryResponse HTTP response model
type EntryResponse struct {
	ID        int64     `json:"id"`
	BookingID int64     `json:"bookingId"`
	SlotID    int64     `json:"slotId"`
	Plate     string    `json:"licensePlate"`
	GateID    string    `json:"gateId"`
	EntryTime time.Time `json:"entryTime"`
}

// FromDomainEntry конвертирует запись въезда в HTTP response
func FromDomainEntry(e *domain.VehicleEntry) *EntryResponse {
	return &EntryResponse{
		ID:        e.ID,
		BookingID: e.BookingID,
		SlotID:    e.SlotID,
		Plate:     e.Plate,
		GateID:    e.GateID,
		EntryTime: e.EntryTime,
	}
}
