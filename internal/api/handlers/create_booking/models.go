package create_booking

import (
	"time"

	"github.com/m04kA/SMC-ParkingService/internal/service/bookings/models"
)

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	VehicleID    int64  `json:"vehicleId"`
	SlotID       int64  `json:"slotId"`
	StartTime    string `json:"startTime"` // RFC3339, "2026-03-01T10:00:00Z"
	EndTime      string `json:"endTime"`
	DurationType string `json:"durationType,omitempty"` // hourly, daily, monthly
}

// ToServiceRequest конвертирует HTTP запрос в модель сервиса (с парсингом времени)
func (r *CreateBookingRequest) ToServiceRequest(userID int64) (*models.CreateBookingRequest, error) {
	start, err := time.Parse(time.RFC3339, r.StartTime)
	if err != nil {
		return nil, err
	}

	end, err := time.Parse(time.RFC3339, r.EndTime)
	if err != nil {
		return nil, err
	}

	return &models.CreateBookingRequest{
		UserID:       userID,
		VehicleID:    r.VehicleID,
		SlotID:       r.SlotID,
		Start:        start,
		End:          end,
		DurationType: r.DurationType,
	}, nil
}
