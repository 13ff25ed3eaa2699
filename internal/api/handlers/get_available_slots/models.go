package get_available_slots

import (
	"time"

	"github.com/shopspring/decimal"

	getAvailableSlots "github.com/m04kA/SMC-ParkingService/internal/usecase/get_available_slots"
)

// AvailableSlotsResponse HTTP response model
type AvailableSlotsResponse struct {
	LocationID   int64          `json:"locationId"`
	StartTime    time.Time      `json:"startTime"`
	EndTime      time.Time      `json:"endTime"`
	DurationType string         `json:"durationType"`
	Slots        []SlotResponse `json:"slots"`
}

// SlotResponse свободный слот
type SlotResponse struct {
	SlotID          int64           `json:"slotId"`
	Code            string          `json:"code"`
	SlotType        string          `json:"slotType"`
	VehicleTypes    []string        `json:"vehicleTypes"`
	EstimatedAmount decimal.Decimal `json:"estimatedAmount"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *getAvailableSlots.Response) *AvailableSlotsResponse {
	slots := make([]SlotResponse, 0, len(resp.Slots))
	for _, s := range resp.Slots {
		slots = append(slots, SlotResponse{
			SlotID:          s.SlotID,
			Code:            s.Code,
			SlotType:        s.SlotType,
			VehicleTypes:    s.VehicleTypes,
			EstimatedAmount: s.EstimatedAmount,
		})
	}

	return &AvailableSlotsResponse{
		LocationID:   resp.LocationID,
		StartTime:    resp.Start,
		EndTime:      resp.End,
		DurationType: resp.DurationType,
		Slots:        slots,
	}
}
