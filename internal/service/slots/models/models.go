package models

import "github.com/m04kA/SMC-ParkingService/internal/domain"

// SetOutOfServiceRequest запрос на перевод слота в обслуживание или блокировку
type SetOutOfServiceRequest struct {
	SlotID int64
	On     bool
}

// SlotResponse ответ с состоянием слота
type SlotResponse struct {
	ID                int64    `json:"id"`
	LocationID        int64    `json:"locationId"`
	Code              string   `json:"code"`
	SlotType          string   `json:"slotType"`
	VehicleTypes      []string `json:"vehicleTypes"`
	Status            string   `json:"status"`
	OccupantBookingID *int64   `json:"occupantBookingId,omitempty"`
}

// FromDomainSlot конвертирует domain модель в DTO
func FromDomainSlot(s *domain.ParkingSlot) *SlotResponse {
	if s == nil {
		return nil
	}

	types := make([]string, 0, len(s.VehicleTypes))
	for _, vt := range s.VehicleTypes {
		types = append(types, string(vt))
	}

	return &SlotResponse{
		ID:                s.ID,
		LocationID:        s.LocationID,
		Code:              s.Code,
		SlotType:          string(s.Type),
		VehicleTypes:      types,
		Status:            string(s.Status),
		OccupantBookingID: s.OccupantBookingID,
	}
}
