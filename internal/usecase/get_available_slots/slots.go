package get_available_slots

import (
	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

// toSlots конвертирует свободные слоты леджера в модель ответа
// Стоимость одинакова для всех слотов локации, т.к. тариф задаётся на локацию
func toSlots(available []domain.AvailableSlot, estimate decimal.Decimal) []Slot {
	slots := make([]Slot, 0, len(available))

	for _, a := range available {
		vehicleTypes := make([]string, 0, len(a.VehicleTypes))
		for _, vt := range a.VehicleTypes {
			vehicleTypes = append(vehicleTypes, string(vt))
		}

		slots = append(slots, Slot{
			SlotID:          a.SlotID,
			Code:            a.Code,
			SlotType:        string(a.Type),
			VehicleTypes:    vehicleTypes,
			EstimatedAmount: estimate,
		})
	}

	return slots
}
