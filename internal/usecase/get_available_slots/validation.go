package get_available_slots

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request, now time.Time) error {
	if req.LocationID <= 0 {
		return fmt.Errorf("%w: locationID must be positive", ErrInvalidInput)
	}

	if req.Start.IsZero() || req.End.IsZero() {
		return fmt.Errorf("%w: start and end are required", ErrInvalidInput)
	}

	if !req.End.After(req.Start) {
		return fmt.Errorf("%w: end must be after start", ErrInvalidInput)
	}

	// Окно, полностью ушедшее в прошлое, бронировать нельзя
	if !req.End.After(now) {
		return fmt.Errorf("%w: window is in the past", ErrInvalidInput)
	}

	return nil
}

// buildFilter собирает фильтр леджера из параметров запроса
func buildFilter(req *Request) (domain.SlotFilter, error) {
	filter := domain.SlotFilter{LocationID: req.LocationID}

	if req.VehicleType != nil {
		vt, err := domain.ParseVehicleType(*req.VehicleType)
		if err != nil {
			return filter, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		filter.VehicleType = &vt
	}

	if req.SlotType != nil {
		st, err := domain.ParseSlotType(*req.SlotType)
		if err != nil {
			return filter, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		filter.SlotType = &st
	}

	return filter, nil
}

func resolveDurationType(s string) (domain.DurationType, error) {
	if s == "" {
		return domain.DefaultDurationType, nil
	}
	dt, err := domain.ParseDurationType(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return dt, nil
}
