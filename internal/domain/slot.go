package domain

import "fmt"

// SlotType classifies a physical parking space
type SlotType string

const (
	SlotTypeRegular  SlotType = "regular"
	SlotTypeVIP      SlotType = "vip"
	SlotTypeDisabled SlotType = "disabled"
	SlotTypeElectric SlotType = "electric"
)

// SlotStatus is the physical state of a slot
type SlotStatus string

const (
	SlotAvailable   SlotStatus = "available"
	SlotOccupied    SlotStatus = "occupied"
	SlotReserved    SlotStatus = "reserved"
	SlotMaintenance SlotStatus = "maintenance"
	SlotBlocked     SlotStatus = "blocked"
)

// VehicleType is the kind of vehicle a slot can hold
type VehicleType string

const (
	VehicleCar        VehicleType = "car"
	VehicleMotorcycle VehicleType = "motorcycle"
	VehicleTruck      VehicleType = "truck"
	VehicleElectric   VehicleType = "electric"
)

// ParkingSlot represents a single physical parking space of a location
type ParkingSlot struct {
	ID                int64
	LocationID        int64
	Code              string
	Type              SlotType
	VehicleTypes      []VehicleType
	Status            SlotStatus
	OccupantBookingID *int64
}

// Supports returns true if the slot accepts the vehicle type.
// An empty set means any vehicle type.
func (s *ParkingSlot) Supports(vt VehicleType) bool {
	if len(s.VehicleTypes) == 0 {
		return true
	}
	for _, t := range s.VehicleTypes {
		if t == vt {
			return true
		}
	}
	return false
}

// IsOutOfService returns true if the slot cannot accept reservations
func (s *ParkingSlot) IsOutOfService() bool {
	return s.Status == SlotMaintenance || s.Status == SlotBlocked
}

// Clone returns a deep copy of the slot
func (s *ParkingSlot) Clone() *ParkingSlot {
	c := *s
	if s.VehicleTypes != nil {
		c.VehicleTypes = append([]VehicleType(nil), s.VehicleTypes...)
	}
	if s.OccupantBookingID != nil {
		id := *s.OccupantBookingID
		c.OccupantBookingID = &id
	}
	return &c
}

// ParseSlotType converts a string to SlotType
func ParseSlotType(s string) (SlotType, error) {
	switch t := SlotType(s); t {
	case SlotTypeRegular, SlotTypeVIP, SlotTypeDisabled, SlotTypeElectric:
		return t, nil
	default:
		return "", fmt.Errorf("unknown slot type %q", s)
	}
}

// ParseVehicleType converts a string to VehicleType
func ParseVehicleType(s string) (VehicleType, error) {
	switch t := VehicleType(s); t {
	case VehicleCar, VehicleMotorcycle, VehicleTruck, VehicleElectric:
		return t, nil
	default:
		return "", fmt.Errorf("unknown vehicle type %q", s)
	}
}

// SlotFilter narrows an availability search
type SlotFilter struct {
	LocationID  int64
	SlotType    *SlotType
	VehicleType *VehicleType
}

// Matches returns true if the slot satisfies the filter
func (f SlotFilter) Matches(s *ParkingSlot) bool {
	if f.LocationID != 0 && s.LocationID != f.LocationID {
		return false
	}
	if f.SlotType != nil && s.Type != *f.SlotType {
		return false
	}
	if f.VehicleType != nil && !s.Supports(*f.VehicleType) {
		return false
	}
	return true
}

// AvailableSlot is a slot that is free for a requested window
type AvailableSlot struct {
	SlotID       int64
	LocationID   int64
	Code         string
	Type         SlotType
	VehicleTypes []VehicleType
}
