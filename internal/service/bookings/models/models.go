package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

var (
	// ErrInvalidStatus возвращается при некорректном статусе
	ErrInvalidStatus = errors.New("invalid booking status")
)

// Request модели

// CreateBookingRequest запрос на создание бронирования
type CreateBookingRequest struct {
	UserID       int64
	VehicleID    int64
	SlotID       int64
	Start        time.Time
	End          time.Time
	DurationType string               // hourly, daily, monthly; пусто - тип по умолчанию
	Rate         *domain.RateSchedule // Снимок тарифа; nil - тариф локации
}

// GetUserBookingsRequest запрос на получение бронирований пользователя
type GetUserBookingsRequest struct {
	UserID int64   `json:"userId"`
	Status *string `json:"status,omitempty"`
}

// Response модели

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"userId"`
	VehicleID       int64           `json:"vehicleId"`
	VehiclePlate    string          `json:"vehiclePlate"`
	SlotID          int64           `json:"slotId"`
	LocationID      int64           `json:"locationId"`
	StartTime       time.Time       `json:"startTime"`
	EndTime         time.Time       `json:"endTime"`
	DurationType    string          `json:"durationType"`
	Status          string          `json:"status"`
	EstimatedAmount decimal.Decimal `json:"estimatedAmount"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`

	EntryTime *time.Time `json:"entryTime,omitempty"`
	ExitTime  *time.Time `json:"exitTime,omitempty"`

	CancellationReason *string `json:"cancellationReason,omitempty"`
	CancelledAt        *string `json:"cancelledAt,omitempty"` // ISO 8601 format

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BookingListResponse ответ со списком бронирований
type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
}

// Методы конвертации

// FromDomainBooking конвертирует domain модель в DTO
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	if b == nil {
		return nil
	}

	resp := &BookingResponse{
		ID:                 b.ID,
		UserID:             b.UserID,
		VehicleID:          b.VehicleID,
		VehiclePlate:       b.VehiclePlate,
		SlotID:             b.SlotID,
		LocationID:         b.LocationID,
		StartTime:          b.Window.Start,
		EndTime:            b.Window.End,
		DurationType:       string(b.DurationType),
		Status:             string(b.Status),
		EstimatedAmount:    b.EstimatedAmount,
		TotalAmount:        b.TotalAmount,
		EntryTime:          b.EntryTime,
		ExitTime:           b.ExitTime,
		CancellationReason: b.CancellationReason,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}

	// Конвертируем CancelledAt в строку ISO 8601
	if b.CancelledAt != nil {
		cancelledStr := b.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &cancelledStr
	}

	return resp
}

// FromDomainBookingList конвертирует список domain моделей в DTO
func FromDomainBookingList(bookings []*domain.Booking) *BookingListResponse {
	resp := &BookingListResponse{
		Bookings: make([]BookingResponse, 0, len(bookings)),
	}

	for _, booking := range bookings {
		if bookingResp := FromDomainBooking(booking); bookingResp != nil {
			resp.Bookings = append(resp.Bookings, *bookingResp)
		}
	}

	return resp
}

// ToDomainBookingStatus конвертирует строку в domain.BookingStatus с валидацией
func ToDomainBookingStatus(status string) (domain.BookingStatus, error) {
	s := domain.BookingStatus(status)
	if !s.IsValid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}
