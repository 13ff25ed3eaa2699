package create_booking

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ParkingService/internal/api/handlers"
	"github.com/m04kA/SMC-ParkingService/internal/api/middleware"
	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/internal/service/bookings"
	"github.com/m04kA/SMC-ParkingService/internal/service/bookings/models"
)

const (
	msgInvalidRequestBody  = "некорректное тело запроса"
	msgInvalidTime         = "некорректный формат времени, ожидается RFC3339"
	msgMissingUserID       = "отсутствует ID пользователя"
	msgSlotUnavailable     = "слот недоступен на выбранное время"
	msgSlotNotFound        = "парковочное место не найдено"
	msgVehicleNotFound     = "автомобиль не найден"
	msgRateNotFound        = "тариф парковки не найден"
	msgInvalidWindow       = "некорректный интервал бронирования"
	msgVehicleNotSupported = "место не подходит для этого типа транспорта"
	msgInvalidDurationType = "некорректный тип тарификации"
	msgInvalidInput        = "некорректные данные бронирования"
)

type Handler struct {
	service BookingService
	logger  Logger
}

func NewHandler(service BookingService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("POST /bookings - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req CreateBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	serviceReq, err := req.ToServiceRequest(userID)
	if err != nil {
		h.logger.Warn("POST /bookings - Failed to parse time: %v", err)
		handlers.RespondBadRequest(w, msgInvalidTime)
		return
	}

	booking, err := h.service.CreateBooking(r.Context(), serviceReq)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSlotUnavailable):
			h.logger.Warn("POST /bookings - Slot unavailable: user_id=%d, slot_id=%d", userID, req.SlotID)
			handlers.RespondConflict(w, msgSlotUnavailable)

		case errors.Is(err, domain.ErrSlotNotFound):
			h.logger.Warn("POST /bookings - Slot not found: slot_id=%d", req.SlotID)
			handlers.RespondNotFound(w, msgSlotNotFound)

		case errors.Is(err, bookings.ErrVehicleNotFound):
			h.logger.Warn("POST /bookings - Vehicle not found: user_id=%d, vehicle_id=%d", userID, req.VehicleID)
			handlers.RespondNotFound(w, msgVehicleNotFound)

		case errors.Is(err, bookings.ErrRateNotFound):
			h.logger.Warn("POST /bookings - Rate not found: slot_id=%d", req.SlotID)
			handlers.RespondNotFound(w, msgRateNotFound)

		case errors.Is(err, domain.ErrInvalidWindow):
			h.logger.Warn("POST /bookings - Invalid window: user_id=%d, start=%s, end=%s", userID, req.StartTime, req.EndTime)
			handlers.RespondBadRequest(w, msgInvalidWindow)

		case errors.Is(err, domain.ErrVehicleNotSupported):
			h.logger.Warn("POST /bookings - Vehicle not supported: slot_id=%d, vehicle_id=%d", req.SlotID, req.VehicleID)
			handlers.RespondBadRequest(w, msgVehicleNotSupported)

		case errors.Is(err, domain.ErrInvalidDurationType):
			h.logger.Warn("POST /bookings - Invalid duration type: %s", req.DurationType)
			handlers.RespondBadRequest(w, msgInvalidDurationType)

		case errors.Is(err, bookings.ErrInvalidInput):
			h.logger.Warn("POST /bookings - Invalid input: user_id=%d, error=%v", userID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("POST /bookings - Failed to create booking: user_id=%d, slot_id=%d, error=%v",
				userID, req.SlotID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings - Booking created successfully: booking_id=%d, user_id=%d, slot_id=%d",
		booking.ID, userID, booking.SlotID)
	handlers.RespondJSON(w, http.StatusCreated, models.FromDomainBooking(booking))
}
