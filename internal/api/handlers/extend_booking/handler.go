package extend_booking

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ParkingService/internal/api/handlers"
	"github.com/m04kA/SMC-ParkingService/internal/api/middleware"
	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

const (
	msgInvalidBookingID   = "некорректный ID бронирования"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidTime        = "некорректный формат времени, ожидается RFC3339"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgNotFound           = "бронирование не найдено"
	msgForbidden          = "доступ запрещен"
	msgNotActive          = "продлить можно только активную парковку"
	msgSlotUnavailable    = "место занято на запрошенное время"
	msgInvalidWindow      = "новое время окончания должно быть позже текущего"
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

// Handle PATCH /api/v1/bookings/{bookingId}/extend
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	bookingID, err := strconv.ParseInt(mux.Vars(r)["bookingId"], 10, 64)
	if err != nil {
		h.logger.Warn("PATCH /bookings/{id}/extend - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("PATCH /bookings/{id}/extend - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req ExtendBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /bookings/{id}/extend - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	newEnd, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		h.logger.Warn("PATCH /bookings/{id}/extend - Failed to parse time: %v", err)
		handlers.RespondBadRequest(w, msgInvalidTime)
		return
	}

	// Продлевать может только владелец
	if _, err := h.service.GetByID(r.Context(), bookingID, userID); err != nil {
		h.respondError(w, err, bookingID, userID)
		return
	}

	extra, err := h.service.ExtendBooking(r.Context(), bookingID, newEnd)
	if err != nil {
		h.respondError(w, err, bookingID, userID)
		return
	}

	booking, err := h.service.GetByID(r.Context(), bookingID, userID)
	if err != nil {
		h.respondError(w, err, bookingID, userID)
		return
	}

	h.logger.Info("PATCH /bookings/{id}/extend - Booking extended successfully: booking_id=%d, extra=%s",
		bookingID, extra.StringFixed(2))
	handlers.RespondJSON(w, http.StatusOK, &ExtendBookingResponse{
		BookingID:   bookingID,
		EndTime:     booking.EndTime,
		ExtraAmount: extra,
		TotalAmount: booking.TotalAmount,
	})
}

func (h *Handler) respondError(w http.ResponseWriter, err error, bookingID, userID int64) {
	switch {
	case errors.Is(err, domain.ErrBookingNotFound):
		h.logger.Warn("PATCH /bookings/{id}/extend - Booking not found: booking_id=%d", bookingID)
		handlers.RespondNotFound(w, msgNotFound)

	case errors.Is(err, domain.ErrAccessDenied):
		h.logger.Warn("PATCH /bookings/{id}/extend - Access denied: booking_id=%d, user_id=%d", bookingID, userID)
		handlers.RespondForbidden(w, msgForbidden)

	case errors.Is(err, domain.ErrBookingNotActive):
		h.logger.Warn("PATCH /bookings/{id}/extend - Booking not active: booking_id=%d", bookingID)
		handlers.RespondConflict(w, msgNotActive)

	case errors.Is(err, domain.ErrSlotUnavailable):
		h.logger.Warn("PATCH /bookings/{id}/extend - Slot unavailable: booking_id=%d", bookingID)
		handlers.RespondConflict(w, msgSlotUnavailable)

	case errors.Is(err, domain.ErrInvalidWindow):
		h.logger.Warn("PATCH /bookings/{id}/extend - Invalid window: booking_id=%d", bookingID)
		handlers.RespondBadRequest(w, msgInvalidWindow)

	default:
		h.logger.Error("PATCH /bookings/{id}/extend - Failed to extend booking: booking_id=%d, error=%v",
			bookingID, err)
		handlers.RespondInternalError(w)
	}
}
