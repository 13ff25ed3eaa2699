package process_entry

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ParkingService/internal/api/handlers"
	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/internal/service/gate"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidInput       = "некорректный номер или ID шлагбаума"
	msgNotFound           = "бронирование не найдено"
	msgDuplicateEntry     = "автомобиль уже въехал по этому бронированию"
	msgNotActive          = "бронирование не подтверждено"
	msgPlateMismatch      = "номер автомобиля не совпадает с бронированием"
	msgSlotBusy           = "место недоступно для въезда"
)

type Handler struct {
	processor GateProcessor
	clock     Clock
	logger    Logger
}

func NewHandler(processor GateProcessor, clock Clock, logger Logger) *Handler {
	return &Handler{
		processor: processor,
		clock:     clock,
		logger:    logger,
	}
}

// Handle POST /api/v1/gates/{gateId}/entries
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	gateID := mux.Vars(r)["gateId"]

	var req EntryRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /gates/{id}/entries - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	entry, err := h.processor.ProcessEntry(r.Context(), req.BookingID, req.LicensePlate, gateID, h.clock.Now())
	if err != nil {
		switch {
		case errors.Is(err, gate.ErrInvalidInput):
			h.logger.Warn("POST /gates/{id}/entries - Invalid input: gate_id=%s, error=%v", gateID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		case errors.Is(err, domain.ErrBookingNotFound):
			h.logger.Warn("POST /gates/{id}/entries - Booking not found: booking_id=%d", req.BookingID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, domain.ErrDuplicateEntry):
			h.logger.Warn("POST /gates/{id}/entries - Duplicate entry: booking_id=%d", req.BookingID)
			handlers.RespondConflict(w, msgDuplicateEntry)

		case errors.Is(err, domain.ErrBookingNotActive):
			h.logger.Warn("POST /gates/{id}/entries - Booking not confirmed: booking_id=%d", req.BookingID)
			handlers.RespondConflict(w, msgNotActive)

		case errors.Is(err, domain.ErrPlateMismatch):
			h.logger.Warn("POST /gates/{id}/entries - Plate mismatch: booking_id=%d, gate_id=%s", req.BookingID, gateID)
			handlers.RespondForbidden(w, msgPlateMismatch)

		case errors.Is(err, domain.ErrInvalidTransition):
			h.logger.Warn("POST /gates/{id}/entries - Slot busy: booking_id=%d", req.BookingID)
			handlers.RespondConflict(w, msgSlotBusy)

		default:
			h.logger.Error("POST /gates/{id}/entries - Failed to process entry: booking_id=%d, error=%v",
				req.BookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /gates/{id}/entries - Entry recorded: entry_id=%d, booking_id=%d, gate_id=%s",
		entry.ID, entry.BookingID, gateID)
	handlers.RespondJSON(w, http.StatusCreated, FromDomainEntry(entry))
}
