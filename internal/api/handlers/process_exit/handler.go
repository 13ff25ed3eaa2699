package process_exit

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
	msgNoActiveSession    = "нет активной парковки для этого номера"
	msgSlotState          = "место не занято этим автомобилем"
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

// Handle POST /api/v1/gates/{gateId}/exits
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	gateID := mux.Vars(r)["gateId"]

	var req ExitRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /gates/{id}/exits - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	exit, charges, err := h.processor.ProcessExit(r.Context(), req.LicensePlate, gateID, h.clock.Now())
	if err != nil {
		switch {
		case errors.Is(err, gate.ErrInvalidInput):
			h.logger.Warn("POST /gates/{id}/exits - Invalid input: gate_id=%s, error=%v", gateID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		case errors.Is(err, domain.ErrNoActiveSession):
			h.logger.Warn("POST /gates/{id}/exits - No active session: gate_id=%s", gateID)
			handlers.RespondNotFound(w, msgNoActiveSession)

		case errors.Is(err, domain.ErrInvalidTransition):
			h.logger.Warn("POST /gates/{id}/exits - Slot not occupied by vehicle: gate_id=%s", gateID)
			handlers.RespondConflict(w, msgSlotState)

		default:
			h.logger.Error("POST /gates/{id}/exits - Failed to process exit: gate_id=%s, error=%v", gateID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /gates/{id}/exits - Exit recorded: exit_id=%d, booking_id=%d, total=%s",
		exit.ID, exit.BookingID, charges.Total.StringFixed(2))
	handlers.RespondJSON(w, http.StatusCreated, FromDomain(exit, charges))
}
