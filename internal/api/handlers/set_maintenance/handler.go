package set_maintenance

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ParkingService/internal/api/handlers"
	"github.com/m04kA/SMC-ParkingService/internal/api/middleware"
	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/internal/service/slots/models"
)

const (
	msgInvalidSlotID      = "некорректный ID места"
	msgInvalidRequestBody = "некорректное тело запроса, ожидается поле enabled"
	msgForbidden          = "доступно только оператору парковки"
	msgNotFound           = "парковочное место не найдено"
	msgOccupied           = "место занято, обслуживание невозможно"
)

type Handler struct {
	service SlotService
	logger  Logger
}

func NewHandler(service SlotService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle PATCH /api/v1/slots/{slotId}/maintenance
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	slotID, err := strconv.ParseInt(mux.Vars(r)["slotId"], 10, 64)
	if err != nil {
		h.logger.Warn("PATCH /slots/{id}/maintenance - Invalid slot ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidSlotID)
		return
	}

	if !middleware.IsOperator(r.Context()) {
		userID, _ := middleware.GetUserID(r.Context())
		h.logger.Warn("PATCH /slots/{id}/maintenance - Access denied: slot_id=%d, user_id=%d", slotID, userID)
		handlers.RespondForbidden(w, msgForbidden)
		return
	}

	var req SetMaintenanceRequest
	if err := handlers.DecodeJSON(r, &req); err != nil || req.Enabled == nil {
		h.logger.Warn("PATCH /slots/{id}/maintenance - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	slot, err := h.service.SetMaintenance(r.Context(), &models.SetOutOfServiceRequest{
		SlotID: slotID,
		On:     *req.Enabled,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSlotNotFound):
			h.logger.Warn("PATCH /slots/{id}/maintenance - Slot not found: slot_id=%d", slotID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, domain.ErrSlotOccupied):
			h.logger.Warn("PATCH /slots/{id}/maintenance - Slot occupied: slot_id=%d", slotID)
			handlers.RespondConflict(w, msgOccupied)

		default:
			h.logger.Error("PATCH /slots/{id}/maintenance - Failed to update slot: slot_id=%d, error=%v", slotID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /slots/{id}/maintenance - Slot updated: slot_id=%d, status=%s", slotID, slot.Status)
	handlers.RespondJSON(w, http.StatusOK, slot)
}
