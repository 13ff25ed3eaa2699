package get_available_slots

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ParkingService/internal/api/handlers"
	getAvailableSlots "github.com/m04kA/SMC-ParkingService/internal/usecase/get_available_slots"
)

const (
	msgInvalidLocationID = "некорректный ID парковки"
	msgInvalidTime       = "некорректный формат времени, ожидается RFC3339"
	msgInvalidInput      = "некорректные параметры запроса"
	msgLocationNotFound  = "парковка не найдена"
)

type Handler struct {
	useCase GetAvailableSlotsUseCase
	logger  Logger
}

func NewHandler(useCase GetAvailableSlotsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/locations/{locationId}/available-slots?start=&end=&vehicleType=&slotType=&durationType=
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	locationID, err := strconv.ParseInt(mux.Vars(r)["locationId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /locations/{id}/available-slots - Invalid location ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidLocationID)
		return
	}

	query := r.URL.Query()

	start, err := time.Parse(time.RFC3339, query.Get("start"))
	if err != nil {
		h.logger.Warn("GET /locations/{id}/available-slots - Invalid start: %v", err)
		handlers.RespondBadRequest(w, msgInvalidTime)
		return
	}

	end, err := time.Parse(time.RFC3339, query.Get("end"))
	if err != nil {
		h.logger.Warn("GET /locations/{id}/available-slots - Invalid end: %v", err)
		handlers.RespondBadRequest(w, msgInvalidTime)
		return
	}

	req := &getAvailableSlots.Request{
		LocationID:   locationID,
		Start:        start,
		End:          end,
		VehicleType:  optional(query, "vehicleType"),
		SlotType:     optional(query, "slotType"),
		DurationType: query.Get("durationType"),
	}

	result, err := h.useCase.Execute(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, getAvailableSlots.ErrInvalidInput):
			h.logger.Warn("GET /locations/{id}/available-slots - Invalid input: location_id=%d, error=%v", locationID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		case errors.Is(err, getAvailableSlots.ErrLocationNotFound):
			h.logger.Warn("GET /locations/{id}/available-slots - Location not found: location_id=%d", locationID)
			handlers.RespondNotFound(w, msgLocationNotFound)

		default:
			h.logger.Error("GET /locations/{id}/available-slots - Failed to get slots: location_id=%d, error=%v",
				locationID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /locations/{id}/available-slots - Slots retrieved successfully: location_id=%d, count=%d",
		locationID, len(result.Slots))
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}

func optional(query url.Values, key string) *string {
	v := query.Get(key)
	if v == "" {
		return nil
	}
	return &v
}
