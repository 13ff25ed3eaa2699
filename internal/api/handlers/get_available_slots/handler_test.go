package get_available_slots

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	getAvailableSlots "github.com/m04kA/SMC-ParkingService/internal/usecase/get_available_slots"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type stubUseCase struct {
	got *getAvailableSlots.Request
	err error
}

func (s *stubUseCase) Execute(_ context.Context, req *getAvailableSlots.Request) (*getAvailableSlots.Response, error) {
	s.got = req
	if s.err != nil {
		return nil, s.err
	}
	return &getAvailableSlots.Response{
		LocationID:   req.LocationID,
		Start:        req.Start,
		End:          req.End,
		DurationType: "hourly",
		Slots: []getAvailableSlots.Slot{
			{SlotID: 2, Code: "A-02", SlotType: "electric", VehicleTypes: []string{"car", "electric"}, EstimatedAmount: decimal.NewFromInt(200)},
		},
	}, nil
}

func request(target, locationID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	return mux.SetURLVars(req, map[string]string{"locationId": locationID})
}

func TestHandler_OK(t *testing.T) {
	uc := &stubUseCase{}
	rec := httptest.NewRecorder()

	NewHandler(uc, nopLogger{}).Handle(rec, request(
		"/api/v1/locations/10/available-slots?start=2026-03-01T10:00:00Z&end=2026-03-01T11:30:00Z&vehicleType=electric", "10"))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, uc.got.VehicleType)
	assert.Equal(t, "electric", *uc.got.VehicleType)
	assert.Nil(t, uc.got.SlotType)

	var resp AvailableSlotsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Slots, 1)
	assert.Equal(t, "A-02", resp.Slots[0].Code)
}

func TestHandler_Errors(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		locationID string
		err        error
		wantStatus int
	}{
		{name: "bad location", target: "/x?start=2026-03-01T10:00:00Z&end=2026-03-01T11:00:00Z", locationID: "abc", wantStatus: http.StatusBadRequest},
		{name: "missing start", target: "/x?end=2026-03-01T11:00:00Z", locationID: "10", wantStatus: http.StatusBadRequest},
		{name: "invalid input", target: "/x?start=2026-03-01T10:00:00Z&end=2026-03-01T11:00:00Z", locationID: "10", err: getAvailableSlots.ErrInvalidInput, wantStatus: http.StatusBadRequest},
		{name: "unknown location", target: "/x?start=2026-03-01T10:00:00Z&end=2026-03-01T11:00:00Z", locationID: "10", err: getAvailableSlots.ErrLocationNotFound, wantStatus: http.StatusNotFound},
		{name: "internal", target: "/x?start=2026-03-01T10:00:00Z&end=2026-03-01T11:00:00Z", locationID: "10", err: getAvailableSlots.ErrInternal, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewHandler(&stubUseCase{err: tt.err}, nopLogger{}).Handle(rec, request(tt.target, tt.locationID))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
