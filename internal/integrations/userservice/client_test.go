package userservice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func TestClient_GetVehicle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/internal/users/7/vehicles/3":
			_ = json.NewEncoder(w).Encode(Vehicle{ID: 3, UserID: 7, LicensePlate: "a 123 bc", Type: "car"})
		case "/internal/users/7/vehicles/4":
			_ = json.NewEncoder(w).Encode(Vehicle{ID: 4, UserID: 8, LicensePlate: "X1", Type: "car"})
		case "/internal/users/7/vehicles/5":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, nopLogger{})

	v, err := c.GetVehicle(context.Background(), 7, 3)
	require.NoError(t, err)
	assert.Equal(t, "car", v.Type)
	assert.Equal(t, "a 123 bc", v.LicensePlate)

	_, err = c.GetVehicle(context.Background(), 7, 4)
	assert.ErrorIs(t, err, ErrVehicleNotFound)

	_, err = c.GetVehicle(context.Background(), 7, 9)
	assert.ErrorIs(t, err, ErrVehicleNotFound)

	_, err = c.GetVehicle(context.Background(), 7, 5)
	assert.ErrorIs(t, err, ErrInvalidResponse)
}
