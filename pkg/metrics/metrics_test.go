package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveBooking(t *testing.T) {
	m := NewWithRegisterer("parking", prometheus.NewRegistry())

	m.ObserveBooking("create", "conflict")
	m.ObserveBooking("create", "conflict")
	m.ObserveBooking("create", "success")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.BookingOperations.WithLabelValues("parking", "create", "conflict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BookingOperations.WithLabelValues("parking", "create", "success")))
}

func TestObserveExpired(t *testing.T) {
	m := NewWithRegisterer("parking", prometheus.NewRegistry())

	m.ObserveExpired(3)
	m.ObserveExpired(0)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.ExpiredBookings.WithLabelValues("parking")))
}
