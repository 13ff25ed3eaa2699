package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics коллектор метрик сервиса
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	DBQueryDuration   *prometheus.HistogramVec
	DBOpenConnections *prometheus.GaugeVec
	DBInUse           *prometheus.GaugeVec
	DBIdle            *prometheus.GaugeVec
	DBWaitCount       *prometheus.GaugeVec

	BookingOperations *prometheus.CounterVec
	GateEvents        *prometheus.CounterVec
	ExpiredBookings   *prometheus.CounterVec
	DispatchFailures  *prometheus.CounterVec

	serviceName string
}

// New создает и регистрирует метрики в default registry
func New(serviceName string) *Metrics {
	return NewWithRegisterer(serviceName, prometheus.DefaultRegisterer)
}

// NewWithRegisterer создает метрики в указанном registry (для тестов)
func NewWithRegisterer(serviceName string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		serviceName: serviceName,
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"service", "method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"service", "method", "path"}),
		DBQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query latency",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"service", "operation"}),
		DBOpenConnections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_open_connections",
			Help: "Number of established connections",
		}, []string{"service"}),
		DBInUse: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_in_use_connections",
			Help: "Number of connections currently in use",
		}, []string{"service"}),
		DBIdle: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_idle_connections",
			Help: "Number of idle connections",
		}, []string{"service"}),
		DBWaitCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_wait_count",
			Help: "Total number of connections waited for",
		}, []string{"service"}),
		BookingOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_operations_total",
			Help: "Booking operations by outcome",
		}, []string{"service", "operation", "outcome"}),
		GateEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gate_events_total",
			Help: "Gate entry/exit events by outcome",
		}, []string{"service", "direction", "outcome"}),
		ExpiredBookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookings_expired_total",
			Help: "Bookings expired by the sweep",
		}, []string{"service"}),
		DispatchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_failures_total",
			Help: "Post-commit side effects that failed",
		}, []string{"service", "kind"}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.DBQueryDuration,
		m.DBOpenConnections,
		m.DBInUse,
		m.DBIdle,
		m.DBWaitCount,
		m.BookingOperations,
		m.GateEvents,
		m.ExpiredBookings,
		m.DispatchFailures,
	)

	return m
}

// ObserveBooking учитывает результат операции с бронированием
func (m *Metrics) ObserveBooking(operation, outcome string) {
	m.BookingOperations.WithLabelValues(m.serviceName, operation, outcome).Inc()
}

// ObserveGate учитывает результат события шлагбаума
func (m *Metrics) ObserveGate(direction, outcome string) {
	m.GateEvents.WithLabelValues(m.serviceName, direction, outcome).Inc()
}

// ObserveExpired учитывает просроченные бронирования
func (m *Metrics) ObserveExpired(count int) {
	m.ExpiredBookings.WithLabelValues(m.serviceName).Add(float64(count))
}

// ObserveDispatchFailure учитывает неудачный побочный эффект после коммита
func (m *Metrics) ObserveDispatchFailure(kind string) {
	m.DispatchFailures.WithLabelValues(m.serviceName, kind).Inc()
}
