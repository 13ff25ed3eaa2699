package gate

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/booking"
	gateRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/gate"
	"github.com/m04kA/SMC-ParkingService/internal/service/dispatch"
	"github.com/m04kA/SMC-ParkingService/internal/service/fees"
	"github.com/m04kA/SMC-ParkingService/internal/service/ledger"
	"github.com/m04kA/SMC-ParkingService/pkg/logger"
	"github.com/m04kA/SMC-ParkingService/pkg/ptr"
	"github.com/m04kA/SMC-ParkingService/pkg/txmanager"
)

var start = time.Date(2026, 10, 20, 10, 0, 0, 0, time.UTC)

type memBookings struct {
	mu   sync.Mutex
	rows map[int64]domain.Booking
}

func (m *memBookings) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.rows[id]
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	return &b, nil
}

func (m *memBookings) Update(_ context.Context, b *domain.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[b.ID] = *b
	return nil
}

func (m *memBookings) get(id int64) domain.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[id]
}

type memEntries struct {
	mu        sync.Mutex
	entries   []domain.VehicleEntry
	exits     map[int64]domain.VehicleExit
	failEntry error
}

func (m *memEntries) CreateEntry(_ context.Context, e *domain.VehicleEntry) (*domain.VehicleEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failEntry != nil {
		return nil, m.failEntry
	}
	e.ID = int64(len(m.entries) + 1)
	m.entries = append(m.entries, *e)
	return e, nil
}

func (m *memEntries) open(match func(domain.VehicleEntry) bool) (*domain.VehicleEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if _, closed := m.exits[e.ID]; !closed && match(e) {
			return &e, nil
		}
	}
	return nil, gateRepo.ErrEntryNotFound
}

func (m *memEntries) GetOpenEntryByBooking(_ context.Context, bookingID int64) (*domain.VehicleEntry, error) {
	return m.open(func(e domain.VehicleEntry) bool { return e.BookingID == bookingID })
}

func (m *memEntries) GetLatestOpenEntryByPlate(_ context.Context, plate string) (*domain.VehicleEntry, error) {
	return m.open(func(e domain.VehicleEntry) bool { return e.Plate == plate })
}

func (m *memEntries) CreateExit(_ context.Context, x *domain.VehicleExit) (*domain.VehicleExit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.exits == nil {
		m.exits = make(map[int64]domain.VehicleExit)
	}
	x.ID = int64(len(m.exits) + 1)
	m.exits[x.EntryID] = *x
	return x, nil
}

type memSlots struct{}

func (memSlots) UpdateStatus(context.Context, int64, domain.SlotStatus, *int64) error { return nil }

type recorder struct {
	mu       sync.Mutex
	events   []string
	captured []string
}

func (r *recorder) Notify(_ context.Context, _ int64, eventType string, _ map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, eventType)
	return nil
}

func (r *recorder) Authorize(context.Context, int64, decimal.Decimal) (string, error) {
	return "", errors.New("not expected")
}

func (r *recorder) Capture(_ context.Context, ref string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.captured = append(r.captured, ref)
	return nil
}

type inlineDispatcher struct{}

func (inlineDispatcher) Submit(task dispatch.Task) error {
	return task.Run(context.Background())
}

type nopMetrics struct{}

func (nopMetrics) ObserveGate(string, string) {}

type env struct {
	proc     *Processor
	bookings *memBookings
	entries  *memEntries
	ledger   *ledger.Ledger
	rec      *recorder
}

// newEnv создает окружение с бронированием id=1 на [10:00, 12:00) по 100/час
func newEnv(t *testing.T, status domain.BookingStatus) *env {
	t.Helper()

	log := logger.NewWithWriter(io.Discard, logger.LevelError)
	l := ledger.New(log)
	require.NoError(t, l.AddSlot(&domain.ParkingSlot{ID: 5, LocationID: 1, Code: "B-05", Status: domain.SlotAvailable}))

	window := domain.TimeWindow{Start: start, End: start.Add(2 * time.Hour)}
	token, err := l.TryReserve(context.Background(), 5, window)
	require.NoError(t, err)
	require.NoError(t, l.Assign(token, 1))

	e := &env{
		bookings: &memBookings{rows: map[int64]domain.Booking{
			1: {
				ID:               1,
				UserID:           7,
				VehiclePlate:     "A123BC",
				SlotID:           5,
				LocationID:       1,
				Window:           window,
				DurationType:     domain.DurationHourly,
				Rate:             domain.RateSchedule{LocationID: 1, Hourly: decimal.NewFromInt(100)},
				Status:           status,
				ReservationToken: token,
				EstimatedAmount:  decimal.NewFromInt(200),
				TotalAmount:      decimal.NewFromInt(200),
				PaymentRef:       ptr.Ptr("txn-9"),
			},
		}},
		entries: &memEntries{},
		ledger:  l,
		rec:     &recorder{},
	}

	e.proc = NewProcessor(Dependencies{
		Bookings:   e.bookings,
		Entries:    e.entries,
		Slots:      memSlots{},
		Ledger:     l,
		Fees:       fees.NewCalculator(),
		Payments:   e.rec,
		Notifier:   e.rec,
		Dispatcher: inlineDispatcher{},
		TxManager:  txmanager.NewLocal(),
		Metrics:    nopMetrics{},
		Logger:     log,
	})
	return e
}

func (e *env) slotStatus(t *testing.T) domain.SlotStatus {
	t.Helper()
	s, err := e.ledger.Slot(5)
	require.NoError(t, err)
	return s.Status
}

func TestProcessEntry(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, domain.StatusConfirmed)

	entry, err := e.proc.ProcessEntry(ctx, 1, "a 123-bc", "north", start.Add(5*time.Minute))
	require.NoError(t, err)

	assert.Equal(t, "A123BC", entry.Plate)
	assert.Equal(t, int64(5), entry.SlotID)
	assert.Equal(t, domain.SlotOccupied, e.slotStatus(t))

	stored := e.bookings.get(1)
	assert.Equal(t, domain.StatusActive, stored.Status)
	require.NotNil(t, stored.EntryTime)
	assert.Equal(t, start.Add(5*time.Minute), *stored.EntryTime)
	assert.Equal(t, []string{domain.EventVehicleEntered}, e.rec.events)

	_, err = e.proc.ProcessEntry(ctx, 1, "A123BC", "north", start.Add(6*time.Minute))
	assert.ErrorIs(t, err, domain.ErrDuplicateEntry)
	assert.Len(t, e.entries.entries, 1)
}

func TestProcessEntry_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("pending booking", func(t *testing.T) {
		e := newEnv(t, domain.StatusPending)
		_, err := e.proc.ProcessEntry(ctx, 1, "A123BC", "north", start)
		assert.ErrorIs(t, err, domain.ErrBookingNotActive)
		assert.Equal(t, domain.SlotReserved, e.slotStatus(t))
	})

	t.Run("plate mismatch", func(t *testing.T) {
		e := newEnv(t, domain.StatusConfirmed)
		_, err := e.proc.ProcessEntry(ctx, 1, "X999XX", "north", start)
		assert.ErrorIs(t, err, domain.ErrPlateMismatch)
		assert.Equal(t, domain.SlotReserved, e.slotStatus(t))
		assert.Empty(t, e.entries.entries)
	})

	t.Run("unknown booking", func(t *testing.T) {
		e := newEnv(t, domain.StatusConfirmed)
		_, err := e.proc.ProcessEntry(ctx, 42, "A123BC", "north", start)
		assert.ErrorIs(t, err, domain.ErrBookingNotFound)
	})

	t.Run("empty gate", func(t *testing.T) {
		e := newEnv(t, domain.StatusConfirmed)
		_, err := e.proc.ProcessEntry(ctx, 1, "A123BC", "", start)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("entry already stored by a parallel request", func(t *testing.T) {
		e := newEnv(t, domain.StatusConfirmed)
		e.entries.failEntry = gateRepo.ErrDuplicateEntry

		_, err := e.proc.ProcessEntry(ctx, 1, "A123BC", "north", start)
		assert.ErrorIs(t, err, domain.ErrDuplicateEntry)
		assert.Equal(t, domain.SlotReserved, e.slotStatus(t))
		assert.Equal(t, domain.StatusConfirmed, e.bookings.get(1).Status)
	})

	t.Run("save failure leaves slot reserved", func(t *testing.T) {
		e := newEnv(t, domain.StatusConfirmed)
		e.entries.failEntry = errors.New("disk full")

		_, err := e.proc.ProcessEntry(ctx, 1, "A123BC", "north", start)
		assert.ErrorIs(t, err, ErrInternal)
		assert.Equal(t, domain.SlotReserved, e.slotStatus(t))
	})
}

func TestProcessExit(t *testing.T) {
	ctx := context.Background()

	t.Run("overstay is charged on top of reserved time", func(t *testing.T) {
		e := newEnv(t, domain.StatusConfirmed)
		_, err := e.proc.ProcessEntry(ctx, 1, "A123BC", "north", start)
		require.NoError(t, err)

		exit, charges, err := e.proc.ProcessExit(ctx, "a123bc", "south", start.Add(2*time.Hour+time.Minute))
		require.NoError(t, err)

		assert.Equal(t, 121, exit.DurationMinutes)
		assert.Equal(t, "300.00", charges.Total.StringFixed(2))
		assert.Equal(t, "200.00", charges.ReservedAmount.StringFixed(2))
		assert.True(t, charges.Total.Equal(exit.Amount))

		stored := e.bookings.get(1)
		assert.Equal(t, domain.StatusCompleted, stored.Status)
		assert.Equal(t, "300.00", stored.TotalAmount.StringFixed(2))
		require.NotNil(t, stored.ExitTime)

		assert.Equal(t, domain.SlotAvailable, e.slotStatus(t))
		assert.Equal(t, []string{"txn-9"}, e.rec.captured)
		assert.Equal(t, []string{domain.EventVehicleEntered, domain.EventVehicleExited}, e.rec.events)

		_, _, err = e.proc.ProcessExit(ctx, "A123BC", "south", start.Add(3*time.Hour))
		assert.ErrorIs(t, err, domain.ErrNoActiveSession)
	})

	t.Run("early exit pays the reserved amount", func(t *testing.T) {
		e := newEnv(t, domain.StatusConfirmed)
		_, err := e.proc.ProcessEntry(ctx, 1, "A123BC", "north", start)
		require.NoError(t, err)

		_, charges, err := e.proc.ProcessExit(ctx, "A123BC", "south", start.Add(20*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, 20, charges.DurationMinutes)
		assert.Equal(t, "100.00", charges.Subtotal.StringFixed(2))
		assert.Equal(t, "200.00", charges.Total.StringFixed(2))
	})

	t.Run("clock skew is clamped to one minute", func(t *testing.T) {
		e := newEnv(t, domain.StatusConfirmed)
		_, err := e.proc.ProcessEntry(ctx, 1, "A123BC", "north", start)
		require.NoError(t, err)

		exit, _, err := e.proc.ProcessExit(ctx, "A123BC", "south", start.Add(-time.Minute))
		require.NoError(t, err)
		assert.Equal(t, 1, exit.DurationMinutes)
	})

	t.Run("booking already completed by a parallel exit", func(t *testing.T) {
		e := newEnv(t, domain.StatusConfirmed)
		_, err := e.proc.ProcessEntry(ctx, 1, "A123BC", "north", start)
		require.NoError(t, err)

		// Открытая запись въезда прочитана до того, как другой выезд завершил бронь
		stale := e.bookings.get(1)
		stale.Status = domain.StatusCompleted
		require.NoError(t, e.bookings.Update(ctx, &stale))

		_, _, err = e.proc.ProcessExit(ctx, "A123BC", "south", start.Add(time.Hour))
		assert.ErrorIs(t, err, domain.ErrNoActiveSession)
		assert.Empty(t, e.entries.exits)
		assert.Equal(t, domain.SlotOccupied, e.slotStatus(t))
		assert.Empty(t, e.rec.captured)
	})

	t.Run("no session", func(t *testing.T) {
		e := newEnv(t, domain.StatusConfirmed)
		_, _, err := e.proc.ProcessExit(ctx, "A123BC", "south", start)
		assert.ErrorIs(t, err, domain.ErrNoActiveSession)
		assert.Equal(t, domain.SlotReserved, e.slotStatus(t))
	})
}

func TestParkedMinutes(t *testing.T) {
	assert.Equal(t, 1, parkedMinutes(start, start))
	assert.Equal(t, 1, parkedMinutes(start, start.Add(10*time.Second)))
	assert.Equal(t, 61, parkedMinutes(start, start.Add(60*time.Minute+time.Second)))
	assert.Equal(t, 1, parkedMinutes(start, start.Add(-time.Hour)))
}
