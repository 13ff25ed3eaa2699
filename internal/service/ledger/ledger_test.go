package ledger

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/pkg/logger"
	"github.com/m04kA/SMC-ParkingService/pkg/txmanager"
)

var base = time.Date(2026, 10, 20, 10, 0, 0, 0, time.UTC)

func window(fromHour, toHour float64) domain.TimeWindow {
	return domain.TimeWindow{
		Start: base.Add(time.Duration(fromHour * float64(time.Hour))),
		End:   base.Add(time.Duration(toHour * float64(time.Hour))),
	}
}

func newLedger(t *testing.T, slotIDs ...int64) *Ledger {
	t.Helper()
	l := New(logger.NewWithWriter(io.Discard, logger.LevelError))
	for _, id := range slotIDs {
		require.NoError(t, l.AddSlot(&domain.ParkingSlot{
			ID:         id,
			LocationID: 1,
			Code:       "A-1",
			Type:       domain.SlotTypeRegular,
			Status:     domain.SlotAvailable,
		}))
	}
	return l
}

func slotStatus(t *testing.T, l *Ledger, slotID int64) domain.SlotStatus {
	t.Helper()
	s, err := l.Slot(slotID)
	require.NoError(t, err)
	return s.Status
}

func TestTryReserve(t *testing.T) {
	ctx := context.Background()

	t.Run("overlapping window is rejected", func(t *testing.T) {
		l := newLedger(t, 1)
		_, err := l.TryReserve(ctx, 1, window(0, 2))
		require.NoError(t, err)

		_, err = l.TryReserve(ctx, 1, window(1, 3))
		assert.ErrorIs(t, err, domain.ErrSlotUnavailable)
		assert.Equal(t, domain.SlotReserved, slotStatus(t, l, 1))
	})

	t.Run("touching windows do not overlap", func(t *testing.T) {
		l := newLedger(t, 1)
		_, err := l.TryReserve(ctx, 1, window(0, 2))
		require.NoError(t, err)

		_, err = l.TryReserve(ctx, 1, window(2, 4))
		assert.NoError(t, err)
		_, err = l.TryReserve(ctx, 1, window(-1, 0))
		assert.NoError(t, err)
	})

	t.Run("unknown slot", func(t *testing.T) {
		l := newLedger(t)
		_, err := l.TryReserve(ctx, 42, window(0, 1))
		assert.ErrorIs(t, err, domain.ErrSlotNotFound)
	})

	t.Run("empty window", func(t *testing.T) {
		l := newLedger(t, 1)
		_, err := l.TryReserve(ctx, 1, window(1, 1))
		assert.ErrorIs(t, err, domain.ErrInvalidWindow)
	})

	t.Run("maintenance and blocked slots are unavailable", func(t *testing.T) {
		l := newLedger(t, 1, 2)
		require.NoError(t, l.SetMaintenance(ctx, 1, true))
		require.NoError(t, l.SetBlocked(ctx, 2, true))

		_, err := l.TryReserve(ctx, 1, window(0, 1))
		assert.ErrorIs(t, err, domain.ErrSlotUnavailable)
		_, err = l.TryReserve(ctx, 2, window(0, 1))
		assert.ErrorIs(t, err, domain.ErrSlotUnavailable)
	})
}

func TestTryReserve_ConcurrentSameSlot(t *testing.T) {
	l := newLedger(t, 1)

	const workers = 50
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)

	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			// Все окна пересекаются в точке 10:30
			from := float64(i%5) * 0.1
			_, err := l.TryReserve(context.Background(), 1, window(from, from+1))
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, domain.ErrSlotUnavailable)
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Len(t, l.Reservations(1), 1)
}

func TestRelease_Idempotent(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, 1)

	token, err := l.TryReserve(ctx, 1, window(0, 1))
	require.NoError(t, err)

	require.NoError(t, l.Release(ctx, token))
	afterFirst := l.Reservations(1)
	statusAfterFirst := slotStatus(t, l, 1)

	require.NoError(t, l.Release(ctx, token))
	assert.Equal(t, afterFirst, l.Reservations(1))
	assert.Equal(t, statusAfterFirst, slotStatus(t, l, 1))
	assert.Equal(t, domain.SlotAvailable, statusAfterFirst)

	assert.NoError(t, l.Release(ctx, uuid.New()), "unknown token is a no-op")
}

func TestRelease_OccupiedTokenRejected(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, 1)

	token, err := l.TryReserve(ctx, 1, window(0, 1))
	require.NoError(t, err)
	require.NoError(t, l.Occupy(ctx, token))

	assert.ErrorIs(t, l.Release(ctx, token), domain.ErrInvalidTransition)
}

func TestExtend(t *testing.T) {
	ctx := context.Background()

	t.Run("extends into free time", func(t *testing.T) {
		l := newLedger(t, 1)
		token, err := l.TryReserve(ctx, 1, window(0, 2))
		require.NoError(t, err)

		require.NoError(t, l.Extend(ctx, token, base.Add(3*time.Hour)))
		r, ok := l.Reservation(token)
		require.True(t, ok)
		assert.Equal(t, base.Add(3*time.Hour), r.Window.End)
	})

	t.Run("collision leaves reservation unchanged", func(t *testing.T) {
		l := newLedger(t, 1)
		token, err := l.TryReserve(ctx, 1, window(0, 2))
		require.NoError(t, err)
		_, err = l.TryReserve(ctx, 1, window(3, 4))
		require.NoError(t, err)

		err = l.Extend(ctx, token, base.Add(3*time.Hour+30*time.Minute))
		assert.ErrorIs(t, err, domain.ErrSlotUnavailable)

		r, _ := l.Reservation(token)
		assert.Equal(t, base.Add(2*time.Hour), r.Window.End)
	})

	t.Run("up to the next reservation is allowed", func(t *testing.T) {
		l := newLedger(t, 1)
		token, err := l.TryReserve(ctx, 1, window(0, 2))
		require.NoError(t, err)
		_, err = l.TryReserve(ctx, 1, window(3, 4))
		require.NoError(t, err)

		assert.NoError(t, l.Extend(ctx, token, base.Add(3*time.Hour)))
	})

	t.Run("new end must be later", func(t *testing.T) {
		l := newLedger(t, 1)
		token, err := l.TryReserve(ctx, 1, window(0, 2))
		require.NoError(t, err)

		assert.ErrorIs(t, l.Extend(ctx, token, base.Add(time.Hour)), domain.ErrInvalidWindow)
	})

	t.Run("unknown token", func(t *testing.T) {
		l := newLedger(t, 1)
		assert.ErrorIs(t, l.Extend(ctx, uuid.New(), base), ErrReservationNotFound)
	})
}

func TestOccupyVacate(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, 1)

	first, err := l.TryReserve(ctx, 1, window(0, 1))
	require.NoError(t, err)
	require.NoError(t, l.Assign(first, 100))
	second, err := l.TryReserve(ctx, 1, window(2, 3))
	require.NoError(t, err)

	require.NoError(t, l.Occupy(ctx, first))
	slot, err := l.Slot(1)
	require.NoError(t, err)
	assert.Equal(t, domain.SlotOccupied, slot.Status)
	require.NotNil(t, slot.OccupantBookingID)
	assert.Equal(t, int64(100), *slot.OccupantBookingID)

	assert.NoError(t, l.Occupy(ctx, first), "same token is a no-op")
	assert.ErrorIs(t, l.Occupy(ctx, second), domain.ErrInvalidTransition)
	assert.ErrorIs(t, l.Vacate(ctx, second), domain.ErrInvalidTransition)

	require.NoError(t, l.Vacate(ctx, first))
	assert.Equal(t, domain.SlotReserved, slotStatus(t, l, 1), "second reservation still pending")
	_, ok := l.Reservation(first)
	assert.False(t, ok)

	require.NoError(t, l.Release(ctx, second))
	assert.Equal(t, domain.SlotAvailable, slotStatus(t, l, 1))
}

func TestOccupy_MaintenanceRejected(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, 1)

	token, err := l.TryReserve(ctx, 1, window(0, 1))
	require.NoError(t, err)
	require.NoError(t, l.SetMaintenance(ctx, 1, true))

	assert.ErrorIs(t, l.Occupy(ctx, token), domain.ErrInvalidTransition)
}

func TestSetMaintenance(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, 1)

	token, err := l.TryReserve(ctx, 1, window(0, 1))
	require.NoError(t, err)
	require.NoError(t, l.Occupy(ctx, token))

	assert.ErrorIs(t, l.SetMaintenance(ctx, 1, true), domain.ErrSlotOccupied)

	require.NoError(t, l.Vacate(ctx, token))
	require.NoError(t, l.SetMaintenance(ctx, 1, true))
	assert.Equal(t, domain.SlotMaintenance, slotStatus(t, l, 1))

	require.NoError(t, l.SetMaintenance(ctx, 1, false))
	assert.Equal(t, domain.SlotAvailable, slotStatus(t, l, 1))

	assert.ErrorIs(t, l.SetMaintenance(ctx, 9, true), domain.ErrSlotNotFound)
}

func TestRollbackRestoresLedger(t *testing.T) {
	tx := txmanager.NewLocal()
	l := newLedger(t, 1)
	boom := errors.New("save failed")

	err := tx.Do(context.Background(), func(ctx context.Context) error {
		_, err := l.TryReserve(ctx, 1, window(0, 2))
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	assert.Empty(t, l.Reservations(1))
	assert.Equal(t, domain.SlotAvailable, slotStatus(t, l, 1))

	// Слот снова можно забронировать на то же окно
	_, err = l.TryReserve(context.Background(), 1, window(0, 2))
	assert.NoError(t, err)
}

func TestRollbackRestoresOccupyAndExtend(t *testing.T) {
	tx := txmanager.NewLocal()
	l := newLedger(t, 1)

	token, err := l.TryReserve(context.Background(), 1, window(0, 2))
	require.NoError(t, err)

	err = tx.Do(context.Background(), func(ctx context.Context) error {
		require.NoError(t, l.Occupy(ctx, token))
		require.NoError(t, l.Extend(ctx, token, base.Add(5*time.Hour)))
		return errors.New("abort")
	})
	require.Error(t, err)

	assert.Equal(t, domain.SlotReserved, slotStatus(t, l, 1))
	r, ok := l.Reservation(token)
	require.True(t, ok)
	assert.Equal(t, base.Add(2*time.Hour), r.Window.End)
}

func TestRollbackRestoresVacate(t *testing.T) {
	tx := txmanager.NewLocal()
	l := newLedger(t, 1)

	token, err := l.TryReserve(context.Background(), 1, window(0, 2))
	require.NoError(t, err)
	require.NoError(t, l.Assign(token, 7))
	require.NoError(t, l.Occupy(context.Background(), token))

	err = tx.Do(context.Background(), func(ctx context.Context) error {
		require.NoError(t, l.Vacate(ctx, token))
		return errors.New("abort")
	})
	require.Error(t, err)

	slot, err := l.Slot(1)
	require.NoError(t, err)
	assert.Equal(t, domain.SlotOccupied, slot.Status)
	require.NotNil(t, slot.OccupantBookingID)
	assert.Equal(t, int64(7), *slot.OccupantBookingID)
	_, ok := l.Reservation(token)
	assert.True(t, ok)
}

func assertNoOverlap(t *testing.T, l *Ledger, slotID int64) {
	t.Helper()
	rs := l.Reservations(slotID)
	for i := range rs {
		for j := i + 1; j < len(rs); j++ {
			assert.False(t, rs[i].Window.Overlaps(rs[j].Window),
				"overlapping reservations %v / %v", rs[i].Window, rs[j].Window)
		}
	}
}

func TestRelease_WindowHeldUntilCommit(t *testing.T) {
	tx := txmanager.NewLocal()
	bg := context.Background()

	t.Run("rollback keeps the reservation and nothing overlaps it", func(t *testing.T) {
		l := newLedger(t, 1)
		token, err := l.TryReserve(bg, 1, window(0, 2))
		require.NoError(t, err)

		err = tx.Do(bg, func(ctx context.Context) error {
			require.NoError(t, l.Release(ctx, token))
			assert.Equal(t, domain.SlotAvailable, slotStatus(t, l, 1))

			_, err := l.TryReserve(bg, 1, window(0.5, 1.5))
			assert.ErrorIs(t, err, domain.ErrSlotUnavailable)

			_, err = l.TryReserve(bg, 1, window(3, 4))
			require.NoError(t, err)
			return errors.New("update failed")
		})
		require.Error(t, err)

		assert.Len(t, l.Reservations(1), 2)
		assertNoOverlap(t, l, 1)
		_, ok := l.Reservation(token)
		assert.True(t, ok)
		assert.Equal(t, domain.SlotReserved, slotStatus(t, l, 1))
	})

	t.Run("commit frees the window", func(t *testing.T) {
		l := newLedger(t, 1)
		token, err := l.TryReserve(bg, 1, window(0, 2))
		require.NoError(t, err)

		require.NoError(t, tx.Do(bg, func(ctx context.Context) error {
			return l.Release(ctx, token)
		}))

		_, ok := l.Reservation(token)
		assert.False(t, ok)
		_, err = l.TryReserve(bg, 1, window(0.5, 1.5))
		assert.NoError(t, err)
	})
}

func TestVacate_WindowHeldUntilCommit(t *testing.T) {
	tx := txmanager.NewLocal()
	bg := context.Background()
	l := newLedger(t, 1)

	token, err := l.TryReserve(bg, 1, window(0, 2))
	require.NoError(t, err)
	require.NoError(t, l.Assign(token, 7))
	require.NoError(t, l.Occupy(bg, token))

	err = tx.Do(bg, func(ctx context.Context) error {
		require.NoError(t, l.Vacate(ctx, token))

		_, err := l.TryReserve(bg, 1, window(1, 3))
		assert.ErrorIs(t, err, domain.ErrSlotUnavailable)
		assert.ErrorIs(t, l.SetMaintenance(bg, 1, true), domain.ErrSlotOccupied)
		return errors.New("abort")
	})
	require.Error(t, err)

	assert.Len(t, l.Reservations(1), 1)
	slot, err := l.Slot(1)
	require.NoError(t, err)
	assert.Equal(t, domain.SlotOccupied, slot.Status)
	require.NotNil(t, slot.OccupantBookingID)
	assert.Equal(t, int64(7), *slot.OccupantBookingID)

	require.NoError(t, tx.Do(bg, func(ctx context.Context) error {
		return l.Vacate(ctx, token)
	}))
	assert.Empty(t, l.Reservations(1))
	assert.Equal(t, domain.SlotAvailable, slotStatus(t, l, 1))
	assert.NoError(t, l.SetMaintenance(bg, 1, true))
}

func TestSetOutOfService_RollbackRestoresFlag(t *testing.T) {
	tx := txmanager.NewLocal()
	bg := context.Background()

	t.Run("maintenance off rolled back after a new reservation", func(t *testing.T) {
		l := newLedger(t, 1)
		require.NoError(t, l.SetMaintenance(bg, 1, true))

		err := tx.Do(bg, func(ctx context.Context) error {
			require.NoError(t, l.SetMaintenance(ctx, 1, false))
			_, err := l.TryReserve(bg, 1, window(0, 1))
			require.NoError(t, err)
			assert.Equal(t, domain.SlotReserved, slotStatus(t, l, 1))
			return errors.New("persist failed")
		})
		require.Error(t, err)

		assert.Equal(t, domain.SlotMaintenance, slotStatus(t, l, 1))
	})

	t.Run("block on rolled back keeps maintenance", func(t *testing.T) {
		l := newLedger(t, 1)
		require.NoError(t, l.SetMaintenance(bg, 1, true))

		err := tx.Do(bg, func(ctx context.Context) error {
			require.NoError(t, l.SetBlocked(ctx, 1, true))
			return errors.New("persist failed")
		})
		require.Error(t, err)

		assert.Equal(t, domain.SlotMaintenance, slotStatus(t, l, 1))
	})
}

func TestAvailable(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, 1, 2, 3)
	ev := domain.VehicleElectric
	require.NoError(t, l.AddSlot(&domain.ParkingSlot{
		ID: 4, LocationID: 1, Type: domain.SlotTypeElectric,
		VehicleTypes: []domain.VehicleType{domain.VehicleElectric},
	}))

	_, err := l.TryReserve(ctx, 1, window(0, 2))
	require.NoError(t, err)
	require.NoError(t, l.SetMaintenance(ctx, 2, true))

	free, err := l.Available(window(1, 3), domain.SlotFilter{LocationID: 1})
	require.NoError(t, err)
	ids := make([]int64, 0, len(free))
	for _, s := range free {
		ids = append(ids, s.SlotID)
	}
	assert.Equal(t, []int64{3, 4}, ids)

	electricType := domain.SlotTypeElectric
	free, err = l.Available(window(1, 3), domain.SlotFilter{SlotType: &electricType, VehicleType: &ev})
	require.NoError(t, err)
	require.Len(t, free, 1)
	assert.Equal(t, int64(4), free[0].SlotID)
}

func TestRestore(t *testing.T) {
	l := New(logger.NewWithWriter(io.Discard, logger.LevelError))
	occupant := int64(11)

	slots := []*domain.ParkingSlot{
		{ID: 1, LocationID: 1, Status: domain.SlotOccupied, OccupantBookingID: &occupant},
		{ID: 2, LocationID: 1, Status: domain.SlotAvailable},
	}
	active := uuid.New()
	reservations := []Reservation{
		{Token: active, SlotID: 1, BookingID: 11, Window: window(0, 2)},
		{Token: uuid.New(), SlotID: 1, BookingID: 12, Window: window(1, 3)}, // пересекается - пропускается
		{Token: uuid.New(), SlotID: 2, BookingID: 13, Window: window(4, 5)},
	}

	require.NoError(t, l.Restore(slots, reservations))

	assert.Len(t, l.Reservations(1), 1)
	assert.Equal(t, domain.SlotOccupied, slotStatus(t, l, 1))
	assert.Equal(t, domain.SlotReserved, slotStatus(t, l, 2))
	assert.NoError(t, l.Vacate(context.Background(), active))
}
