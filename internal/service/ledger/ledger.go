package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/pkg/ptr"
	"github.com/m04kA/SMC-ParkingService/pkg/txmanager"
)

// Ledger единственный источник истины о занятости слотов
//
// Каждый слот защищён собственным мьютексом: операции над разными слотами
// не блокируют друг друга, операции над одним слотом строго последовательны.
// Если контекст несёт unit of work (см. txmanager), каждая мутация регистрирует
// обратную операцию, и откат транзакции возвращает леджер в исходное состояние.
type Ledger struct {
	mu     sync.RWMutex // защищает только карту slots
	slots  map[int64]*slotState
	tokens sync.Map // uuid.UUID -> int64 (slotID)

	newToken func() uuid.UUID
	logger   Logger
}

// New создает пустой леджер
func New(logger Logger) *Ledger {
	return &Ledger{
		slots:    make(map[int64]*slotState),
		newToken: uuid.New,
		logger:   logger,
	}
}

// AddSlot регистрирует слот или обновляет его метаданные (тип, поддерживаемый транспорт)
// Статус и резервы существующего слота не меняются
func (l *Ledger) AddSlot(slot *domain.ParkingSlot) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if st, ok := l.slots[slot.ID]; ok {
		st.mu.Lock()
		defer st.mu.Unlock()
		if st.slot.LocationID != slot.LocationID {
			return ErrSlotExists
		}
		st.slot.Code = slot.Code
		st.slot.Type = slot.Type
		st.slot.VehicleTypes = append([]domain.VehicleType(nil), slot.VehicleTypes...)
		return nil
	}

	s := slot.Clone()
	if s.Status == "" {
		s.Status = domain.SlotAvailable
	}
	s.OccupantBookingID = nil
	l.slots[slot.ID] = newSlotState(s)
	return nil
}

// Restore загружает состояние из хранилища при старте сервиса
// Пересекающиеся резервы (наследие старых данных) пропускаются с предупреждением
func (l *Ledger) Restore(slots []*domain.ParkingSlot, reservations []Reservation) error {
	for _, slot := range slots {
		if err := l.AddSlot(slot); err != nil {
			return err
		}
	}

	sorted := append([]Reservation(nil), reservations...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Window.Start.Before(sorted[j].Window.Start)
	})

	occupants := make(map[int64]int64, len(slots))
	for _, slot := range slots {
		if slot.OccupantBookingID != nil {
			occupants[slot.ID] = *slot.OccupantBookingID
		}
	}

	for i := range sorted {
		r := sorted[i]
		st, ok := l.state(r.SlotID)
		if !ok {
			l.logger.Warn("Restore: reservation for unknown slot=%d booking=%d skipped", r.SlotID, r.BookingID)
			continue
		}

		st.mu.Lock()
		if st.conflicts(r.Window, uuid.Nil) {
			st.mu.Unlock()
			l.logger.Warn("Restore: overlapping reservation slot=%d booking=%d skipped", r.SlotID, r.BookingID)
			continue
		}
		st.reservations[r.Token] = &r
		if bookingID, ok := occupants[r.SlotID]; ok && bookingID == r.BookingID {
			token := r.Token
			st.occupant = &token
			st.slot.Status = domain.SlotOccupied
			st.slot.OccupantBookingID = &bookingID
		}
		st.settle()
		st.mu.Unlock()

		l.tokens.Store(r.Token, r.SlotID)
	}

	l.logger.Info("Restore: ledger loaded slots=%d reservations=%d", len(slots), len(sorted))
	return nil
}

// TryReserve атомарно проверяет, что слот свободен на окно, и ставит резерв
func (l *Ledger) TryReserve(ctx context.Context, slotID int64, window domain.TimeWindow) (uuid.UUID, error) {
	if !window.IsValid() {
		return uuid.Nil, domain.ErrInvalidWindow
	}

	st, ok := l.state(slotID)
	if !ok {
		return uuid.Nil, domain.ErrSlotNotFound
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.slot.IsOutOfService() {
		return uuid.Nil, domain.ErrSlotUnavailable
	}
	if st.conflicts(window, uuid.Nil) {
		return uuid.Nil, domain.ErrSlotUnavailable
	}

	token := l.newToken()
	st.reservations[token] = &Reservation{Token: token, SlotID: slotID, Window: window}
	st.settle()
	l.tokens.Store(token, slotID)

	txmanager.OnRollback(ctx, func() {
		st.mu.Lock()
		defer st.mu.Unlock()
		delete(st.reservations, token)
		delete(st.releasing, token)
		l.tokens.Delete(token)
		st.settle()
	})

	return token, nil
}

// Assign привязывает резерв к сохранённому бронированию
func (l *Ledger) Assign(token uuid.UUID, bookingID int64) error {
	st, ok := l.stateByToken(token)
	if !ok {
		return ErrReservationNotFound
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	r, ok := st.reservations[token]
	if !ok {
		return ErrReservationNotFound
	}
	r.BookingID = bookingID
	return nil
}

// Release снимает резерв. Повторный вызов ничего не делает
//
// Внутри транзакции резерв удаляется только после коммита, до этого окно остаётся занятым
func (l *Ledger) Release(ctx context.Context, token uuid.UUID) error {
	st, ok := l.stateByToken(token)
	if !ok {
		return nil
	}

	st.mu.Lock()
	if _, ok := st.reservations[token]; !ok || st.isReleasing(token) {
		st.mu.Unlock()
		return nil
	}
	if st.occupant != nil && *st.occupant == token {
		st.mu.Unlock()
		return domain.ErrInvalidTransition
	}

	st.releasing[token] = struct{}{}
	st.settle()
	st.mu.Unlock()

	txmanager.OnRollback(ctx, func() {
		st.mu.Lock()
		defer st.mu.Unlock()
		delete(st.releasing, token)
		st.settle()
	})
	txmanager.OnCommit(ctx, func() {
		l.drop(st, token)
	})

	return nil
}

// Extend переносит конец резерва на newEnd
// Проверяется только добавляемый участок [oldEnd, newEnd); при конфликте ничего не меняется
func (l *Ledger) Extend(ctx context.Context, token uuid.UUID, newEnd time.Time) error {
	st, ok := l.stateByToken(token)
	if !ok {
		return ErrReservationNotFound
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	r, ok := st.reservations[token]
	if !ok || st.isReleasing(token) {
		return ErrReservationNotFound
	}

	oldEnd := r.Window.End
	if !newEnd.After(oldEnd) {
		return domain.ErrInvalidWindow
	}
	if st.slot.IsOutOfService() {
		return domain.ErrSlotUnavailable
	}

	delta := domain.TimeWindow{Start: oldEnd, End: newEnd}
	if st.conflicts(delta, token) {
		return domain.ErrSlotUnavailable
	}

	r.Window.End = newEnd

	txmanager.OnRollback(ctx, func() {
		st.mu.Lock()
		defer st.mu.Unlock()
		r.Window.End = oldEnd
	})

	return nil
}

// Occupy переводит слот в occupied по резерву
// Повторный вызов с тем же токеном ничего не делает
func (l *Ledger) Occupy(ctx context.Context, token uuid.UUID) error {
	st, ok := l.stateByToken(token)
	if !ok {
		return ErrReservationNotFound
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	r, ok := st.reservations[token]
	if !ok {
		return ErrReservationNotFound
	}

	if st.occupant != nil {
		if *st.occupant == token {
			return nil
		}
		return domain.ErrInvalidTransition
	}
	if st.vacating != nil || st.isReleasing(token) {
		return domain.ErrInvalidTransition
	}
	if st.slot.Status != domain.SlotAvailable && st.slot.Status != domain.SlotReserved {
		return domain.ErrInvalidTransition
	}

	bookingID := r.BookingID
	st.occupant = &token
	st.slot.Status = domain.SlotOccupied
	st.slot.OccupantBookingID = &bookingID

	txmanager.OnRollback(ctx, func() {
		st.mu.Lock()
		defer st.mu.Unlock()
		if st.occupant == nil || *st.occupant != token {
			return
		}
		st.occupant = nil
		st.slot.OccupantBookingID = nil
		st.slot.Status = domain.SlotAvailable
		st.settle()
	})

	return nil
}

// Vacate освобождает слот и снимает резерв занявшего его бронирования
//
// До коммита слот помечен как освобождаемый: резерв продолжает держать окно,
// а обслуживание и повторное занятие отклоняются, поэтому откат всегда может вернуть occupied
func (l *Ledger) Vacate(ctx context.Context, token uuid.UUID) error {
	st, ok := l.stateByToken(token)
	if !ok {
		return domain.ErrInvalidTransition
	}

	st.mu.Lock()
	if st.occupant == nil || *st.occupant != token {
		st.mu.Unlock()
		return domain.ErrInvalidTransition
	}

	bookingID := ptr.Value(st.slot.OccupantBookingID)

	st.occupant = nil
	st.vacating = &token
	st.slot.OccupantBookingID = nil
	st.slot.Status = domain.SlotAvailable
	if _, ok := st.reservations[token]; ok {
		st.releasing[token] = struct{}{}
	}
	st.settle()
	st.mu.Unlock()

	txmanager.OnRollback(ctx, func() {
		st.mu.Lock()
		defer st.mu.Unlock()
		if st.vacating == nil || *st.vacating != token {
			return
		}
		delete(st.releasing, token)
		st.vacating = nil
		st.occupant = &token
		st.slot.OccupantBookingID = &bookingID
		st.slot.Status = domain.SlotOccupied
	})
	txmanager.OnCommit(ctx, func() {
		st.mu.Lock()
		if st.vacating != nil && *st.vacating == token {
			st.vacating = nil
		}
		st.mu.Unlock()
		l.drop(st, token)
	})

	return nil
}

// SetMaintenance включает или выключает режим обслуживания
func (l *Ledger) SetMaintenance(ctx context.Context, slotID int64, on bool) error {
	return l.setOutOfService(ctx, slotID, domain.SlotMaintenance, on)
}

// SetBlocked блокирует или разблокирует слот
func (l *Ledger) SetBlocked(ctx context.Context, slotID int64, on bool) error {
	return l.setOutOfService(ctx, slotID, domain.SlotBlocked, on)
}

func (l *Ledger) setOutOfService(ctx context.Context, slotID int64, target domain.SlotStatus, on bool) error {
	st, ok := l.state(slotID)
	if !ok {
		return domain.ErrSlotNotFound
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	prev := st.slot.Status

	if on {
		if st.held() {
			return domain.ErrSlotOccupied
		}
		if prev == target {
			return nil
		}
		st.slot.Status = target
	} else {
		if prev != target {
			return nil
		}
		st.slot.Status = domain.SlotAvailable
		st.settle()
	}

	txmanager.OnRollback(ctx, func() {
		st.mu.Lock()
		defer st.mu.Unlock()
		if on {
			if st.slot.Status == target {
				st.slot.Status = prev
				st.settle()
			}
			return
		}
		// Резервы, поставленные пока слот был доступен, режим не отменяет
		if !st.held() && !st.slot.IsOutOfService() {
			st.slot.Status = prev
		}
	})

	return nil
}

// Slot возвращает копию текущего состояния слота
func (l *Ledger) Slot(slotID int64) (*domain.ParkingSlot, error) {
	st, ok := l.state(slotID)
	if !ok {
		return nil, domain.ErrSlotNotFound
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	return st.slot.Clone(), nil
}

// Reservation возвращает копию резерва по токену
func (l *Ledger) Reservation(token uuid.UUID) (Reservation, bool) {
	st, ok := l.stateByToken(token)
	if !ok {
		return Reservation{}, false
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	r, ok := st.reservations[token]
	if !ok {
		return Reservation{}, false
	}
	return *r, true
}

// Reservations возвращает резервы слота, отсортированные по началу окна
func (l *Ledger) Reservations(slotID int64) []Reservation {
	st, ok := l.state(slotID)
	if !ok {
		return nil
	}

	st.mu.Lock()
	result := make([]Reservation, 0, len(st.reservations))
	for _, r := range st.reservations {
		result = append(result, *r)
	}
	st.mu.Unlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].Window.Start.Before(result[j].Window.Start)
	})
	return result
}

// Available возвращает слоты, свободные на всё окно, отсортированные по ID
func (l *Ledger) Available(window domain.TimeWindow, filter domain.SlotFilter) ([]domain.AvailableSlot, error) {
	if !window.IsValid() {
		return nil, domain.ErrInvalidWindow
	}

	l.mu.RLock()
	states := make([]*slotState, 0, len(l.slots))
	for _, st := range l.slots {
		states = append(states, st)
	}
	l.mu.RUnlock()

	result := make([]domain.AvailableSlot, 0)
	for _, st := range states {
		st.mu.Lock()
		free := filter.Matches(st.slot) && !st.slot.IsOutOfService() && !st.conflicts(window, uuid.Nil)
		if free {
			result = append(result, domain.AvailableSlot{
				SlotID:       st.slot.ID,
				LocationID:   st.slot.LocationID,
				Code:         st.slot.Code,
				Type:         st.slot.Type,
				VehicleTypes: append([]domain.VehicleType(nil), st.slot.VehicleTypes...),
			})
		}
		st.mu.Unlock()
	}

	sort.Slice(result, func(i, j int) bool { return result[i].SlotID < result[j].SlotID })
	return result, nil
}

// drop окончательно удаляет резерв после коммита
func (l *Ledger) drop(st *slotState, token uuid.UUID) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.reservations[token]; !ok {
		return
	}
	delete(st.reservations, token)
	delete(st.releasing, token)
	l.tokens.Delete(token)
	st.settle()
}

func (l *Ledger) state(slotID int64) (*slotState, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	st, ok := l.slots[slotID]
	return st, ok
}

func (l *Ledger) stateByToken(token uuid.UUID) (*slotState, bool) {
	v, ok := l.tokens.Load(token)
	if !ok {
		return nil, false
	}
	return l.state(v.(int64))
}
