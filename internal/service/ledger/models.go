package ledger

import (
	"sync"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

// Reservation claim на слот на временное окно
type Reservation struct {
	Token     uuid.UUID
	SlotID    int64
	BookingID int64 // 0, пока бронирование не сохранено
	Window    domain.TimeWindow
}

// slotState состояние одного слота
// Все поля защищены mu; блокировка на уровне слота, а не всего леджера
//
// Снятие резерва и освобождение слота внутри транзакции видны сразу в статусе,
// но сам резерв остаётся в reservations с отметкой releasing до коммита:
// он по-прежнему участвует в conflicts, и окно нельзя занять до фиксации.
type slotState struct {
	mu           sync.Mutex
	slot         *domain.ParkingSlot
	reservations map[uuid.UUID]*Reservation
	releasing    map[uuid.UUID]struct{}
	occupant     *uuid.UUID
	vacating     *uuid.UUID // occupant, чей выезд ещё не зафиксирован
}

func newSlotState(slot *domain.ParkingSlot) *slotState {
	return &slotState{
		slot:         slot,
		reservations: make(map[uuid.UUID]*Reservation),
		releasing:    make(map[uuid.UUID]struct{}),
	}
}

// held true, если слот занят или выезд из него ещё не зафиксирован
func (s *slotState) held() bool {
	return s.occupant != nil || s.vacating != nil
}

func (s *slotState) isReleasing(token uuid.UUID) bool {
	_, ok := s.releasing[token]
	return ok
}

// settle приводит статус свободного слота в соответствие с набором резервов:
// reserved, если есть хотя бы один резерв, не снимаемый сейчас, иначе available.
// Занятые и выведенные из эксплуатации слоты не трогает.
func (s *slotState) settle() {
	if s.slot.Status != domain.SlotAvailable && s.slot.Status != domain.SlotReserved {
		return
	}
	if len(s.reservations) > len(s.releasing) {
		s.slot.Status = domain.SlotReserved
	} else {
		s.slot.Status = domain.SlotAvailable
	}
}

// conflicts возвращает true, если окно пересекается с резервом, отличным от skip
// Резервы в процессе снятия тоже считаются
func (s *slotState) conflicts(window domain.TimeWindow, skip uuid.UUID) bool {
	for token, r := range s.reservations {
		if token == skip {
			continue
		}
		if r.Window.Overlaps(window) {
			return true
		}
	}
	return false
}
