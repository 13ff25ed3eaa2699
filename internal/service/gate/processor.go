package gate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/booking"
	gateRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/gate"
	"github.com/m04kA/SMC-ParkingService/internal/service/dispatch"
	"github.com/m04kA/SMC-ParkingService/pkg/txmanager"
)

const (
	directionEntry = "entry"
	directionExit  = "exit"
)

// Dependencies зависимости обработчика шлагбаумов
type Dependencies struct {
	Bookings   BookingRepository
	Entries    EntryRepository
	Slots      SlotRepository
	Ledger     SlotLedger
	Fees       FeeCalculator
	Payments   PaymentCollector
	Notifier   NotificationSink
	Dispatcher Dispatcher
	TxManager  TransactionManager
	Metrics    MetricsRecorder
	Logger     Logger
}

// Processor обрабатывает события въезда и выезда
type Processor struct {
	Dependencies
}

// NewProcessor создает обработчик событий шлагбаумов
func NewProcessor(deps Dependencies) *Processor {
	return &Processor{Dependencies: deps}
}

// ProcessEntry фиксирует въезд по подтверждённому бронированию
//
// Проверки выполняются в порядке: повторный въезд, статус бронирования, номер.
// Занятие слота, перевод брони в active и запись въезда выполняются в одной транзакции.
func (p *Processor) ProcessEntry(ctx context.Context, bookingID int64, plate, gateID string, now time.Time) (*domain.VehicleEntry, error) {
	p.Logger.Info("ProcessEntry: booking id=%d gate=%s", bookingID, gateID)

	entry, err := p.processEntry(ctx, bookingID, plate, gateID, now)
	p.Metrics.ObserveGate(directionEntry, outcomeOf(err))
	if err != nil {
		if errors.Is(err, ErrInternal) {
			p.Logger.Error("ProcessEntry: booking id=%d: %v", bookingID, err)
		} else {
			p.Logger.Warn("ProcessEntry: booking id=%d rejected: %v", bookingID, err)
		}
		return nil, err
	}

	p.Logger.Info("ProcessEntry: booking id=%d entered slot=%d entry id=%d", bookingID, entry.SlotID, entry.ID)
	return entry, nil
}

func (p *Processor) processEntry(ctx context.Context, bookingID int64, plate, gateID string, now time.Time) (*domain.VehicleEntry, error) {
	normalized, err := validateGateInput(plate, gateID)
	if err != nil {
		return nil, err
	}

	var created *domain.VehicleEntry
	err = p.TxManager.Do(ctx, func(ctx context.Context) error {
		booking, err := p.getBooking(ctx, bookingID)
		if err != nil {
			return err
		}

		_, err = p.Entries.GetOpenEntryByBooking(ctx, bookingID)
		switch {
		case err == nil:
			return domain.ErrDuplicateEntry
		case !errors.Is(err, gateRepo.ErrEntryNotFound):
			return fmt.Errorf("%w: ProcessEntry - get open entry: %v", ErrInternal, err)
		}

		if booking.Status != domain.StatusConfirmed {
			return domain.ErrBookingNotActive
		}

		if !domain.PlatesMatch(booking.VehiclePlate, normalized) {
			return domain.ErrPlateMismatch
		}

		if err := p.Ledger.Occupy(ctx, booking.ReservationToken); err != nil {
			if errors.Is(err, domain.ErrInvalidTransition) {
				return err
			}
			return fmt.Errorf("%w: ProcessEntry - occupy slot: %v", ErrInternal, err)
		}

		if err := booking.TransitionTo(domain.StatusActive); err != nil {
			return err
		}
		booking.EntryTime = &now

		if err := p.Bookings.Update(ctx, booking); err != nil {
			return fmt.Errorf("%w: ProcessEntry - update booking: %v", ErrInternal, err)
		}

		created, err = p.Entries.CreateEntry(ctx, &domain.VehicleEntry{
			BookingID: booking.ID,
			SlotID:    booking.SlotID,
			Plate:     normalized,
			GateID:    gateID,
			EntryTime: now,
		})
		if err != nil {
			if errors.Is(err, gateRepo.ErrDuplicateEntry) {
				return domain.ErrDuplicateEntry
			}
			return fmt.Errorf("%w: ProcessEntry - save entry: %v", ErrInternal, err)
		}

		if err := p.persistSlot(ctx, booking.SlotID); err != nil {
			return err
		}

		txmanager.OnCommit(ctx, func() {
			p.notify(booking.UserID, domain.EventVehicleEntered, map[string]interface{}{
				"booking_id": booking.ID,
				"slot_id":    booking.SlotID,
				"gate_id":    gateID,
				"entry_time": now.Format(time.RFC3339),
			})
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// ProcessExit закрывает последнюю открытую сессию номера и считает итоговую стоимость
//
// Итог равен максимуму из стоимости фактического времени и уже начисленной суммы брони:
// забронированное время оплачивается всегда, перерасход сверх него.
func (p *Processor) ProcessExit(ctx context.Context, plate, gateID string, now time.Time) (*domain.VehicleExit, *domain.Charges, error) {
	p.Logger.Info("ProcessExit: gate=%s", gateID)

	exit, charges, err := p.processExit(ctx, plate, gateID, now)
	p.Metrics.ObserveGate(directionExit, outcomeOf(err))
	if err != nil {
		if errors.Is(err, ErrInternal) {
			p.Logger.Error("ProcessExit: gate=%s: %v", gateID, err)
		} else {
			p.Logger.Warn("ProcessExit: gate=%s rejected: %v", gateID, err)
		}
		return nil, nil, err
	}

	p.Logger.Info("ProcessExit: booking id=%d exited, minutes=%d total=%s",
		exit.BookingID, exit.DurationMinutes, charges.Total.StringFixed(2))
	return exit, charges, nil
}

func (p *Processor) processExit(ctx context.Context, plate, gateID string, now time.Time) (*domain.VehicleExit, *domain.Charges, error) {
	normalized, err := validateGateInput(plate, gateID)
	if err != nil {
		return nil, nil, err
	}

	var (
		created *domain.VehicleExit
		charges *domain.Charges
	)
	err = p.TxManager.Do(ctx, func(ctx context.Context) error {
		entry, err := p.Entries.GetLatestOpenEntryByPlate(ctx, normalized)
		if err != nil {
			if errors.Is(err, gateRepo.ErrEntryNotFound) {
				return domain.ErrNoActiveSession
			}
			return fmt.Errorf("%w: ProcessExit - get open entry: %v", ErrInternal, err)
		}

		booking, err := p.getBooking(ctx, entry.BookingID)
		if err != nil {
			return err
		}
		// Параллельный выезд уже закрыл сессию, пока мы ждали блокировку брони
		if booking.Status != domain.StatusActive {
			return domain.ErrNoActiveSession
		}

		minutes := parkedMinutes(entry.EntryTime, now)

		breakdown, err := p.Fees.Breakdown(booking.Rate, minutes, booking.DurationType)
		if err != nil {
			return err
		}

		total := breakdown.Total
		if booking.TotalAmount.GreaterThan(total) {
			total = booking.TotalAmount
		}

		charges = &domain.Charges{
			DurationMinutes: minutes,
			DurationType:    booking.DurationType,
			Subtotal:        breakdown.Subtotal,
			Tax:             breakdown.Tax,
			Total:           total,
			ReservedAmount:  booking.TotalAmount,
		}

		if err := p.Ledger.Vacate(ctx, booking.ReservationToken); err != nil {
			if errors.Is(err, domain.ErrInvalidTransition) {
				return err
			}
			return fmt.Errorf("%w: ProcessExit - vacate slot: %v", ErrInternal, err)
		}

		if err := booking.TransitionTo(domain.StatusCompleted); err != nil {
			return err
		}
		booking.ExitTime = &now
		booking.TotalAmount = total

		if err := p.Bookings.Update(ctx, booking); err != nil {
			return fmt.Errorf("%w: ProcessExit - update booking: %v", ErrInternal, err)
		}

		created, err = p.Entries.CreateExit(ctx, &domain.VehicleExit{
			EntryID:         entry.ID,
			BookingID:       booking.ID,
			GateID:          gateID,
			ExitTime:        now,
			DurationMinutes: minutes,
			Amount:          total,
		})
		if err != nil {
			return fmt.Errorf("%w: ProcessExit - save exit: %v", ErrInternal, err)
		}

		if err := p.persistSlot(ctx, booking.SlotID); err != nil {
			return err
		}

		txmanager.OnCommit(ctx, func() {
			p.capturePayment(booking)
			p.notify(booking.UserID, domain.EventVehicleExited, map[string]interface{}{
				"booking_id":       booking.ID,
				"slot_id":          booking.SlotID,
				"gate_id":          gateID,
				"exit_time":        now.Format(time.RFC3339),
				"duration_minutes": minutes,
				"total_amount":     total.StringFixed(2),
			})
		})
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return created, charges, nil
}

func (p *Processor) getBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	booking, err := p.Bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, fmt.Errorf("%w: get booking %d: %v", ErrInternal, id, err)
	}
	return booking, nil
}

func (p *Processor) persistSlot(ctx context.Context, slotID int64) error {
	slot, err := p.Ledger.Slot(slotID)
	if err != nil {
		return err
	}
	if err := p.Slots.UpdateStatus(ctx, slot.ID, slot.Status, slot.OccupantBookingID); err != nil {
		return fmt.Errorf("%w: persist slot %d: %v", ErrInternal, slotID, err)
	}
	return nil
}

func (p *Processor) capturePayment(booking *domain.Booking) {
	if booking.PaymentRef == nil {
		p.Logger.Warn("ProcessExit: booking id=%d has no payment authorization, capture skipped", booking.ID)
		return
	}

	ref := *booking.PaymentRef
	p.submit(dispatch.Task{
		Kind: "capture",
		Name: fmt.Sprintf("booking=%d", booking.ID),
		Run: func(ctx context.Context) error {
			return p.Payments.Capture(ctx, ref)
		},
	})
}

func (p *Processor) notify(userID int64, eventType string, payload map[string]interface{}) {
	p.submit(dispatch.Task{
		Kind: "notify",
		Name: fmt.Sprintf("%s user=%d", eventType, userID),
		Run: func(ctx context.Context) error {
			return p.Notifier.Notify(ctx, userID, eventType, payload)
		},
	})
}

func (p *Processor) submit(task dispatch.Task) {
	if err := p.Dispatcher.Submit(task); err != nil {
		p.Logger.Error("Dispatch: %s %s not queued: %v", task.Kind, task.Name, err)
	}
}

// parkedMinutes длительность стоянки в минутах, не меньше одной
// Расхождение часов (выезд раньше въезда) даёт минимальную длительность
func parkedMinutes(entered, exited time.Time) int {
	window := domain.TimeWindow{Start: entered, End: exited}
	minutes := window.Minutes()
	if minutes < 1 {
		return 1
	}
	return minutes
}

func validateGateInput(plate, gateID string) (string, error) {
	normalized := domain.NormalizePlate(plate)
	if normalized == "" || len(normalized) > domain.MaxPlateLength {
		return "", fmt.Errorf("%w: invalid plate", ErrInvalidInput)
	}
	if gateID == "" || len(gateID) > domain.MaxGateIDLength {
		return "", fmt.Errorf("%w: invalid gate id", ErrInvalidInput)
	}
	return normalized, nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInternal):
		return "error"
	default:
		return "rejected"
	}
}
