package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/booking"
	rateRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/rate"
	"github.com/m04kA/SMC-ParkingService/internal/integrations/userservice"
	"github.com/m04kA/SMC-ParkingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-ParkingService/internal/service/dispatch"
	"github.com/m04kA/SMC-ParkingService/pkg/txmanager"
)

// Исходы операций для метрик
const (
	outcomeOK       = "ok"
	outcomeConflict = "conflict"
	outcomeRejected = "rejected"
	outcomeError    = "error"
)

// Config политика бронирований
type Config struct {
	CancelCutoff        time.Duration
	GracePeriod         time.Duration
	DefaultDurationType domain.DurationType
}

// Dependencies зависимости сервиса бронирований
type Dependencies struct {
	Bookings   BookingRepository
	Slots      SlotRepository
	Rates      RateRepository
	Ledger     SlotLedger
	Fees       FeeCalculator
	Vehicles   VehicleDirectory
	Payments   PaymentCollector
	Notifier   NotificationSink
	Dispatcher Dispatcher
	TxManager  TransactionManager
	Clock      Clock
	Metrics    MetricsRecorder
	Logger     Logger
}

// Service сервис бронирования парковочных мест
type Service struct {
	cfg Config
	Dependencies
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(cfg Config, deps Dependencies) *Service {
	if cfg.DefaultDurationType == "" {
		cfg.DefaultDurationType = domain.DefaultDurationType
	}
	return &Service{cfg: cfg, Dependencies: deps}
}

// CreateBooking резервирует слот на окно и сохраняет бронирование в статусе pending
// При конфликте окон возвращает domain.ErrSlotUnavailable и ничего не сохраняет
func (s *Service) CreateBooking(ctx context.Context, req *models.CreateBookingRequest) (*domain.Booking, error) {
	s.Logger.Info("CreateBooking: user=%d slot=%d window=[%s, %s)",
		req.UserID, req.SlotID, req.Start.Format(time.RFC3339), req.End.Format(time.RFC3339))

	booking, err := s.createBooking(ctx, req)
	s.Metrics.ObserveBooking("create", outcomeOf(err))
	return booking, err
}

func (s *Service) createBooking(ctx context.Context, req *models.CreateBookingRequest) (*domain.Booking, error) {
	durationType := s.cfg.DefaultDurationType
	if req.DurationType != "" {
		dt, err := domain.ParseDurationType(req.DurationType)
		if err != nil {
			return nil, err
		}
		durationType = dt
	}

	window, err := domain.NewTimeWindow(req.Start, req.End)
	if err != nil {
		return nil, err
	}
	if window.Start.Before(s.Clock.Now()) {
		s.Logger.Warn("CreateBooking: window start %s is in the past", window.Start.Format(time.RFC3339))
		return nil, domain.ErrInvalidWindow
	}

	slot, err := s.Ledger.Slot(req.SlotID)
	if err != nil {
		return nil, err
	}

	vehicle, err := s.Vehicles.GetVehicle(ctx, req.UserID, req.VehicleID)
	if err != nil {
		if errors.Is(err, userservice.ErrVehicleNotFound) {
			s.Logger.Warn("CreateBooking: vehicle=%d of user=%d not found", req.VehicleID, req.UserID)
			return nil, ErrVehicleNotFound
		}
		s.Logger.Error("CreateBooking: user service error for user=%d: %v", req.UserID, err)
		return nil, fmt.Errorf("%w: CreateBooking - get vehicle: %v", ErrInternal, err)
	}

	vehicleType, err := domain.ParseVehicleType(strings.ToLower(vehicle.Type))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !slot.Supports(vehicleType) {
		s.Logger.Warn("CreateBooking: slot=%d does not support vehicle type=%s", slot.ID, vehicleType)
		return nil, domain.ErrVehicleNotSupported
	}

	plate := domain.NormalizePlate(vehicle.LicensePlate)
	if plate == "" {
		return nil, fmt.Errorf("%w: vehicle has no license plate", ErrInvalidInput)
	}

	rate, err := s.resolveRate(ctx, slot.LocationID, req.Rate)
	if err != nil {
		return nil, err
	}

	estimated, err := s.Fees.Compute(*rate, window.Minutes(), durationType)
	if err != nil {
		return nil, err
	}

	var created *domain.Booking
	err = s.TxManager.DoSerializable(ctx, func(ctx context.Context) error {
		token, err := s.Ledger.TryReserve(ctx, slot.ID, window)
		if err != nil {
			return err
		}

		created, err = s.Bookings.Create(ctx, &domain.Booking{
			UserID:           req.UserID,
			VehicleID:        vehicle.ID,
			VehiclePlate:     plate,
			SlotID:           slot.ID,
			LocationID:       slot.LocationID,
			Window:           window,
			DurationType:     durationType,
			Rate:             *rate,
			Status:           domain.StatusPending,
			ReservationToken: token,
			EstimatedAmount:  estimated,
			TotalAmount:      estimated,
		})
		if err != nil {
			return fmt.Errorf("%w: CreateBooking - save booking: %v", ErrInternal, err)
		}

		if err := s.Ledger.Assign(token, created.ID); err != nil {
			return fmt.Errorf("%w: CreateBooking - assign reservation: %v", ErrInternal, err)
		}

		return s.persistSlot(ctx, slot.ID)
	})
	if err != nil {
		if errors.Is(err, domain.ErrSlotUnavailable) {
			s.Logger.Warn("CreateBooking: slot=%d unavailable for window", req.SlotID)
		} else {
			s.Logger.Error("CreateBooking: failed for user=%d slot=%d: %v", req.UserID, req.SlotID, err)
		}
		return nil, err
	}

	s.Logger.Info("CreateBooking: created booking id=%d slot=%d estimated=%s", created.ID, created.SlotID, estimated.StringFixed(2))
	return created, nil
}

// ConfirmBooking переводит pending в confirmed
// После коммита авторизует оценочную сумму и отправляет уведомление
func (s *Service) ConfirmBooking(ctx context.Context, bookingID int64) error {
	s.Logger.Info("ConfirmBooking: booking id=%d", bookingID)

	err := s.TxManager.Do(ctx, func(ctx context.Context) error {
		booking, err := s.getBooking(ctx, "ConfirmBooking", bookingID)
		if err != nil {
			return err
		}

		if err := booking.TransitionTo(domain.StatusConfirmed); err != nil {
			s.Logger.Warn("ConfirmBooking: booking id=%d cannot be confirmed, status=%s", bookingID, booking.Status)
			return err
		}

		if err := s.Bookings.Update(ctx, booking); err != nil {
			return fmt.Errorf("%w: ConfirmBooking - update booking: %v", ErrInternal, err)
		}

		txmanager.OnCommit(ctx, func() {
			s.authorizePayment(booking)
			s.notify(booking.UserID, domain.EventBookingConfirmed, bookingPayload(booking))
		})
		return nil
	})

	s.Metrics.ObserveBooking("confirm", outcomeOf(err))
	if err != nil {
		return err
	}

	s.Logger.Info("ConfirmBooking: booking id=%d confirmed", bookingID)
	return nil
}

// CancelBooking отменяет pending или confirmed бронирование и снимает резерв
// Повторная отмена (cancelled, expired, no_show) ничего не делает
func (s *Service) CancelBooking(ctx context.Context, bookingID int64, actor domain.Actor, reason string) error {
	s.Logger.Info("CancelBooking: booking id=%d by user=%d override=%t", bookingID, actor.ID, actor.Override)

	if len(reason) > domain.MaxCancellationReasonLength {
		return fmt.Errorf("%w: cancellation reason is too long", ErrInvalidInput)
	}

	err := s.TxManager.Do(ctx, func(ctx context.Context) error {
		// Строка заблокирована до конца транзакции: статус проверяется под блокировкой
		booking, err := s.getBooking(ctx, "CancelBooking", bookingID)
		if err != nil {
			return err
		}

		if booking.UserID != actor.ID && !actor.Override {
			s.Logger.Warn("CancelBooking: access denied for user=%d to booking id=%d", actor.ID, bookingID)
			return domain.ErrAccessDenied
		}

		if booking.Status.IsAbandoned() {
			s.Logger.Info("CancelBooking: booking id=%d already %s, nothing to do", bookingID, booking.Status)
			return nil
		}

		if !booking.CanBeCancelled() {
			s.Logger.Warn("CancelBooking: booking id=%d cannot be cancelled, status=%s", bookingID, booking.Status)
			return domain.ErrInvalidTransition
		}

		now := s.Clock.Now()
		if !actor.Override && now.After(booking.CancellationDeadline(s.cfg.CancelCutoff)) {
			s.Logger.Warn("CancelBooking: booking id=%d cancellation window closed at %s",
				bookingID, booking.CancellationDeadline(s.cfg.CancelCutoff).Format(time.RFC3339))
			return domain.ErrCancellationWindowClosed
		}

		if err := s.Ledger.Release(ctx, booking.ReservationToken); err != nil {
			return err
		}

		if err := booking.TransitionTo(domain.StatusCancelled); err != nil {
			return err
		}
		actorID := actor.ID
		booking.CancelledBy = &actorID
		booking.CancelledAt = &now
		if reason != "" {
			booking.CancellationReason = &reason
		}

		if err := s.Bookings.Update(ctx, booking); err != nil {
			return fmt.Errorf("%w: CancelBooking - update booking: %v", ErrInternal, err)
		}
		if err := s.persistSlot(ctx, booking.SlotID); err != nil {
			return err
		}

		txmanager.OnCommit(ctx, func() {
			s.notify(booking.UserID, domain.EventBookingCancelled, bookingPayload(booking))
		})
		return nil
	})

	s.Metrics.ObserveBooking("cancel", outcomeOf(err))
	if err != nil {
		return err
	}

	s.Logger.Info("CancelBooking: booking id=%d processed", bookingID)
	return nil
}

// ExtendBooking продлевает активное бронирование до newEnd
// Возвращает доплату: разницу стоимости нового и старого окна
func (s *Service) ExtendBooking(ctx context.Context, bookingID int64, newEnd time.Time) (decimal.Decimal, error) {
	s.Logger.Info("ExtendBooking: booking id=%d new end=%s", bookingID, newEnd.Format(time.RFC3339))

	var extra decimal.Decimal
	err := s.TxManager.DoSerializable(ctx, func(ctx context.Context) error {
		booking, err := s.getBooking(ctx, "ExtendBooking", bookingID)
		if err != nil {
			return err
		}

		if booking.Status != domain.StatusActive {
			s.Logger.Warn("ExtendBooking: booking id=%d is not active, status=%s", bookingID, booking.Status)
			return domain.ErrBookingNotActive
		}

		if !newEnd.After(booking.Window.End) {
			return domain.ErrInvalidWindow
		}

		if err := s.Ledger.Extend(ctx, booking.ReservationToken, newEnd); err != nil {
			if errors.Is(err, domain.ErrSlotUnavailable) || errors.Is(err, domain.ErrInvalidWindow) {
				return err
			}
			return fmt.Errorf("%w: ExtendBooking - ledger: %v", ErrInternal, err)
		}

		oldMinutes := booking.Window.Minutes()
		booking.Window.End = newEnd

		extra, err = s.Fees.Difference(booking.Rate, oldMinutes, booking.Window.Minutes(), booking.DurationType)
		if err != nil {
			return err
		}
		booking.TotalAmount = booking.TotalAmount.Add(extra)

		if err := s.Bookings.Update(ctx, booking); err != nil {
			return fmt.Errorf("%w: ExtendBooking - update booking: %v", ErrInternal, err)
		}

		txmanager.OnCommit(ctx, func() {
			payload := bookingPayload(booking)
			payload["extra_amount"] = extra.StringFixed(2)
			s.notify(booking.UserID, domain.EventBookingExtended, payload)
		})
		return nil
	})

	s.Metrics.ObserveBooking("extend", outcomeOf(err))
	if err != nil {
		return decimal.Zero, err
	}

	s.Logger.Info("ExtendBooking: booking id=%d extended, extra=%s", bookingID, extra.StringFixed(2))
	return extra, nil
}

// ExpireStaleBookings переводит в expired бронирования без въезда, начало которых
// прошло более чем на grace period назад, и освобождает их резервы.
// Каждое бронирование обрабатывается в своей транзакции
func (s *Service) ExpireStaleBookings(ctx context.Context, now time.Time) (int, error) {
	deadline := now.Add(-s.cfg.GracePeriod)

	candidates, err := s.Bookings.GetStale(ctx, deadline)
	if err != nil {
		s.Logger.Error("ExpireStaleBookings: failed to list stale bookings: %v", err)
		return 0, fmt.Errorf("%w: ExpireStaleBookings - list stale: %v", ErrInternal, err)
	}

	expired := 0
	for _, candidate := range candidates {
		ok, err := s.expireOne(ctx, candidate.ID, now)
		if err != nil {
			s.Logger.Error("ExpireStaleBookings: booking id=%d: %v", candidate.ID, err)
			continue
		}
		if ok {
			expired++
		}
	}

	if expired > 0 {
		s.Metrics.ObserveExpired(expired)
		s.Logger.Info("ExpireStaleBookings: expired %d of %d candidates", expired, len(candidates))
	}
	return expired, nil
}

func (s *Service) expireOne(ctx context.Context, bookingID int64, now time.Time) (bool, error) {
	expired := false
	err := s.TxManager.Do(ctx, func(ctx context.Context) error {
		booking, err := s.getBooking(ctx, "ExpireStaleBookings", bookingID)
		if err != nil {
			return err
		}

		// Статус мог измениться после выборки (въезд, отмена)
		if !booking.IsStale(now, s.cfg.GracePeriod) {
			return nil
		}

		if err := s.Ledger.Release(ctx, booking.ReservationToken); err != nil {
			return err
		}
		if err := booking.TransitionTo(domain.StatusExpired); err != nil {
			return err
		}
		if err := s.Bookings.Update(ctx, booking); err != nil {
			return fmt.Errorf("%w: ExpireStaleBookings - update booking: %v", ErrInternal, err)
		}
		if err := s.persistSlot(ctx, booking.SlotID); err != nil {
			return err
		}

		txmanager.OnCommit(ctx, func() {
			s.notify(booking.UserID, domain.EventBookingExpired, bookingPayload(booking))
		})
		expired = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return expired, nil
}

// GetByID получает бронирование по ID
// Пользователь может видеть только своё бронирование
func (s *Service) GetByID(ctx context.Context, id int64, userID int64) (*models.BookingResponse, error) {
	s.Logger.Info("GetByID: fetching booking id=%d for user=%d", id, userID)

	booking, err := s.getBooking(ctx, "GetByID", id)
	if err != nil {
		return nil, err
	}

	if booking.UserID != userID {
		s.Logger.Warn("GetByID: access denied for user=%d to booking id=%d", userID, id)
		return nil, domain.ErrAccessDenied
	}

	return models.FromDomainBooking(booking), nil
}

// Find получает бронирование без проверки владельца (для операторов парковки)
func (s *Service) Find(ctx context.Context, id int64) (*models.BookingResponse, error) {
	booking, err := s.getBooking(ctx, "Find", id)
	if err != nil {
		return nil, err
	}
	return models.FromDomainBooking(booking), nil
}

// GetUserBookings получает историю бронирований пользователя
// Опционально фильтрует по статусу
func (s *Service) GetUserBookings(ctx context.Context, req *models.GetUserBookingsRequest) (*models.BookingListResponse, error) {
	s.Logger.Info("GetUserBookings: fetching bookings for user=%d, status=%v", req.UserID, req.Status)

	var domainStatus *domain.BookingStatus
	if req.Status != nil {
		status, err := models.ToDomainBookingStatus(*req.Status)
		if err != nil {
			s.Logger.Warn("GetUserBookings: invalid status=%s for user=%d", *req.Status, req.UserID)
			return nil, fmt.Errorf("%w: invalid status", ErrInvalidInput)
		}
		domainStatus = &status
	}

	bookings, err := s.Bookings.GetByUserID(ctx, req.UserID, domainStatus)
	if err != nil {
		s.Logger.Error("GetUserBookings: repository error for user=%d: %v", req.UserID, err)
		return nil, fmt.Errorf("%w: GetUserBookings - repository error: %v", ErrInternal, err)
	}

	s.Logger.Info("GetUserBookings: fetched %d bookings for user=%d", len(bookings), req.UserID)
	return models.FromDomainBookingList(bookings), nil
}

func (s *Service) getBooking(ctx context.Context, op string, id int64) (*domain.Booking, error) {
	booking, err := s.Bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.Logger.Warn("%s: booking id=%d not found", op, id)
			return nil, domain.ErrBookingNotFound
		}
		s.Logger.Error("%s: repository error for booking id=%d: %v", op, id, err)
		return nil, fmt.Errorf("%w: %s - get booking: %v", ErrInternal, op, err)
	}
	return booking, nil
}

func (s *Service) resolveRate(ctx context.Context, locationID int64, snapshot *domain.RateSchedule) (*domain.RateSchedule, error) {
	if snapshot != nil {
		rate := *snapshot
		rate.LocationID = locationID
		return &rate, nil
	}

	rate, err := s.Rates.GetByLocation(ctx, locationID)
	if err != nil {
		if errors.Is(err, rateRepo.ErrRateNotFound) {
			s.Logger.Warn("CreateBooking: no rate for location=%d", locationID)
			return nil, ErrRateNotFound
		}
		return nil, fmt.Errorf("%w: CreateBooking - get rate: %v", ErrInternal, err)
	}
	return rate, nil
}

// persistSlot сохраняет текущее состояние слота из леджера в ту же транзакцию
func (s *Service) persistSlot(ctx context.Context, slotID int64) error {
	slot, err := s.Ledger.Slot(slotID)
	if err != nil {
		return err
	}
	if err := s.Slots.UpdateStatus(ctx, slot.ID, slot.Status, slot.OccupantBookingID); err != nil {
		return fmt.Errorf("%w: persist slot %d: %v", ErrInternal, slotID, err)
	}
	return nil
}

func (s *Service) authorizePayment(booking *domain.Booking) {
	var ref string
	bookingID := booking.ID
	amount := booking.EstimatedAmount

	s.submit(dispatch.Task{
		Kind: "authorize",
		Name: fmt.Sprintf("booking=%d", bookingID),
		Run: func(ctx context.Context) error {
			if ref == "" {
				r, err := s.Payments.Authorize(ctx, bookingID, amount)
				if err != nil {
					return err
				}
				ref = r
			}
			return s.Bookings.SetPaymentRef(ctx, bookingID, ref)
		},
	})
}

func (s *Service) notify(userID int64, eventType string, payload map[string]interface{}) {
	s.submit(dispatch.Task{
		Kind: "notify",
		Name: fmt.Sprintf("%s user=%d", eventType, userID),
		Run: func(ctx context.Context) error {
			return s.Notifier.Notify(ctx, userID, eventType, payload)
		},
	})
}

func (s *Service) submit(task dispatch.Task) {
	if err := s.Dispatcher.Submit(task); err != nil {
		s.Logger.Error("Dispatch: %s %s not queued: %v", task.Kind, task.Name, err)
	}
}

func bookingPayload(b *domain.Booking) map[string]interface{} {
	return map[string]interface{}{
		"booking_id":   b.ID,
		"slot_id":      b.SlotID,
		"location_id":  b.LocationID,
		"status":       string(b.Status),
		"start_time":   b.Window.Start.Format(time.RFC3339),
		"end_time":     b.Window.End.Format(time.RFC3339),
		"total_amount": b.TotalAmount.StringFixed(2),
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, domain.ErrSlotUnavailable):
		return outcomeConflict
	case errors.Is(err, ErrInternal):
		return outcomeError
	default:
		return outcomeRejected
	}
}
