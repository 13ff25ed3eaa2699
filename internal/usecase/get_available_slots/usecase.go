package get_available_slots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	rateRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/rate"
)

// UseCase use case для получения свободных слотов на временное окно
type UseCase struct {
	ledger       SlotLedger
	rateRepo     RateRepository
	fees         FeeCalculator
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	ledger SlotLedger,
	rateRepo RateRepository,
	fees FeeCalculator,
	timeProvider TimeProvider,
	logger Logger,
) *UseCase {
	return &UseCase{
		ledger:       ledger,
		rateRepo:     rateRepo,
		fees:         fees,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// Execute выполняет use case получения свободных слотов
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailableSlots: location=%d, window=[%s, %s)",
		req.LocationID, req.Start.Format(time.RFC3339), req.End.Format(time.RFC3339))

	// 1. Валидация входных данных
	if err := validateRequest(req, uc.timeProvider.Now()); err != nil {
		uc.logger.Warn("GetAvailableSlots: validation failed: %v", err)
		return nil, err
	}

	filter, err := buildFilter(req)
	if err != nil {
		uc.logger.Warn("GetAvailableSlots: invalid filter: %v", err)
		return nil, err
	}

	durationType, err := resolveDurationType(req.DurationType)
	if err != nil {
		uc.logger.Warn("GetAvailableSlots: invalid duration type: %v", err)
		return nil, err
	}

	// 2. Тариф локации
	rate, err := uc.rateRepo.GetByLocation(ctx, req.LocationID)
	if err != nil {
		if errors.Is(err, rateRepo.ErrRateNotFound) {
			uc.logger.Warn("GetAvailableSlots: location id=%d has no rate", req.LocationID)
			return nil, ErrLocationNotFound
		}
		uc.logger.Error("GetAvailableSlots: failed to get rate for location id=%d: %v", req.LocationID, err)
		return nil, fmt.Errorf("%w: failed to get rate: %v", ErrInternal, err)
	}

	// 3. Свободные слоты из леджера
	window := domain.TimeWindow{Start: req.Start, End: req.End}
	available, err := uc.ledger.Available(window, filter)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: ledger error: %v", err)
		return nil, fmt.Errorf("%w: failed to list available slots: %v", ErrInternal, err)
	}

	// 4. Оценка стоимости за окно
	estimate, err := uc.fees.Compute(*rate, window.Minutes(), durationType)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to estimate fee: %v", err)
		return nil, fmt.Errorf("%w: failed to estimate fee: %v", ErrInternal, err)
	}

	uc.logger.Info("GetAvailableSlots: found %d slots for location=%d", len(available), req.LocationID)

	return &Response{
		LocationID:   req.LocationID,
		Start:        req.Start,
		End:          req.End,
		DurationType: string(durationType),
		Slots:        toSlots(available, estimate),
	}, nil
}
