package slots

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/internal/service/slots/models"
)

// Service сервис управления состоянием слотов
type Service struct {
	slotRepo  SlotRepository
	ledger    SlotLedger
	txManager TransactionManager
	logger    Logger
}

// NewService создает новый экземпляр сервиса слотов
func NewService(
	slotRepo SlotRepository,
	ledger SlotLedger,
	txManager TransactionManager,
	logger Logger,
) *Service {
	return &Service{
		slotRepo:  slotRepo,
		ledger:    ledger,
		txManager: txManager,
		logger:    logger,
	}
}

// SetMaintenance включает или выключает обслуживание слота
// Занятый слот нельзя перевести в обслуживание (domain.ErrSlotOccupied)
func (s *Service) SetMaintenance(ctx context.Context, req *models.SetOutOfServiceRequest) (*models.SlotResponse, error) {
	s.logger.Info("SetMaintenance: slot id=%d on=%t", req.SlotID, req.On)
	return s.apply(ctx, "SetMaintenance", req, s.ledger.SetMaintenance)
}

// SetBlocked блокирует или разблокирует слот
func (s *Service) SetBlocked(ctx context.Context, req *models.SetOutOfServiceRequest) (*models.SlotResponse, error) {
	s.logger.Info("SetBlocked: slot id=%d on=%t", req.SlotID, req.On)
	return s.apply(ctx, "SetBlocked", req, s.ledger.SetBlocked)
}

func (s *Service) apply(
	ctx context.Context,
	op string,
	req *models.SetOutOfServiceRequest,
	change func(ctx context.Context, slotID int64, on bool) error,
) (*models.SlotResponse, error) {
	var result *domain.ParkingSlot

	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		if err := change(ctx, req.SlotID, req.On); err != nil {
			return err
		}

		slot, err := s.ledger.Slot(req.SlotID)
		if err != nil {
			return err
		}

		if err := s.slotRepo.UpdateStatus(ctx, slot.ID, slot.Status, slot.OccupantBookingID); err != nil {
			return fmt.Errorf("%w: %s - persist slot: %v", ErrInternal, op, err)
		}

		result = slot
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSlotNotFound), errors.Is(err, domain.ErrSlotOccupied):
			s.logger.Warn("%s: slot id=%d rejected: %v", op, req.SlotID, err)
		default:
			s.logger.Error("%s: slot id=%d: %v", op, req.SlotID, err)
		}
		return nil, err
	}

	s.logger.Info("%s: slot id=%d status=%s", op, result.ID, result.Status)
	return models.FromDomainSlot(result), nil
}
