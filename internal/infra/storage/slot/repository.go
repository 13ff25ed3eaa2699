package slot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ParkingService/pkg/psqlbuilder"
)

var slotColumns = []string{
	"id",
	"location_id",
	"code",
	"slot_type",
	"vehicle_types",
	"status",
	"occupant_booking_id",
}

// Repository репозиторий парковочных мест
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория парковочных мест
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetAll получает все парковочные места (загрузка леджера при старте)
func (r *Repository) GetAll(ctx context.Context) ([]*domain.ParkingSlot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(slotColumns...).
		From("parking_slots").
		OrderBy("id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetAll - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetAll - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	slots := make([]*domain.ParkingSlot, 0)
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: GetAll - scan row: %v", ErrScanRow, err)
		}
		slots = append(slots, slot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetAll - rows error: %v", ErrScanRow, err)
	}

	return slots, nil
}

// GetByID получает парковочное место по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.ParkingSlot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(slotColumns...).
		From("parking_slots").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	slot, err := scanSlot(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan slot: %v", ErrScanRow, err)
	}

	return slot, nil
}

// UpdateStatus сохраняет статус и текущего занявшего место
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status domain.SlotStatus, occupantBookingID *int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("parking_slots").
		Set("status", status).
		Set("occupant_booking_id", occupantBookingID).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrSlotNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSlot(row rowScanner) (*domain.ParkingSlot, error) {
	var slot domain.ParkingSlot
	var vehicleTypes []string

	err := row.Scan(
		&slot.ID,
		&slot.LocationID,
		&slot.Code,
		&slot.Type,
		pq.Array(&vehicleTypes),
		&slot.Status,
		&slot.OccupantBookingID,
	)
	if err != nil {
		return nil, err
	}

	slot.VehicleTypes = make([]domain.VehicleType, 0, len(vehicleTypes))
	for _, vt := range vehicleTypes {
		slot.VehicleTypes = append(slot.VehicleTypes, domain.VehicleType(vt))
	}

	return &slot, nil
}
