package gate

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

// uniqueViolation код ошибки postgres при нарушении уникального индекса
const uniqueViolation = "23505"

// openEntry въезд без парного выезда
const openEntry = "NOT EXISTS (SELECT 1 FROM vehicle_exits x WHERE x.entry_id = vehicle_entries.id)"

var entryColumns = []string{
	"id",
	"booking_id",
	"slot_id",
	"plate",
	"gate_id",
	"entry_time",
	"created_at",
}

// Repository журнал въездов и выездов
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория въездов/выездов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// CreateEntry записывает въезд
func (r *Repository) CreateEntry(ctx context.Context, entry *domain.VehicleEntry) (*domain.VehicleEntry, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("vehicle_entries").
		Columns("booking_id", "slot_id", "plate", "gate_id", "entry_time").
		Values(entry.BookingID, entry.SlotID, entry.Plate, entry.GateID, entry.EntryTime).
		Suffix("RETURNING id, created_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: CreateEntry - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&entry.ID, &createdAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, fmt.Errorf("%w: booking_id=%d", ErrDuplicateEntry, entry.BookingID)
		}
		return nil, fmt.Errorf("%w: CreateEntry - execute insert: %v", ErrExecQuery, err)
	}
	entry.CreatedAt = createdAt.Time

	return entry, nil
}

// GetOpenEntryByBooking получает незакрытый въезд по бронированию
func (r *Repository) GetOpenEntryByBooking(ctx context.Context, bookingID int64) (*domain.VehicleEntry, error) {
	selectBuilder := psqlbuilder.Select(entryColumns...).
		From("vehicle_entries").
		Where(squirrel.Eq{"booking_id": bookingID}).
		Where(openEntry).
		OrderBy("entry_time DESC").
		Limit(1)

	return r.getEntry(ctx, "GetOpenEntryByBooking", selectBuilder)
}

// GetLatestOpenEntryByPlate получает последний незакрытый въезд по номеру
// Номер должен быть нормализован (domain.NormalizePlate)
func (r *Repository) GetLatestOpenEntryByPlate(ctx context.Context, plate string) (*domain.VehicleEntry, error) {
	selectBuilder := psqlbuilder.Select(entryColumns...).
		From("vehicle_entries").
		Where(squirrel.Eq{"plate": plate}).
		Where(openEntry).
		OrderBy("entry_time DESC").
		Limit(1)

	return r.getEntry(ctx, "GetLatestOpenEntryByPlate", selectBuilder)
}

// CreateExit записывает выезд, закрывающий въезд
func (r *Repository) CreateExit(ctx context.Context, exit *domain.VehicleExit) (*domain.VehicleExit, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("vehicle_exits").
		Columns("entry_id", "booking_id", "gate_id", "exit_time", "duration_minutes", "amount").
		Values(exit.EntryID, exit.BookingID, exit.GateID, exit.ExitTime, exit.DurationMinutes, exit.Amount).
		Suffix("RETURNING id, created_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: CreateExit - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&exit.ID, &createdAt); err != nil {
		return nil, fmt.Errorf("%w: CreateExit - execute insert: %v", ErrExecQuery, err)
	}
	exit.CreatedAt = createdAt.Time

	return exit, nil
}

func (r *Repository) getEntry(ctx context.Context, op string, selectBuilder squirrel.SelectBuilder) (*domain.VehicleEntry, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, op, err)
	}

	var entry domain.VehicleEntry
	var createdAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&entry.ID,
		&entry.BookingID,
		&entry.SlotID,
		&entry.Plate,
		&entry.GateID,
		&entry.EntryTime,
		&createdAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s - scan entry: %v", ErrScanRow, op, err)
	}
	entry.CreatedAt = createdAt.Time

	return &entry, nil
}
