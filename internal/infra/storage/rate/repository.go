package rate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ParkingService/pkg/psqlbuilder"
)

// Repository репозиторий тарифов локаций
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория тарифов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetByLocation получает тариф локации
func (r *Repository) GetByLocation(ctx context.Context, locationID int64) (*domain.RateSchedule, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"location_id",
		"hourly_rate",
		"daily_rate",
		"monthly_rate",
		"tax_rate",
	).
		From("location_rates").
		Where(squirrel.Eq{"location_id": locationID}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByLocation - build select query: %v", ErrBuildQuery, err)
	}

	var rate domain.RateSchedule
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&rate.LocationID,
		&rate.Hourly,
		&rate.Daily,
		&rate.Monthly,
		&rate.TaxRate,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByLocation - scan rate: %v", ErrScanRow, err)
	}

	return &rate, nil
}
