package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vatsinhr/settlement-backend-go/internal/domain/settlement"
	"github.com/vatsinhr/settlement-backend-go/internal/pkg/database"
)

type distributionRepository struct {
	db *database.DB
}

func NewDistributionRepository(db *database.DB) settlement.DistributionRepository {
	return &distributionRepository{db: db}
}

func (r *distributionRepository) Create(ctx context.Context, record settlement.DistributionRecord) (settlement.DistributionRecord, error) {
	q := GetQuerier(ctx, r.db)

	if record.ID == "" {
		record.ID = uuid.New().String()
	}

	query := `
		INSERT INTO distribution_records (id, cycle_id, total_amount_minor_units, currency, employee_count)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, cycle_id, total_amount_minor_units, currency, employee_count, closed_at
	`

	var d settlement.DistributionRecord
	err := q.QueryRow(ctx, query,
		record.ID, record.CycleID, record.TotalAmountMinorUnits, record.Currency, record.EmployeeCount,
	).Scan(
		&d.ID, &d.CycleID, &d.TotalAmountMinorUnits, &d.Currency, &d.EmployeeCount, &d.ClosedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "uk_distribution_cycle") {
			// One summary per cycle; a concurrent disburse won the race.
			return r.GetByCycle(ctx, record.CycleID)
		}
		return settlement.DistributionRecord{}, fmt.Errorf("failed to create distribution record: %w", err)
	}

	return d, nil
}

func (r *distributionRepository) GetByCycle(ctx context.Context, cycleID string) (settlement.DistributionRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, cycle_id, total_amount_minor_units, currency, employee_count, closed_at
		FROM distribution_records
		WHERE cycle_id = $1
	`

	var d settlement.DistributionRecord
	err := q.QueryRow(ctx, query, cycleID).Scan(
		&d.ID, &d.CycleID, &d.TotalAmountMinorUnits, &d.Currency, &d.EmployeeCount, &d.ClosedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return settlement.DistributionRecord{}, settlement.ErrDistributionNotFound
		}
		return settlement.DistributionRecord{}, fmt.Errorf("failed to get distribution record: %w", err)
	}

	return d, nil
}

func (r *distributionRepository) List(ctx context.Context) ([]settlement.DistributionRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, cycle_id, total_amount_minor_units, currency, employee_count, closed_at
		FROM distribution_records
		ORDER BY closed_at DESC
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list distribution records: %w", err)
	}
	defer rows.Close()

	var records []settlement.DistributionRecord
	for rows.Next() {
		var d settlement.DistributionRecord
		if err := rows.Scan(
			&d.ID, &d.CycleID, &d.TotalAmountMinorUnits, &d.Currency, &d.EmployeeCount, &d.ClosedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan distribution record: %w", err)
		}
		records = append(records, d)
	}

	return records, nil
}
