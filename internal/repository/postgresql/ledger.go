package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vatsinhr/settlement-backend-go/internal/domain/settlement"
	"github.com/vatsinhr/settlement-backend-go/internal/pkg/database"
)

type ledgerRepository struct {
	db *database.DB
}

func NewLedgerRepository(db *database.DB) settlement.LedgerRepository {
	return &ledgerRepository{db: db}
}

const payslipColumns = `id, cycle_id, employee_id, net_amount_minor_units, currency, status,
	verified_at, verified_by, processed_at, processed_by, created_at, updated_at`

// ========== CYCLES ==========

func (r *ledgerRepository) CreateCycle(ctx context.Context, cycle settlement.Cycle) (settlement.Cycle, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO settlement_cycles (id, period_month, period_year)
		VALUES ($1, $2, $3)
		RETURNING id, period_month, period_year, created_at
	`

	var c settlement.Cycle
	err := q.QueryRow(ctx, query, cycle.ID, cycle.Month, cycle.Year).Scan(
		&c.ID, &c.Month, &c.Year, &c.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "settlement_cycles_pkey") {
			return settlement.Cycle{}, settlement.ErrCycleAlreadyExists
		}
		return settlement.Cycle{}, fmt.Errorf("failed to create settlement cycle: %w", err)
	}

	return c, nil
}

func (r *ledgerRepository) GetCycle(ctx context.Context, cycleID string) (settlement.Cycle, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, period_month, period_year, created_at
		FROM settlement_cycles
		WHERE id = $1
	`

	var c settlement.Cycle
	err := q.QueryRow(ctx, query, cycleID).Scan(&c.ID, &c.Month, &c.Year, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return settlement.Cycle{}, settlement.ErrCycleNotFound
		}
		return settlement.Cycle{}, fmt.Errorf("failed to get settlement cycle: %w", err)
	}

	return c, nil
}

// ========== PAYSLIPS ==========

func (r *ledgerRepository) CreatePayslip(ctx context.Context, slip settlement.Payslip) (settlement.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	if slip.ID == "" {
		slip.ID = uuid.New().String()
	}

	query := `
		INSERT INTO payslips (id, cycle_id, employee_id, net_amount_minor_units, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + payslipColumns

	var p settlement.Payslip
	err := q.QueryRow(ctx, query,
		slip.ID, slip.CycleID, slip.EmployeeID, slip.NetAmountMinorUnits, slip.Currency, settlement.StatusPending,
	).Scan(
		&p.ID, &p.CycleID, &p.EmployeeID, &p.NetAmountMinorUnits, &p.Currency, &p.Status,
		&p.VerifiedAt, &p.VerifiedBy, &p.ProcessedAt, &p.ProcessedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "uk_payslip_cycle_employee") {
			return settlement.Payslip{}, settlement.ErrDuplicatePayslip
		}
		return settlement.Payslip{}, fmt.Errorf("failed to create payslip: %w", err)
	}

	return p, nil
}

func (r *ledgerRepository) GetPayslip(ctx context.Context, cycleID, employeeID string) (settlement.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + payslipColumns + `
		FROM payslips
		WHERE cycle_id = $1 AND employee_id = $2
	`

	var p settlement.Payslip
	err := q.QueryRow(ctx, query, cycleID, employeeID).Scan(
		&p.ID, &p.CycleID, &p.EmployeeID, &p.NetAmountMinorUnits, &p.Currency, &p.Status,
		&p.VerifiedAt, &p.VerifiedBy, &p.ProcessedAt, &p.ProcessedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return settlement.Payslip{}, settlement.ErrPayslipNotFound
		}
		return settlement.Payslip{}, fmt.Errorf("failed to get payslip: %w", err)
	}

	return p, nil
}

func (r *ledgerRepository) ListByCycle(ctx context.Context, cycleID string) ([]settlement.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + payslipColumns + `
		FROM payslips
		WHERE cycle_id = $1
		ORDER BY employee_id
	`

	rows, err := q.Query(ctx, query, cycleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payslips: %w", err)
	}
	defer rows.Close()

	var slips []settlement.Payslip
	for rows.Next() {
		var p settlement.Payslip
		if err := rows.Scan(
			&p.ID, &p.CycleID, &p.EmployeeID, &p.NetAmountMinorUnits, &p.Currency, &p.Status,
			&p.VerifiedAt, &p.VerifiedBy, &p.ProcessedAt, &p.ProcessedBy, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payslip: %w", err)
		}
		slips = append(slips, p)
	}

	return slips, nil
}

// ========== TRANSITIONS ==========

// ApplyTransition performs the CAS update and the audit insert in a single
// transaction: either both land or neither does. The UPDATE's status guard is
// the concurrency-control primitive; a regular read-then-write would lose
// races between concurrent verifications.
func (r *ledgerRepository) ApplyTransition(ctx context.Context, t settlement.Transition) (settlement.Payslip, error) {
	if !settlement.CanTransition(t.From, t.To) {
		return settlement.Payslip{}, settlement.ErrInvalidTransition
	}

	var stampColumns string
	switch t.To {
	case settlement.StatusVerified:
		stampColumns = "verified_at = NOW(), verified_by = $4"
	case settlement.StatusProcessed:
		stampColumns = "processed_at = NOW(), processed_by = $4"
	}

	query := fmt.Sprintf(`
		UPDATE payslips
		SET status = $1, %s, updated_at = NOW()
		WHERE cycle_id = $2 AND employee_id = $3 AND status = $5
		RETURNING `+payslipColumns, stampColumns)

	var p settlement.Payslip
	err := WithTransaction(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, query, t.To, t.CycleID, t.EmployeeID, t.ActorID, t.From).Scan(
			&p.ID, &p.CycleID, &p.EmployeeID, &p.NetAmountMinorUnits, &p.Currency, &p.Status,
			&p.VerifiedAt, &p.VerifiedBy, &p.ProcessedAt, &p.ProcessedBy, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return r.diagnoseFailedCAS(ctx, tx, t)
			}
			return fmt.Errorf("failed to apply transition: %w", err)
		}

		from := t.From
		to := t.To
		entry := settlement.AuditEntry{
			ID:         uuid.New().String(),
			CycleID:    t.CycleID,
			EmployeeID: &t.EmployeeID,
			FromStatus: &from,
			ToStatus:   &to,
			Action:     actionForStatus(t.To),
			ActorID:    t.ActorID,
			Note:       t.Note,
			CreatedAt:  time.Now(),
		}
		return insertAuditEntry(ctx, tx, entry)
	})
	if err != nil {
		return settlement.Payslip{}, err
	}

	return p, nil
}

// diagnoseFailedCAS distinguishes a missing record from a lost race.
func (r *ledgerRepository) diagnoseFailedCAS(ctx context.Context, tx pgx.Tx, t settlement.Transition) error {
	var current settlement.PayslipStatus
	err := tx.QueryRow(ctx,
		`SELECT status FROM payslips WHERE cycle_id = $1 AND employee_id = $2`,
		t.CycleID, t.EmployeeID,
	).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return settlement.ErrPayslipNotFound
		}
		return fmt.Errorf("failed to read payslip status: %w", err)
	}
	return settlement.ErrStaleTransition
}

func actionForStatus(to settlement.PayslipStatus) settlement.AuditAction {
	if to == settlement.StatusProcessed {
		return settlement.ActionProcessed
	}
	return settlement.ActionVerified
}
