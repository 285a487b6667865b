package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vatsinhr/settlement-backend-go/internal/domain/settlement"
	"github.com/vatsinhr/settlement-backend-go/internal/pkg/database"
)

type auditRepository struct {
	db *database.DB
}

func NewAuditRepository(db *database.DB) settlement.AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Append(ctx context.Context, entry settlement.AuditEntry) (settlement.AuditEntry, error) {
	q := GetQuerier(ctx, r.db)

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	if err := insertAuditEntry(ctx, q, entry); err != nil {
		return settlement.AuditEntry{}, err
	}
	return entry, nil
}

func (r *auditRepository) ListForCycle(ctx context.Context, cycleID string) ([]settlement.AuditEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, cycle_id, employee_id, from_status, to_status, action, actor_id, note, created_at
		FROM audit_entries
		WHERE cycle_id = $1
		ORDER BY created_at, id
	`

	rows, err := q.Query(ctx, query, cycleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []settlement.AuditEntry
	for rows.Next() {
		var e settlement.AuditEntry
		if err := rows.Scan(
			&e.ID, &e.CycleID, &e.EmployeeID, &e.FromStatus, &e.ToStatus,
			&e.Action, &e.ActorID, &e.Note, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, nil
}

// insertAuditEntry is shared with the ledger so transition entries commit in
// the same transaction as the status update.
func insertAuditEntry(ctx context.Context, q database.Querier, entry settlement.AuditEntry) error {
	query := `
		INSERT INTO audit_entries (id, cycle_id, employee_id, from_status, to_status, action, actor_id, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := q.Exec(ctx, query,
		entry.ID, entry.CycleID, entry.EmployeeID, entry.FromStatus, entry.ToStatus,
		entry.Action, entry.ActorID, entry.Note, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}
