package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vatsinhr/settlement-backend-go/internal/domain/settlement"
)

type auditRepository struct {
	store *Store
}

func NewAuditRepository(store *Store) settlement.AuditRepository {
	return &auditRepository{store: store}
}

func (r *auditRepository) Append(_ context.Context, entry settlement.AuditEntry) (settlement.AuditEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	r.store.audits[entry.CycleID] = append(r.store.audits[entry.CycleID], entry)
	return entry, nil
}

func (r *auditRepository) ListForCycle(_ context.Context, cycleID string) ([]settlement.AuditEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	// Entries are appended in commit order; copy so callers cannot mutate
	// the trail.
	entries := make([]settlement.AuditEntry, len(r.store.audits[cycleID]))
	copy(entries, r.store.audits[cycleID])
	return entries, nil
}
