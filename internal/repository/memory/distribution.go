package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/vatsinhr/settlement-backend-go/internal/domain/settlement"
)

type distributionRepository struct {
	store *Store
}

func NewDistributionRepository(store *Store) settlement.DistributionRepository {
	return &distributionRepository{store: store}
}

func (r *distributionRepository) Create(_ context.Context, record settlement.DistributionRecord) (settlement.DistributionRecord, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	// One summary per cycle; a concurrent disburse won the race.
	if existing, ok := r.store.distributions[record.CycleID]; ok {
		return existing, nil
	}

	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.ClosedAt.IsZero() {
		record.ClosedAt = time.Now()
	}

	r.store.distributions[record.CycleID] = record
	return record, nil
}

func (r *distributionRepository) GetByCycle(_ context.Context, cycleID string) (settlement.DistributionRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	record, ok := r.store.distributions[cycleID]
	if !ok {
		return settlement.DistributionRecord{}, settlement.ErrDistributionNotFound
	}
	return record, nil
}

func (r *distributionRepository) List(_ context.Context) ([]settlement.DistributionRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	records := make([]settlement.DistributionRecord, 0, len(r.store.distributions))
	for _, record := range r.store.distributions {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].ClosedAt.After(records[j].ClosedAt)
	})
	return records, nil
}
