package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/vatsinhr/settlement-backend-go/internal/domain/settlement"
)

type ledgerRepository struct {
	store *Store
}

func NewLedgerRepository(store *Store) settlement.LedgerRepository {
	return &ledgerRepository{store: store}
}

func (r *ledgerRepository) CreateCycle(_ context.Context, cycle settlement.Cycle) (settlement.Cycle, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.cycles[cycle.ID]; exists {
		return settlement.Cycle{}, settlement.ErrCycleAlreadyExists
	}

	if cycle.CreatedAt.IsZero() {
		cycle.CreatedAt = time.Now()
	}
	r.store.cycles[cycle.ID] = cycle
	return cycle, nil
}

func (r *ledgerRepository) GetCycle(_ context.Context, cycleID string) (settlement.Cycle, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	cycle, ok := r.store.cycles[cycleID]
	if !ok {
		return settlement.Cycle{}, settlement.ErrCycleNotFound
	}
	return cycle, nil
}

func (r *ledgerRepository) CreatePayslip(_ context.Context, slip settlement.Payslip) (settlement.Payslip, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.cycles[slip.CycleID]; !ok {
		return settlement.Payslip{}, settlement.ErrCycleNotFound
	}

	k := payslipKey{CycleID: slip.CycleID, EmployeeID: slip.EmployeeID}
	if _, exists := r.store.payslips[k]; exists {
		return settlement.Payslip{}, settlement.ErrDuplicatePayslip
	}

	if slip.ID == "" {
		slip.ID = uuid.New().String()
	}
	now := time.Now()
	slip.Status = settlement.StatusPending
	slip.CreatedAt = now
	slip.UpdatedAt = now

	r.store.payslips[k] = slip
	return slip, nil
}

func (r *ledgerRepository) GetPayslip(_ context.Context, cycleID, employeeID string) (settlement.Payslip, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	slip, ok := r.store.payslips[payslipKey{CycleID: cycleID, EmployeeID: employeeID}]
	if !ok {
		return settlement.Payslip{}, settlement.ErrPayslipNotFound
	}
	return slip, nil
}

func (r *ledgerRepository) ListByCycle(_ context.Context, cycleID string) ([]settlement.Payslip, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var slips []settlement.Payslip
	for k, slip := range r.store.payslips {
		if k.CycleID == cycleID {
			slips = append(slips, slip)
		}
	}
	sort.Slice(slips, func(i, j int) bool {
		return slips[i].EmployeeID < slips[j].EmployeeID
	})
	return slips, nil
}

// ApplyTransition holds the store lock for the whole compare-and-set plus
// audit append, so concurrent callers racing on the same record see exactly
// one winner and the loser gets ErrStaleTransition.
func (r *ledgerRepository) ApplyTransition(_ context.Context, t settlement.Transition) (settlement.Payslip, error) {
	if !settlement.CanTransition(t.From, t.To) {
		return settlement.Payslip{}, settlement.ErrInvalidTransition
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	k := payslipKey{CycleID: t.CycleID, EmployeeID: t.EmployeeID}
	slip, ok := r.store.payslips[k]
	if !ok {
		return settlement.Payslip{}, settlement.ErrPayslipNotFound
	}
	if slip.Status != t.From {
		return settlement.Payslip{}, settlement.ErrStaleTransition
	}

	now := time.Now()
	actor := t.ActorID
	slip.Status = t.To
	slip.UpdatedAt = now
	switch t.To {
	case settlement.StatusVerified:
		slip.VerifiedAt = &now
		slip.VerifiedBy = &actor
	case settlement.StatusProcessed:
		slip.ProcessedAt = &now
		slip.ProcessedBy = &actor
	}
	r.store.payslips[k] = slip

	from := t.From
	to := t.To
	employeeID := t.EmployeeID
	action := settlement.ActionVerified
	if t.To == settlement.StatusProcessed {
		action = settlement.ActionProcessed
	}
	r.store.audits[t.CycleID] = append(r.store.audits[t.CycleID], settlement.AuditEntry{
		ID:         uuid.New().String(),
		CycleID:    t.CycleID,
		EmployeeID: &employeeID,
		FromStatus: &from,
		ToStatus:   &to,
		Action:     action,
		ActorID:    t.ActorID,
		Note:       t.Note,
		CreatedAt:  now,
	})

	return slip, nil
}
