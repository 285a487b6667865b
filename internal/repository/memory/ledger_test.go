package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vatsinhr/settlement-backend-go/internal/domain/settlement"
)

func seedCycle(t *testing.T, ledger settlement.LedgerRepository, cycleID string, employeeIDs ...string) {
	t.Helper()
	ctx := context.Background()

	_, err := ledger.CreateCycle(ctx, settlement.Cycle{ID: cycleID, Month: 5, Year: 2024})
	require.NoError(t, err)

	for _, id := range employeeIDs {
		_, err := ledger.CreatePayslip(ctx, settlement.Payslip{
			CycleID:             cycleID,
			EmployeeID:          id,
			NetAmountMinorUnits: 50000,
			Currency:            "USD",
		})
		require.NoError(t, err)
	}
}

func TestLedgerRepository_CreateCycle_Duplicate(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedgerRepository(NewStore())

	_, err := ledger.CreateCycle(ctx, settlement.Cycle{ID: "2024-05", Month: 5, Year: 2024})
	require.NoError(t, err)

	_, err = ledger.CreateCycle(ctx, settlement.Cycle{ID: "2024-05", Month: 5, Year: 2024})
	assert.ErrorIs(t, err, settlement.ErrCycleAlreadyExists)
}

func TestLedgerRepository_CreatePayslip(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedgerRepository(NewStore())
	seedCycle(t, ledger, "2024-05", "emp-1")

	// New payslips always start pending
	slip, err := ledger.GetPayslip(ctx, "2024-05", "emp-1")
	require.NoError(t, err)
	assert.Equal(t, settlement.StatusPending, slip.Status)
	assert.NotEmpty(t, slip.ID)

	// Same employee cannot get a second payslip in the same cycle
	_, err = ledger.CreatePayslip(ctx, settlement.Payslip{CycleID: "2024-05", EmployeeID: "emp-1"})
	assert.ErrorIs(t, err, settlement.ErrDuplicatePayslip)

	// Unknown cycle is rejected
	_, err = ledger.CreatePayslip(ctx, settlement.Payslip{CycleID: "2024-06", EmployeeID: "emp-1"})
	assert.ErrorIs(t, err, settlement.ErrCycleNotFound)
}

func TestLedgerRepository_ListByCycle_Ordered(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedgerRepository(NewStore())
	seedCycle(t, ledger, "2024-05", "emp-3", "emp-1", "emp-2")

	slips, err := ledger.ListByCycle(ctx, "2024-05")
	require.NoError(t, err)
	require.Len(t, slips, 3)
	assert.Equal(t, "emp-1", slips[0].EmployeeID)
	assert.Equal(t, "emp-2", slips[1].EmployeeID)
	assert.Equal(t, "emp-3", slips[2].EmployeeID)
}

func TestLedgerRepository_ApplyTransition(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	ledger := NewLedgerRepository(store)
	audit := NewAuditRepository(store)
	seedCycle(t, ledger, "2024-05", "emp-1")

	slip, err := ledger.ApplyTransition(ctx, settlement.Transition{
		CycleID:    "2024-05",
		EmployeeID: "emp-1",
		From:       settlement.StatusPending,
		To:         settlement.StatusVerified,
		ActorID:    "auditor-1",
	})
	require.NoError(t, err)
	assert.Equal(t, settlement.StatusVerified, slip.Status)
	require.NotNil(t, slip.VerifiedAt)
	require.NotNil(t, slip.VerifiedBy)
	assert.Equal(t, "auditor-1", *slip.VerifiedBy)

	// Transition and audit entry are committed together
	entries, err := audit.ListForCycle(ctx, "2024-05")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, settlement.ActionVerified, entries[0].Action)
	assert.Equal(t, "auditor-1", entries[0].ActorID)
	require.NotNil(t, entries[0].EmployeeID)
	assert.Equal(t, "emp-1", *entries[0].EmployeeID)
}

func TestLedgerRepository_ApplyTransition_Stale(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	ledger := NewLedgerRepository(store)
	audit := NewAuditRepository(store)
	seedCycle(t, ledger, "2024-05", "emp-1")

	verify := settlement.Transition{
		CycleID:    "2024-05",
		EmployeeID: "emp-1",
		From:       settlement.StatusPending,
		To:         settlement.StatusVerified,
		ActorID:    "auditor-1",
	}
	_, err := ledger.ApplyTransition(ctx, verify)
	require.NoError(t, err)

	// Record already moved on: the CAS must fail
	_, err = ledger.ApplyTransition(ctx, verify)
	assert.ErrorIs(t, err, settlement.ErrStaleTransition)

	// A failed CAS must not leave an audit entry behind
	entries, err := audit.ListForCycle(ctx, "2024-05")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLedgerRepository_ApplyTransition_Illegal(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedgerRepository(NewStore())
	seedCycle(t, ledger, "2024-05", "emp-1")

	// Skipping verification is never legal
	_, err := ledger.ApplyTransition(ctx, settlement.Transition{
		CycleID:    "2024-05",
		EmployeeID: "emp-1",
		From:       settlement.StatusPending,
		To:         settlement.StatusProcessed,
		ActorID:    "auditor-1",
	})
	assert.ErrorIs(t, err, settlement.ErrInvalidTransition)

	_, err = ledger.ApplyTransition(ctx, settlement.Transition{
		CycleID:    "2024-05",
		EmployeeID: "missing",
		From:       settlement.StatusPending,
		To:         settlement.StatusVerified,
		ActorID:    "auditor-1",
	})
	assert.ErrorIs(t, err, settlement.ErrPayslipNotFound)
}

func TestLedgerRepository_ApplyTransition_ConcurrentSingleWinner(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	ledger := NewLedgerRepository(store)
	audit := NewAuditRepository(store)
	seedCycle(t, ledger, "2024-05", "emp-1")

	const workers = 16
	var wg sync.WaitGroup
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = ledger.ApplyTransition(ctx, settlement.Transition{
				CycleID:    "2024-05",
				EmployeeID: "emp-1",
				From:       settlement.StatusPending,
				To:         settlement.StatusVerified,
				ActorID:    "auditor-1",
			})
		}(i)
	}
	wg.Wait()

	var won, stale int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case err == settlement.ErrStaleTransition:
			stale++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, workers-1, stale)

	// Exactly one audit entry for the single successful transition
	entries, err := audit.ListForCycle(ctx, "2024-05")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
