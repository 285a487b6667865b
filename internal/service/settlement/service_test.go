package settlement

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vatsinhr/settlement-backend-go/internal/domain/employee"
	"github.com/vatsinhr/settlement-backend-go/internal/domain/notification"
	"github.com/vatsinhr/settlement-backend-go/internal/domain/settlement"
	"github.com/vatsinhr/settlement-backend-go/internal/repository/memory"
)

// captureDispatcher records dispatched events for assertions.
type captureDispatcher struct {
	mu     sync.Mutex
	events []notification.Event
}

func (d *captureDispatcher) Dispatch(event notification.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
}

func (d *captureDispatcher) byType(t notification.NotificationType) []notification.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []notification.Event
	for _, e := range d.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// failingLedger wraps a real ledger and fails ApplyTransition for chosen
// employees, simulating a storage fault mid-sweep.
type failingLedger struct {
	settlement.LedgerRepository
	failFor map[string]error
}

func (l *failingLedger) ApplyTransition(ctx context.Context, t settlement.Transition) (settlement.Payslip, error) {
	if err, ok := l.failFor[t.EmployeeID]; ok {
		return settlement.Payslip{}, err
	}
	return l.LedgerRepository.ApplyTransition(ctx, t)
}

// flakyAudit wraps a real audit repository and fails Append once for a
// chosen action, simulating a storage fault after neighboring writes landed.
type flakyAudit struct {
	settlement.AuditRepository
	failOn  settlement.AuditAction
	tripped bool
}

func (a *flakyAudit) Append(ctx context.Context, entry settlement.AuditEntry) (settlement.AuditEntry, error) {
	if entry.Action == a.failOn && !a.tripped {
		a.tripped = true
		return settlement.AuditEntry{}, errors.New("append failed")
	}
	return a.AuditRepository.Append(ctx, entry)
}

type testEnv struct {
	svc        settlement.Service
	store      *memory.Store
	ledger     settlement.LedgerRepository
	audit      settlement.AuditRepository
	dispatcher *captureDispatcher
}

func newTestEnv(t *testing.T, wrapLedger func(settlement.LedgerRepository) settlement.LedgerRepository, wrapAudit func(settlement.AuditRepository) settlement.AuditRepository) testEnv {
	t.Helper()
	ctx := context.Background()

	store := memory.NewStore()
	ledger := settlement.LedgerRepository(memory.NewLedgerRepository(store))
	if wrapLedger != nil {
		ledger = wrapLedger(ledger)
	}
	audit := settlement.AuditRepository(memory.NewAuditRepository(store))
	if wrapAudit != nil {
		audit = wrapAudit(audit)
	}
	distributions := memory.NewDistributionRepository(store)
	employeeRepo := memory.NewEmployeeRepository(store)
	dispatcher := &captureDispatcher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	// Monthly amounts come out as 50000, 75000 and 120000 minor units.
	seed := []employee.Employee{
		{ID: "emp-1", FullName: "Ann Chow", Email: "ann@example.com", AnnualCompMinorUnits: 600000, Currency: "USD", EmploymentStatus: employee.StatusActive},
		{ID: "emp-2", FullName: "Ben Osei", Email: "ben@example.com", AnnualCompMinorUnits: 900000, Currency: "USD", EmploymentStatus: employee.StatusActive},
		{ID: "emp-3", FullName: "Cara Diaz", Email: "cara@example.com", AnnualCompMinorUnits: 1440000, Currency: "USD", EmploymentStatus: employee.StatusActive},
		{ID: "emp-gone", FullName: "Dee Fox", Email: "dee@example.com", AnnualCompMinorUnits: 600000, Currency: "USD"},
	}
	for _, emp := range seed {
		_, err := employeeRepo.Create(ctx, emp)
		require.NoError(t, err)
	}
	require.NoError(t, employeeRepo.Archive(ctx, "emp-gone"))

	svc := NewSettlementService(ledger, audit, distributions, store, employeeRepo, dispatcher, logger)
	return testEnv{svc: svc, store: store, ledger: ledger, audit: audit, dispatcher: dispatcher}
}

func openTestCycle(t *testing.T, env testEnv) settlement.CycleResponse {
	t.Helper()
	resp, err := env.svc.OpenCycle(context.Background(), settlement.OpenCycleRequest{
		PeriodMonth: 5,
		PeriodYear:  2024,
		EmployeeIDs: []string{"emp-1", "emp-2", "emp-3"},
	}, "admin-1")
	require.NoError(t, err)
	return resp
}

// ========== CYCLE OPEN ==========

func TestOpenCycle_Success(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	resp := openTestCycle(t, env)

	assert.Equal(t, "2024-05", resp.CycleID)
	assert.Equal(t, 3, resp.PayslipCount)
	require.Len(t, resp.Payslips, 3)

	amounts := map[string]int64{}
	for _, slip := range resp.Payslips {
		assert.Equal(t, string(settlement.StatusPending), slip.Status)
		amounts[slip.EmployeeID] = slip.NetAmountMinorUnits
	}
	assert.Equal(t, int64(50000), amounts["emp-1"])
	assert.Equal(t, int64(75000), amounts["emp-2"])
	assert.Equal(t, int64(120000), amounts["emp-3"])

	// Trail: one open event plus one creation event per payslip
	entries, err := env.audit.ListForCycle(context.Background(), "2024-05")
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, settlement.ActionCycleOpened, entries[0].Action)
	assert.Equal(t, "admin-1", entries[0].ActorID)
	for _, e := range entries[1:] {
		assert.Equal(t, settlement.ActionPayslipCreated, e.Action)
		require.NotNil(t, e.EmployeeID)
	}
}

func TestOpenCycle_DuplicatePeriod(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	openTestCycle(t, env)

	_, err := env.svc.OpenCycle(context.Background(), settlement.OpenCycleRequest{
		PeriodMonth: 5,
		PeriodYear:  2024,
		EmployeeIDs: []string{"emp-1"},
	}, "admin-1")
	assert.ErrorIs(t, err, settlement.ErrCycleAlreadyExists)
}

func TestOpenCycle_ArchivedEmployee(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	_, err := env.svc.OpenCycle(context.Background(), settlement.OpenCycleRequest{
		PeriodMonth: 5,
		PeriodYear:  2024,
		EmployeeIDs: []string{"emp-1", "emp-gone"},
	}, "admin-1")
	assert.ErrorIs(t, err, settlement.ErrEmployeeNotEligible)
}

func TestOpenCycle_UnknownEmployee(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	_, err := env.svc.OpenCycle(context.Background(), settlement.OpenCycleRequest{
		PeriodMonth: 5,
		PeriodYear:  2024,
		EmployeeIDs: []string{"emp-1", "emp-unknown"},
	}, "admin-1")
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestOpenCycle_AmountOverride(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	resp, err := env.svc.OpenCycle(context.Background(), settlement.OpenCycleRequest{
		PeriodMonth:     5,
		PeriodYear:      2024,
		EmployeeIDs:     []string{"emp-1"},
		AmountOverrides: map[string]int64{"emp-1": 99999},
	}, "admin-1")
	require.NoError(t, err)
	require.Len(t, resp.Payslips, 1)
	assert.Equal(t, int64(99999), resp.Payslips[0].NetAmountMinorUnits)
}

func TestOpenCycle_InvalidRequest(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	_, err := env.svc.OpenCycle(context.Background(), settlement.OpenCycleRequest{
		PeriodMonth: 13,
		PeriodYear:  2024,
		EmployeeIDs: []string{"emp-1"},
	}, "admin-1")
	assert.Error(t, err)

	_, err = env.svc.OpenCycle(context.Background(), settlement.OpenCycleRequest{
		PeriodMonth: 5,
		PeriodYear:  2024,
		EmployeeIDs: []string{"emp-1", "emp-1"},
	}, "admin-1")
	assert.Error(t, err)
}

// ========== VERIFICATION ==========

func TestVerifyOne_Success(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	openTestCycle(t, env)

	resp, err := env.svc.VerifyOne(context.Background(), "2024-05", "emp-1", "auditor-1")
	require.NoError(t, err)
	assert.Equal(t, string(settlement.StatusVerified), resp.Status)
	require.NotNil(t, resp.VerifiedBy)
	assert.Equal(t, "auditor-1", *resp.VerifiedBy)

	events := env.dispatcher.byType(notification.TypePayslipVerified)
	require.Len(t, events, 1)
	assert.Equal(t, "emp-1", events[0].RecipientID)
}

func TestVerifyOne_Idempotent(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	openTestCycle(t, env)
	ctx := context.Background()

	_, err := env.svc.VerifyOne(ctx, "2024-05", "emp-1", "auditor-1")
	require.NoError(t, err)

	// Second invocation succeeds without a second transition
	resp, err := env.svc.VerifyOne(ctx, "2024-05", "emp-1", "auditor-2")
	require.NoError(t, err)
	assert.Equal(t, string(settlement.StatusVerified), resp.Status)
	require.NotNil(t, resp.VerifiedBy)
	assert.Equal(t, "auditor-1", *resp.VerifiedBy)

	entries, err := env.audit.ListForCycle(ctx, "2024-05")
	require.NoError(t, err)
	verified := 0
	for _, e := range entries {
		if e.Action == settlement.ActionVerified {
			verified++
		}
	}
	assert.Equal(t, 1, verified)
}

func TestVerifyOne_RecordNotFound(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	openTestCycle(t, env)

	_, err := env.svc.VerifyOne(context.Background(), "2024-05", "emp-unknown", "auditor-1")
	assert.ErrorIs(t, err, settlement.ErrPayslipNotFound)
}

func TestVerifyOne_Concurrent(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	openTestCycle(t, env)
	ctx := context.Background()

	const workers = 12
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.svc.VerifyOne(ctx, "2024-05", "emp-1", "auditor-1")
		}(i)
	}
	wg.Wait()

	// Every caller sees success, the ledger records one transition
	for _, err := range errs {
		assert.NoError(t, err)
	}

	entries, err := env.audit.ListForCycle(ctx, "2024-05")
	require.NoError(t, err)
	verified := 0
	for _, e := range entries {
		if e.Action == settlement.ActionVerified {
			verified++
		}
	}
	assert.Equal(t, 1, verified)
}

func TestVerifyBatch_Success(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	openTestCycle(t, env)
	ctx := context.Background()

	// One record verified up front, the batch sweeps the rest
	_, err := env.svc.VerifyOne(ctx, "2024-05", "emp-2", "auditor-1")
	require.NoError(t, err)

	result, err := env.svc.VerifyBatch(ctx, "2024-05", "auditor-1")
	require.NoError(t, err)
	assert.Equal(t, 2, result.VerifiedCount)
	assert.Equal(t, 1, result.AlreadyVerifiedCount)
	assert.Empty(t, result.Failures)

	status, err := env.svc.GetCycleStatus(ctx, "2024-05")
	require.NoError(t, err)
	assert.Equal(t, 0, status.Pending)
	assert.Equal(t, 3, status.Verified)
	assert.True(t, status.CanDisburse)
}

func TestVerifyBatch_BestEffort(t *testing.T) {
	boom := errors.New("storage gone")
	env := newTestEnv(t, func(l settlement.LedgerRepository) settlement.LedgerRepository {
		return &failingLedger{LedgerRepository: l, failFor: map[string]error{"emp-2": boom}}
	}, nil)
	openTestCycle(t, env)

	// One record fails but the sweep continues past it
	result, err := env.svc.VerifyBatch(context.Background(), "2024-05", "auditor-1")
	require.NoError(t, err)
	assert.Equal(t, 2, result.VerifiedCount)
	assert.Equal(t, []string{"emp-2"}, result.Failures)
}

func TestVerifyBatch_CycleNotFound(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	_, err := env.svc.VerifyBatch(context.Background(), "2024-05", "auditor-1")
	assert.ErrorIs(t, err, settlement.ErrCycleNotFound)
}

// ========== DISBURSEMENT ==========

func TestDisburse_BlockedWhilePending(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	openTestCycle(t, env)
	ctx := context.Background()

	_, err := env.svc.Disburse(ctx, "2024-05", "admin-1")
	var unverified *settlement.UnverifiedRecordsError
	require.ErrorAs(t, err, &unverified)
	assert.Equal(t, "2024-05", unverified.CycleID)
	assert.Equal(t, 3, unverified.Count)

	// One verification is not enough; the gate counts what remains
	_, err = env.svc.VerifyOne(ctx, "2024-05", "emp-1", "auditor-1")
	require.NoError(t, err)

	_, err = env.svc.Disburse(ctx, "2024-05", "admin-1")
	require.ErrorAs(t, err, &unverified)
	assert.Equal(t, 2, unverified.Count)
}

func TestDisburse_Success(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	openTestCycle(t, env)
	ctx := context.Background()

	_, err := env.svc.VerifyBatch(ctx, "2024-05", "auditor-1")
	require.NoError(t, err)

	resp, err := env.svc.Disburse(ctx, "2024-05", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, "2024-05", resp.CycleID)
	assert.Equal(t, int64(245000), resp.TotalAmountMinorUnits)
	assert.Equal(t, "2450.00", resp.TotalDisplay)
	assert.Equal(t, 3, resp.EmployeeCount)
	assert.Equal(t, 3, resp.ProcessedCount)

	status, err := env.svc.GetCycleStatus(ctx, "2024-05")
	require.NoError(t, err)
	assert.Equal(t, 3, status.Processed)

	// Trail: open, 3 creations, 3 verifications, 3 processing transitions, close
	entries, err := env.svc.ListCycleAudit(ctx, "2024-05")
	require.NoError(t, err)
	assert.Len(t, entries, 11)
	assert.Equal(t, string(settlement.ActionCycleDisbursed), entries[len(entries)-1].Action)

	events := env.dispatcher.byType(notification.TypeCycleDisbursed)
	assert.Len(t, events, 3)
}

func TestDisburse_Idempotent(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	openTestCycle(t, env)
	ctx := context.Background()

	_, err := env.svc.VerifyBatch(ctx, "2024-05", "auditor-1")
	require.NoError(t, err)

	first, err := env.svc.Disburse(ctx, "2024-05", "admin-1")
	require.NoError(t, err)

	// Re-running moves nothing and returns the original summary
	second, err := env.svc.Disburse(ctx, "2024-05", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.TotalAmountMinorUnits, second.TotalAmountMinorUnits)
	assert.Equal(t, 0, second.ProcessedCount)

	history, err := env.svc.GetDistributionHistory(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestDisburse_RetryCompletesTrailAfterAppendFailure(t *testing.T) {
	env := newTestEnv(t, nil, func(a settlement.AuditRepository) settlement.AuditRepository {
		return &flakyAudit{AuditRepository: a, failOn: settlement.ActionCycleDisbursed}
	})
	openTestCycle(t, env)
	ctx := context.Background()

	_, err := env.svc.VerifyBatch(ctx, "2024-05", "auditor-1")
	require.NoError(t, err)

	// The summary may land while its audit entry does not
	_, err = env.svc.Disburse(ctx, "2024-05", "admin-1")
	require.Error(t, err)

	// The re-run takes the nothing-left-to-process path and must still
	// leave exactly one cycle_disbursed entry in the trail
	resp, err := env.svc.Disburse(ctx, "2024-05", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, 0, resp.ProcessedCount)
	assert.Equal(t, int64(245000), resp.TotalAmountMinorUnits)

	entries, err := env.audit.ListForCycle(ctx, "2024-05")
	require.NoError(t, err)
	disbursed := 0
	for _, e := range entries {
		if e.Action == settlement.ActionCycleDisbursed {
			disbursed++
		}
	}
	assert.Equal(t, 1, disbursed)
}

func TestDisburse_PartialFailure(t *testing.T) {
	boom := errors.New("storage gone")
	failFor := map[string]error{"emp-3": boom}
	env := newTestEnv(t, func(l settlement.LedgerRepository) settlement.LedgerRepository {
		return &failingLedger{LedgerRepository: l, failFor: failFor}
	}, nil)
	openTestCycle(t, env)
	ctx := context.Background()

	// Verification must land before the sweep can start
	for _, id := range []string{"emp-1", "emp-2"} {
		_, err := env.svc.VerifyOne(ctx, "2024-05", id, "auditor-1")
		require.NoError(t, err)
	}
	slip, err := env.ledger.(*failingLedger).LedgerRepository.ApplyTransition(ctx, settlement.Transition{
		CycleID:    "2024-05",
		EmployeeID: "emp-3",
		From:       settlement.StatusPending,
		To:         settlement.StatusVerified,
		ActorID:    "auditor-1",
	})
	require.NoError(t, err)
	require.Equal(t, settlement.StatusVerified, slip.Status)

	_, err = env.svc.Disburse(ctx, "2024-05", "admin-1")
	var partial *settlement.PartialDisbursementError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, "2024-05", partial.CycleID)
	assert.Equal(t, []string{"emp-1", "emp-2"}, partial.Processed)
	assert.ErrorIs(t, err, boom)

	// Processed records stay processed, no rollback
	status, err := env.svc.GetCycleStatus(ctx, "2024-05")
	require.NoError(t, err)
	assert.Equal(t, 2, status.Processed)
	assert.Equal(t, 1, status.Verified)

	// After the fault clears, re-running completes the remainder
	delete(failFor, "emp-3")
	resp, err := env.svc.Disburse(ctx, "2024-05", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, 1, resp.ProcessedCount)

	status, err = env.svc.GetCycleStatus(ctx, "2024-05")
	require.NoError(t, err)
	assert.Equal(t, 3, status.Processed)
}

func TestDisburse_CycleNotFound(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	_, err := env.svc.Disburse(context.Background(), "2024-05", "admin-1")
	assert.ErrorIs(t, err, settlement.ErrCycleNotFound)
}

// ========== READS ==========

func TestGetCycleStatus(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	openTestCycle(t, env)
	ctx := context.Background()

	status, err := env.svc.GetCycleStatus(ctx, "2024-05")
	require.NoError(t, err)
	assert.Equal(t, 3, status.Pending)
	assert.False(t, status.CanDisburse)

	_, err = env.svc.GetCycleStatus(ctx, "2030-01")
	assert.ErrorIs(t, err, settlement.ErrCycleNotFound)
}

func TestListPayslips_Ordered(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	openTestCycle(t, env)

	slips, err := env.svc.ListPayslips(context.Background(), "2024-05")
	require.NoError(t, err)
	require.Len(t, slips, 3)
	assert.Equal(t, "emp-1", slips[0].EmployeeID)
	assert.Equal(t, "emp-2", slips[1].EmployeeID)
	assert.Equal(t, "emp-3", slips[2].EmployeeID)
	assert.Equal(t, "500.00", slips[0].AmountDisplay)
}
