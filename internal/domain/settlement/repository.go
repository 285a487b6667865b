package settlement

import "context"

// LedgerRepository is the authoritative store of cycles and payslips.
//
// ApplyTransition is the single mutation primitive: it succeeds only when the
// record's current status equals t.From, and it persists the new status and
// the matching AuditEntry atomically (one database transaction, or one lock
// hold for the in-memory store). A transition whose audit write fails is not
// committed.
type LedgerRepository interface {
	CreateCycle(ctx context.Context, cycle Cycle) (Cycle, error)
	GetCycle(ctx context.Context, cycleID string) (Cycle, error)

	CreatePayslip(ctx context.Context, slip Payslip) (Payslip, error)
	GetPayslip(ctx context.Context, cycleID, employeeID string) (Payslip, error)
	ListByCycle(ctx context.Context, cycleID string) ([]Payslip, error)

	ApplyTransition(ctx context.Context, t Transition) (Payslip, error)
}

// AuditRepository is append-only; transition entries are written by the
// ledger itself, cycle-level entries (open, disburse summary) come through
// Append.
type AuditRepository interface {
	Append(ctx context.Context, entry AuditEntry) (AuditEntry, error)
	ListForCycle(ctx context.Context, cycleID string) ([]AuditEntry, error)
}

// TxRunner groups repository calls from different repositories into one
// atomic unit: every call made inside fn commits together or not at all.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// DistributionRepository stores closed-cycle summaries.
type DistributionRepository interface {
	Create(ctx context.Context, record DistributionRecord) (DistributionRecord, error)
	GetByCycle(ctx context.Context, cycleID string) (DistributionRecord, error)
	List(ctx context.Context) ([]DistributionRecord, error)
}
