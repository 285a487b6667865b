package settlement

import (
	"time"
)

// PayslipStatus enum. Forward-only: Pending -> Verified -> Processed.
type PayslipStatus string

const (
	StatusPending   PayslipStatus = "pending"
	StatusVerified  PayslipStatus = "verified"
	StatusProcessed PayslipStatus = "processed"
)

// CanTransition reports whether from -> to is a legal single step.
func CanTransition(from, to PayslipStatus) bool {
	switch from {
	case StatusPending:
		return to == StatusVerified
	case StatusVerified:
		return to == StatusProcessed
	default:
		return false
	}
}

// Cycle groups one Payslip per eligible employee for a single payroll period.
// Immutable once opened except through its payslips' states.
type Cycle struct {
	ID        string
	Month     int
	Year      int
	CreatedAt time.Time
}

// Payslip - settlement record for one employee within one cycle.
// Identified by the (CycleID, EmployeeID) pair; NetAmountMinorUnits is fixed at creation.
type Payslip struct {
	ID                  string
	CycleID             string
	EmployeeID          string
	NetAmountMinorUnits int64
	Currency            string
	Status              PayslipStatus
	VerifiedAt          *time.Time
	VerifiedBy          *string
	ProcessedAt         *time.Time
	ProcessedBy         *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// AuditEntry records one state transition. Append-only, never updated or deleted.
// EmployeeID is nil for cycle-level events (open, disburse summary).
type AuditEntry struct {
	ID         string
	CycleID    string
	EmployeeID *string
	FromStatus *PayslipStatus
	ToStatus   *PayslipStatus
	Action     AuditAction
	ActorID    string
	Note       *string
	CreatedAt  time.Time
}

// AuditAction enum
type AuditAction string

const (
	ActionCycleOpened    AuditAction = "cycle_opened"
	ActionPayslipCreated AuditAction = "payslip_created"
	ActionVerified       AuditAction = "verified"
	ActionProcessed      AuditAction = "processed"
	ActionCycleDisbursed AuditAction = "cycle_disbursed"
)

// DistributionRecord - closed-cycle summary, written when a disbursement
// sweep completes. TotalAmountMinorUnits covers the payslips processed by
// that sweep, not every payslip ever in the cycle.
type DistributionRecord struct {
	ID                    string
	CycleID               string
	TotalAmountMinorUnits int64
	Currency              string
	EmployeeCount         int
	ClosedAt              time.Time
}

// Transition is the single mutation primitive against the ledger.
// Applied only when the record's current status equals From (CAS).
type Transition struct {
	CycleID    string
	EmployeeID string
	From       PayslipStatus
	To         PayslipStatus
	ActorID    string
	Note       *string
}

// CycleStatus - per-status counts plus whether disbursement is currently legal.
type CycleStatus struct {
	CycleID     string
	Pending     int
	Verified    int
	Processed   int
	CanDisburse bool
}

// BatchResult summarizes a best-effort verification sweep.
type BatchResult struct {
	CycleID              string
	VerifiedCount        int
	AlreadyVerifiedCount int
	Failures             []string // employee IDs that failed to transition
}

// DisbursementResult is what a successful Disburse call returns.
type DisbursementResult struct {
	Record         DistributionRecord
	ProcessedCount int
	AlreadyDone    bool // true when the sweep had nothing left to process
}
