package settlement

import (
	"errors"
	"fmt"
)

var (
	ErrCycleNotFound        = errors.New("settlement cycle not found")
	ErrCycleAlreadyExists   = errors.New("settlement cycle already exists for this period")
	ErrPayslipNotFound      = errors.New("payslip not found")
	ErrDuplicatePayslip     = errors.New("payslip already exists for this employee and cycle")
	ErrStaleTransition      = errors.New("payslip status changed concurrently, transition not applied")
	ErrInvalidTransition    = errors.New("illegal payslip status transition")
	ErrEmployeeNotEligible  = errors.New("employee is not active and cannot join a cycle")
	ErrDistributionNotFound = errors.New("distribution record not found for this cycle")
)

// UnverifiedRecordsError rejects a disbursement while payslips are still
// pending. Count tells the caller how many records block the cycle.
type UnverifiedRecordsError struct {
	CycleID string
	Count   int
}

func (e *UnverifiedRecordsError) Error() string {
	return fmt.Sprintf("cycle %s has %d unverified payslip(s), disbursement blocked", e.CycleID, e.Count)
}

// PartialDisbursementError reports a sweep that stopped mid-way. Processed
// lists the employee IDs whose payslips reached Processed before the failure;
// those are not rolled back. Re-invoking Disburse completes the remainder.
type PartialDisbursementError struct {
	CycleID   string
	Processed []string
	Err       error
}

func (e *PartialDisbursementError) Error() string {
	return fmt.Sprintf("disbursement of cycle %s aborted after %d payslip(s): %v", e.CycleID, len(e.Processed), e.Err)
}

func (e *PartialDisbursementError) Unwrap() error {
	return e.Err
}
