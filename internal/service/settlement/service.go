package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vatsinhr/settlement-backend-go/internal/domain/employee"
	"github.com/vatsinhr/settlement-backend-go/internal/domain/notification"
	"github.com/vatsinhr/settlement-backend-go/internal/domain/settlement"
)

type SettlementServiceImpl struct {
	ledger        settlement.LedgerRepository
	audit         settlement.AuditRepository
	distributions settlement.DistributionRepository
	tx            settlement.TxRunner
	employeeRepo  employee.EmployeeRepository
	dispatcher    notification.Dispatcher
	logger        *slog.Logger
}

func NewSettlementService(
	ledger settlement.LedgerRepository,
	audit settlement.AuditRepository,
	distributions settlement.DistributionRepository,
	tx settlement.TxRunner,
	employeeRepo employee.EmployeeRepository,
	dispatcher notification.Dispatcher,
	logger *slog.Logger,
) settlement.Service {
	return &SettlementServiceImpl{
		ledger:        ledger,
		audit:         audit,
		distributions: distributions,
		tx:            tx,
		employeeRepo:  employeeRepo,
		dispatcher:    dispatcher,
		logger:        logger,
	}
}

// ========== CYCLE OPEN ==========

func (s *SettlementServiceImpl) OpenCycle(ctx context.Context, req settlement.OpenCycleRequest, actorID string) (settlement.CycleResponse, error) {
	if err := req.Validate(); err != nil {
		return settlement.CycleResponse{}, err
	}

	period := settlement.Period{Month: req.PeriodMonth, Year: req.PeriodYear}

	employees, err := s.employeeRepo.GetByIDs(ctx, req.EmployeeIDs)
	if err != nil {
		return settlement.CycleResponse{}, fmt.Errorf("failed to load employees: %w", err)
	}
	byID := make(map[string]employee.Employee, len(employees))
	for _, emp := range employees {
		byID[emp.ID] = emp
	}
	for _, id := range req.EmployeeIDs {
		emp, ok := byID[id]
		if !ok {
			return settlement.CycleResponse{}, fmt.Errorf("employee %s: %w", id, employee.ErrEmployeeNotFound)
		}
		if !emp.IsActive() {
			return settlement.CycleResponse{}, fmt.Errorf("employee %s: %w", id, settlement.ErrEmployeeNotEligible)
		}
	}

	// The cycle, its payslips and their audit entries land together: a
	// failure part-way must not leave a half-opened cycle that blocks the
	// period forever behind ErrCycleAlreadyExists.
	var (
		cycle settlement.Cycle
		slips []settlement.Payslip
	)
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		cycle, err = s.ledger.CreateCycle(ctx, settlement.Cycle{
			ID:    period.CycleID(),
			Month: period.Month,
			Year:  period.Year,
		})
		if err != nil {
			return err
		}

		note := fmt.Sprintf("opened with %d payslip(s)", len(req.EmployeeIDs))
		if _, err := s.audit.Append(ctx, settlement.AuditEntry{
			CycleID: cycle.ID,
			Action:  settlement.ActionCycleOpened,
			ActorID: actorID,
			Note:    &note,
		}); err != nil {
			return err
		}

		slips = make([]settlement.Payslip, 0, len(req.EmployeeIDs))
		for _, id := range req.EmployeeIDs {
			emp := byID[id]
			amount := settlement.MonthlyAmount(emp.AnnualCompMinorUnits)
			if override, ok := req.AmountOverrides[id]; ok {
				amount = override
			}

			slip, err := s.ledger.CreatePayslip(ctx, settlement.Payslip{
				CycleID:             cycle.ID,
				EmployeeID:          id,
				NetAmountMinorUnits: amount,
				Currency:            emp.Currency,
			})
			if err != nil {
				return fmt.Errorf("failed to create payslip for employee %s: %w", id, err)
			}
			slips = append(slips, slip)

			employeeID := slip.EmployeeID
			if _, err := s.audit.Append(ctx, settlement.AuditEntry{
				CycleID:    cycle.ID,
				EmployeeID: &employeeID,
				Action:     settlement.ActionPayslipCreated,
				ActorID:    actorID,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return settlement.CycleResponse{}, err
	}

	return settlement.CycleResponse{
		CycleID:      cycle.ID,
		PeriodMonth:  cycle.Month,
		PeriodYear:   cycle.Year,
		PayslipCount: len(slips),
		CreatedAt:    cycle.CreatedAt.Format(time.RFC3339),
		Payslips:     settlement.ToPayslipResponses(slips),
	}, nil
}

// ========== VERIFICATION ==========

// VerifyOne moves one payslip from Pending to Verified. Already-verified and
// already-processed records are treated as success so the command is safe to
// retry; only a missing record is an error.
func (s *SettlementServiceImpl) VerifyOne(ctx context.Context, cycleID, employeeID, actorID string) (settlement.PayslipResponse, error) {
	slip, err := s.ledger.GetPayslip(ctx, cycleID, employeeID)
	if err != nil {
		return settlement.PayslipResponse{}, err
	}

	if slip.Status != settlement.StatusPending {
		return settlement.ToPayslipResponse(slip), nil
	}

	updated, err := s.ledger.ApplyTransition(ctx, settlement.Transition{
		CycleID:    cycleID,
		EmployeeID: employeeID,
		From:       settlement.StatusPending,
		To:         settlement.StatusVerified,
		ActorID:    actorID,
	})
	if err != nil {
		if errors.Is(err, settlement.ErrStaleTransition) {
			// Lost a race to a concurrent verification; the record moved
			// forward, so the command still succeeded.
			current, readErr := s.ledger.GetPayslip(ctx, cycleID, employeeID)
			if readErr == nil && current.Status != settlement.StatusPending {
				return settlement.ToPayslipResponse(current), nil
			}
		}
		return settlement.PayslipResponse{}, err
	}

	s.dispatcher.Dispatch(notification.Event{
		RecipientID: employeeID,
		Type:        notification.TypePayslipVerified,
		Title:       "Payslip verified",
		Message:     fmt.Sprintf("Your payslip for %s has been verified.", cycleID),
		Data:        map[string]interface{}{"cycle_id": cycleID},
	})

	return settlement.ToPayslipResponse(updated), nil
}

// VerifyBatch sweeps every pending payslip in the cycle. Best effort: one
// record's failure is recorded and the sweep continues.
func (s *SettlementServiceImpl) VerifyBatch(ctx context.Context, cycleID, actorID string) (settlement.BatchResultResponse, error) {
	if _, err := s.ledger.GetCycle(ctx, cycleID); err != nil {
		return settlement.BatchResultResponse{}, err
	}

	slips, err := s.ledger.ListByCycle(ctx, cycleID)
	if err != nil {
		return settlement.BatchResultResponse{}, err
	}

	result := settlement.BatchResultResponse{CycleID: cycleID, Failures: []string{}}
	for _, slip := range slips {
		if slip.Status != settlement.StatusPending {
			result.AlreadyVerifiedCount++
			continue
		}

		if _, err := s.VerifyOne(ctx, cycleID, slip.EmployeeID, actorID); err != nil {
			s.logger.Warn("batch verification failed for payslip",
				slog.String("cycle_id", cycleID),
				slog.String("employee_id", slip.EmployeeID),
				slog.Any("error", err),
			)
			result.Failures = append(result.Failures, slip.EmployeeID)
			continue
		}
		result.VerifiedCount++
	}

	return result, nil
}

// ========== DISBURSEMENT ==========

// Disburse closes out a cycle: rejects while any payslip is Pending, then
// moves every Verified payslip to Processed, summing amounts as it goes.
// Already-Processed records are skipped and never re-summed, which makes the
// command idempotent per cycle.
func (s *SettlementServiceImpl) Disburse(ctx context.Context, cycleID, actorID string) (settlement.DistributionResponse, error) {
	if _, err := s.ledger.GetCycle(ctx, cycleID); err != nil {
		return settlement.DistributionResponse{}, err
	}

	slips, err := s.ledger.ListByCycle(ctx, cycleID)
	if err != nil {
		return settlement.DistributionResponse{}, err
	}

	// Hard gate: the precondition is checked once per invocation against the
	// live listing. Verifications racing in after this point simply mean the
	// caller re-runs once the cycle is all clear.
	pending := 0
	for _, slip := range slips {
		if slip.Status == settlement.StatusPending {
			pending++
		}
	}
	if pending > 0 {
		return settlement.DistributionResponse{}, &settlement.UnverifiedRecordsError{CycleID: cycleID, Count: pending}
	}

	var (
		total     int64
		processed []string
		currency  string
	)
	for _, slip := range slips {
		if currency == "" {
			currency = slip.Currency
		}
		if slip.Status != settlement.StatusVerified {
			// Already processed by an earlier run; skip, never re-sum.
			continue
		}

		_, err := s.ledger.ApplyTransition(ctx, settlement.Transition{
			CycleID:    cycleID,
			EmployeeID: slip.EmployeeID,
			From:       settlement.StatusVerified,
			To:         settlement.StatusProcessed,
			ActorID:    actorID,
		})
		if err != nil {
			if errors.Is(err, settlement.ErrStaleTransition) {
				current, readErr := s.ledger.GetPayslip(ctx, cycleID, slip.EmployeeID)
				if readErr == nil && current.Status == settlement.StatusProcessed {
					// Concurrent disburse got there first; treat like any
					// other already-processed record.
					continue
				}
			}
			// Processed payslips stay processed: payment-equivalent actions
			// are not safely revocable, so surface what landed and stop.
			return settlement.DistributionResponse{}, &settlement.PartialDisbursementError{
				CycleID:   cycleID,
				Processed: processed,
				Err:       err,
			}
		}

		total += slip.NetAmountMinorUnits
		processed = append(processed, slip.EmployeeID)
	}

	if len(processed) == 0 {
		// Nothing left to process: succeed idempotently, returning the
		// existing summary if one was already written.
		if existing, err := s.distributions.GetByCycle(ctx, cycleID); err == nil {
			if err := s.ensureDisbursedEntry(ctx, existing, actorID); err != nil {
				return settlement.DistributionResponse{}, err
			}
			return settlement.ToDistributionResponse(existing, 0), nil
		} else if !errors.Is(err, settlement.ErrDistributionNotFound) {
			return settlement.DistributionResponse{}, err
		}
	}

	// Summary and its audit entry commit together; without that, a failed
	// append would strand a cycle whose trail never shows the close-out.
	var record settlement.DistributionRecord
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		record, err = s.distributions.Create(ctx, settlement.DistributionRecord{
			CycleID:               cycleID,
			TotalAmountMinorUnits: total,
			Currency:              currency,
			EmployeeCount:         len(processed),
		})
		if err != nil {
			return err
		}

		note := disbursementNote(len(processed), total)
		_, err = s.audit.Append(ctx, settlement.AuditEntry{
			CycleID: cycleID,
			Action:  settlement.ActionCycleDisbursed,
			ActorID: actorID,
			Note:    &note,
		})
		return err
	})
	if err != nil {
		return settlement.DistributionResponse{}, err
	}

	for _, employeeID := range processed {
		s.dispatcher.Dispatch(notification.Event{
			RecipientID: employeeID,
			Type:        notification.TypeCycleDisbursed,
			Title:       "Salary disbursed",
			Message:     fmt.Sprintf("Your salary for %s has been disbursed.", cycleID),
			Data:        map[string]interface{}{"cycle_id": cycleID},
		})
	}

	return settlement.ToDistributionResponse(record, len(processed)), nil
}

func disbursementNote(count int, total int64) string {
	return fmt.Sprintf("disbursed %d payslip(s), total %d minor units", count, total)
}

// ensureDisbursedEntry backfills the cycle_disbursed audit entry when a
// summary exists without one, which happens if an earlier run persisted the
// record but died before its append. Without the backfill a re-run would
// short-circuit on the existing summary and the trail would stay incomplete
// for good.
func (s *SettlementServiceImpl) ensureDisbursedEntry(ctx context.Context, record settlement.DistributionRecord, actorID string) error {
	entries, err := s.audit.ListForCycle(ctx, record.CycleID)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Action == settlement.ActionCycleDisbursed {
			return nil
		}
	}

	note := disbursementNote(record.EmployeeCount, record.TotalAmountMinorUnits)
	_, err = s.audit.Append(ctx, settlement.AuditEntry{
		CycleID: record.CycleID,
		Action:  settlement.ActionCycleDisbursed,
		ActorID: actorID,
		Note:    &note,
	})
	return err
}

// ========== READS ==========

func (s *SettlementServiceImpl) GetCycleStatus(ctx context.Context, cycleID string) (settlement.CycleStatusResponse, error) {
	if _, err := s.ledger.GetCycle(ctx, cycleID); err != nil {
		return settlement.CycleStatusResponse{}, err
	}

	slips, err := s.ledger.ListByCycle(ctx, cycleID)
	if err != nil {
		return settlement.CycleStatusResponse{}, err
	}

	status := settlement.CycleStatusResponse{CycleID: cycleID}
	for _, slip := range slips {
		switch slip.Status {
		case settlement.StatusPending:
			status.Pending++
		case settlement.StatusVerified:
			status.Verified++
		case settlement.StatusProcessed:
			status.Processed++
		}
	}
	status.CanDisburse = status.Pending == 0

	return status, nil
}

func (s *SettlementServiceImpl) ListPayslips(ctx context.Context, cycleID string) ([]settlement.PayslipResponse, error) {
	if _, err := s.ledger.GetCycle(ctx, cycleID); err != nil {
		return nil, err
	}

	slips, err := s.ledger.ListByCycle(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	return settlement.ToPayslipResponses(slips), nil
}

func (s *SettlementServiceImpl) ListCycleAudit(ctx context.Context, cycleID string) ([]settlement.AuditEntryResponse, error) {
	if _, err := s.ledger.GetCycle(ctx, cycleID); err != nil {
		return nil, err
	}

	entries, err := s.audit.ListForCycle(ctx, cycleID)
	if err != nil {
		return nil, err
	}

	result := make([]settlement.AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		result = append(result, settlement.ToAuditEntryResponse(e))
	}
	return result, nil
}

func (s *SettlementServiceImpl) GetDistributionHistory(ctx context.Context) ([]settlement.DistributionResponse, error) {
	records, err := s.distributions.List(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]settlement.DistributionResponse, 0, len(records))
	for _, r := range records {
		result = append(result, settlement.ToDistributionResponse(r, r.EmployeeCount))
	}
	return result, nil
}
