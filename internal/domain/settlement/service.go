package settlement

import "context"

// Service is the settlement coordinator: the only surface other subsystems
// (HTTP handlers, notification fan-out) talk to. It routes commands to the
// verification and disbursement logic and aggregates reads; it holds no
// invariants of its own beyond that routing.
//
// Every mutating command carries an explicit actor for audit attribution.
type Service interface {
	OpenCycle(ctx context.Context, req OpenCycleRequest, actorID string) (CycleResponse, error)

	VerifyOne(ctx context.Context, cycleID, employeeID, actorID string) (PayslipResponse, error)
	VerifyBatch(ctx context.Context, cycleID, actorID string) (BatchResultResponse, error)

	Disburse(ctx context.Context, cycleID, actorID string) (DistributionResponse, error)

	GetCycleStatus(ctx context.Context, cycleID string) (CycleStatusResponse, error)
	ListPayslips(ctx context.Context, cycleID string) ([]PayslipResponse, error)
	ListCycleAudit(ctx context.Context, cycleID string) ([]AuditEntryResponse, error)
	GetDistributionHistory(ctx context.Context) ([]DistributionResponse, error)
}
