package settlement

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vatsinhr/settlement-backend-go/internal/pkg/validator"
)

// ========== REQUEST DTOs ==========

type OpenCycleRequest struct {
	PeriodMonth int      `json:"period_month"`
	PeriodYear  int      `json:"period_year"`
	EmployeeIDs []string `json:"employee_ids"`

	// Optional per-employee net amount overrides in minor units. Employees
	// not listed here get annual compensation / 12.
	AmountOverrides map[string]int64 `json:"amount_overrides,omitempty"`
}

func (r *OpenCycleRequest) Validate() error {
	var errs validator.ValidationErrors

	p := Period{Month: r.PeriodMonth, Year: r.PeriodYear}
	if !p.Valid() {
		errs = append(errs, validator.ValidationError{Field: "period", Message: "must be a calendar month between 2000-01 and 2100-12"})
	}
	if len(r.EmployeeIDs) == 0 {
		errs = append(errs, validator.ValidationError{Field: "employee_ids", Message: "at least one employee is required"})
	}
	seen := make(map[string]bool, len(r.EmployeeIDs))
	for _, id := range r.EmployeeIDs {
		if validator.IsEmpty(id) {
			errs = append(errs, validator.ValidationError{Field: "employee_ids", Message: "must not contain empty ids"})
			break
		}
		if seen[id] {
			errs = append(errs, validator.ValidationError{Field: "employee_ids", Message: "must not contain duplicate ids"})
			break
		}
		seen[id] = true
	}
	for id, amount := range r.AmountOverrides {
		if amount <= 0 {
			errs = append(errs, validator.ValidationError{Field: "amount_overrides." + id, Message: "must be positive"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ========== RESPONSE DTOs ==========

type CycleResponse struct {
	CycleID      string            `json:"cycle_id"`
	PeriodMonth  int               `json:"period_month"`
	PeriodYear   int               `json:"period_year"`
	PayslipCount int               `json:"payslip_count"`
	CreatedAt    string            `json:"created_at"`
	Payslips     []PayslipResponse `json:"payslips,omitempty"`
}

type PayslipResponse struct {
	ID                  string  `json:"id"`
	CycleID             string  `json:"cycle_id"`
	EmployeeID          string  `json:"employee_id"`
	NetAmountMinorUnits int64   `json:"net_amount_minor_units"`
	Currency            string  `json:"currency"`
	AmountDisplay       string  `json:"amount_display"`
	Status              string  `json:"status"`
	VerifiedAt          *string `json:"verified_at,omitempty"`
	VerifiedBy          *string `json:"verified_by,omitempty"`
	ProcessedAt         *string `json:"processed_at,omitempty"`
	ProcessedBy         *string `json:"processed_by,omitempty"`
}

type CycleStatusResponse struct {
	CycleID     string `json:"cycle_id"`
	Pending     int    `json:"pending"`
	Verified    int    `json:"verified"`
	Processed   int    `json:"processed"`
	CanDisburse bool   `json:"can_disburse"`
}

type BatchResultResponse struct {
	CycleID              string   `json:"cycle_id"`
	VerifiedCount        int      `json:"verified_count"`
	AlreadyVerifiedCount int      `json:"already_verified_count"`
	Failures             []string `json:"failures"`
}

type DistributionResponse struct {
	ID                    string `json:"id"`
	CycleID               string `json:"cycle_id"`
	TotalAmountMinorUnits int64  `json:"total_amount_minor_units"`
	Currency              string `json:"currency"`
	TotalDisplay          string `json:"total_display"`
	EmployeeCount         int    `json:"employee_count"`
	ProcessedCount        int    `json:"processed_count"`
	ClosedAt              string `json:"closed_at"`
}

type AuditEntryResponse struct {
	ID         string  `json:"id"`
	CycleID    string  `json:"cycle_id"`
	EmployeeID *string `json:"employee_id,omitempty"`
	FromStatus *string `json:"from_status,omitempty"`
	ToStatus   *string `json:"to_status,omitempty"`
	Action     string  `json:"action"`
	ActorID    string  `json:"actor_id"`
	Note       *string `json:"note,omitempty"`
	Timestamp  string  `json:"timestamp"`
}

// ========== MAPPERS ==========

// DisplayAmount renders minor units as a major-unit decimal string, e.g.
// 708333 -> "7083.33". Presentation only; arithmetic stays on int64.
func DisplayAmount(minorUnits int64) string {
	return decimal.NewFromInt(minorUnits).Div(decimal.NewFromInt(100)).StringFixed(2)
}

func ToPayslipResponse(p Payslip) PayslipResponse {
	return PayslipResponse{
		ID:                  p.ID,
		CycleID:             p.CycleID,
		EmployeeID:          p.EmployeeID,
		NetAmountMinorUnits: p.NetAmountMinorUnits,
		Currency:            p.Currency,
		AmountDisplay:       DisplayAmount(p.NetAmountMinorUnits),
		Status:              string(p.Status),
		VerifiedAt:          formatTimePtr(p.VerifiedAt),
		VerifiedBy:          p.VerifiedBy,
		ProcessedAt:         formatTimePtr(p.ProcessedAt),
		ProcessedBy:         p.ProcessedBy,
	}
}

func ToPayslipResponses(slips []Payslip) []PayslipResponse {
	result := make([]PayslipResponse, 0, len(slips))
	for _, p := range slips {
		result = append(result, ToPayslipResponse(p))
	}
	return result
}

func ToAuditEntryResponse(e AuditEntry) AuditEntryResponse {
	return AuditEntryResponse{
		ID:         e.ID,
		CycleID:    e.CycleID,
		EmployeeID: e.EmployeeID,
		FromStatus: statusPtrToString(e.FromStatus),
		ToStatus:   statusPtrToString(e.ToStatus),
		Action:     string(e.Action),
		ActorID:    e.ActorID,
		Note:       e.Note,
		Timestamp:  e.CreatedAt.Format(time.RFC3339),
	}
}

func ToDistributionResponse(r DistributionRecord, processedCount int) DistributionResponse {
	return DistributionResponse{
		ID:                    r.ID,
		CycleID:               r.CycleID,
		TotalAmountMinorUnits: r.TotalAmountMinorUnits,
		Currency:              r.Currency,
		TotalDisplay:          DisplayAmount(r.TotalAmountMinorUnits),
		EmployeeCount:         r.EmployeeCount,
		ProcessedCount:        processedCount,
		ClosedAt:              r.ClosedAt.Format(time.RFC3339),
	}
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	str := t.Format(time.RFC3339)
	return &str
}

func statusPtrToString(s *PayslipStatus) *string {
	if s == nil {
		return nil
	}
	str := string(*s)
	return &str
}
