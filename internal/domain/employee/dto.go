package employee

import (
	"time"

	"github.com/vatsinhr/settlement-backend-go/internal/pkg/validator"
)

type CreateEmployeeRequest struct {
	FullName             string  `json:"full_name"`
	Email                string  `json:"email"`
	Designation          *string `json:"designation,omitempty"`
	Department           *string `json:"department,omitempty"`
	AnnualCompMinorUnits int64   `json:"annual_comp_minor_units"`
	Currency             string  `json:"currency"`
}

func (r *CreateEmployeeRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.FullName) {
		errs = append(errs, validator.ValidationError{Field: "full_name", Message: "is required"})
	}
	if !validator.IsValidEmail(r.Email) {
		errs = append(errs, validator.ValidationError{Field: "email", Message: "must be a valid email address"})
	}
	if r.AnnualCompMinorUnits <= 0 {
		errs = append(errs, validator.ValidationError{Field: "annual_comp_minor_units", Message: "must be positive"})
	}
	if !validator.IsValidCurrencyCode(r.Currency) {
		errs = append(errs, validator.ValidationError{Field: "currency", Message: "must be a three-letter ISO 4217 code"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type EmployeeResponse struct {
	ID                   string  `json:"id"`
	FullName             string  `json:"full_name"`
	Email                string  `json:"email"`
	Designation          *string `json:"designation,omitempty"`
	Department           *string `json:"department,omitempty"`
	AnnualCompMinorUnits int64   `json:"annual_comp_minor_units"`
	Currency             string  `json:"currency"`
	EmploymentStatus     string  `json:"employment_status"`
	JoinedAt             string  `json:"joined_at"`
}

func ToResponse(e Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:                   e.ID,
		FullName:             e.FullName,
		Email:                e.Email,
		Designation:          e.Designation,
		Department:           e.Department,
		AnnualCompMinorUnits: e.AnnualCompMinorUnits,
		Currency:             e.Currency,
		EmploymentStatus:     string(e.EmploymentStatus),
		JoinedAt:             e.JoinedAt.Format(time.RFC3339),
	}
}

func ToResponses(employees []Employee) []EmployeeResponse {
	result := make([]EmployeeResponse, 0, len(employees))
	for _, e := range employees {
		result = append(result, ToResponse(e))
	}
	return result
}
