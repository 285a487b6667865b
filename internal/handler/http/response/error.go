package response

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/vatsinhr/settlement-backend-go/internal/domain/auth"
	"github.com/vatsinhr/settlement-backend-go/internal/domain/employee"
	"github.com/vatsinhr/settlement-backend-go/internal/domain/settlement"
	"github.com/vatsinhr/settlement-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	// Typed settlement errors carry payloads the caller needs to act on.
	var unverified *settlement.UnverifiedRecordsError
	if errors.As(err, &unverified) {
		UnprocessableEntity(w, "UNVERIFIED_RECORDS_REMAIN", unverified.Error(), map[string]string{
			"cycle_id":      unverified.CycleID,
			"pending_count": strconv.Itoa(unverified.Count),
		})
		return
	}
	var partial *settlement.PartialDisbursementError
	if errors.As(err, &partial) {
		UnprocessableEntity(w, "PARTIAL_DISBURSEMENT_FAILURE", partial.Error(), map[string]string{
			"cycle_id":  partial.CycleID,
			"processed": strings.Join(partial.Processed, ","),
		})
		return
	}

	switch {
	// Auth domain errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		Unauthorized(w, err.Error())
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrMissingActor):
		Unauthorized(w, err.Error())
	case errors.Is(err, auth.ErrRoleNotAllowed):
		Forbidden(w, err.Error())

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrEmailExists):
		Conflict(w, "Email already registered")
	case errors.Is(err, employee.ErrAlreadyArchived):
		Conflict(w, "Employee already archived")

	// Settlement domain errors
	case errors.Is(err, settlement.ErrCycleNotFound):
		NotFound(w, "Settlement cycle not found")
	case errors.Is(err, settlement.ErrCycleAlreadyExists):
		Conflict(w, "Settlement cycle already exists for this period")
	case errors.Is(err, settlement.ErrPayslipNotFound):
		NotFound(w, "Payslip not found")
	case errors.Is(err, settlement.ErrDuplicatePayslip):
		Conflict(w, "Payslip already exists for this employee and cycle")
	case errors.Is(err, settlement.ErrStaleTransition):
		Conflict(w, "Payslip changed concurrently, retry the command")
	case errors.Is(err, settlement.ErrInvalidTransition):
		Conflict(w, "Illegal payslip status transition")
	case errors.Is(err, settlement.ErrEmployeeNotEligible):
		BadRequest(w, "Employee is not active and cannot join a cycle", nil)
	case errors.Is(err, settlement.ErrDistributionNotFound):
		NotFound(w, "No distribution record for this cycle")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
