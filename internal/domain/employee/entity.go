package employee

import "time"

type EmploymentStatus string

const (
	StatusActive   EmploymentStatus = "active"
	StatusArchived EmploymentStatus = "archived"
)

// Employee is directory data the settlement core consumes at cycle-open time.
// Compensation is stored in integer minor currency units; a change here never
// retroactively alters an already-created payslip.
type Employee struct {
	ID                   string
	FullName             string
	Email                string
	Designation          *string
	Department           *string
	AnnualCompMinorUnits int64
	Currency             string
	EmploymentStatus     EmploymentStatus
	JoinedAt             time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// IsActive reports whether the employee may have new cycle records created.
func (e Employee) IsActive() bool {
	return e.EmploymentStatus == StatusActive
}
