package settlement

import (
	"fmt"
	"strconv"
	"strings"
)

// Period is one payroll period (calendar month).
type Period struct {
	Month int
	Year  int
}

// CycleID derives the canonical cycle identifier, e.g. "2024-05".
func (p Period) CycleID() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

func (p Period) String() string {
	return p.CycleID()
}

// Valid reports whether the period is a usable calendar month.
func (p Period) Valid() bool {
	return p.Month >= 1 && p.Month <= 12 && p.Year >= 2000 && p.Year <= 2100
}

// ParseCycleID parses a "YYYY-MM" cycle identifier back into a Period.
func ParseCycleID(cycleID string) (Period, error) {
	parts := strings.SplitN(cycleID, "-", 2)
	if len(parts) != 2 {
		return Period{}, fmt.Errorf("invalid cycle id %q", cycleID)
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return Period{}, fmt.Errorf("invalid cycle id %q: %w", cycleID, err)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return Period{}, fmt.Errorf("invalid cycle id %q: %w", cycleID, err)
	}

	p := Period{Month: month, Year: year}
	if !p.Valid() {
		return Period{}, fmt.Errorf("invalid cycle id %q", cycleID)
	}
	return p, nil
}

// MonthlyAmount derives a payslip amount from annual compensation in minor
// units. Truncating integer division: the sub-unit remainder is dropped, it
// is never redistributed across months.
func MonthlyAmount(annualMinorUnits int64) int64 {
	if annualMinorUnits <= 0 {
		return 0
	}
	return annualMinorUnits / 12
}
