// Package memory holds mutex-guarded in-memory implementations of the
// repository interfaces, used by tests and the "memory" store driver. One
// Store instance backs all repositories so cross-record operations share a
// single lock, mirroring the atomicity the postgres layer gets from
// transactions.
package memory

import (
	"context"
	"sync"

	"github.com/vatsinhr/settlement-backend-go/internal/domain/employee"
	"github.com/vatsinhr/settlement-backend-go/internal/domain/notification"
	"github.com/vatsinhr/settlement-backend-go/internal/domain/settlement"
)

type payslipKey struct {
	CycleID    string
	EmployeeID string
}

type Store struct {
	mu sync.RWMutex

	cycles        map[string]settlement.Cycle
	payslips      map[payslipKey]settlement.Payslip
	audits        map[string][]settlement.AuditEntry
	distributions map[string]settlement.DistributionRecord

	employees      map[string]employee.Employee
	employeeEmails map[string]string

	notifications map[string][]*notification.Notification
}

func NewStore() *Store {
	return &Store{
		cycles:         make(map[string]settlement.Cycle),
		payslips:       make(map[payslipKey]settlement.Payslip),
		audits:         make(map[string][]settlement.AuditEntry),
		distributions:  make(map[string]settlement.DistributionRecord),
		employees:      make(map[string]employee.Employee),
		employeeEmails: make(map[string]string),
		notifications:  make(map[string][]*notification.Notification),
	}
}

// RunInTx satisfies settlement.TxRunner. Every memory operation either
// mutates under the store lock or fails without touching state, so fn runs
// as-is; there is no separate rollback to perform.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
