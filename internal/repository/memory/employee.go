package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/vatsinhr/settlement-backend-go/internal/domain/employee"
)

type employeeRepository struct {
	store *Store
}

func NewEmployeeRepository(store *Store) employee.EmployeeRepository {
	return &employeeRepository{store: store}
}

func (r *employeeRepository) Create(_ context.Context, emp employee.Employee) (employee.Employee, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.employeeEmails[emp.Email]; exists {
		return employee.Employee{}, employee.ErrEmailExists
	}

	if emp.ID == "" {
		emp.ID = uuid.New().String()
	}
	now := time.Now()
	emp.EmploymentStatus = employee.StatusActive
	if emp.JoinedAt.IsZero() {
		emp.JoinedAt = now
	}
	emp.CreatedAt = now
	emp.UpdatedAt = now

	r.store.employees[emp.ID] = emp
	r.store.employeeEmails[emp.Email] = emp.ID
	return emp, nil
}

func (r *employeeRepository) GetByID(_ context.Context, id string) (employee.Employee, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	emp, ok := r.store.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return emp, nil
}

func (r *employeeRepository) GetByIDs(_ context.Context, ids []string) ([]employee.Employee, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var employees []employee.Employee
	for _, id := range ids {
		if emp, ok := r.store.employees[id]; ok {
			employees = append(employees, emp)
		}
	}
	sort.Slice(employees, func(i, j int) bool {
		return employees[i].ID < employees[j].ID
	})
	return employees, nil
}

func (r *employeeRepository) List(_ context.Context, activeOnly bool) ([]employee.Employee, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var employees []employee.Employee
	for _, emp := range r.store.employees {
		if activeOnly && !emp.IsActive() {
			continue
		}
		employees = append(employees, emp)
	}
	sort.Slice(employees, func(i, j int) bool {
		return employees[i].FullName < employees[j].FullName
	})
	return employees, nil
}

func (r *employeeRepository) Archive(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	emp, ok := r.store.employees[id]
	if !ok {
		return employee.ErrEmployeeNotFound
	}
	if emp.EmploymentStatus == employee.StatusArchived {
		return employee.ErrAlreadyArchived
	}

	emp.EmploymentStatus = employee.StatusArchived
	emp.UpdatedAt = time.Now()
	r.store.employees[id] = emp
	return nil
}
