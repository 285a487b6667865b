package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vatsinhr/settlement-backend-go/internal/domain/employee"
	"github.com/vatsinhr/settlement-backend-go/internal/pkg/database"
)

type employeeRepository struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepository{db: db}
}

const employeeColumns = `id, full_name, email, designation, department,
	annual_comp_minor_units, currency, employment_status, joined_at, created_at, updated_at`

func (r *employeeRepository) Create(ctx context.Context, emp employee.Employee) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	if emp.ID == "" {
		emp.ID = uuid.New().String()
	}

	query := `
		INSERT INTO employees (id, full_name, email, designation, department, annual_comp_minor_units, currency, employment_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + employeeColumns

	var e employee.Employee
	err := q.QueryRow(ctx, query,
		emp.ID, emp.FullName, emp.Email, emp.Designation, emp.Department,
		emp.AnnualCompMinorUnits, emp.Currency, employee.StatusActive,
	).Scan(
		&e.ID, &e.FullName, &e.Email, &e.Designation, &e.Department,
		&e.AnnualCompMinorUnits, &e.Currency, &e.EmploymentStatus, &e.JoinedAt, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "uk_employee_email") {
			return employee.Employee{}, employee.ErrEmailExists
		}
		return employee.Employee{}, fmt.Errorf("failed to create employee: %w", err)
	}

	return e, nil
}

func (r *employeeRepository) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`

	var e employee.Employee
	err := q.QueryRow(ctx, query, id).Scan(
		&e.ID, &e.FullName, &e.Email, &e.Designation, &e.Department,
		&e.AnnualCompMinorUnits, &e.Currency, &e.EmploymentStatus, &e.JoinedAt, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}

	return e, nil
}

func (r *employeeRepository) GetByIDs(ctx context.Context, ids []string) ([]employee.Employee, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = ANY($1) ORDER BY id`

	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get employees: %w", err)
	}
	defer rows.Close()

	return scanEmployees(rows)
}

func (r *employeeRepository) List(ctx context.Context, activeOnly bool) ([]employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + employeeColumns + ` FROM employees`
	if activeOnly {
		query += ` WHERE employment_status = 'active'`
	}
	query += ` ORDER BY full_name`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	return scanEmployees(rows)
}

func (r *employeeRepository) Archive(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE employees
		SET employment_status = 'archived', updated_at = NOW()
		WHERE id = $1 AND employment_status = 'active'
	`

	tag, err := q.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to archive employee: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return employee.ErrAlreadyArchived
	}

	return nil
}

func scanEmployees(rows pgx.Rows) ([]employee.Employee, error) {
	var employees []employee.Employee
	for rows.Next() {
		var e employee.Employee
		if err := rows.Scan(
			&e.ID, &e.FullName, &e.Email, &e.Designation, &e.Department,
			&e.AnnualCompMinorUnits, &e.Currency, &e.EmploymentStatus, &e.JoinedAt, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}
	return employees, nil
}
