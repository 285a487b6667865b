package employee

import (
	"context"

	"github.com/vatsinhr/settlement-backend-go/internal/domain/employee"
)

type EmployeeServiceImpl struct {
	employeeRepo employee.EmployeeRepository
}

func NewEmployeeService(employeeRepo employee.EmployeeRepository) employee.Service {
	return &EmployeeServiceImpl{employeeRepo: employeeRepo}
}

func (s *EmployeeServiceImpl) Create(ctx context.Context, req employee.CreateEmployeeRequest) (employee.EmployeeResponse, error) {
	if err := req.Validate(); err != nil {
		return employee.EmployeeResponse{}, err
	}

	created, err := s.employeeRepo.Create(ctx, employee.Employee{
		FullName:             req.FullName,
		Email:                req.Email,
		Designation:          req.Designation,
		Department:           req.Department,
		AnnualCompMinorUnits: req.AnnualCompMinorUnits,
		Currency:             req.Currency,
	})
	if err != nil {
		return employee.EmployeeResponse{}, err
	}

	return employee.ToResponse(created), nil
}

func (s *EmployeeServiceImpl) GetByID(ctx context.Context, id string) (employee.EmployeeResponse, error) {
	emp, err := s.employeeRepo.GetByID(ctx, id)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	return employee.ToResponse(emp), nil
}

func (s *EmployeeServiceImpl) List(ctx context.Context, activeOnly bool) ([]employee.EmployeeResponse, error) {
	employees, err := s.employeeRepo.List(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	return employee.ToResponses(employees), nil
}

func (s *EmployeeServiceImpl) Archive(ctx context.Context, id string) error {
	return s.employeeRepo.Archive(ctx, id)
}
