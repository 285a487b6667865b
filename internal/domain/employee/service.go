package employee

import "context"

type Service interface {
	Create(ctx context.Context, req CreateEmployeeRequest) (EmployeeResponse, error)
	GetByID(ctx context.Context, id string) (EmployeeResponse, error)
	List(ctx context.Context, activeOnly bool) ([]EmployeeResponse, error)
	Archive(ctx context.Context, id string) error
}
