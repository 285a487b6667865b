package employee

import "context"

type EmployeeRepository interface {
	Create(ctx context.Context, emp Employee) (Employee, error)
	GetByID(ctx context.Context, id string) (Employee, error)
	GetByIDs(ctx context.Context, ids []string) ([]Employee, error)
	List(ctx context.Context, activeOnly bool) ([]Employee, error)
	Archive(ctx context.Context, id string) error
}
