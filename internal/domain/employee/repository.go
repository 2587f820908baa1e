package employee

import "context"

// EmployeeRepository reads the employee and department directory. Results
// are ordered by employee name (departments by department name).
type EmployeeRepository interface {
	GetByID(ctx context.Context, id int64) (Employee, error)
	ListByDepartment(ctx context.Context, departmentID int) ([]Employee, error)
	ListAll(ctx context.Context) ([]Employee, error)

	ListDepartments(ctx context.Context) ([]Department, error)
	ListDepartmentsByIDs(ctx context.Context, ids []int) ([]Department, error)
}
