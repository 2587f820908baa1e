package user

import "context"

type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (AuthUser, error)
	GetByID(ctx context.Context, id int64) (AuthUser, error)

	// GetDepartmentIDs returns the departments granted to an operator.
	GetDepartmentIDs(ctx context.Context, userID int64) ([]int, error)

	// Create inserts an operator account together with its department grants.
	Create(ctx context.Context, u AuthUser, departmentIDs []int) (int64, error)
}
