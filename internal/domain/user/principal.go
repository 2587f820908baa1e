package user

import (
	"context"
	"slices"
)

// Principal is the authenticated caller of a request, resolved once per
// request and passed down through the context.
type Principal struct {
	UserID        int64
	Username      string
	Role          Role
	DepartmentIDs []int
}

// SystemPrincipal is used by scheduled jobs and the CLI.
func SystemPrincipal() Principal {
	return Principal{Username: "system", Role: RoleAdmin}
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanAccessDepartment reports whether the caller may read or edit data of the
// department. Admins are not limited by grants.
func (p Principal) CanAccessDepartment(departmentID int) bool {
	if p.IsAdmin() {
		return true
	}
	return slices.Contains(p.DepartmentIDs, departmentID)
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, error) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	if !ok {
		return Principal{}, ErrPrincipalMissing
	}
	return p, nil
}
