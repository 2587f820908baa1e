package user

import "strings"

type Role string

const (
	RoleAdmin Role = "admin" // Sees every department, manual marks tagged as admin
	RoleUser  Role = "user"  // Limited to granted departments
)

// ParseRole normalizes the role column, which is stored in mixed case.
func ParseRole(s string) Role {
	if strings.EqualFold(strings.TrimSpace(s), string(RoleAdmin)) {
		return RoleAdmin
	}
	return RoleUser
}

// AuthUser is an operator account of the dashboard.
type AuthUser struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         Role
	IsActive     bool
}

// IsAdmin checks if user has admin role
func (u *AuthUser) IsAdmin() bool {
	return u.Role == RoleAdmin
}
