package user

import "errors"

var (
	ErrUserNotFound            = errors.New("user not found")
	ErrPrincipalMissing        = errors.New("no authenticated principal in context")
	ErrAdminPrivilegeRequired  = errors.New("admin privilege required")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
)
