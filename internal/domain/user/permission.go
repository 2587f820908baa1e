package user

type Permission string

const (
	PermissionAttendanceView  Permission = "attendance.view"
	PermissionAttendanceEdit  Permission = "attendance.edit"
	PermissionAttendanceClean Permission = "attendance.clean_duplicates"
	PermissionReportsExport   Permission = "reports.export"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermissionAttendanceView,
		PermissionAttendanceEdit,
		PermissionAttendanceClean,
		PermissionReportsExport,
	},
	RoleUser: {
		PermissionAttendanceView,
		PermissionAttendanceEdit,
		PermissionReportsExport,
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}
	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}
