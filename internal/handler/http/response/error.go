package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-control/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-control/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-control/internal/domain/datasource"
	"github.com/cmlabs-hris/attendance-control/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-control/internal/domain/user"
	"github.com/cmlabs-hris/attendance-control/internal/pkg/export"
	"github.com/cmlabs-hris/attendance-control/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth domain errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		Unauthorized(w, err.Error())
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, "Invalid or expired token")
	case errors.Is(err, auth.ErrTokenRevoked):
		Unauthorized(w, "Token has been revoked")
	case errors.Is(err, user.ErrPrincipalMissing):
		Unauthorized(w, "Authentication required")
	case errors.Is(err, auth.ErrAccountInactive):
		Forbidden(w, "Account is inactive")

	// Access errors
	case errors.Is(err, attendance.ErrUnauthorizedScope):
		Forbidden(w, "You do not have access to this department")
	case errors.Is(err, user.ErrAdminPrivilegeRequired):
		Forbidden(w, "Admin privilege required")
	case errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, "Insufficient permissions")

	// Not found
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, attendance.ErrMarkNotFound):
		NotFound(w, "Mark not found")
	case errors.Is(err, user.ErrUserNotFound):
		NotFound(w, "User not found")
	case errors.Is(err, datasource.ErrSourceNotConfigured):
		NotFound(w, "Data source is not configured")

	// Attendance domain errors
	case errors.Is(err, attendance.ErrDuplicateMark):
		Conflict(w, "A mark of the same type already exists within the tolerance window")
	case errors.Is(err, attendance.ErrConflictingMarks):
		Conflict(w, "The same time cannot be both an entry and an exit")
	case errors.Is(err, attendance.ErrNotAutoFixable):
		UnprocessableEntity(w, "NOT_AUTO_FIXABLE", "This day cannot be fixed automatically")
	case errors.Is(err, attendance.ErrCalculatedShift):
		UnprocessableEntity(w, "CALCULATED_SHIFT", "Days with a calculated shift must be fixed manually")
	case errors.Is(err, attendance.ErrNoShiftAssigned):
		UnprocessableEntity(w, "NO_SHIFT_ASSIGNED", "No shift is assigned for this day")
	case errors.Is(err, attendance.ErrUnknownCommand),
		errors.Is(err, attendance.ErrUnknownDataSource),
		errors.Is(err, export.ErrUnknownFormat):
		BadRequest(w, err.Error(), nil)

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
