package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/campus-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/campus-attendance-go/internal/domain/student"
	"github.com/cmlabs-hris/campus-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/campus-attendance-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/campus-attendance-go/internal/pkg/validator"
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
	// Token errors
	case errors.Is(err, jwt.ErrInvalidClaims), errors.Is(err, jwt.ErrInvalidTokenType):
		Unauthorized(w, "Invalid token")

	// Access errors
	case errors.Is(err, user.ErrStaffAccessRequired),
		errors.Is(err, user.ErrInsufficientPermissions),
		errors.Is(err, user.ErrStudentScopeViolation),
		errors.Is(err, user.ErrStudentIDClaimMissing):
		Forbidden(w, err.Error())

	// Student domain errors
	case errors.Is(err, student.ErrInvalidStudentID):
		BadRequest(w, "Invalid student ID", nil)
	case errors.Is(err, student.ErrStudentNotFound):
		NotFound(w, "Student not found")

	// Attendance domain errors
	case errors.Is(err, attendance.ErrRecordNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, attendance.ErrInvalidArgument):
		BadRequest(w, err.Error(), nil)

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
