package user

import "errors"

var (
	ErrStaffAccessRequired     = errors.New("staff access required")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
	ErrStudentScopeViolation   = errors.New("students may only access their own attendance")
	ErrStudentIDClaimMissing   = errors.New("student_id claim is missing")
)
