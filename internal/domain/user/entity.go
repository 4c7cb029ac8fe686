package user

type Role string

const (
	RoleAdmin   Role = "admin"   // Back-office administrator - full access
	RoleStaff   Role = "staff"   // Teacher or department staff
	RoleStudent Role = "student" // Student - own attendance only
)

// Principal is the caller identity read from a verified access token.
type Principal struct {
	UserID    string
	Role      Role
	StudentID *string
}

// IsStaff checks if the principal is staff or admin
func (p Principal) IsStaff() bool {
	return p.Role == RoleStaff || p.Role == RoleAdmin
}

// CanViewStudent checks if the principal may read the given student's attendance
func (p Principal) CanViewStudent(studentID string) bool {
	if HasPermission(p.Role, PermissionAttendanceViewAll) {
		return true
	}
	return HasPermission(p.Role, PermissionAttendanceViewOwn) &&
		p.StudentID != nil && *p.StudentID == studentID
}
