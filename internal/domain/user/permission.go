package user

type Permission string

const (
	// Attendance
	PermissionAttendanceViewOwn Permission = "attendance.view_own"
	PermissionAttendanceViewAll Permission = "attendance.view_all"
	PermissionAttendanceManage  Permission = "attendance.manage"

	// Analytics
	PermissionAnalyticsCompute Permission = "analytics.compute"
	PermissionAnalyticsAtRisk  Permission = "analytics.at_risk"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermissionAttendanceViewOwn,
		PermissionAttendanceViewAll,
		PermissionAttendanceManage,
		PermissionAnalyticsCompute,
		PermissionAnalyticsAtRisk,
	},
	RoleStaff: {
		PermissionAttendanceViewOwn,
		PermissionAttendanceViewAll,
		PermissionAttendanceManage,
		PermissionAnalyticsCompute,
		PermissionAnalyticsAtRisk,
	},
	RoleStudent: {
		PermissionAttendanceViewOwn,
		PermissionAnalyticsCompute,
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
