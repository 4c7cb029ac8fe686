package middleware

import (
	"fmt"
	"net/http"

	"github.com/cmlabs-hris/campus-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/campus-attendance-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

// RequireStaff requires staff or admin role
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := PrincipalFromContext(r.Context())
		if !ok || !principal.IsStaff() {
			response.HandleError(w, user.ErrStaffAccessRequired)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequirePermission checks if user has specific permission
func RequirePermission(permission user.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				response.Forbidden(w, fmt.Sprintf("Insufficient permissions: required '%s'", permission))
				return
			}

			if !user.HasPermission(principal.Role, permission) {
				response.Forbidden(w, fmt.Sprintf("Insufficient permissions: required '%s', but user role is '%s'", permission, principal.Role))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireStudentScope lets staff through and restricts students to the student
// named by the given URL parameter.
func RequireStudentScope(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				response.HandleError(w, user.ErrInsufficientPermissions)
				return
			}

			if !principal.CanViewStudent(chi.URLParam(r, param)) {
				response.HandleError(w, user.ErrStudentScopeViolation)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
