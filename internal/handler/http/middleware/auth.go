package middleware

import (
	"context"
	"net/http"

	"github.com/cmlabs-hris/campus-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/campus-attendance-go/internal/handler/http/response"
	"github.com/cmlabs-hris/campus-attendance-go/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
)

type principalKey struct{}

// WithPrincipal stores the authenticated caller in ctx.
func WithPrincipal(ctx context.Context, principal user.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, principal)
}

// PrincipalFromContext returns the caller stored by AuthRequired.
func PrincipalFromContext(ctx context.Context) (user.Principal, bool) {
	principal, ok := ctx.Value(principalKey{}).(user.Principal)
	return principal, ok
}

// AuthRequired rejects requests without a verified access token and stores the
// caller's principal in the request context. It must run after jwtauth.Verifier.
func AuthRequired(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, _, err := jwtauth.FromContext(r.Context())

			if err != nil {
				response.Unauthorized(w, err.Error())
				return
			}

			if token == nil {
				response.Unauthorized(w, "Missing token")
				return
			}

			claims, err := token.AsMap(r.Context())
			if err != nil {
				response.HandleError(w, jwt.ErrInvalidClaims)
				return
			}
			tokenType, ok := claims["type"].(string)
			if tokenType != jwt.TokenTypeAccess || !ok {
				response.HandleError(w, jwt.ErrInvalidTokenType)
				return
			}

			principal, err := jwt.PrincipalFromClaims(claims)
			if err != nil {
				response.HandleError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		}
		return http.HandlerFunc(hfn)
	}
}
