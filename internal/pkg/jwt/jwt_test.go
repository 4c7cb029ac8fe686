package jwt

import (
	"context"
	"testing"

	"github.com/cmlabs-hris/campus-attendance-go/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_AccessToken(t *testing.T) {
	svc := NewJWTService("test-secret", "15m")
	studentID := "0190a6f2-7b8c-7b4a-8a2b-000000000001"

	token, expiresAt, err := svc.GenerateAccessToken(user.Principal{UserID: "u-1", Role: user.RoleStudent, StudentID: &studentID})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Positive(t, expiresAt)

	decoded, err := jwtauth.VerifyToken(svc.JWTAuth(), token)
	require.NoError(t, err)
	claims, err := decoded.AsMap(context.Background())
	require.NoError(t, err)
	assert.Equal(t, TokenTypeAccess, claims["type"])

	principal, err := PrincipalFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, "u-1", principal.UserID)
	assert.Equal(t, user.RoleStudent, principal.Role)
	require.NotNil(t, principal.StudentID)
	assert.Equal(t, studentID, *principal.StudentID)
}

func TestJWTService_InvalidExpiration(t *testing.T) {
	svc := NewJWTService("test-secret", "soon")

	_, _, err := svc.GenerateAccessToken(user.Principal{UserID: "u-1", Role: user.RoleStaff})
	assert.Error(t, err)
}

func TestJWTService_StreamToken(t *testing.T) {
	svc := NewJWTService("test-secret", "15m")

	token, expiresIn, err := svc.GenerateStreamToken(user.Principal{UserID: "staff-1", Role: user.RoleStaff})
	require.NoError(t, err)
	assert.Equal(t, 300, expiresIn)

	principal, err := svc.ValidateStreamToken(token)
	require.NoError(t, err)
	assert.Equal(t, "staff-1", principal.UserID)
	assert.True(t, principal.IsStaff())
	assert.Nil(t, principal.StudentID)
}

func TestJWTService_ValidateStreamToken_Rejects(t *testing.T) {
	svc := NewJWTService("test-secret", "15m")

	access, _, err := svc.GenerateAccessToken(user.Principal{UserID: "staff-1", Role: user.RoleStaff})
	require.NoError(t, err)
	_, err = svc.ValidateStreamToken(access)
	assert.ErrorIs(t, err, ErrInvalidTokenType)

	other := NewJWTService("other-secret", "15m")
	forged, _, err := other.GenerateStreamToken(user.Principal{UserID: "staff-1", Role: user.RoleStaff})
	require.NoError(t, err)
	_, err = svc.ValidateStreamToken(forged)
	assert.Error(t, err)

	_, err = svc.ValidateStreamToken("not-a-token")
	assert.Error(t, err)
}

func TestPrincipalFromClaims_Missing(t *testing.T) {
	_, err := PrincipalFromClaims(map[string]interface{}{"role": "staff"})
	assert.ErrorIs(t, err, ErrInvalidClaims)

	_, err = PrincipalFromClaims(map[string]interface{}{"user_id": "u-1"})
	assert.ErrorIs(t, err, ErrInvalidClaims)
}
