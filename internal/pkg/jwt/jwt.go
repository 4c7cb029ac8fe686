package jwt

import (
	"errors"
	"time"

	"github.com/cmlabs-hris/campus-attendance-go/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	TokenTypeAccess = "access"
	TokenTypeStream = "sse"

	streamTokenTTL = 5 * time.Minute
)

var (
	ErrInvalidTokenType = errors.New("invalid token type")
	ErrInvalidClaims    = errors.New("token claims are missing or invalid")
)

type Service interface {
	GenerateAccessToken(principal user.Principal) (token string, expiresAt int64, err error)
	GenerateStreamToken(principal user.Principal) (token string, expiresIn int, err error)
	ValidateStreamToken(tokenString string) (user.Principal, error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	secretKey                 string
	accessTokenExpirationTime string
	tokenAuth                 *jwtauth.JWTAuth
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime string) Service {
	return &JWTService{
		secretKey:                 secretKey,
		accessTokenExpirationTime: accessTokenExpirationTime,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

// GenerateAccessToken issues an access token in the portal's claim layout.
// The portal signs its own tokens; this is used by tooling and tests.
func (j *JWTService) GenerateAccessToken(principal user.Principal) (token string, expiresAt int64, err error) {
	expDuration, err := time.ParseDuration(j.accessTokenExpirationTime)
	if err != nil {
		return "", 0, err
	}
	expiresAt = time.Now().Add(expDuration).Unix()

	claims := principalClaims(principal)
	claims["type"] = TokenTypeAccess
	claims["exp"] = expiresAt

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, expiresAt, err
}

// GenerateStreamToken generates a short-lived token for SSE connections
func (j *JWTService) GenerateStreamToken(principal user.Principal) (token string, expiresIn int, err error) {
	expiresIn = int(streamTokenTTL.Seconds())

	claims := principalClaims(principal)
	claims["type"] = TokenTypeStream
	claims["exp"] = time.Now().Add(streamTokenTTL).Unix()

	_, tokenString, err := j.tokenAuth.Encode(claims)
	if err != nil {
		return "", 0, err
	}

	return tokenString, expiresIn, nil
}

// ValidateStreamToken validates an SSE token and returns the caller it was issued to
func (j *JWTService) ValidateStreamToken(tokenString string) (user.Principal, error) {
	token, err := jwtauth.VerifyToken(j.tokenAuth, tokenString)
	if err != nil {
		return user.Principal{}, err
	}

	claims := token.PrivateClaims()
	if tokenType, _ := claims["type"].(string); tokenType != TokenTypeStream {
		return user.Principal{}, ErrInvalidTokenType
	}

	return PrincipalFromClaims(claims)
}

// PrincipalFromClaims reads user_id, role and the optional student_id claim.
func PrincipalFromClaims(claims map[string]interface{}) (user.Principal, error) {
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return user.Principal{}, ErrInvalidClaims
	}

	role, ok := claims["role"].(string)
	if !ok || role == "" {
		return user.Principal{}, ErrInvalidClaims
	}

	principal := user.Principal{UserID: userID, Role: user.Role(role)}
	if studentID, ok := claims["student_id"].(string); ok && studentID != "" {
		principal.StudentID = &studentID
	}

	return principal, nil
}

func principalClaims(principal user.Principal) map[string]interface{} {
	claims := map[string]interface{}{
		"user_id":    principal.UserID,
		"role":       string(principal.Role),
		"student_id": nil,
	}
	if principal.StudentID != nil {
		claims["student_id"] = *principal.StudentID
	}
	return claims
}
