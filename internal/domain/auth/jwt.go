package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"trackit/internal/core/apperror"
	"trackit/internal/core/appctx"
	"trackit/internal/core/id"
)

// Claims carried in the access token. Tenant and role travel in the
// token so request handling needs no extra user lookup.
type Claims struct {
	jwt.RegisteredClaims
	TenantID    string `json:"tid"`
	DisplayName string `json:"name"`
	Role        string `json:"role"`
}

// JWTService issues and verifies HS256 access tokens.
type JWTService struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

// NewJWTService creates a token service.
func NewJWTService(secret string, ttl time.Duration) *JWTService {
	return &JWTService{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: "trackit",
	}
}

// Issue signs a token for the user.
func (s *JWTService) Issue(user *User) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		TenantID:    user.TenantID.String(),
		DisplayName: user.DisplayName,
		Role:        string(user.Role),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", apperror.NewInternal(err)
	}
	return signed, nil
}

// Verify parses the token and rebuilds the user context from its claims.
func (s *JWTService) Verify(tokenString string) (*appctx.UserContext, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperror.NewUnauthorized("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, apperror.NewUnauthorized("invalid or expired token").WithCause(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, apperror.NewUnauthorized("invalid token claims")
	}

	userID, err := id.Parse(claims.Subject)
	if err != nil {
		return nil, apperror.NewUnauthorized("invalid subject claim")
	}
	tenantID, err := id.Parse(claims.TenantID)
	if err != nil {
		return nil, apperror.NewUnauthorized("invalid tenant claim")
	}

	return &appctx.UserContext{
		UserID:      userID,
		TenantID:    tenantID,
		DisplayName: claims.DisplayName,
		Role:        appctx.Role(claims.Role),
	}, nil
}
