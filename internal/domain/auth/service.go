package auth

import (
	"context"
	"strings"

	"trackit/internal/core/apperror"
	"trackit/internal/core/appctx"
	"trackit/internal/core/id"
	"trackit/pkg/logger"
)

// Service authenticates users and manages accounts.
type Service struct {
	users  UserRepository
	tokens *JWTService
}

// NewService creates an auth service.
func NewService(users UserRepository, tokens *JWTService) *Service {
	return &Service{users: users, tokens: tokens}
}

// LoginResult is the response of a successful login.
type LoginResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Login verifies credentials and issues an access token. Wrong email and
// wrong password produce the same error so accounts cannot be enumerated.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperror.NewValidation("email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewUnauthorized("invalid credentials")
		}
		return nil, err
	}
	if !user.IsActive || !user.CheckPassword(password) {
		return nil, apperror.NewUnauthorized("invalid credentials")
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "user logged in", "user_id", user.ID, "tenant_id", user.TenantID)
	return &LoginResult{Token: token, User: user}, nil
}

// Register creates a user account inside the caller's tenant.
// Only admins may create accounts.
func (s *Service) Register(ctx context.Context, email, displayName, password string, role appctx.Role) (*User, error) {
	if !appctx.IsAdmin(ctx) {
		return nil, apperror.NewForbidden("admin role required to create users")
	}
	tenantID := appctx.GetTenantID(ctx)
	if id.IsNil(tenantID) {
		return nil, apperror.NewForbidden("tenant scope required")
	}
	if role != appctx.RoleStandard && role != appctx.RoleAdmin {
		return nil, apperror.NewValidation("invalid role").WithDetail("value", string(role))
	}

	user, err := NewUser(tenantID, email, displayName, password, role)
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	logger.Info(ctx, "user registered", "user_id", user.ID, "role", role)
	return user, nil
}

// Verify delegates token verification for middleware use.
func (s *Service) Verify(token string) (*appctx.UserContext, error) {
	return s.tokens.Verify(token)
}
