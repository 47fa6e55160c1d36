// Package appctx provides request-scoped values extraction.
package appctx

import (
	"context"

	"trackit/internal/core/id"
)

// Role defines the access level of an authenticated user.
type Role string

const (
	RoleStandard Role = "standard"
	RoleAdmin    Role = "admin"
)

// UserContext contains authenticated user information.
// It is installed by the auth middleware and replaces any ambient
// "current user / current company" state: every operation reads its
// caller identity from here, never from a global.
type UserContext struct {
	UserID      id.ID
	TenantID    id.ID
	DisplayName string
	Role        Role
}

// IsAdmin reports whether the user carries the admin role.
func (u *UserContext) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

type userContextKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns UserContext from context.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}

// GetUserID returns user ID from context or nil UUID.
func GetUserID(ctx context.Context) id.ID {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return id.Nil()
}

// GetTenantID returns tenant ID from context or nil UUID.
func GetTenantID(ctx context.Context) id.ID {
	if u := GetUser(ctx); u != nil {
		return u.TenantID
	}
	return id.Nil()
}

// IsAdmin reports whether the context user carries the admin role.
func IsAdmin(ctx context.Context) bool {
	return GetUser(ctx).IsAdmin()
}
