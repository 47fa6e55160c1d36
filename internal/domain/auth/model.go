// Package auth handles user accounts and token-based authentication.
package auth

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"trackit/internal/core/apperror"
	"trackit/internal/core/appctx"
	"trackit/internal/core/id"
)

// User is an account able to sign in. Every user belongs to exactly one
// tenant; all data access is scoped to it.
type User struct {
	ID           id.ID       `db:"id" json:"id"`
	TenantID     id.ID       `db:"tenant_id" json:"-"`
	Email        string      `db:"email" json:"email"`
	DisplayName  string      `db:"display_name" json:"displayName"`
	PasswordHash string      `db:"password_hash" json:"-"`
	Role         appctx.Role `db:"role" json:"role"`
	IsActive     bool        `db:"is_active" json:"isActive"`
	CreatedAt    time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updatedAt"`
}

// NewUser creates an active user with a bcrypt password hash.
func NewUser(tenantID id.ID, email, displayName, password string, role appctx.Role) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperror.NewValidation("email is required").WithDetail("field", "email")
	}
	if len(password) < 8 {
		return nil, apperror.NewValidation("password must be at least 8 characters").
			WithDetail("field", "password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	now := time.Now().UTC()
	return &User{
		ID:           id.New(),
		TenantID:     tenantID,
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// CheckPassword compares a candidate password against the stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// UserRepository persists user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, userID id.ID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}
