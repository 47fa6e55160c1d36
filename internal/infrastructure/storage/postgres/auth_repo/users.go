// Package auth_repo provides the PostgreSQL user store.
package auth_repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"trackit/internal/core/apperror"
	"trackit/internal/core/id"
	"trackit/internal/domain/auth"
	"trackit/internal/infrastructure/storage/postgres"
)

var userCols = []string{
	"id", "tenant_id", "email", "display_name", "password_hash",
	"role", "is_active", "created_at", "updated_at",
}

// UserRepo persists user accounts. Lookups by email are global: login
// happens before any tenant scope exists.
type UserRepo struct {
	txManager *postgres.TxManager
}

// NewUserRepo creates a user repository.
func NewUserRepo(txManager *postgres.TxManager) *UserRepo {
	return &UserRepo{txManager: txManager}
}

var _ auth.UserRepository = (*UserRepo)(nil)

func (r *UserRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Create inserts a new user.
func (r *UserRepo) Create(ctx context.Context, user *auth.User) error {
	q := r.builder().
		Insert("users").
		SetMap(map[string]any{
			"id":            user.ID,
			"tenant_id":     user.TenantID,
			"email":         user.Email,
			"display_name":  user.DisplayName,
			"password_hash": user.PasswordHash,
			"role":          user.Role,
			"is_active":     user.IsActive,
			"created_at":    user.CreatedAt,
			"updated_at":    user.UpdatedAt,
		})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperror.NewDuplicate("user", "email", user.Email).WithCause(err)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, userID id.ID) (*auth.User, error) {
	q := r.builder().
		Select(userCols...).
		From("users").
		Where(squirrel.Eq{"id": userID}).
		Limit(1)
	return r.getOne(ctx, q, userID.String())
}

// GetByEmail retrieves a user by email (case-insensitive).
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	q := r.builder().
		Select(userCols...).
		From("users").
		Where(squirrel.Eq{"email": strings.ToLower(email)}).
		Limit(1)
	return r.getOne(ctx, q, email)
}

func (r *UserRepo) getOne(ctx context.Context, q squirrel.SelectBuilder, key string) (*auth.User, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var user auth.User
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &user, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("user", key)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}
