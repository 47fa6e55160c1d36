// Package directory_repo provides PostgreSQL implementations for the
// reference-data repositories. Tenant isolation is logical: every query
// carries a tenant_id condition taken from the request context.
package directory_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"trackit/internal/core/apperror"
	"trackit/internal/core/appctx"
	"trackit/internal/core/id"
	"trackit/internal/domain/directory"
	"trackit/internal/infrastructure/storage/postgres"
)

// catalogMeta describes how one entity type maps onto its table.
// rowMap feeds squirrel's SetMap for inserts and updates; versionOf
// exposes the optimistic lock counter.
type catalogMeta[T any] struct {
	tableName  string
	selectCols []string
	newFn      func() T
	rowMap     func(entity T) map[string]any
	idOf       func(entity T) id.ID
	versionOf  func(entity T) int
}

// BaseCatalogRepo provides common CRUD operations for catalog entities.
// Specific repositories embed it with their column mapping.
type BaseCatalogRepo[T any] struct {
	txManager *postgres.TxManager
	meta      catalogMeta[T]
}

func newBaseCatalogRepo[T any](txManager *postgres.TxManager, meta catalogMeta[T]) *BaseCatalogRepo[T] {
	return &BaseCatalogRepo[T]{txManager: txManager, meta: meta}
}

// Builder returns a squirrel builder with PostgreSQL placeholders.
func (r *BaseCatalogRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *BaseCatalogRepo[T]) tenantCond(ctx context.Context) squirrel.Eq {
	return squirrel.Eq{"tenant_id": appctx.GetTenantID(ctx)}
}

func (r *BaseCatalogRepo[T]) baseSelect(ctx context.Context) squirrel.SelectBuilder {
	return r.Builder().
		Select(r.meta.selectCols...).
		From(r.meta.tableName).
		Where(r.tenantCond(ctx))
}

// Create inserts a new entity.
func (r *BaseCatalogRepo[T]) Create(ctx context.Context, entity T) error {
	q := r.Builder().
		Insert(r.meta.tableName).
		SetMap(r.meta.rowMap(entity))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	_, err = r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperror.NewDuplicate(r.meta.tableName, "name", "").WithCause(err)
		}
		return fmt.Errorf("insert %s: %w", r.meta.tableName, err)
	}
	return nil
}

// GetByID retrieves an entity by ID. Soft-deleted rows are returned too:
// movement history enrichment must keep working after a catalog delete.
func (r *BaseCatalogRepo[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	entity := r.meta.newFn()

	q := r.baseSelect(ctx).
		Where(squirrel.Eq{"id": entityID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return entity, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), entity, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return entity, apperror.NewNotFound(r.meta.tableName, entityID.String())
		}
		return entity, fmt.Errorf("get %s by id: %w", r.meta.tableName, err)
	}
	return entity, nil
}

// Update saves changes with the optimistic version check.
func (r *BaseCatalogRepo[T]) Update(ctx context.Context, entity T) error {
	sql, args, err := r.updateQuery(ctx, entity).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", r.meta.tableName, err)
	}
	if result.RowsAffected() == 0 {
		// Either the row is gone or someone else bumped the version.
		if _, getErr := r.GetByID(ctx, r.meta.idOf(entity)); apperror.IsNotFound(getErr) {
			return getErr
		}
		return apperror.NewStateMismatch(r.meta.tableName, r.meta.idOf(entity).String())
	}

	// Mirror the stored row: version was incremented and updated_at
	// refreshed by the statement above.
	if touched, ok := any(entity).(interface{ Touch() }); ok {
		touched.Touch()
	}
	return nil
}

// updateQuery builds the version-guarded UPDATE. The loaded timestamps
// never travel back: created_at is immutable and updated_at is set by
// the database, not from the possibly stale entity.
func (r *BaseCatalogRepo[T]) updateQuery(ctx context.Context, entity T) squirrel.UpdateBuilder {
	data := r.meta.rowMap(entity)
	delete(data, "id")
	delete(data, "tenant_id")
	delete(data, "version")
	delete(data, "created_at")
	delete(data, "updated_at")

	return r.Builder().
		Update(r.meta.tableName).
		SetMap(data).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("now()")).
		Where(r.tenantCond(ctx)).
		Where(squirrel.Eq{"id": r.meta.idOf(entity)}).
		Where(squirrel.Eq{"version": r.meta.versionOf(entity)})
}

// SetDeletionMark toggles the soft-delete flag.
func (r *BaseCatalogRepo[T]) SetDeletionMark(ctx context.Context, entityID id.ID, mark bool) error {
	q := r.Builder().
		Update(r.meta.tableName).
		Set("deletion_mark", mark).
		Set("version", squirrel.Expr("version + 1")).
		Where(r.tenantCond(ctx)).
		Where(squirrel.Eq{"id": entityID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build set deletion mark: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set deletion mark %s: %w", r.meta.tableName, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.meta.tableName, entityID.String())
	}
	return nil
}

// HardDelete permanently removes the row.
func (r *BaseCatalogRepo[T]) HardDelete(ctx context.Context, entityID id.ID) error {
	q := r.Builder().
		Delete(r.meta.tableName).
		Where(r.tenantCond(ctx)).
		Where(squirrel.Eq{"id": entityID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return apperror.NewValidation("record is referenced by stock history and cannot be removed").
				WithDetail("entity", r.meta.tableName).
				WithDetail("id", entityID.String()).
				WithCause(err)
		}
		return fmt.Errorf("delete %s: %w", r.meta.tableName, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.meta.tableName, entityID.String())
	}
	return nil
}

// List retrieves entities with filtering and pagination.
func (r *BaseCatalogRepo[T]) List(ctx context.Context, filter directory.ListFilter) ([]T, error) {
	q := r.baseSelect(ctx)

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}
	if filter.Text != "" {
		q = q.Where(squirrel.ILike{"name": "%" + filter.Text + "%"})
	}

	q = q.OrderBy("name ASC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []T
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list %s: %w", r.meta.tableName, err)
	}
	return items, nil
}
