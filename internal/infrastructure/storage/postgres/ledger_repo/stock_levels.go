// Package ledger_repo provides PostgreSQL implementations for the stock
// ledger repositories.
package ledger_repo

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
	"trackit/internal/domain/ledger"
	"trackit/internal/infrastructure/storage/postgres"
)

var levelCols = []string{
	"id", "tenant_id", "product_id", "warehouse_id",
	"product_name", "unit", "quantity", "version",
	"created_at", "updated_at",
}

// StockLevelRepo persists stock level rows.
type StockLevelRepo struct {
	txManager *postgres.TxManager
}

// NewStockLevelRepo creates a stock level repository.
func NewStockLevelRepo(txManager *postgres.TxManager) *StockLevelRepo {
	return &StockLevelRepo{txManager: txManager}
}

var _ ledger.LevelRepository = (*StockLevelRepo)(nil)

func (r *StockLevelRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *StockLevelRepo) baseSelect(ctx context.Context) squirrel.SelectBuilder {
	return r.builder().
		Select(levelCols...).
		From("stock_levels").
		Where(squirrel.Eq{"tenant_id": appctx.GetTenantID(ctx)})
}

// Create inserts a new stock level row. The table carries a unique index
// on (tenant_id, product_id, warehouse_id): FOR UPDATE locks nothing when
// no row exists yet, so two concurrent first-time creations both reach the
// insert and the index decides the race.
func (r *StockLevelRepo) Create(ctx context.Context, level *ledger.StockLevel) error {
	q := r.builder().
		Insert("stock_levels").
		SetMap(map[string]any{
			"id":           level.ID,
			"tenant_id":    level.TenantID,
			"product_id":   level.ProductID,
			"warehouse_id": level.WarehouseID,
			"product_name": level.ProductName,
			"unit":         level.Unit,
			"quantity":     level.Quantity.Int64Scaled(),
			"version":      level.Version,
			"created_at":   level.CreatedAt,
			"updated_at":   level.UpdatedAt,
		})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return mapLevelInsertError(level, err)
	}
	return nil
}

// mapLevelInsertError turns a unique violation into a state mismatch so
// the loser of a concurrent first-time creation rolls back and retries
// against the row the winner committed.
func mapLevelInsertError(level *ledger.StockLevel, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return apperror.NewStateMismatch("stock level", level.ID.String()).
			WithDetail("product_id", level.ProductID.String()).
			WithDetail("warehouse_id", level.WarehouseID.String()).
			WithCause(err)
	}
	return fmt.Errorf("insert stock level: %w", err)
}

// GetByID retrieves a stock level by ID.
func (r *StockLevelRepo) GetByID(ctx context.Context, levelID id.ID) (*ledger.StockLevel, error) {
	return r.getOne(ctx, r.baseSelect(ctx).Where(squirrel.Eq{"id": levelID}))
}

// GetByIDForUpdate retrieves a stock level with a row lock.
func (r *StockLevelRepo) GetByIDForUpdate(ctx context.Context, levelID id.ID) (*ledger.StockLevel, error) {
	q := r.baseSelect(ctx).
		Where(squirrel.Eq{"id": levelID}).
		Suffix("FOR UPDATE")
	return r.getOne(ctx, q)
}

// FindForUpdate locates the (product, warehouse) row with a row lock.
func (r *StockLevelRepo) FindForUpdate(ctx context.Context, productID, warehouseID id.ID) (*ledger.StockLevel, error) {
	q := r.baseSelect(ctx).
		Where(squirrel.Eq{"product_id": productID}).
		Where(squirrel.Eq{"warehouse_id": warehouseID}).
		Suffix("FOR UPDATE")
	return r.getOne(ctx, q)
}

func (r *StockLevelRepo) getOne(ctx context.Context, q squirrel.SelectBuilder) (*ledger.StockLevel, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var level ledger.StockLevel
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &level, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("stock level", nil)
		}
		return nil, fmt.Errorf("get stock level: %w", err)
	}
	return &level, nil
}

// Save writes the mutable fields and bumps the version. The version
// condition makes lost updates impossible even if a caller skipped the
// row lock: the write is rejected instead of silently overwriting.
func (r *StockLevelRepo) Save(ctx context.Context, level *ledger.StockLevel) error {
	q := r.builder().
		Update("stock_levels").
		Set("quantity", level.Quantity.Int64Scaled()).
		Set("product_name", level.ProductName).
		Set("unit", level.Unit).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"tenant_id": appctx.GetTenantID(ctx)}).
		Where(squirrel.Eq{"id": level.ID}).
		Where(squirrel.Eq{"version": level.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update stock level: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewStateMismatch("stock level", level.ID.String())
	}

	level.Version++
	return nil
}

// List returns stock levels matching the filter.
func (r *StockLevelRepo) List(ctx context.Context, filter ledger.LevelFilter) ([]ledger.StockLevel, error) {
	q := r.baseSelect(ctx)

	if filter.WarehouseID != nil {
		q = q.Where(squirrel.Eq{"warehouse_id": *filter.WarehouseID})
	}
	if filter.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *filter.ProductID})
	}
	if filter.ExcludeZero {
		q = q.Where(squirrel.NotEq{"quantity": 0})
	}
	q = q.OrderBy("product_name ASC", "warehouse_id ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var levels []ledger.StockLevel
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &levels, sql, args...); err != nil {
		return nil, fmt.Errorf("list stock levels: %w", err)
	}
	return levels, nil
}
