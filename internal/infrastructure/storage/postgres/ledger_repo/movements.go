package ledger_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"trackit/internal/core/apperror"
	"trackit/internal/core/appctx"
	"trackit/internal/core/id"
	"trackit/internal/domain/ledger"
	"trackit/internal/infrastructure/storage/postgres"
)

var movementCols = []string{
	"id", "tenant_id", "kind", "stock_level_id", "product_id",
	"warehouse_id", "quantity_delta", "resulting_quantity",
	"counterparty_id", "product_name", "unit", "warehouse_name",
	"counterparty_name", "description", "occurred_at", "recorded_by",
}

// MovementRepo persists the movement log.
type MovementRepo struct {
	txManager *postgres.TxManager
}

// NewMovementRepo creates a movement repository.
func NewMovementRepo(txManager *postgres.TxManager) *MovementRepo {
	return &MovementRepo{txManager: txManager}
}

var _ ledger.MovementRepository = (*MovementRepo)(nil)

func (r *MovementRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *MovementRepo) baseSelect(ctx context.Context) squirrel.SelectBuilder {
	return r.builder().
		Select(movementCols...).
		From("stock_movements").
		Where(squirrel.Eq{"tenant_id": appctx.GetTenantID(ctx)})
}

// Create appends one movement row.
func (r *MovementRepo) Create(ctx context.Context, m *ledger.Movement) error {
	var counterpartyID any
	if !id.IsNil(m.CounterpartyID) {
		counterpartyID = m.CounterpartyID
	}

	q := r.builder().
		Insert("stock_movements").
		SetMap(map[string]any{
			"id":                 m.ID,
			"tenant_id":          m.TenantID,
			"kind":               m.Kind,
			"stock_level_id":     m.StockLevelID,
			"product_id":         m.ProductID,
			"warehouse_id":       m.WarehouseID,
			"quantity_delta":     m.QuantityDelta.Int64Scaled(),
			"resulting_quantity": m.ResultingQuantity.Int64Scaled(),
			"counterparty_id":    counterpartyID,
			"product_name":       m.ProductName,
			"unit":               m.Unit,
			"warehouse_name":     m.WarehouseName,
			"counterparty_name":  m.CounterpartyName,
			"description":        m.Description,
			"occurred_at":        m.OccurredAt,
			"recorded_by":        m.RecordedBy,
		})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

// GetByID retrieves a movement by ID.
func (r *MovementRepo) GetByID(ctx context.Context, movementID id.ID) (*ledger.Movement, error) {
	q := r.baseSelect(ctx).
		Where(squirrel.Eq{"id": movementID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movement ledger.Movement
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &movement, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("movement", movementID.String())
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return &movement, nil
}

// List returns a snapshot of movements matching the filter, newest first.
func (r *MovementRepo) List(ctx context.Context, filter ledger.MovementFilter) ([]ledger.Movement, error) {
	q := applyMovementFilter(r.baseSelect(ctx), filter)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []ledger.Movement
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return movements, nil
}

// applyMovementFilter translates the filter into WHERE conditions.
// Split out for testability.
func applyMovementFilter(q squirrel.SelectBuilder, filter ledger.MovementFilter) squirrel.SelectBuilder {
	if filter.Text != "" {
		pattern := "%" + filter.Text + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"product_name": pattern},
			squirrel.ILike{"warehouse_name": pattern},
			squirrel.ILike{"counterparty_name": pattern},
			squirrel.ILike{"description": pattern},
		})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"occurred_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"occurred_at": *filter.ToDate})
	}
	if filter.WarehouseID != nil {
		q = q.Where(squirrel.Eq{"warehouse_id": *filter.WarehouseID})
	}
	if filter.CounterpartyID != nil {
		q = q.Where(squirrel.Eq{"counterparty_id": *filter.CounterpartyID})
	}
	if filter.Kind != nil {
		q = q.Where(squirrel.Eq{"kind": *filter.Kind})
	}

	q = q.OrderBy("occurred_at DESC", "id DESC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}
	return q
}

// Delete removes a movement row.
func (r *MovementRepo) Delete(ctx context.Context, movementID id.ID) error {
	q := r.builder().
		Delete("stock_movements").
		Where(squirrel.Eq{"tenant_id": appctx.GetTenantID(ctx)}).
		Where(squirrel.Eq{"id": movementID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete movement: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("movement", movementID.String())
	}
	return nil
}
