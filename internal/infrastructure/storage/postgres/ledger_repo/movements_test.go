package ledger_repo

import (
	"testing"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackit/internal/core/id"
	"trackit/internal/domain/ledger"
)

func movementSelect() squirrel.SelectBuilder {
	return squirrel.StatementBuilder.
		PlaceholderFormat(squirrel.Dollar).
		Select(movementCols...).
		From("stock_movements")
}

func TestApplyMovementFilter_Empty(t *testing.T) {
	sql, args, err := applyMovementFilter(movementSelect(), ledger.MovementFilter{}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "ORDER BY occurred_at DESC, id DESC")
	assert.NotContains(t, sql, "WHERE")
	assert.Empty(t, args)
}

func TestApplyMovementFilter_Text(t *testing.T) {
	sql, args, err := applyMovementFilter(movementSelect(), ledger.MovementFilter{Text: "bolt"}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "product_name ILIKE")
	assert.Contains(t, sql, "warehouse_name ILIKE")
	assert.Contains(t, sql, "counterparty_name ILIKE")
	assert.Contains(t, sql, "description ILIKE")
	require.Len(t, args, 4)
	assert.Equal(t, "%bolt%", args[0])
}

func TestApplyMovementFilter_DateRange(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 31, 23, 59, 59, 0, time.UTC)

	sql, args, err := applyMovementFilter(movementSelect(), ledger.MovementFilter{
		FromDate: &from,
		ToDate:   &to,
	}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "occurred_at >=")
	assert.Contains(t, sql, "occurred_at <=")
	assert.Equal(t, []any{from, to}, args)
}

func TestApplyMovementFilter_KindAndCounterparty(t *testing.T) {
	kind := ledger.KindExit
	cpID := id.New()

	sql, args, err := applyMovementFilter(movementSelect(), ledger.MovementFilter{
		Kind:           &kind,
		CounterpartyID: &cpID,
	}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "counterparty_id =")
	assert.Contains(t, sql, "kind =")
	assert.Len(t, args, 2)
}

func TestApplyMovementFilter_Pagination(t *testing.T) {
	sql, _, err := applyMovementFilter(movementSelect(), ledger.MovementFilter{
		Limit:  50,
		Offset: 100,
	}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "LIMIT 50")
	assert.Contains(t, sql, "OFFSET 100")
}
