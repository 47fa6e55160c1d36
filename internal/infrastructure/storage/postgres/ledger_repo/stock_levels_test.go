package ledger_repo

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackit/internal/core/apperror"
	"trackit/internal/core/id"
	"trackit/internal/core/types"
	"trackit/internal/domain/ledger"
)

func TestMapLevelInsertError_UniqueViolationIsStateMismatch(t *testing.T) {
	level := ledger.NewStockLevel(id.New(), id.New(), id.New(), "Bolt M6", "pcs", types.Quantity(0))

	pgErr := &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "stock_levels_tenant_product_warehouse_key",
	}
	err := mapLevelInsertError(level, fmt.Errorf("exec: %w", pgErr))

	require.Error(t, err)
	assert.True(t, apperror.IsStateMismatch(err))

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, level.ProductID.String(), appErr.Details["product_id"])
	assert.Equal(t, level.WarehouseID.String(), appErr.Details["warehouse_id"])
}

func TestMapLevelInsertError_OtherErrorsPassThrough(t *testing.T) {
	level := ledger.NewStockLevel(id.New(), id.New(), id.New(), "Bolt M6", "pcs", types.Quantity(0))

	err := mapLevelInsertError(level, fmt.Errorf("connection reset"))
	require.Error(t, err)
	assert.False(t, apperror.IsAppError(err))
	assert.Contains(t, err.Error(), "insert stock level")
}
