package directory_repo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackit/internal/core/appctx"
	"trackit/internal/core/id"
	"trackit/internal/domain/directory"
)

func tenantCtx(tenantID id.ID) context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{
		UserID:   id.New(),
		TenantID: tenantID,
		Role:     appctx.RoleStandard,
	})
}

func TestUpdateQueryRefreshesTimestamp(t *testing.T) {
	repo := NewProductRepo(nil)
	tenantID := id.New()

	product := directory.NewProduct(tenantID, "Bolt M6", "pcs")
	product.Version = 3

	sql, args, err := repo.updateQuery(tenantCtx(tenantID), product).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "updated_at = now()")
	assert.Contains(t, sql, "version = version + 1")
	assert.Contains(t, sql, "version = $")

	// The guard uses the version the entity was read with.
	assert.Contains(t, args, 3)

	// Stale timestamps from the loaded entity never travel back.
	for _, arg := range args {
		_, isTime := arg.(time.Time)
		assert.False(t, isTime, "no timestamp argument expected, got %v", arg)
	}
}
