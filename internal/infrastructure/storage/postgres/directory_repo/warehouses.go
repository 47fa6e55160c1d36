package directory_repo

import (
	"trackit/internal/core/id"
	"trackit/internal/domain/directory"
	"trackit/internal/infrastructure/storage/postgres"
)

var warehouseCols = []string{
	"id", "tenant_id", "name", "deletion_mark", "version",
	"created_at", "updated_at", "address", "is_active",
}

// WarehouseRepo persists warehouses.
type WarehouseRepo struct {
	*BaseCatalogRepo[*directory.Warehouse]
}

// NewWarehouseRepo creates a warehouse repository.
func NewWarehouseRepo(txManager *postgres.TxManager) *WarehouseRepo {
	return &WarehouseRepo{
		BaseCatalogRepo: newBaseCatalogRepo(txManager, catalogMeta[*directory.Warehouse]{
			tableName:  "warehouses",
			selectCols: warehouseCols,
			newFn:      func() *directory.Warehouse { return &directory.Warehouse{} },
			rowMap: func(w *directory.Warehouse) map[string]any {
				return map[string]any{
					"id":            w.ID,
					"tenant_id":     w.TenantID,
					"name":          w.Name,
					"deletion_mark": w.DeletionMark,
					"version":       w.Version,
					"created_at":    w.CreatedAt,
					"updated_at":    w.UpdatedAt,
					"address":       w.Address,
					"is_active":     w.IsActive,
				}
			},
			idOf:      func(w *directory.Warehouse) id.ID { return w.ID },
			versionOf: func(w *directory.Warehouse) int { return w.Version },
		}),
	}
}
