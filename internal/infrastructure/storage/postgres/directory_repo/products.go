package directory_repo

import (
	"trackit/internal/core/id"
	"trackit/internal/domain/directory"
	"trackit/internal/infrastructure/storage/postgres"
)

var productCols = []string{
	"id", "tenant_id", "name", "deletion_mark", "version",
	"created_at", "updated_at", "unit", "sku",
}

// ProductRepo persists products.
type ProductRepo struct {
	*BaseCatalogRepo[*directory.Product]
}

// NewProductRepo creates a product repository.
func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		BaseCatalogRepo: newBaseCatalogRepo(txManager, catalogMeta[*directory.Product]{
			tableName:  "products",
			selectCols: productCols,
			newFn:      func() *directory.Product { return &directory.Product{} },
			rowMap: func(p *directory.Product) map[string]any {
				return map[string]any{
					"id":            p.ID,
					"tenant_id":     p.TenantID,
					"name":          p.Name,
					"deletion_mark": p.DeletionMark,
					"version":       p.Version,
					"created_at":    p.CreatedAt,
					"updated_at":    p.UpdatedAt,
					"unit":          p.Unit,
					"sku":           p.SKU,
				}
			},
			idOf:      func(p *directory.Product) id.ID { return p.ID },
			versionOf: func(p *directory.Product) int { return p.Version },
		}),
	}
}
