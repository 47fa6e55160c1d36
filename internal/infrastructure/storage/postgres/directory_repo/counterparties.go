package directory_repo

import (
	"trackit/internal/core/id"
	"trackit/internal/domain/directory"
	"trackit/internal/infrastructure/storage/postgres"
)

var counterpartyCols = []string{
	"id", "tenant_id", "name", "deletion_mark", "version",
	"created_at", "updated_at", "kind", "phone", "email",
}

// CounterpartyRepo persists suppliers and customers in one table,
// discriminated by the kind column.
type CounterpartyRepo struct {
	*BaseCatalogRepo[*directory.Counterparty]
}

// NewCounterpartyRepo creates a counterparty repository.
func NewCounterpartyRepo(txManager *postgres.TxManager) *CounterpartyRepo {
	return &CounterpartyRepo{
		BaseCatalogRepo: newBaseCatalogRepo(txManager, catalogMeta[*directory.Counterparty]{
			tableName:  "counterparties",
			selectCols: counterpartyCols,
			newFn:      func() *directory.Counterparty { return &directory.Counterparty{} },
			rowMap: func(c *directory.Counterparty) map[string]any {
				return map[string]any{
					"id":            c.ID,
					"tenant_id":     c.TenantID,
					"name":          c.Name,
					"deletion_mark": c.DeletionMark,
					"version":       c.Version,
					"created_at":    c.CreatedAt,
					"updated_at":    c.UpdatedAt,
					"kind":          c.Kind,
					"phone":         c.Phone,
					"email":         c.Email,
				}
			},
			idOf:      func(c *directory.Counterparty) id.ID { return c.ID },
			versionOf: func(c *directory.Counterparty) int { return c.Version },
		}),
	}
}
