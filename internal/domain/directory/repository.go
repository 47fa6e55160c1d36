package directory

import (
	"context"

	"trackit/internal/core/id"
)

// CatalogRepository defines persistence operations shared by all
// reference entities. All queries are tenant-scoped through the context.
type CatalogRepository[T any] interface {
	// Create inserts a new entity
	Create(ctx context.Context, entity T) error

	// GetByID retrieves entity by ID (NotFound-capable)
	GetByID(ctx context.Context, entityID id.ID) (T, error)

	// Update saves changes with optimistic version check
	Update(ctx context.Context, entity T) error

	// SetDeletionMark toggles the soft-delete flag
	SetDeletionMark(ctx context.Context, entityID id.ID, mark bool) error

	// HardDelete permanently removes the row (admin surface)
	HardDelete(ctx context.Context, entityID id.ID) error

	// List returns entities matching the filter
	List(ctx context.Context, filter ListFilter) ([]T, error)
}

// ListFilter narrows catalog listings.
type ListFilter struct {
	// Text is a case-insensitive substring match on the name
	Text string

	// IncludeDeleted also returns soft-deleted rows
	IncludeDeleted bool

	Limit  int
	Offset int
}

// Store is the read-only contract the stock ledger consumes.
// Every getter returns NotFound when the id does not resolve
// within the caller's tenant.
type Store interface {
	GetProduct(ctx context.Context, productID id.ID) (*Product, error)
	GetWarehouse(ctx context.Context, warehouseID id.ID) (*Warehouse, error)
	GetSupplier(ctx context.Context, supplierID id.ID) (*Counterparty, error)
	GetCustomer(ctx context.Context, customerID id.ID) (*Counterparty, error)
}
