package ledger

import (
	"context"
	"time"

	"trackit/internal/core/id"
)

// LevelRepository persists stock level rows. All queries are scoped to the
// context tenant. ForUpdate variants take a row lock and must be called
// inside a transaction; together with the version guard on Save they make
// the read-check-write cycle safe against concurrent writers.
type LevelRepository interface {
	// Create inserts a new stock level row
	Create(ctx context.Context, level *StockLevel) error

	// GetByID retrieves a stock level (NotFound-capable)
	GetByID(ctx context.Context, levelID id.ID) (*StockLevel, error)

	// GetByIDForUpdate retrieves a stock level with a row lock
	GetByIDForUpdate(ctx context.Context, levelID id.ID) (*StockLevel, error)

	// FindForUpdate locates the row for (product, warehouse) with a row
	// lock; NotFound when the product has never been stocked there
	FindForUpdate(ctx context.Context, productID, warehouseID id.ID) (*StockLevel, error)

	// Save writes quantity and bumps the version; StateMismatch when the
	// stored version no longer matches the one read
	Save(ctx context.Context, level *StockLevel) error

	// List returns stock levels matching the filter
	List(ctx context.Context, filter LevelFilter) ([]StockLevel, error)
}

// LevelFilter narrows stock level listings.
type LevelFilter struct {
	WarehouseID *id.ID
	ProductID   *id.ID
	ExcludeZero bool
}

// MovementRepository persists the append-only movement log.
type MovementRepository interface {
	// Create appends one movement row
	Create(ctx context.Context, movement *Movement) error

	// GetByID retrieves a movement (NotFound-capable)
	GetByID(ctx context.Context, movementID id.ID) (*Movement, error)

	// List returns a finite snapshot of movements matching the filter,
	// newest first
	List(ctx context.Context, filter MovementFilter) ([]Movement, error)

	// Delete removes a movement row. Only the service's corrective
	// delete may call this; it compensates the stock level first.
	Delete(ctx context.Context, movementID id.ID) error
}

// MovementFilter narrows movement history queries. All conditions AND together.
type MovementFilter struct {
	// Text matches product, warehouse and counterparty names plus the
	// description, case-insensitive substring
	Text string

	// FromDate/ToDate bound OccurredAt, inclusive
	FromDate *time.Time
	ToDate   *time.Time

	WarehouseID    *id.ID
	CounterpartyID *id.ID
	Kind           *MovementKind

	Limit  int
	Offset int
}
