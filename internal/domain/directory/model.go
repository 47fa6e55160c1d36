// Package directory provides tenant-scoped reference data: products,
// warehouses and counterparties. The stock ledger consumes it read-only
// through the Store contract; the HTTP layer uses the full CRUD services.
package directory

import (
	"context"
	"strings"
	"time"

	"trackit/internal/core/apperror"
	"trackit/internal/core/id"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants (without database access).
type Validatable interface {
	Validate(ctx context.Context) error
}

// Catalog contains common fields for all reference entities.
type Catalog struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// TenantID scopes the record to one company account
	TenantID id.ID `db:"tenant_id" json:"-"`

	// Name is the display name
	Name string `db:"name" json:"name"`

	// DeletionMark indicates soft-deleted entity
	DeletionMark bool `db:"deletion_mark" json:"deletionMark"`

	// Version for optimistic locking (incremented on each update)
	Version int `db:"version" json:"version"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewCatalog creates a new Catalog with generated ID.
func NewCatalog(tenantID id.ID, name string) Catalog {
	now := time.Now().UTC()
	return Catalog{
		ID:        id.New(),
		TenantID:  tenantID,
		Name:      name,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate implements Validatable.
func (c *Catalog) Validate(ctx context.Context) error {
	if strings.TrimSpace(c.Name) == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	if id.IsNil(c.TenantID) {
		return apperror.NewValidation("tenant is required").
			WithDetail("field", "tenantId")
	}
	return nil
}

// Touch updates the timestamp and increments version.
func (c *Catalog) Touch() {
	c.UpdatedAt = time.Now().UTC()
	c.Version++
}

// Product is a stock item definition. Name and unit are display
// attributes; the ID is the only join key used by the ledger.
type Product struct {
	Catalog

	// Unit is the counting unit (pcs, kg, box)
	Unit string `db:"unit" json:"unit"`

	// SKU is an optional merchant code
	SKU string `db:"sku" json:"sku,omitempty"`
}

// NewProduct creates a new Product.
func NewProduct(tenantID id.ID, name, unit string) *Product {
	return &Product{
		Catalog: NewCatalog(tenantID, name),
		Unit:    unit,
	}
}

// Validate implements Validatable.
func (p *Product) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(p.Unit) == "" {
		return apperror.NewValidation("unit is required").
			WithDetail("field", "unit")
	}
	return nil
}

// Warehouse represents a storage location for goods.
type Warehouse struct {
	Catalog

	// Address is the physical address
	Address string `db:"address" json:"address,omitempty"`

	// IsActive indicates if warehouse is operational
	IsActive bool `db:"is_active" json:"isActive"`
}

// NewWarehouse creates a new Warehouse.
func NewWarehouse(tenantID id.ID, name string) *Warehouse {
	return &Warehouse{
		Catalog:  NewCatalog(tenantID, name),
		IsActive: true,
	}
}

// CanHoldStock returns true if the warehouse may participate in movements.
func (w *Warehouse) CanHoldStock() bool {
	return w.IsActive && !w.DeletionMark
}

// CounterpartyKind distinguishes suppliers from customers.
type CounterpartyKind string

const (
	KindSupplier CounterpartyKind = "supplier"
	KindCustomer CounterpartyKind = "customer"
)

// Counterparty is a supplier or customer the company trades with.
type Counterparty struct {
	Catalog

	Kind  CounterpartyKind `db:"kind" json:"kind"`
	Phone string           `db:"phone" json:"phone,omitempty"`
	Email string           `db:"email" json:"email,omitempty"`
}

// NewCounterparty creates a new Counterparty.
func NewCounterparty(tenantID id.ID, name string, kind CounterpartyKind) *Counterparty {
	return &Counterparty{
		Catalog: NewCatalog(tenantID, name),
		Kind:    kind,
	}
}

// Validate implements Validatable.
func (c *Counterparty) Validate(ctx context.Context) error {
	if err := c.Catalog.Validate(ctx); err != nil {
		return err
	}
	switch c.Kind {
	case KindSupplier, KindCustomer:
	default:
		return apperror.NewValidation("invalid counterparty kind").
			WithDetail("field", "kind").
			WithDetail("value", string(c.Kind))
	}
	return nil
}
