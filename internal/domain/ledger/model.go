// Package ledger owns quantity-on-hand per product per warehouse and the
// append-only movement log behind it. Every stock-affecting operation goes
// through this package so the two structures stay mutually consistent:
// replaying the movements of a (product, warehouse) pair always reproduces
// the current stock level.
package ledger

import (
	"time"

	"trackit/internal/core/id"
	"trackit/internal/core/types"
)

// MovementKind classifies a quantity change.
type MovementKind string

const (
	// KindEntry is a receipt from a supplier
	KindEntry MovementKind = "entry"
	// KindExit is an issue to a customer
	KindExit MovementKind = "exit"
	// KindTransferOut is the source leg of a warehouse transfer
	KindTransferOut MovementKind = "transfer_out"
	// KindTransferIn is the destination leg of a warehouse transfer
	KindTransferIn MovementKind = "transfer_in"
)

// IsValid reports whether the kind is one of the four movement kinds.
func (k MovementKind) IsValid() bool {
	switch k {
	case KindEntry, KindExit, KindTransferOut, KindTransferIn:
		return true
	}
	return false
}

// Increases reports whether the kind adds stock.
func (k MovementKind) Increases() bool {
	return k == KindEntry || k == KindTransferIn
}

// StockLevel is the quantity on hand of one product in one warehouse.
// At most one row exists per (tenant, product, warehouse); the product ID
// is the only join key; name and unit are denormalized display data.
type StockLevel struct {
	ID          id.ID `db:"id" json:"id"`
	TenantID    id.ID `db:"tenant_id" json:"-"`
	ProductID   id.ID `db:"product_id" json:"productId"`
	WarehouseID id.ID `db:"warehouse_id" json:"warehouseId"`

	// Display attributes captured at write time
	ProductName string `db:"product_name" json:"productName"`
	Unit        string `db:"unit" json:"unit"`

	// Quantity is never negative after a committed operation
	Quantity types.Quantity `db:"quantity" json:"quantity"`

	// Version guards concurrent read-modify-write cycles
	Version int `db:"version" json:"version"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewStockLevel creates a stock level row for a product entering a warehouse.
func NewStockLevel(tenantID, productID, warehouseID id.ID, productName, unit string, quantity types.Quantity) *StockLevel {
	now := time.Now().UTC()
	return &StockLevel{
		ID:          id.New(),
		TenantID:    tenantID,
		ProductID:   productID,
		WarehouseID: warehouseID,
		ProductName: productName,
		Unit:        unit,
		Quantity:    quantity,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Movement is one immutable record of a quantity change. Display names are
// denormalized at write time so history stays readable after catalog edits.
type Movement struct {
	ID       id.ID        `db:"id" json:"id"`
	TenantID id.ID        `db:"tenant_id" json:"-"`
	Kind     MovementKind `db:"kind" json:"kind"`

	StockLevelID id.ID `db:"stock_level_id" json:"stockLevelId"`
	ProductID    id.ID `db:"product_id" json:"productId"`
	WarehouseID  id.ID `db:"warehouse_id" json:"warehouseId"`

	// QuantityDelta is signed: positive for entry/transfer_in,
	// negative for exit/transfer_out.
	QuantityDelta types.Quantity `db:"quantity_delta" json:"quantityDelta"`

	// ResultingQuantity is the stock level immediately after this movement
	ResultingQuantity types.Quantity `db:"resulting_quantity" json:"resultingQuantity"`

	// CounterpartyID is the supplier (entry), customer (exit, optional)
	// or opposite warehouse (transfer legs reference each other here)
	CounterpartyID id.ID `db:"counterparty_id" json:"counterpartyId"`

	ProductName      string `db:"product_name" json:"productName"`
	Unit             string `db:"unit" json:"unit"`
	WarehouseName    string `db:"warehouse_name" json:"warehouseName"`
	CounterpartyName string `db:"counterparty_name" json:"counterpartyName,omitempty"`

	Description string `db:"description" json:"description,omitempty"`

	// OccurredAt orders the ledger; replaying deltas in this order
	// reproduces ResultingQuantity of the last row
	OccurredAt time.Time `db:"occurred_at" json:"occurredAt"`

	// RecordedBy is the acting user
	RecordedBy id.ID `db:"recorded_by" json:"recordedBy"`
}

// TransferResult is the pair of movements written by one transfer.
type TransferResult struct {
	Out *Movement `json:"out"`
	In  *Movement `json:"in"`
}

// ProductTotal is one row of the per-product aggregation view.
type ProductTotal struct {
	ProductID   id.ID              `json:"productId"`
	ProductName string             `json:"productName"`
	Unit        string             `json:"unit"`
	Total       types.Quantity     `json:"totalQuantity"`
	Breakdown   []WarehouseHolding `json:"perWarehouseBreakdown"`
}

// WarehouseHolding is one warehouse's share of a product total.
type WarehouseHolding struct {
	WarehouseID   id.ID          `json:"warehouseId"`
	WarehouseName string         `json:"warehouseName"`
	Quantity      types.Quantity `json:"quantity"`
}
