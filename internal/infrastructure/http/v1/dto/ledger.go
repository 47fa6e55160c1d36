package dto

import "trackit/internal/core/types"

// EntryRequest records a goods receipt.
type EntryRequest struct {
	ProductID   string         `json:"productId" binding:"required"`
	WarehouseID string         `json:"warehouseId" binding:"required"`
	Quantity    types.Quantity `json:"quantity" binding:"required"`
	SupplierID  string         `json:"supplierId" binding:"required"`
	Description string         `json:"description"`
}

// ExitRequest records a goods issue.
type ExitRequest struct {
	StockLevelID string         `json:"stockLevelId" binding:"required"`
	Quantity     types.Quantity `json:"quantity" binding:"required"`
	CustomerID   string         `json:"customerId"`
	Description  string         `json:"description"`
}

// TransferRequest moves stock between warehouses.
type TransferRequest struct {
	SourceWarehouseID      string         `json:"sourceWarehouseId" binding:"required"`
	DestinationWarehouseID string         `json:"destinationWarehouseId" binding:"required"`
	StockLevelID           string         `json:"stockLevelId" binding:"required"`
	Quantity               types.Quantity `json:"quantity" binding:"required"`
	Description            string         `json:"description"`
}

// MovementQuery filters the movement log.
type MovementQuery struct {
	Text           string `form:"text"`
	FromDate       string `form:"fromDate"` // RFC 3339 or YYYY-MM-DD
	ToDate         string `form:"toDate"`
	WarehouseID    string `form:"warehouseId"`
	CounterpartyID string `form:"counterpartyId"`
	Kind           string `form:"kind"`
	Limit          int    `form:"limit"`
	Offset         int    `form:"offset"`
}

// LevelQuery filters stock level listings.
type LevelQuery struct {
	WarehouseID string `form:"warehouseId"`
	ProductID   string `form:"productId"`
	ExcludeZero bool   `form:"excludeZero"`
}
