package dto

// ProductRequest creates or updates a product.
type ProductRequest struct {
	Name string `json:"name" binding:"required"`
	Unit string `json:"unit" binding:"required"`
	SKU  string `json:"sku"`
}

// WarehouseRequest creates or updates a warehouse.
type WarehouseRequest struct {
	Name     string `json:"name" binding:"required"`
	Address  string `json:"address"`
	IsActive *bool  `json:"isActive"`
}

// CounterpartyRequest creates or updates a supplier or customer.
type CounterpartyRequest struct {
	Name  string `json:"name" binding:"required"`
	Kind  string `json:"kind" binding:"required"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// AuditQuery filters the audit trail.
type AuditQuery struct {
	Action   string `form:"action"`
	ActorID  string `form:"actorId"`
	FromDate string `form:"fromDate"`
	ToDate   string `form:"toDate"`
	Limit    int    `form:"limit"`
	Offset   int    `form:"offset"`
}
