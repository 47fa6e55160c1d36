package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"trackit/internal/core/appctx"
	"trackit/internal/core/id"
	"trackit/internal/domain/audit"
	"trackit/internal/domain/directory"
	"trackit/internal/infrastructure/http/v1/dto"
	"trackit/pkg/logger"
)

// appendCatalogAudit records a catalog mutation on the trail.
// Failures are logged and swallowed.
func appendCatalogAudit(c *gin.Context, trail audit.Trail, action audit.Action, entityName, name string, relatedID id.ID) {
	if trail == nil {
		return
	}
	ctx := c.Request.Context()
	entry := audit.NewEntry(ctx, action, fmt.Sprintf("%s %q", entityName, name), relatedID)
	if err := trail.Append(ctx, entry); err != nil {
		logger.Warn(ctx, "audit append failed", "action", action, "error", err)
	}
}

func listFilterFromQuery(query dto.ListQuery) directory.ListFilter {
	return directory.ListFilter{
		Text:           query.Text,
		IncludeDeleted: query.IncludeDeleted,
		Limit:          query.Limit,
		Offset:         query.Offset,
	}
}

// --- products ---

// ProductHandler serves product CRUD.
type ProductHandler struct {
	*BaseHandler
	service *directory.CatalogService[*directory.Product]
	trail   audit.Trail
}

// NewProductHandler creates a product handler.
func NewProductHandler(base *BaseHandler, service *directory.CatalogService[*directory.Product], trail audit.Trail) *ProductHandler {
	return &ProductHandler{BaseHandler: base, service: service, trail: trail}
}

// Create handles POST /directory/products.
func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.ProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	product := directory.NewProduct(appctx.GetTenantID(c.Request.Context()), req.Name, req.Unit)
	product.SKU = req.SKU

	if err := h.service.Create(c.Request.Context(), product); err != nil {
		h.Error(c, err)
		return
	}
	appendCatalogAudit(c, h.trail, audit.ActionCatalogCreate, "product", product.Name, product.ID)
	h.Created(c, product.ID)
}

// Get handles GET /directory/products/:id.
func (h *ProductHandler) Get(c *gin.Context) {
	entityID, ok := h.ParseID(c, "id", c.Param("id"))
	if !ok {
		return
	}
	product, err := h.service.GetByID(c.Request.Context(), entityID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, product)
}

// Update handles PUT /directory/products/:id.
func (h *ProductHandler) Update(c *gin.Context) {
	entityID, ok := h.ParseID(c, "id", c.Param("id"))
	if !ok {
		return
	}
	var req dto.ProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	product, err := h.service.GetByID(c.Request.Context(), entityID)
	if err != nil {
		h.Error(c, err)
		return
	}

	product.Name = req.Name
	product.Unit = req.Unit
	product.SKU = req.SKU

	if err := h.service.Update(c.Request.Context(), product); err != nil {
		h.Error(c, err)
		return
	}
	appendCatalogAudit(c, h.trail, audit.ActionCatalogUpdate, "product", product.Name, product.ID)
	h.OK(c, product)
}

// Delete handles DELETE /directory/products/:id (soft delete).
func (h *ProductHandler) Delete(c *gin.Context) {
	entityID, ok := h.ParseID(c, "id", c.Param("id"))
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), entityID); err != nil {
		h.Error(c, err)
		return
	}
	appendCatalogAudit(c, h.trail, audit.ActionCatalogDelete, "product", "", entityID)
	h.NoContent(c)
}

// List handles GET /directory/products.
func (h *ProductHandler) List(c *gin.Context) {
	var query dto.ListQuery
	if !h.BindQuery(c, &query) {
		return
	}
	items, err := h.service.List(c.Request.Context(), listFilterFromQuery(query))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": items})
}

// --- warehouses ---

// WarehouseHandler serves warehouse CRUD.
type WarehouseHandler struct {
	*BaseHandler
	service *directory.CatalogService[*directory.Warehouse]
	trail   audit.Trail
}

// NewWarehouseHandler creates a warehouse handler.
func NewWarehouseHandler(base *BaseHandler, service *directory.CatalogService[*directory.Warehouse], trail audit.Trail) *WarehouseHandler {
	return &WarehouseHandler{BaseHandler: base, service: service, trail: trail}
}

// Create handles POST /directory/warehouses.
func (h *WarehouseHandler) Create(c *gin.Context) {
	var req dto.WarehouseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	warehouse := directory.NewWarehouse(appctx.GetTenantID(c.Request.Context()), req.Name)
	warehouse.Address = req.Address
	if req.IsActive != nil {
		warehouse.IsActive = *req.IsActive
	}

	if err := h.service.Create(c.Request.Context(), warehouse); err != nil {
		h.Error(c, err)
		return
	}
	appendCatalogAudit(c, h.trail, audit.ActionCatalogCreate, "warehouse", warehouse.Name, warehouse.ID)
	h.Created(c, warehouse.ID)
}

// Get handles GET /directory/warehouses/:id.
func (h *WarehouseHandler) Get(c *gin.Context) {
	entityID, ok := h.ParseID(c, "id", c.Param("id"))
	if !ok {
		return
	}
	warehouse, err := h.service.GetByID(c.Request.Context(), entityID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, warehouse)
}

// Update handles PUT /directory/warehouses/:id.
func (h *WarehouseHandler) Update(c *gin.Context) {
	entityID, ok := h.ParseID(c, "id", c.Param("id"))
	if !ok {
		return
	}
	var req dto.WarehouseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	warehouse, err := h.service.GetByID(c.Request.Context(), entityID)
	if err != nil {
		h.Error(c, err)
		return
	}

	warehouse.Name = req.Name
	warehouse.Address = req.Address
	if req.IsActive != nil {
		warehouse.IsActive = *req.IsActive
	}

	if err := h.service.Update(c.Request.Context(), warehouse); err != nil {
		h.Error(c, err)
		return
	}
	appendCatalogAudit(c, h.trail, audit.ActionCatalogUpdate, "warehouse", warehouse.Name, warehouse.ID)
	h.OK(c, warehouse)
}

// Delete handles DELETE /directory/warehouses/:id (soft delete).
func (h *WarehouseHandler) Delete(c *gin.Context) {
	entityID, ok := h.ParseID(c, "id", c.Param("id"))
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), entityID); err != nil {
		h.Error(c, err)
		return
	}
	appendCatalogAudit(c, h.trail, audit.ActionCatalogDelete, "warehouse", "", entityID)
	h.NoContent(c)
}

// List handles GET /directory/warehouses.
func (h *WarehouseHandler) List(c *gin.Context) {
	var query dto.ListQuery
	if !h.BindQuery(c, &query) {
		return
	}
	items, err := h.service.List(c.Request.Context(), listFilterFromQuery(query))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": items})
}

// --- counterparties ---

// CounterpartyHandler serves supplier and customer CRUD.
type CounterpartyHandler struct {
	*BaseHandler
	service *directory.CatalogService[*directory.Counterparty]
	trail   audit.Trail
}

// NewCounterpartyHandler creates a counterparty handler.
func NewCounterpartyHandler(base *BaseHandler, service *directory.CatalogService[*directory.Counterparty], trail audit.Trail) *CounterpartyHandler {
	return &CounterpartyHandler{BaseHandler: base, service: service, trail: trail}
}

// Create handles POST /directory/counterparties.
func (h *CounterpartyHandler) Create(c *gin.Context) {
	var req dto.CounterpartyRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cp := directory.NewCounterparty(appctx.GetTenantID(c.Request.Context()), req.Name, directory.CounterpartyKind(req.Kind))
	cp.Phone = req.Phone
	cp.Email = req.Email

	if err := h.service.Create(c.Request.Context(), cp); err != nil {
		h.Error(c, err)
		return
	}
	appendCatalogAudit(c, h.trail, audit.ActionCatalogCreate, "counterparty", cp.Name, cp.ID)
	h.Created(c, cp.ID)
}

// Get handles GET /directory/counterparties/:id.
func (h *CounterpartyHandler) Get(c *gin.Context) {
	entityID, ok := h.ParseID(c, "id", c.Param("id"))
	if !ok {
		return
	}
	cp, err := h.service.GetByID(c.Request.Context(), entityID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, cp)
}

// Update handles PUT /directory/counterparties/:id.
// The kind is immutable: a supplier never becomes a customer.
func (h *CounterpartyHandler) Update(c *gin.Context) {
	entityID, ok := h.ParseID(c, "id", c.Param("id"))
	if !ok {
		return
	}
	var req dto.CounterpartyRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cp, err := h.service.GetByID(c.Request.Context(), entityID)
	if err != nil {
		h.Error(c, err)
		return
	}

	cp.Name = req.Name
	cp.Phone = req.Phone
	cp.Email = req.Email

	if err := h.service.Update(c.Request.Context(), cp); err != nil {
		h.Error(c, err)
		return
	}
	appendCatalogAudit(c, h.trail, audit.ActionCatalogUpdate, "counterparty", cp.Name, cp.ID)
	h.OK(c, cp)
}

// Delete handles DELETE /directory/counterparties/:id (soft delete).
func (h *CounterpartyHandler) Delete(c *gin.Context) {
	entityID, ok := h.ParseID(c, "id", c.Param("id"))
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), entityID); err != nil {
		h.Error(c, err)
		return
	}
	appendCatalogAudit(c, h.trail, audit.ActionCatalogDelete, "counterparty", "", entityID)
	h.NoContent(c)
}

// List handles GET /directory/counterparties.
func (h *CounterpartyHandler) List(c *gin.Context) {
	var query dto.ListQuery
	if !h.BindQuery(c, &query) {
		return
	}
	items, err := h.service.List(c.Request.Context(), listFilterFromQuery(query))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": items})
}
