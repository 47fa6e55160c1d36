package handlers

import (
	"github.com/gin-gonic/gin"

	"trackit/internal/domain/ledger"
	"trackit/internal/infrastructure/http/v1/dto"
)

// LedgerHandler serves the stock movement operations.
type LedgerHandler struct {
	*BaseHandler
	service *ledger.Service
}

// NewLedgerHandler creates a ledger handler.
func NewLedgerHandler(base *BaseHandler, service *ledger.Service) *LedgerHandler {
	return &LedgerHandler{BaseHandler: base, service: service}
}

// RecordEntry handles POST /stock/entries.
func (h *LedgerHandler) RecordEntry(c *gin.Context) {
	var req dto.EntryRequest
	if !h.BindJSON(c, &req) {
		return
	}

	productID, ok := h.ParseID(c, "productId", req.ProductID)
	if !ok {
		return
	}
	warehouseID, ok := h.ParseID(c, "warehouseId", req.WarehouseID)
	if !ok {
		return
	}
	supplierID, ok := h.ParseID(c, "supplierId", req.SupplierID)
	if !ok {
		return
	}

	movement, err := h.service.RecordEntry(c.Request.Context(), ledger.EntryInput{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Quantity:    req.Quantity,
		SupplierID:  supplierID,
		Description: req.Description,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, movement)
}

// RecordExit handles POST /stock/exits.
func (h *LedgerHandler) RecordExit(c *gin.Context) {
	var req dto.ExitRequest
	if !h.BindJSON(c, &req) {
		return
	}

	stockLevelID, ok := h.ParseID(c, "stockLevelId", req.StockLevelID)
	if !ok {
		return
	}
	customerID, ok := h.ParseOptionalID(c, "customerId", req.CustomerID)
	if !ok {
		return
	}

	movement, err := h.service.RecordExit(c.Request.Context(), ledger.ExitInput{
		StockLevelID: stockLevelID,
		Quantity:     req.Quantity,
		CustomerID:   customerID,
		Description:  req.Description,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, movement)
}

// RecordTransfer handles POST /stock/transfers.
func (h *LedgerHandler) RecordTransfer(c *gin.Context) {
	var req dto.TransferRequest
	if !h.BindJSON(c, &req) {
		return
	}

	sourceID, ok := h.ParseID(c, "sourceWarehouseId", req.SourceWarehouseID)
	if !ok {
		return
	}
	destinationID, ok := h.ParseID(c, "destinationWarehouseId", req.DestinationWarehouseID)
	if !ok {
		return
	}
	stockLevelID, ok := h.ParseID(c, "stockLevelId", req.StockLevelID)
	if !ok {
		return
	}

	result, err := h.service.RecordTransfer(c.Request.Context(), ledger.TransferInput{
		SourceWarehouseID:      sourceID,
		DestinationWarehouseID: destinationID,
		StockLevelID:           stockLevelID,
		Quantity:               req.Quantity,
		Description:            req.Description,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// ListMovements handles GET /stock/movements.
func (h *LedgerHandler) ListMovements(c *gin.Context) {
	var query dto.MovementQuery
	if !h.BindQuery(c, &query) {
		return
	}

	filter := ledger.MovementFilter{
		Text:   query.Text,
		Limit:  query.Limit,
		Offset: query.Offset,
	}

	fromDate, ok := h.ParseOptionalDate(c, "fromDate", query.FromDate)
	if !ok {
		return
	}
	filter.FromDate = fromDate

	toDate, ok := h.ParseOptionalDateEnd(c, "toDate", query.ToDate)
	if !ok {
		return
	}
	filter.ToDate = toDate

	if query.WarehouseID != "" {
		warehouseID, ok := h.ParseID(c, "warehouseId", query.WarehouseID)
		if !ok {
			return
		}
		filter.WarehouseID = &warehouseID
	}
	if query.CounterpartyID != "" {
		counterpartyID, ok := h.ParseID(c, "counterpartyId", query.CounterpartyID)
		if !ok {
			return
		}
		filter.CounterpartyID = &counterpartyID
	}
	if query.Kind != "" {
		kind := ledger.MovementKind(query.Kind)
		filter.Kind = &kind
	}

	movements, err := h.service.ListMovements(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": movements})
}

// DeleteMovement handles DELETE /stock/movements/:id (admin only).
func (h *LedgerHandler) DeleteMovement(c *gin.Context) {
	movementID, ok := h.ParseID(c, "id", c.Param("id"))
	if !ok {
		return
	}

	if err := h.service.DeleteMovement(c.Request.Context(), movementID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
