package handlers

import (
	"github.com/gin-gonic/gin"

	"trackit/internal/domain/ledger"
	"trackit/internal/infrastructure/http/v1/dto"
)

// StockHandler serves the read-side stock views.
type StockHandler struct {
	*BaseHandler
	service *ledger.Service
}

// NewStockHandler creates a stock view handler.
func NewStockHandler(base *BaseHandler, service *ledger.Service) *StockHandler {
	return &StockHandler{BaseHandler: base, service: service}
}

// ListLevels handles GET /stock/levels.
func (h *StockHandler) ListLevels(c *gin.Context) {
	var query dto.LevelQuery
	if !h.BindQuery(c, &query) {
		return
	}

	filter := ledger.LevelFilter{ExcludeZero: query.ExcludeZero}
	if query.WarehouseID != "" {
		warehouseID, ok := h.ParseID(c, "warehouseId", query.WarehouseID)
		if !ok {
			return
		}
		filter.WarehouseID = &warehouseID
	}
	if query.ProductID != "" {
		productID, ok := h.ParseID(c, "productId", query.ProductID)
		if !ok {
			return
		}
		filter.ProductID = &productID
	}

	levels, err := h.service.ListLevels(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": levels})
}

// AggregateByProduct handles GET /stock/by-product.
func (h *StockHandler) AggregateByProduct(c *gin.Context) {
	totals, err := h.service.AggregateByProduct(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": totals})
}
