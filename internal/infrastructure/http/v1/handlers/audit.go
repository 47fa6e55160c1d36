package handlers

import (
	"github.com/gin-gonic/gin"

	"trackit/internal/domain/audit"
	"trackit/internal/infrastructure/http/v1/dto"
)

// AuditHandler serves the audit trail (admin surface).
type AuditHandler struct {
	*BaseHandler
	trail audit.Trail
}

// NewAuditHandler creates an audit handler.
func NewAuditHandler(base *BaseHandler, trail audit.Trail) *AuditHandler {
	return &AuditHandler{BaseHandler: base, trail: trail}
}

// List handles GET /audit.
func (h *AuditHandler) List(c *gin.Context) {
	var query dto.AuditQuery
	if !h.BindQuery(c, &query) {
		return
	}

	filter := audit.Filter{
		Limit:  query.Limit,
		Offset: query.Offset,
	}
	if query.Action != "" {
		action := audit.Action(query.Action)
		filter.Action = &action
	}
	if query.ActorID != "" {
		actorID, ok := h.ParseID(c, "actorId", query.ActorID)
		if !ok {
			return
		}
		filter.ActorID = &actorID
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

	entries, err := h.trail.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": entries})
}
