// Package audit provides the company-wide activity trail.
// Entries are observational: business logic writes them after a
// successful mutation and never reads them back.
package audit

import (
	"context"
	"time"

	"trackit/internal/core/appctx"
	"trackit/internal/core/id"
)

// Action identifies the kind of audited operation.
type Action string

const (
	ActionStockEntry     Action = "stock_entry"
	ActionStockExit      Action = "stock_exit"
	ActionStockTransfer  Action = "stock_transfer"
	ActionMovementDelete Action = "movement_delete"
	ActionCatalogCreate  Action = "catalog_create"
	ActionCatalogUpdate  Action = "catalog_update"
	ActionCatalogDelete  Action = "catalog_delete"
)

// Entry is one human-readable action record.
type Entry struct {
	ID          id.ID          `db:"id" json:"id"`
	TenantID    id.ID          `db:"tenant_id" json:"-"`
	ActorID     id.ID          `db:"actor_id" json:"actorId"`
	ActorName   string         `db:"actor_name" json:"actorName"`
	Action      Action         `db:"action" json:"action"`
	Description string         `db:"description" json:"description"`
	RelatedID   id.ID          `db:"related_id" json:"relatedId"`
	Details     map[string]any `db:"-" json:"details,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
}

// NewEntry builds an entry with actor identity taken from the context.
func NewEntry(ctx context.Context, action Action, description string, relatedID id.ID) Entry {
	e := Entry{
		ID:          id.New(),
		TenantID:    appctx.GetTenantID(ctx),
		Action:      action,
		Description: description,
		RelatedID:   relatedID,
		CreatedAt:   time.Now().UTC(),
	}
	if user := appctx.GetUser(ctx); user != nil {
		e.ActorID = user.UserID
		e.ActorName = user.DisplayName
	}
	return e
}

// WithDetail attaches a structured detail to the entry.
func (e Entry) WithDetail(key string, value any) Entry {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// Filter narrows trail queries (admin surface).
type Filter struct {
	Action   *Action
	ActorID  *id.ID
	FromDate *time.Time
	ToDate   *time.Time
	Limit    int
	Offset   int
}

// Trail records and queries audit entries.
//
// Append is fire-and-forget from the caller's point of view: a failed
// append must never roll back the mutation that triggered it. Callers
// log the error and move on.
type Trail interface {
	Append(ctx context.Context, entry Entry) error
	List(ctx context.Context, filter Filter) ([]Entry, error)
}
