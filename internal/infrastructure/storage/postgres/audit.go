package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/klauspost/compress/zstd"

	"trackit/internal/core/appctx"
	"trackit/internal/domain/audit"
)

// compressThreshold is the detail payload size above which zstd kicks in.
const compressThreshold = 4 * 1024

// AuditTrail is the PostgreSQL audit.Trail implementation. Structured
// details are stored as JSON; large payloads are zstd-compressed.
type AuditTrail struct {
	txManager *TxManager
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
}

var _ audit.Trail = (*AuditTrail)(nil)

// NewAuditTrail creates the audit trail store.
func NewAuditTrail(txManager *TxManager) (*AuditTrail, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &AuditTrail{txManager: txManager, encoder: encoder, decoder: decoder}, nil
}

// Append writes one entry. Runs on the pool, never on the caller's
// transaction: the caller appends after commit and a failure here must
// not affect the committed mutation.
func (t *AuditTrail) Append(ctx context.Context, entry audit.Entry) error {
	var details []byte
	var compressed bool
	if len(entry.Details) > 0 {
		raw, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("marshal audit details: %w", err)
		}
		details = raw
		if len(raw) > compressThreshold {
			details = t.encoder.EncodeAll(raw, nil)
			compressed = true
		}
	}

	sql := `
		INSERT INTO audit_entries (
			id, tenant_id, actor_id, actor_name, action, description,
			related_id, details, details_compressed, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := t.txManager.pool.Exec(ctx, sql,
		entry.ID, entry.TenantID, entry.ActorID, entry.ActorName,
		entry.Action, entry.Description, entry.RelatedID,
		details, compressed, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

type auditRow struct {
	audit.Entry
	RawDetails        []byte `db:"details"`
	DetailsCompressed bool   `db:"details_compressed"`
}

// List returns entries matching the filter, newest first.
func (t *AuditTrail) List(ctx context.Context, filter audit.Filter) ([]audit.Entry, error) {
	q := squirrel.StatementBuilder.
		PlaceholderFormat(squirrel.Dollar).
		Select("id", "tenant_id", "actor_id", "actor_name", "action",
			"description", "related_id", "details", "details_compressed", "created_at").
		From("audit_entries").
		Where(squirrel.Eq{"tenant_id": appctx.GetTenantID(ctx)})

	if filter.Action != nil {
		q = q.Where(squirrel.Eq{"action": *filter.Action})
	}
	if filter.ActorID != nil {
		q = q.Where(squirrel.Eq{"actor_id": *filter.ActorID})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *filter.ToDate})
	}

	q = q.OrderBy("created_at DESC")
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	q = q.Limit(uint64(filter.Limit))
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []auditRow
	if err := pgxscan.Select(ctx, t.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}

	entries := make([]audit.Entry, 0, len(rows))
	for _, row := range rows {
		entry := row.Entry
		if len(row.RawDetails) > 0 {
			raw := row.RawDetails
			if row.DetailsCompressed {
				raw, err = t.decoder.DecodeAll(raw, nil)
				if err != nil {
					return nil, fmt.Errorf("decompress audit details: %w", err)
				}
			}
			if err := json.Unmarshal(raw, &entry.Details); err != nil {
				return nil, fmt.Errorf("unmarshal audit details: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Close releases the zstd encoder and decoder.
func (t *AuditTrail) Close() {
	if t.encoder != nil {
		_ = t.encoder.Close()
	}
	if t.decoder != nil {
		t.decoder.Close()
	}
}
