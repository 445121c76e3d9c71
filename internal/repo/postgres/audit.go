package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mosaic-labs/mosaic-go/internal/domain"
)

// AuditAppender writes append-only audit events. It accepts the DB
// interface so deploy can append inside its transaction.
type AuditAppender struct {
	db  DB
	now func() time.Time
}

func NewAuditAppender(db DB, now func() time.Time) *AuditAppender {
	if db == nil {
		return nil
	}
	if now == nil {
		now = time.Now
	}
	return &AuditAppender{db: db, now: now}
}

func (a *AuditAppender) Append(ctx context.Context, event domain.AuditEvent) (int64, error) {
	if a == nil || a.db == nil {
		return 0, fmt.Errorf("audit appender not initialized")
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = a.now().UTC()
	}
	if err := event.Validate(); err != nil {
		return 0, err
	}
	payload := event.Payload
	if payload == nil {
		payload = domain.Variables{}
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal payload: %w", err)
	}

	var requestID sql.NullString
	if v := strings.TrimSpace(event.RequestID); v != "" {
		requestID = sql.NullString{String: v, Valid: true}
	}

	var eventID int64
	err = a.db.QueryRowContext(
		ctx,
		`INSERT INTO audit_events (
			occurred_at,
			actor,
			action,
			resource_type,
			resource_id,
			request_id,
			payload
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING event_id`,
		event.OccurredAt.UTC(),
		strings.TrimSpace(event.Actor),
		strings.TrimSpace(event.Action),
		strings.TrimSpace(event.ResourceType),
		strings.TrimSpace(event.ResourceID),
		requestID,
		payloadJSON,
	).Scan(&eventID)
	if err != nil {
		return 0, fmt.Errorf("insert audit event: %w", err)
	}
	return eventID, nil
}
