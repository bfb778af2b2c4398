// Package audit keeps an append-only trail of waiver lifecycle events in
// PostgreSQL. Writes are best-effort: an audit failure is logged and never
// fails the request that produced it.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cte-escapes/waiver-backend/internal/models"
)

// Recorder writes waiver events. A Recorder with a nil pool (audit disabled)
// silently drops events; callers never need to nil-check.
type Recorder struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewRecorder creates a recorder. pool may be nil to disable auditing.
func NewRecorder(pool *pgxpool.Pool, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{pool: pool, logger: logger}
}

// Record appends one event. ID and CreatedAt are assigned here.
func (r *Recorder) Record(ctx context.Context, ev *models.WaiverEvent) {
	if r == nil || r.pool == nil {
		return
	}
	ev.ID = uuid.New()
	ev.CreatedAt = time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO waiver_events (id, event_type, booking_number, customer_id, person_id, confirmation_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ev.ID, ev.EventType, ev.BookingNumber, ev.CustomerID, ev.PersonID, ev.ConfirmationCode, ev.CreatedAt,
	)
	if err != nil {
		r.logger.Warn("audit write failed", zap.Error(err), zap.String("event_type", ev.EventType))
	}
}

// Recent returns the latest events for staff review, newest first.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]models.WaiverEvent, error) {
	if r == nil || r.pool == nil {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, event_type, booking_number, customer_id, person_id, confirmation_code, created_at
		FROM waiver_events
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.WaiverEvent
	for rows.Next() {
		var ev models.WaiverEvent
		if err := rows.Scan(&ev.ID, &ev.EventType, &ev.BookingNumber, &ev.CustomerID, &ev.PersonID, &ev.ConfirmationCode, &ev.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
