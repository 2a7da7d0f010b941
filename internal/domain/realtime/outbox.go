package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// appendMaxAttempts bounds the retry loop on the per-recipient sequence
// race. Contention is per recipient, so a handful of attempts is plenty.
const appendMaxAttempts = 5

// ErrAppendContention is returned when concurrent appenders for the
// same recipient exhaust the retry budget.
var ErrAppendContention = errors.New("outbox append contention exceeded")

// OutboxEvent is one durable undelivered event for a recipient
type OutboxEvent struct {
	RecipientID uuid.UUID       `db:"recipient_id"`
	Seq         int64           `db:"seq"`
	EventType   string          `db:"event_type"`
	Payload     json.RawMessage `db:"payload"`
	CreatedAt   time.Time       `db:"created_at"`
}

// Outbox stores events durably until the recipient acknowledges them.
// Sequence numbers are monotonic per recipient; the (recipient_id, seq)
// primary key is what serializes concurrent appenders.
type Outbox interface {
	// Append assigns the next sequence number and stores the event,
	// returning the assigned sequence.
	Append(ctx context.Context, recipientID uuid.UUID, eventType string, payload json.RawMessage) (int64, error)
	// ListAfter returns up to limit events with seq > afterSeq in
	// ascending sequence order.
	ListAfter(ctx context.Context, recipientID uuid.UUID, afterSeq int64, limit int) ([]*OutboxEvent, error)
	// PruneThrough deletes events with seq <= through.
	PruneThrough(ctx context.Context, recipientID uuid.UUID, through int64) error
}

type outboxRepository struct {
	db *sqlx.DB
}

// NewOutbox creates a sqlx-backed outbox
func NewOutbox(db *sqlx.DB) Outbox {
	return &outboxRepository{db: db}
}

func (r *outboxRepository) Append(ctx context.Context, recipientID uuid.UUID, eventType string, payload json.RawMessage) (int64, error) {
	// max(seq)+1 inside the INSERT keeps the sequence gap-free; two
	// appenders racing for the same number collide on the primary key
	// and the loser retries with a fresh read.
	query := `
		INSERT INTO outbox_events (recipient_id, seq, event_type, payload)
		SELECT $1, COALESCE(MAX(seq), 0) + 1, $2, $3
		FROM outbox_events WHERE recipient_id = $1
		RETURNING seq
	`

	for attempt := 0; attempt < appendMaxAttempts; attempt++ {
		var seq int64
		err := r.db.QueryRowContext(ctx, query, recipientID, eventType, payload).Scan(&seq)
		if err == nil {
			return seq, nil
		}

		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			continue
		}
		return 0, fmt.Errorf("outbox append: %w", err)
	}

	return 0, ErrAppendContention
}

func (r *outboxRepository) ListAfter(ctx context.Context, recipientID uuid.UUID, afterSeq int64, limit int) ([]*OutboxEvent, error) {
	query := `
		SELECT * FROM outbox_events
		WHERE recipient_id = $1 AND seq > $2
		ORDER BY seq ASC
		LIMIT $3
	`

	var events []*OutboxEvent
	if err := r.db.SelectContext(ctx, &events, query, recipientID, afterSeq, limit); err != nil {
		return nil, err
	}

	return events, nil
}

func (r *outboxRepository) PruneThrough(ctx context.Context, recipientID uuid.UUID, through int64) error {
	query := `DELETE FROM outbox_events WHERE recipient_id = $1 AND seq <= $2`
	_, err := r.db.ExecContext(ctx, query, recipientID, through)
	return err
}
