package realtime

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// MatchLister returns the users a given user is matched with. Satisfied
// by the relationship repository.
type MatchLister interface {
	ListMatchedUserIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// Dispatcher routes domain events to recipients. Every event goes
// through the outbox first, so a recipient with no live connection
// still receives it on the next replay; the live push after the append
// is best effort.
type Dispatcher struct {
	outbox    Outbox
	hub       *Hub
	matches   MatchLister
	maxReplay int
}

// NewDispatcher creates a dispatcher
func NewDispatcher(outbox Outbox, hub *Hub, matches MatchLister, maxReplay int) *Dispatcher {
	return &Dispatcher{
		outbox:    outbox,
		hub:       hub,
		matches:   matches,
		maxReplay: maxReplay,
	}
}

// Dispatch appends the event to the recipient's outbox and pushes it to
// their live connections. Satisfies the EventSink interfaces of the
// emitting domains.
func (d *Dispatcher) Dispatch(ctx context.Context, recipient uuid.UUID, eventType string, payload map[string]interface{}) error {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		raw = data
	}

	seq, err := d.outbox.Append(ctx, recipient, eventType, raw)
	if err != nil {
		return err
	}

	d.push(recipient, &Envelope{Type: eventType, Payload: raw, Sequence: seq})
	return nil
}

// Replay sends the outbox events after afterSeq to the connection, in
// ascending order. Called on connect before the connection is exposed
// to live pushes, and again afterwards to catch anything appended in
// between; the connection's watermark drops whatever was already handed
// over, so overlapping passes never duplicate.
func (d *Dispatcher) Replay(ctx context.Context, conn *Connection, afterSeq int64) error {
	events, err := d.outbox.ListAfter(ctx, conn.UserID, afterSeq, d.maxReplay)
	if err != nil {
		return err
	}

	for _, event := range events {
		data, err := json.Marshal(&Envelope{
			Type:     event.EventType,
			Payload:  event.Payload,
			Sequence: event.Seq,
		})
		if err != nil {
			return err
		}
		switch conn.tryDeliver(data, event.Seq) {
		case deliverQueued, deliverStale:
		case deliverBlocked:
			// Buffer full; the rest stays in the outbox for the
			// next reconnect.
			log.Warn().Str("user_id", conn.UserID.String()).Int64("seq", event.Seq).
				Msg("Replay buffer full")
			return nil
		}
	}

	return nil
}

// Ack prunes the recipient's outbox up to and including seq
func (d *Dispatcher) Ack(ctx context.Context, recipient uuid.UUID, seq int64) error {
	return d.outbox.PruneThrough(ctx, recipient, seq)
}

// HandlePresenceChange notifies all of a user's matches that the user
// came online or went offline. Wired as the hub's presence listener.
func (d *Dispatcher) HandlePresenceChange(userID uuid.UUID, online bool) {
	ctx := context.Background()

	peers, err := d.matches.ListMatchedUserIDs(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to list matches for presence change")
		return
	}

	payload := map[string]interface{}{
		"user_id": userID.String(),
		"online":  online,
	}
	for _, peer := range peers {
		if err := d.Dispatch(ctx, peer, EventPresenceChanged, payload); err != nil {
			log.Error().Err(err).
				Str("recipient", peer.String()).
				Msg("Failed to dispatch presence change")
		}
	}
}

func (d *Dispatcher) push(recipient uuid.UUID, env *Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal event envelope")
		return
	}
	if err := d.hub.SendToUser(recipient, data, env.Sequence); err != nil {
		// The event is already durable in the outbox.
		log.Warn().Err(err).Str("recipient", recipient.String()).Msg("Live push failed")
	}
}
