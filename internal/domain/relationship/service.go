package relationship

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// EventSink delivers domain events to recipients. Implemented by the
// realtime dispatcher; delivery failures are recovered there (outbox), so
// Dispatch errors never fail the mutating action.
type EventSink interface {
	Dispatch(ctx context.Context, recipient uuid.UUID, eventType string, payload map[string]interface{}) error
}

// Service handles relationship business logic
type Service struct {
	store *Store
	sink  EventSink
}

// NewService creates relationship service
func NewService(store *Store) *Service {
	return &Service{store: store}
}

// SetEventSink sets the realtime event sink (optional, to avoid circular dependency)
func (s *Service) SetEventSink(sink EventSink) {
	s.sink = sink
}

// Like expresses interest from actor toward target
func (s *Service) Like(ctx context.Context, actor, target uuid.UUID) (*Relationship, error) {
	return s.apply(ctx, actor, target, ActionLike)
}

// UnlikeOrBreak withdraws interest: unlike before a match, break after one
func (s *Service) UnlikeOrBreak(ctx context.Context, actor, target uuid.UUID) (*Relationship, error) {
	return s.apply(ctx, actor, target, ActionUnlikeOrBreak)
}

// Block terminally blocks the pair
func (s *Service) Block(ctx context.Context, actor, target uuid.UUID) (*Relationship, error) {
	return s.apply(ctx, actor, target, ActionBlock)
}

// Status returns the relationship state as seen by actor
func (s *Service) Status(ctx context.Context, actor, target uuid.UUID) (*Relationship, error) {
	return s.store.Get(ctx, actor, target)
}

func (s *Service) apply(ctx context.Context, actor, target uuid.UUID, action Action) (*Relationship, error) {
	rel, events, err := s.store.ApplyTransition(ctx, actor, target, action)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, events)
	return rel, nil
}

func (s *Service) emit(ctx context.Context, events []Event) {
	if s.sink == nil {
		return
	}
	for _, event := range events {
		if err := s.sink.Dispatch(ctx, event.Recipient, event.Type, event.Payload); err != nil {
			log.Error().Err(err).
				Str("event_type", event.Type).
				Str("recipient", event.Recipient.String()).
				Msg("Failed to dispatch relationship event")
		}
	}
}
