package relationship

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Action represents a user-initiated relationship action
type Action string

const (
	ActionLike Action = "like"
	// ActionUnlikeOrBreak withdraws interest: unlike before a match,
	// request a break after one. A single verb keyed off current state.
	ActionUnlikeOrBreak Action = "unlike_or_break"
	ActionBlock         Action = "block"
)

// Event types emitted by transitions
const (
	EventLikeSent         = "like_sent"
	EventMatchCreated     = "match_created"
	EventConnectionBroken = "connection_broken"
	EventBlocked          = "blocked"
)

// Event is a domain event addressed to a single recipient
type Event struct {
	Recipient uuid.UUID
	Type      string
	Payload   map[string]interface{}
}

// Transition applies an action by actor to the relationship in place and
// returns the events to emit plus whether rel was mutated. It is pure apart
// from mutating rel: no I/O, no clock, fully deterministic — persistence and
// delivery happen elsewhere. An idempotent repeat returns changed=false and
// leaves rel untouched.
func Transition(rel *Relationship, actor uuid.UUID, action Action) ([]Event, bool, error) {
	if !rel.HasParticipant(actor) {
		return nil, false, ErrInvalidTransition
	}
	other := rel.Other(actor)

	// Blocked is absorbing: nothing moves the pair out of it.
	if rel.Status == StatusBlocked {
		return nil, false, ErrInvalidTransition
	}

	switch action {
	case ActionBlock:
		rel.Status = StatusBlocked
		rel.BlockedBy = uuid.NullUUID{UUID: actor, Valid: true}
		rel.LikedBy = pq.StringArray{}
		rel.BrokenBy = uuid.NullUUID{}
		// Minimal payload on purpose: the blocked party learns nothing
		// beyond the fact that the pair is no longer reachable.
		return []Event{{Recipient: other, Type: EventBlocked, Payload: map[string]interface{}{}}}, true, nil

	case ActionLike:
		return transitionLike(rel, actor, other)

	case ActionUnlikeOrBreak:
		return transitionUnlikeOrBreak(rel, actor, other)

	default:
		return nil, false, ErrInvalidTransition
	}
}

func transitionLike(rel *Relationship, actor, other uuid.UUID) ([]Event, bool, error) {
	// Repeated like with no counterpart action is idempotent.
	if rel.HasLiked(actor) {
		return nil, false, nil
	}

	if rel.HasLiked(other) {
		// Mutual consent reached: the second like closes the match.
		rel.Status = StatusMatched
		rel.LikedBy = append(rel.LikedBy, actor.String())
		payload := map[string]interface{}{"relationship_id": rel.ID.String()}
		return []Event{
			{Recipient: other, Type: EventMatchCreated, Payload: payload},
			{Recipient: actor, Type: EventMatchCreated, Payload: payload},
		}, true, nil
	}

	// First interest from this side; a like after a break starts a fresh cycle.
	rel.Status = rel.likedStatusFor(actor)
	rel.LikedBy = pq.StringArray{actor.String()}
	rel.BrokenBy = uuid.NullUUID{}
	return []Event{
		{Recipient: other, Type: EventLikeSent, Payload: map[string]interface{}{"from": actor.String()}},
	}, true, nil
}

func transitionUnlikeOrBreak(rel *Relationship, actor, other uuid.UUID) ([]Event, bool, error) {
	switch rel.Status {
	case StatusMatched:
		rel.Status = StatusBroken
		rel.LikedBy = pq.StringArray{}
		rel.BrokenBy = uuid.NullUUID{UUID: actor, Valid: true}
		return []Event{
			{Recipient: other, Type: EventConnectionBroken, Payload: map[string]interface{}{"from": actor.String()}},
		}, true, nil

	case StatusALiked, StatusBLiked:
		// Withdrawing interest before a match resets the pair silently.
		if !rel.HasLiked(actor) {
			return nil, false, ErrInvalidTransition
		}
		rel.Status = StatusNone
		rel.LikedBy = pq.StringArray{}
		return nil, true, nil

	default:
		return nil, false, ErrInvalidTransition
	}
}
