package relationship

import (
	"context"

	"github.com/google/uuid"
)

// Store executes relationship transitions atomically under optimistic
// concurrency. The version check on write is the serialization point for a
// single pair; transitions on unrelated pairs never contend with each other.
type Store struct {
	repo        Repository
	maxAttempts int
}

// NewStore creates a relationship store
func NewStore(repo Repository, maxAttempts int) *Store {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Store{repo: repo, maxAttempts: maxAttempts}
}

// ApplyTransition runs the state machine for actor's action against the
// current durable state of the (actor, target) pair. On write conflict the
// current state is re-read and the transition re-evaluated, so a concurrent
// like from the other side is observed rather than overwritten: the second
// writer sees {x}_liked and produces the match. Returns ErrConflictExceeded
// when the retry budget runs out.
func (s *Store) ApplyTransition(ctx context.Context, actor, target uuid.UUID, action Action) (*Relationship, []Event, error) {
	userA, userB, err := Pair(actor, target)
	if err != nil {
		return nil, nil, err
	}

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		rel, err := s.repo.GetByPair(ctx, userA, userB)
		if err != nil {
			return nil, nil, err
		}

		fresh := rel == nil
		if fresh {
			rel = New(userA, userB)
		}

		events, changed, err := Transition(rel, actor, action)
		if err != nil {
			return nil, nil, err
		}

		// Idempotent no-op: nothing changed, nothing to write.
		if !changed {
			return rel, nil, nil
		}

		if fresh {
			err = s.repo.Insert(ctx, rel)
			if err == ErrPairExists {
				continue
			}
		} else {
			err = s.repo.UpdateVersioned(ctx, rel, rel.Version)
			if err == ErrVersionConflict {
				continue
			}
		}
		if err != nil {
			return nil, nil, err
		}

		return rel, events, nil
	}

	return nil, nil, ErrConflictExceeded
}

// Get returns the relationship for the pair, or a zero-value none
// relationship when no row exists yet.
func (s *Store) Get(ctx context.Context, actor, target uuid.UUID) (*Relationship, error) {
	userA, userB, err := Pair(actor, target)
	if err != nil {
		return nil, err
	}
	rel, err := s.repo.GetByPair(ctx, userA, userB)
	if err != nil {
		return nil, err
	}
	if rel == nil {
		rel = New(userA, userB)
	}
	return rel, nil
}
