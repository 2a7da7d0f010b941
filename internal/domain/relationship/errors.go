package relationship

import "errors"

var (
	ErrSelfRelationship  = errors.New("cannot act on a relationship with yourself")
	ErrInvalidTransition = errors.New("action is not valid for the current relationship state")
	ErrConflictExceeded  = errors.New("relationship update retries exhausted, please retry")

	// Repository-level sentinels consumed by the transition retry loop.
	ErrVersionConflict = errors.New("relationship version conflict")
	ErrPairExists      = errors.New("relationship already exists for pair")
)
