package relationship

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Status represents relationship status (matches relationship_status enum)
type Status string

const (
	StatusNone    Status = "none"
	StatusALiked  Status = "a_liked"
	StatusBLiked  Status = "b_liked"
	StatusMatched Status = "matched"
	StatusBroken  Status = "broken"
	StatusBlocked Status = "blocked"
)

// Relationship represents the durable state of an unordered user pair.
// UserA and UserB are stored in canonical order (UserA < UserB) so that
// exactly one row exists per pair.
type Relationship struct {
	ID        uuid.UUID      `db:"id"`
	UserA     uuid.UUID      `db:"user_a"`
	UserB     uuid.UUID      `db:"user_b"`
	Status    Status         `db:"status"`
	LikedBy   pq.StringArray `db:"liked_by"`
	BrokenBy  uuid.NullUUID  `db:"broken_by"`
	BlockedBy uuid.NullUUID  `db:"blocked_by"`
	Version   int64          `db:"version"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

// Pair returns the canonical ordering of two user identifiers.
// Returns ErrSelfRelationship when both identifiers are equal.
func Pair(x, y uuid.UUID) (uuid.UUID, uuid.UUID, error) {
	switch strings.Compare(x.String(), y.String()) {
	case 0:
		return uuid.Nil, uuid.Nil, ErrSelfRelationship
	case -1:
		return x, y, nil
	default:
		return y, x, nil
	}
}

// New returns a fresh relationship for a canonical pair in state none.
func New(userA, userB uuid.UUID) *Relationship {
	return &Relationship{
		ID:      uuid.New(),
		UserA:   userA,
		UserB:   userB,
		Status:  StatusNone,
		LikedBy: pq.StringArray{},
	}
}

// HasParticipant checks if user belongs to this pair
func (r *Relationship) HasParticipant(userID uuid.UUID) bool {
	return r.UserA == userID || r.UserB == userID
}

// Other returns the counterpart of userID within the pair
func (r *Relationship) Other(userID uuid.UUID) uuid.UUID {
	if r.UserA == userID {
		return r.UserB
	}
	return r.UserA
}

// HasLiked reports whether userID has expressed interest
func (r *Relationship) HasLiked(userID uuid.UUID) bool {
	for _, id := range r.LikedBy {
		if id == userID.String() {
			return true
		}
	}
	return false
}

// IsMatched returns true when both sides have liked
func (r *Relationship) IsMatched() bool {
	return r.Status == StatusMatched
}

// IsBlocked returns true when the relationship is terminally blocked
func (r *Relationship) IsBlocked() bool {
	return r.Status == StatusBlocked
}

// likedStatusFor returns the one-sided liked status for userID
func (r *Relationship) likedStatusFor(userID uuid.UUID) Status {
	if r.UserA == userID {
		return StatusALiked
	}
	return StatusBLiked
}
