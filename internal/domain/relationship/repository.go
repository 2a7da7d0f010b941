package relationship

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Repository defines relationship data access interface
type Repository interface {
	// GetByPair returns the relationship for a canonical pair, or nil if none exists.
	GetByPair(ctx context.Context, userA, userB uuid.UUID) (*Relationship, error)
	// Insert creates a new relationship row at version 1.
	// Returns ErrPairExists if another writer created the pair first.
	Insert(ctx context.Context, rel *Relationship) error
	// UpdateVersioned writes rel only if the stored version still equals
	// expectedVersion, bumping it by one. Returns ErrVersionConflict otherwise.
	UpdateVersioned(ctx context.Context, rel *Relationship, expectedVersion int64) error
	// ListMatchedUserIDs returns the counterparts of all matched relationships for userID.
	ListMatchedUserIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates new relationship repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByPair(ctx context.Context, userA, userB uuid.UUID) (*Relationship, error) {
	query := `SELECT * FROM relationships WHERE user_a = $1 AND user_b = $2`
	var rel Relationship
	err := r.db.GetContext(ctx, &rel, query, userA, userB)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rel, nil
}

func (r *repository) Insert(ctx context.Context, rel *Relationship) error {
	query := `
		INSERT INTO relationships (id, user_a, user_b, status, liked_by, broken_by, blocked_by, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 1, $8, $8)
	`
	now := time.Now()
	_, err := r.db.ExecContext(ctx, query,
		rel.ID, rel.UserA, rel.UserB, rel.Status, rel.LikedBy, rel.BrokenBy, rel.BlockedBy, now)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrPairExists
		}
		return err
	}
	rel.Version = 1
	rel.CreatedAt = now
	rel.UpdatedAt = now
	return nil
}

func (r *repository) UpdateVersioned(ctx context.Context, rel *Relationship, expectedVersion int64) error {
	query := `
		UPDATE relationships
		SET status = $1, liked_by = $2, broken_by = $3, blocked_by = $4, version = version + 1, updated_at = $5
		WHERE id = $6 AND version = $7
	`
	now := time.Now()
	result, err := r.db.ExecContext(ctx, query,
		rel.Status, rel.LikedBy, rel.BrokenBy, rel.BlockedBy, now, rel.ID, expectedVersion)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrVersionConflict
	}
	rel.Version = expectedVersion + 1
	rel.UpdatedAt = now
	return nil
}

func (r *repository) ListMatchedUserIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT CASE WHEN user_a = $1 THEN user_b ELSE user_a END
		FROM relationships
		WHERE (user_a = $1 OR user_b = $1) AND status = 'matched'
	`
	var ids []uuid.UUID
	err := r.db.SelectContext(ctx, &ids, query, userID)
	return ids, err
}
