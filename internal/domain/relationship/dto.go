package relationship

import (
	"time"

	"github.com/google/uuid"
)

// StatusResponse represents the relationship as seen by one party
type StatusResponse struct {
	Status      Status    `json:"status"`
	LikedByMe   bool      `json:"liked_by_me"`
	LikedByThem bool      `json:"liked_by_them"`
	BrokenByMe  bool      `json:"broken_by_me,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StatusResponseFromEntity converts entity to response from viewer's perspective
func StatusResponseFromEntity(rel *Relationship, viewer uuid.UUID) *StatusResponse {
	return &StatusResponse{
		Status:      rel.Status,
		LikedByMe:   rel.HasLiked(viewer),
		LikedByThem: rel.HasLiked(rel.Other(viewer)),
		BrokenByMe:  rel.BrokenBy.Valid && rel.BrokenBy.UUID == viewer,
		UpdatedAt:   rel.UpdatedAt,
	}
}
