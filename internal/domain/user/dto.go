package user

import (
	"time"

	"github.com/google/uuid"
)

// UpdateVisibilityRequest represents a visibility mode change
type UpdateVisibilityRequest struct {
	Visibility string `json:"visibility" validate:"required,visibility"`
}

// ProfileResponse represents the authenticated user's profile
type ProfileResponse struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name"`
	Visibility  Visibility `json:"visibility"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ProfileResponseFromEntity converts entity to response
func ProfileResponseFromEntity(u *User) *ProfileResponse {
	return &ProfileResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Visibility:  u.Visibility,
		CreatedAt:   u.CreatedAt,
	}
}
