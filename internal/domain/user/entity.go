package user

import (
	"time"

	"github.com/google/uuid"
)

// Visibility controls whether a user is discoverable on the radar
type Visibility string

const (
	// VisibilityExplore makes the user discoverable by nearby users
	VisibilityExplore Visibility = "explore"
	// VisibilityVanish hides the user from radar queries entirely
	VisibilityVanish Visibility = "vanish"
)

// User represents a registered user
type User struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	DisplayName  string     `db:"display_name" json:"display_name"`
	Visibility   Visibility `db:"visibility" json:"visibility"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// IsExplorable returns true if the user can appear in radar results
func (u *User) IsExplorable() bool {
	return u.Visibility == VisibilityExplore
}
