package gig

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Status represents gig lifecycle status
type Status string

const (
	StatusActive Status = "active"
	StatusClosed Status = "closed"
)

// ApplicationStatus represents application lifecycle status
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationAccepted ApplicationStatus = "accepted"
	ApplicationRejected ApplicationStatus = "rejected"
)

// Gig represents a posted gig
type Gig struct {
	ID          uuid.UUID `db:"id" json:"id"`
	OwnerID     uuid.UUID `db:"owner_id" json:"owner_id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	City        string    `db:"city" json:"city"`
	Status      Status    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// IsActive returns true if the gig accepts applications
func (g *Gig) IsActive() bool {
	return g.Status == StatusActive
}

// Application represents one user's application to a gig.
// At most one exists per (gig_id, applicant_id) pair and it is never
// deleted; responded applications stay as an audit trail.
type Application struct {
	ID          uuid.UUID         `db:"id" json:"id"`
	GigID       uuid.UUID         `db:"gig_id" json:"gig_id"`
	ApplicantID uuid.UUID         `db:"applicant_id" json:"applicant_id"`
	CoverLetter sql.NullString    `db:"cover_letter" json:"-"`
	Status      ApplicationStatus `db:"status" json:"status"`
	AppliedAt   time.Time         `db:"applied_at" json:"applied_at"`
	RespondedAt sql.NullTime      `db:"responded_at" json:"-"`
}

// IsPending returns true if the application has not been responded to
func (a *Application) IsPending() bool {
	return a.Status == ApplicationPending
}
