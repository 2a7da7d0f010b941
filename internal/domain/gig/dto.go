package gig

import (
	"time"

	"github.com/google/uuid"
)

// CreateGigRequest represents gig creation data
type CreateGigRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=200"`
	Description string `json:"description" validate:"max=5000"`
	City        string `json:"city" validate:"required,max=100"`
}

// ApplyRequest represents an application to a gig
type ApplyRequest struct {
	CoverLetter string `json:"cover_letter" validate:"max=2000"`
}

// RespondRequest represents the owner's decision on an application
type RespondRequest struct {
	Decision string `json:"decision" validate:"required,decision"`
}

// ApplicationResponse represents an application in API responses
type ApplicationResponse struct {
	ID          uuid.UUID         `json:"id"`
	GigID       uuid.UUID         `json:"gig_id"`
	ApplicantID uuid.UUID         `json:"applicant_id"`
	CoverLetter string            `json:"cover_letter,omitempty"`
	Status      ApplicationStatus `json:"status"`
	AppliedAt   time.Time         `json:"applied_at"`
	RespondedAt *time.Time        `json:"responded_at,omitempty"`
}

// ApplicationResponseFromEntity converts entity to response
func ApplicationResponseFromEntity(app *Application) *ApplicationResponse {
	resp := &ApplicationResponse{
		ID:          app.ID,
		GigID:       app.GigID,
		ApplicantID: app.ApplicantID,
		Status:      app.Status,
		AppliedAt:   app.AppliedAt,
	}
	if app.CoverLetter.Valid {
		resp.CoverLetter = app.CoverLetter.String
	}
	if app.RespondedAt.Valid {
		t := app.RespondedAt.Time
		resp.RespondedAt = &t
	}
	return resp
}

// ApplicationListFromEntities converts a slice of entities
func ApplicationListFromEntities(apps []*Application) []*ApplicationResponse {
	out := make([]*ApplicationResponse, 0, len(apps))
	for _, app := range apps {
		out = append(out, ApplicationResponseFromEntity(app))
	}
	return out
}
