package gig

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// EventApplicationResponded notifies the applicant of a decision
const EventApplicationResponded = "application_responded"

// EventSink delivers domain events to recipients. Implemented by the
// realtime dispatcher; Dispatch errors never fail the mutating action.
type EventSink interface {
	Dispatch(ctx context.Context, recipient uuid.UUID, eventType string, payload map[string]interface{}) error
}

// Service handles gig business logic
type Service struct {
	repo Repository
	sink EventSink
}

// NewService creates gig service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// SetEventSink sets the realtime event sink (optional, to avoid circular dependency)
func (s *Service) SetEventSink(sink EventSink) {
	s.sink = sink
}

// Create posts a new gig
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, req *CreateGigRequest) (*Gig, error) {
	g := &Gig{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       req.Title,
		Description: req.Description,
		City:        req.City,
		Status:      StatusActive,
	}

	if err := s.repo.CreateGig(ctx, g); err != nil {
		return nil, err
	}

	return g, nil
}

// GetByID returns gig by ID
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Gig, error) {
	g, err := s.repo.GetGigByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrGigNotFound
	}
	return g, nil
}

// Close closes a gig to further applications (owner only)
func (s *Service) Close(ctx context.Context, ownerID, gigID uuid.UUID) (*Gig, error) {
	g, err := s.GetByID(ctx, gigID)
	if err != nil {
		return nil, err
	}
	if g.OwnerID != ownerID {
		return nil, ErrNotAuthorized
	}
	if err := s.repo.CloseGig(ctx, gigID); err != nil {
		return nil, err
	}
	g.Status = StatusClosed
	return g, nil
}

// Apply creates a pending application to a gig. At most one application
// exists per (gig, applicant) pair; a second call fails with
// ErrDuplicateApplication regardless of the first one's status.
func (s *Service) Apply(ctx context.Context, applicantID, gigID uuid.UUID, req *ApplyRequest) (*Application, error) {
	g, err := s.GetByID(ctx, gigID)
	if err != nil {
		return nil, err
	}
	if g.OwnerID == applicantID {
		return nil, ErrOwnApplication
	}
	if !g.IsActive() {
		return nil, ErrGigClosed
	}

	app := &Application{
		ID:          uuid.New(),
		GigID:       gigID,
		ApplicantID: applicantID,
		Status:      ApplicationPending,
	}
	if req.CoverLetter != "" {
		app.CoverLetter = sql.NullString{String: req.CoverLetter, Valid: true}
	}

	if err := s.repo.CreateApplication(ctx, app); err != nil {
		return nil, err
	}

	return app, nil
}

// Respond accepts or rejects a pending application (gig owner only).
// The decision is final: responded_at is set once and later calls fail
// with ErrAlreadyResponded.
func (s *Service) Respond(ctx context.Context, responderID, gigID, applicationID uuid.UUID, decision ApplicationStatus) (*Application, error) {
	g, err := s.GetByID(ctx, gigID)
	if err != nil {
		return nil, err
	}
	if g.OwnerID != responderID {
		return nil, ErrNotAuthorized
	}

	app, err := s.repo.GetApplicationByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app == nil || app.GigID != gigID {
		return nil, ErrApplicationNotFound
	}
	if !app.IsPending() {
		return nil, ErrAlreadyResponded
	}

	// The status guard in the repository makes the write race-safe: if a
	// concurrent respond landed first, this one fails instead of
	// overwriting the decision.
	updated, err := s.repo.RespondApplication(ctx, applicationID, decision)
	if err != nil {
		return nil, err
	}

	s.notifyApplicant(ctx, g, updated)

	return updated, nil
}

// ListByGig returns a gig's applications (owner only)
func (s *Service) ListByGig(ctx context.Context, requesterID, gigID uuid.UUID) ([]*Application, error) {
	g, err := s.GetByID(ctx, gigID)
	if err != nil {
		return nil, err
	}
	if g.OwnerID != requesterID {
		return nil, ErrNotAuthorized
	}
	return s.repo.ListApplicationsByGig(ctx, gigID)
}

// ListMyApplications returns the caller's applications across gigs
func (s *Service) ListMyApplications(ctx context.Context, applicantID uuid.UUID) ([]*Application, error) {
	return s.repo.ListApplicationsByApplicant(ctx, applicantID)
}

func (s *Service) notifyApplicant(ctx context.Context, g *Gig, app *Application) {
	if s.sink == nil {
		return
	}

	payload := map[string]interface{}{
		"gig_id":         g.ID.String(),
		"gig_title":      g.Title,
		"application_id": app.ID.String(),
		"decision":       string(app.Status),
	}
	if err := s.sink.Dispatch(ctx, app.ApplicantID, EventApplicationResponded, payload); err != nil {
		log.Error().Err(err).
			Str("application_id", app.ID.String()).
			Str("applicant_id", app.ApplicantID.String()).
			Msg("Failed to dispatch application decision event")
	}
}
