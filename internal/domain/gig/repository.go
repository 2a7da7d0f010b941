package gig

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Repository defines gig data access interface
type Repository interface {
	CreateGig(ctx context.Context, g *Gig) error
	GetGigByID(ctx context.Context, id uuid.UUID) (*Gig, error)
	CloseGig(ctx context.Context, id uuid.UUID) error

	CreateApplication(ctx context.Context, app *Application) error
	GetApplicationByID(ctx context.Context, id uuid.UUID) (*Application, error)
	// RespondApplication sets the terminal status and responded_at in one
	// statement guarded on the pending status, so responded_at is written
	// exactly once. Returns ErrAlreadyResponded if the guard fails.
	RespondApplication(ctx context.Context, id uuid.UUID, status ApplicationStatus) (*Application, error)
	ListApplicationsByGig(ctx context.Context, gigID uuid.UUID) ([]*Application, error)
	ListApplicationsByApplicant(ctx context.Context, applicantID uuid.UUID) ([]*Application, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates new gig repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateGig(ctx context.Context, g *Gig) error {
	query := `
		INSERT INTO gigs (id, owner_id, title, description, city, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query,
		g.ID, g.OwnerID, g.Title, g.Description, g.City, g.Status,
	).Scan(&g.CreatedAt, &g.UpdatedAt)
}

func (r *repository) GetGigByID(ctx context.Context, id uuid.UUID) (*Gig, error) {
	query := `SELECT * FROM gigs WHERE id = $1`

	var g Gig
	err := r.db.GetContext(ctx, &g, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &g, nil
}

func (r *repository) CloseGig(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE gigs SET status = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, StatusClosed)
	return err
}

func (r *repository) CreateApplication(ctx context.Context, app *Application) error {
	query := `
		INSERT INTO gig_applications (id, gig_id, applicant_id, cover_letter, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING applied_at
	`
	err := r.db.QueryRowContext(ctx, query,
		app.ID, app.GigID, app.ApplicantID, app.CoverLetter, app.Status,
	).Scan(&app.AppliedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateApplication
		}
		return err
	}
	return nil
}

func (r *repository) GetApplicationByID(ctx context.Context, id uuid.UUID) (*Application, error) {
	query := `SELECT * FROM gig_applications WHERE id = $1`

	var app Application
	err := r.db.GetContext(ctx, &app, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &app, nil
}

func (r *repository) RespondApplication(ctx context.Context, id uuid.UUID, status ApplicationStatus) (*Application, error) {
	query := `
		UPDATE gig_applications
		SET status = $2, responded_at = NOW()
		WHERE id = $1 AND status = $3
		RETURNING id, gig_id, applicant_id, cover_letter, status, applied_at, responded_at
	`

	var app Application
	err := r.db.GetContext(ctx, &app, query, id, status, ApplicationPending)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAlreadyResponded
		}
		return nil, err
	}

	return &app, nil
}

func (r *repository) ListApplicationsByGig(ctx context.Context, gigID uuid.UUID) ([]*Application, error) {
	query := `SELECT * FROM gig_applications WHERE gig_id = $1 ORDER BY applied_at DESC`

	var apps []*Application
	if err := r.db.SelectContext(ctx, &apps, query, gigID); err != nil {
		return nil, err
	}

	return apps, nil
}

func (r *repository) ListApplicationsByApplicant(ctx context.Context, applicantID uuid.UUID) ([]*Application, error) {
	query := `SELECT * FROM gig_applications WHERE applicant_id = $1 ORDER BY applied_at DESC`

	var apps []*Application
	if err := r.db.SelectContext(ctx, &apps, query, applicantID); err != nil {
		return nil, err
	}

	return apps, nil
}
