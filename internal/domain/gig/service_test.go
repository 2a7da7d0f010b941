package gig

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeRepo struct {
	gigs map[uuid.UUID]*Gig
	apps map[uuid.UUID]*Application
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		gigs: make(map[uuid.UUID]*Gig),
		apps: make(map[uuid.UUID]*Application),
	}
}

func (r *fakeRepo) CreateGig(_ context.Context, g *Gig) error {
	g.CreatedAt = time.Now()
	g.UpdatedAt = g.CreatedAt
	clone := *g
	r.gigs[g.ID] = &clone
	return nil
}

func (r *fakeRepo) GetGigByID(_ context.Context, id uuid.UUID) (*Gig, error) {
	g, ok := r.gigs[id]
	if !ok {
		return nil, nil
	}
	clone := *g
	return &clone, nil
}

func (r *fakeRepo) CloseGig(_ context.Context, id uuid.UUID) error {
	if g, ok := r.gigs[id]; ok {
		g.Status = StatusClosed
	}
	return nil
}

func (r *fakeRepo) CreateApplication(_ context.Context, app *Application) error {
	for _, existing := range r.apps {
		if existing.GigID == app.GigID && existing.ApplicantID == app.ApplicantID {
			return ErrDuplicateApplication
		}
	}
	app.AppliedAt = time.Now()
	clone := *app
	r.apps[app.ID] = &clone
	return nil
}

func (r *fakeRepo) GetApplicationByID(_ context.Context, id uuid.UUID) (*Application, error) {
	app, ok := r.apps[id]
	if !ok {
		return nil, nil
	}
	clone := *app
	return &clone, nil
}

func (r *fakeRepo) RespondApplication(_ context.Context, id uuid.UUID, status ApplicationStatus) (*Application, error) {
	app, ok := r.apps[id]
	if !ok || app.Status != ApplicationPending {
		return nil, ErrAlreadyResponded
	}
	app.Status = status
	app.RespondedAt.Time = time.Now()
	app.RespondedAt.Valid = true
	clone := *app
	return &clone, nil
}

func (r *fakeRepo) ListApplicationsByGig(_ context.Context, gigID uuid.UUID) ([]*Application, error) {
	var out []*Application
	for _, app := range r.apps {
		if app.GigID == gigID {
			clone := *app
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListApplicationsByApplicant(_ context.Context, applicantID uuid.UUID) ([]*Application, error) {
	var out []*Application
	for _, app := range r.apps {
		if app.ApplicantID == applicantID {
			clone := *app
			out = append(out, &clone)
		}
	}
	return out, nil
}

type sinkEvent struct {
	recipient uuid.UUID
	eventType string
	payload   map[string]interface{}
}

type fakeSink struct {
	events []sinkEvent
}

func (s *fakeSink) Dispatch(_ context.Context, recipient uuid.UUID, eventType string, payload map[string]interface{}) error {
	s.events = append(s.events, sinkEvent{recipient: recipient, eventType: eventType, payload: payload})
	return nil
}

func seedGig(t *testing.T, svc *Service, ownerID uuid.UUID) *Gig {
	t.Helper()
	g, err := svc.Create(context.Background(), ownerID, &CreateGigRequest{
		Title: "Evening shoot assistant",
		City:  "Almaty",
	})
	if err != nil {
		t.Fatalf("create gig: %v", err)
	}
	return g
}

func TestApplyCreatesPendingApplication(t *testing.T) {
	svc := NewService(newFakeRepo())
	owner := uuid.New()
	applicant := uuid.New()
	g := seedGig(t, svc, owner)

	app, err := svc.Apply(context.Background(), applicant, g.ID, &ApplyRequest{CoverLetter: "I'm available"})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if app.Status != ApplicationPending {
		t.Fatalf("expected pending, got %s", app.Status)
	}
	if app.RespondedAt.Valid {
		t.Fatal("responded_at must not be set on a fresh application")
	}
}

func TestApplyTwiceFailsWithDuplicate(t *testing.T) {
	svc := NewService(newFakeRepo())
	owner := uuid.New()
	applicant := uuid.New()
	g := seedGig(t, svc, owner)

	if _, err := svc.Apply(context.Background(), applicant, g.ID, &ApplyRequest{}); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if _, err := svc.Apply(context.Background(), applicant, g.ID, &ApplyRequest{}); err != ErrDuplicateApplication {
		t.Fatalf("expected ErrDuplicateApplication, got %v", err)
	}
}

func TestApplyToOwnGigRejected(t *testing.T) {
	svc := NewService(newFakeRepo())
	owner := uuid.New()
	g := seedGig(t, svc, owner)

	if _, err := svc.Apply(context.Background(), owner, g.ID, &ApplyRequest{}); err != ErrOwnApplication {
		t.Fatalf("expected ErrOwnApplication, got %v", err)
	}
}

func TestApplyToClosedGigRejected(t *testing.T) {
	svc := NewService(newFakeRepo())
	owner := uuid.New()
	g := seedGig(t, svc, owner)

	if _, err := svc.Close(context.Background(), owner, g.ID); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := svc.Apply(context.Background(), uuid.New(), g.ID, &ApplyRequest{}); err != ErrGigClosed {
		t.Fatalf("expected ErrGigClosed, got %v", err)
	}
}

func TestRespondRequiresOwner(t *testing.T) {
	svc := NewService(newFakeRepo())
	owner := uuid.New()
	applicant := uuid.New()
	g := seedGig(t, svc, owner)

	app, err := svc.Apply(context.Background(), applicant, g.ID, &ApplyRequest{})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	if _, err := svc.Respond(context.Background(), applicant, g.ID, app.ID, ApplicationAccepted); err != ErrNotAuthorized {
		t.Fatalf("expected ErrNotAuthorized for non-owner, got %v", err)
	}
}

func TestRespondSetsDecisionOnce(t *testing.T) {
	sink := &fakeSink{}
	svc := NewService(newFakeRepo())
	svc.SetEventSink(sink)
	owner := uuid.New()
	applicant := uuid.New()
	g := seedGig(t, svc, owner)

	app, err := svc.Apply(context.Background(), applicant, g.ID, &ApplyRequest{})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	accepted, err := svc.Respond(context.Background(), owner, g.ID, app.ID, ApplicationAccepted)
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if accepted.Status != ApplicationAccepted {
		t.Fatalf("expected accepted, got %s", accepted.Status)
	}
	if !accepted.RespondedAt.Valid {
		t.Fatal("expected responded_at to be set")
	}
	respondedAt := accepted.RespondedAt.Time

	// The decision is terminal; a second respond must not move the record.
	if _, err := svc.Respond(context.Background(), owner, g.ID, app.ID, ApplicationRejected); err != ErrAlreadyResponded {
		t.Fatalf("expected ErrAlreadyResponded, got %v", err)
	}

	stored, err := svc.repo.GetApplicationByID(context.Background(), app.ID)
	if err != nil {
		t.Fatalf("get application: %v", err)
	}
	if stored.Status != ApplicationAccepted {
		t.Fatalf("decision overwritten to %s", stored.Status)
	}
	if !stored.RespondedAt.Time.Equal(respondedAt) {
		t.Fatal("responded_at must be written exactly once")
	}

	if len(sink.events) != 1 {
		t.Fatalf("expected one dispatched event, got %d", len(sink.events))
	}
	ev := sink.events[0]
	if ev.recipient != applicant || ev.eventType != EventApplicationResponded {
		t.Fatalf("expected application_responded to applicant, got %+v", ev)
	}
	if ev.payload["decision"] != "accepted" {
		t.Fatalf("expected decision in payload, got %v", ev.payload)
	}
}

func TestRespondUnknownApplication(t *testing.T) {
	svc := NewService(newFakeRepo())
	owner := uuid.New()
	g := seedGig(t, svc, owner)

	if _, err := svc.Respond(context.Background(), owner, g.ID, uuid.New(), ApplicationAccepted); err != ErrApplicationNotFound {
		t.Fatalf("expected ErrApplicationNotFound, got %v", err)
	}
}

func TestRespondApplicationFromOtherGig(t *testing.T) {
	svc := NewService(newFakeRepo())
	owner := uuid.New()
	g1 := seedGig(t, svc, owner)
	g2 := seedGig(t, svc, owner)

	app, err := svc.Apply(context.Background(), uuid.New(), g1.ID, &ApplyRequest{})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	// Responding through the wrong gig must not find the application.
	if _, err := svc.Respond(context.Background(), owner, g2.ID, app.ID, ApplicationAccepted); err != ErrApplicationNotFound {
		t.Fatalf("expected ErrApplicationNotFound, got %v", err)
	}
}

func TestListByGigRequiresOwner(t *testing.T) {
	svc := NewService(newFakeRepo())
	owner := uuid.New()
	g := seedGig(t, svc, owner)

	if _, err := svc.ListByGig(context.Background(), uuid.New(), g.ID); err != ErrNotAuthorized {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
	if _, err := svc.ListByGig(context.Background(), owner, g.ID); err != nil {
		t.Fatalf("owner list: %v", err)
	}
}
