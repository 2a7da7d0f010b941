package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nearlink/nearlink-api/internal/domain/user"
	"github.com/nearlink/nearlink-api/internal/pkg/jwt"
)

type fakeUserRepo struct {
	byID    map[uuid.UUID]*user.User
	byEmail map[string]*user.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:    make(map[uuid.UUID]*user.User),
		byEmail: make(map[string]*user.User),
	}
}

func (r *fakeUserRepo) Create(_ context.Context, u *user.User) error {
	if _, ok := r.byEmail[u.Email]; ok {
		return user.ErrEmailTaken
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	clone := *u
	r.byID[u.ID] = &clone
	r.byEmail[u.Email] = &clone
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	clone := *u
	return &clone, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*user.User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return nil, nil
	}
	clone := *u
	return &clone, nil
}

func (r *fakeUserRepo) UpdateVisibility(_ context.Context, id uuid.UUID, v user.Visibility) error {
	u, ok := r.byID[id]
	if !ok {
		return user.ErrUserNotFound
	}
	u.Visibility = v
	return nil
}

func (r *fakeUserRepo) GetVisibility(_ context.Context, id uuid.UUID) (user.Visibility, error) {
	u, ok := r.byID[id]
	if !ok {
		return "", user.ErrUserNotFound
	}
	return u.Visibility, nil
}

func newTestService() (*Service, *fakeUserRepo) {
	repo := newFakeUserRepo()
	jwtService := jwt.NewService("test-secret", 15*time.Minute, 24*time.Hour)
	return NewService(repo, jwtService), repo
}

func TestRegisterCreatesExplorableUser(t *testing.T) {
	svc, _ := newTestService()

	u, tokens, err := svc.Register(context.Background(), &RegisterRequest{
		Email:       "Anna@Example.com",
		Password:    "correct-horse",
		DisplayName: "Anna",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Email != "anna@example.com" {
		t.Fatalf("expected normalized email, got %s", u.Email)
	}
	if u.Visibility != user.VisibilityExplore {
		t.Fatalf("expected explore visibility by default, got %s", u.Visibility)
	}
	if u.PasswordHash == "correct-horse" || u.PasswordHash == "" {
		t.Fatal("expected password to be hashed")
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatal("expected both tokens issued")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService()

	req := &RegisterRequest{Email: "anna@example.com", Password: "correct-horse", DisplayName: "Anna"}
	if _, _, err := svc.Register(context.Background(), req); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, _, err := svc.Register(context.Background(), req); err != ErrEmailTaken {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestLoginVerifiesPassword(t *testing.T) {
	svc, _ := newTestService()

	if _, _, err := svc.Register(context.Background(), &RegisterRequest{
		Email: "anna@example.com", Password: "correct-horse", DisplayName: "Anna",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, _, err := svc.Login(context.Background(), &LoginRequest{
		Email: "anna@example.com", Password: "wrong",
	}); err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	u, tokens, err := svc.Login(context.Background(), &LoginRequest{
		Email: "anna@example.com", Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if u.Email != "anna@example.com" || tokens.AccessToken == "" {
		t.Fatal("expected user and tokens on successful login")
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _ := newTestService()

	if _, _, err := svc.Login(context.Background(), &LoginRequest{
		Email: "nobody@example.com", Password: "whatever",
	}); err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc, _ := newTestService()

	_, tokens, err := svc.Register(context.Background(), &RegisterRequest{
		Email: "anna@example.com", Password: "correct-horse", DisplayName: "Anna",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Refresh(context.Background(), tokens.AccessToken); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for access token, got %v", err)
	}

	fresh, err := svc.Refresh(context.Background(), tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if fresh.AccessToken == "" || fresh.RefreshToken == "" {
		t.Fatal("expected a fresh token pair")
	}
}
