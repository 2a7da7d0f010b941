package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/nearlink/nearlink-api/internal/domain/user"
	"github.com/nearlink/nearlink-api/internal/pkg/jwt"
	"github.com/nearlink/nearlink-api/internal/pkg/password"
)

// Service handles authentication
type Service struct {
	users user.Repository
	jwt   *jwt.Service
}

// NewService creates auth service
func NewService(users user.Repository, jwtService *jwt.Service) *Service {
	return &Service{users: users, jwt: jwtService}
}

// Register creates a new account. New users start in explore mode.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*user.User, *TokenPair, error) {
	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, nil, err
	}

	u := &user.User{
		ID:           uuid.New(),
		Email:        normalizeEmail(req.Email),
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(req.DisplayName),
		Visibility:   user.VisibilityExplore,
	}

	if err := s.users.Create(ctx, u); err != nil {
		if err == user.ErrEmailTaken {
			return nil, nil, ErrEmailTaken
		}
		return nil, nil, err
	}

	tokens, err := s.issueTokens(u.ID)
	if err != nil {
		return nil, nil, err
	}

	return u, tokens, nil
}

// Login verifies credentials and issues a token pair
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*user.User, *TokenPair, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, nil, err
	}
	if u == nil || !password.Verify(req.Password, u.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(u.ID)
	if err != nil {
		return nil, nil, err
	}

	return u, tokens, nil
}

// Refresh exchanges a valid refresh token for a new pair
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidToken
	}

	return s.issueTokens(u.ID)
}

func (s *Service) issueTokens(userID uuid.UUID) (*TokenPair, error) {
	access, err := s.jwt.GenerateAccessToken(userID)
	if err != nil {
		return nil, err
	}
	refresh, err := s.jwt.GenerateRefreshToken(userID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
