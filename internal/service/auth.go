package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/msomdec/contact-directory/internal/domain"
)

// AuthService composes the identity store and the session manager into the
// register, login and logout operations exposed to transports.
type AuthService struct {
	identity *IdentityService
	sessions *SessionService
}

// NewAuthService creates a new AuthService.
func NewAuthService(identity *IdentityService, sessions *SessionService) *AuthService {
	return &AuthService{identity: identity, sessions: sessions}
}

// Register creates a user and issues its first token. The returned user is
// the record as stored at registration, before the token marked it online.
func (s *AuthService) Register(ctx context.Context, username, password string) (string, *domain.User, error) {
	user, err := s.identity.Register(ctx, username, password)
	if err != nil {
		return "", nil, err
	}

	token, err := s.sessions.IssueToken(ctx, user.ID)
	if err != nil {
		if rmErr := s.identity.Remove(ctx, user.ID); rmErr != nil {
			slog.Error("roll back registration", "user_id", user.ID, "error", rmErr)
		}
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, user, nil
}

// Login verifies credentials, issues a token and returns the user as it
// stands after being marked online.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	user, err := s.identity.Authenticate(ctx, username, password)
	if err != nil {
		return "", nil, err
	}

	token, err := s.sessions.IssueToken(ctx, user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}

	user, err = s.identity.FindByID(ctx, user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("reload user: %w", err)
	}
	return token, user, nil
}

// Logout revokes the token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Revoke(ctx, token)
}

// ValidateToken resolves a token to the user id it authenticates.
func (s *AuthService) ValidateToken(token string) (int64, error) {
	return s.sessions.Resolve(token)
}

// Stats is a point-in-time summary of the identity and session tables.
type Stats struct {
	Users    int
	Online   int
	Sessions int
}

// Stats reports table counts for health and metrics endpoints.
func (s *AuthService) Stats(ctx context.Context) (Stats, error) {
	total, online, err := s.identity.CountUsers(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{Users: total, Online: online, Sessions: s.sessions.Count()}, nil
}

// Users returns all users ordered by id.
func (s *AuthService) Users(ctx context.Context) ([]domain.User, error) {
	return s.identity.List(ctx)
}

// Sessions returns a snapshot of live sessions.
func (s *AuthService) Sessions() []domain.Session {
	return s.sessions.List()
}
