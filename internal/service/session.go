package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/msomdec/contact-directory/internal/domain"
)

// PresenceUpdater records a user's online state. IdentityService satisfies it.
type PresenceUpdater interface {
	SetPresence(ctx context.Context, id int64, online bool, lastSeen time.Time) error
}

// SessionService issues, resolves and revokes bearer tokens, and drives the
// presence flag of the user each token belongs to.
//
// Tokens are HMAC-signed JWTs carrying the user id and a random jti. The live
// table is authoritative: a correctly signed token that is not in the table
// is rejected. Tokens carry no expiry.
type SessionService struct {
	mu       sync.Mutex
	sessions map[string]domain.Session

	presence  PresenceUpdater
	jwtSecret []byte
	now       func() time.Time
}

// SessionOption configures a SessionService.
type SessionOption func(*SessionService)

// WithClock overrides the time source used for presence timestamps.
func WithClock(now func() time.Time) SessionOption {
	return func(s *SessionService) { s.now = now }
}

// NewSessionService creates a new SessionService.
func NewSessionService(presence PresenceUpdater, jwtSecret string, opts ...SessionOption) *SessionService {
	s := &SessionService{
		sessions:  make(map[string]domain.Session),
		presence:  presence,
		jwtSecret: []byte(jwtSecret),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IssueToken creates a new live token for userID and marks the user online.
// A user may hold any number of live tokens at once. If the user cannot be
// marked online the token is dropped again.
func (s *SessionService) IssueToken(ctx context.Context, userID int64) (string, error) {
	now := s.now()
	token, err := s.record(userID, now)
	if err != nil {
		return "", err
	}

	if err := s.presence.SetPresence(ctx, userID, true, now); err != nil {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		if errors.Is(err, domain.ErrNotFound) {
			return "", err
		}
		return "", fmt.Errorf("set presence: %w", err)
	}

	slog.Debug("token issued", "user_id", userID)
	return token, nil
}

// record signs a token that is not yet live and adds it to the table.
func (s *SessionService) record(userID int64, now time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		token, err := s.signToken(userID, now)
		if err != nil {
			return "", fmt.Errorf("sign token: %w", err)
		}
		if _, exists := s.sessions[token]; exists {
			continue
		}
		s.sessions[token] = domain.Session{Token: token, UserID: userID, IssuedAt: now}
		return token, nil
	}
}

// Resolve returns the user id a live token belongs to.
func (s *SessionService) Resolve(token string) (int64, error) {
	if token == "" {
		return 0, domain.ErrInvalidToken
	}

	s.mu.Lock()
	sess, ok := s.sessions[token]
	s.mu.Unlock()
	if !ok {
		return 0, domain.ErrInvalidToken
	}

	if sub, err := s.verifyToken(token); err != nil || sub != sess.UserID {
		return 0, domain.ErrInvalidToken
	}
	return sess.UserID, nil
}

// Revoke removes a live token and marks its user offline. The user goes
// offline even when other tokens for the same user are still live; live
// sessions are not counted.
func (s *SessionService) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return domain.ErrInvalidToken
	}

	s.mu.Lock()
	sess, ok := s.sessions[token]
	if ok {
		delete(s.sessions, token)
	}
	s.mu.Unlock()
	if !ok {
		return domain.ErrInvalidToken
	}

	if err := s.presence.SetPresence(ctx, sess.UserID, false, s.now()); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("set presence: %w", err)
		}
		slog.Warn("revoked token for missing user", "user_id", sess.UserID)
	}
	slog.Debug("token revoked", "user_id", sess.UserID)
	return nil
}

// Count returns the number of live tokens.
func (s *SessionService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// List returns a snapshot of all live sessions.
func (s *SessionService) List() []domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out
}

func (s *SessionService) signToken(userID int64, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:  strconv.FormatInt(userID, 10),
		ID:       uuid.NewString(),
		IssuedAt: jwt.NewNumericDate(now),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// verifyToken checks the signature and returns the subject user id.
func (s *SessionService) verifyToken(tokenString string) (int64, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return 0, domain.ErrInvalidToken
	}
	return strconv.ParseInt(claims.Subject, 10, 64)
}
