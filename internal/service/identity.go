package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/msomdec/contact-directory/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// IdentityService owns user records and credential checks.
type IdentityService struct {
	users      domain.UserRepository
	bcryptCost int
	now        func() time.Time
}

// NewIdentityService creates a new IdentityService.
func NewIdentityService(users domain.UserRepository, bcryptCost int) *IdentityService {
	return &IdentityService{
		users:      users,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

// Register creates a new, offline user with empty contacts and blocked users.
func (s *IdentityService) Register(ctx context.Context, username, credential string) (*domain.User, error) {
	if username == "" || credential == "" {
		return nil, fmt.Errorf("%w: username and password are required", domain.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword(credentialDigest(credential), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash credential: %w", err)
	}

	user := &domain.User{
		Username:       username,
		CredentialHash: string(hash),
		Online:         false,
		LastSeen:       s.now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateUser) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	slog.Info("user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Authenticate checks a username and credential pair. Unknown usernames and
// wrong credentials produce the same error. It never mutates the user.
func (s *IdentityService) Authenticate(ctx context.Context, username, credential string) (*domain.User, error) {
	if username == "" || credential == "" {
		return nil, fmt.Errorf("%w: username and password are required", domain.ErrValidation)
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.CredentialHash), credentialDigest(credential)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

// FindByID returns the user with the given id.
func (s *IdentityService) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// FindByUsername returns the user with the given username.
func (s *IdentityService) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.users.GetByUsername(ctx, username)
}

// Remove deletes a user record.
func (s *IdentityService) Remove(ctx context.Context, id int64) error {
	return s.users.Delete(ctx, id)
}

// SetPresence records a user's online flag and last-seen time.
func (s *IdentityService) SetPresence(ctx context.Context, id int64, online bool, lastSeen time.Time) error {
	return s.users.SetPresence(ctx, id, online, lastSeen)
}

// List returns every user ordered by id.
func (s *IdentityService) List(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

// CountUsers returns the total number of users and how many are online.
func (s *IdentityService) CountUsers(ctx context.Context) (total, online int, err error) {
	total, err = s.users.Count(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("count users: %w", err)
	}
	online, err = s.users.CountOnline(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("count online users: %w", err)
	}
	return total, online, nil
}

// credentialDigest maps a credential of any length to a fixed 44-byte input,
// below bcrypt's 72-byte limit.
func credentialDigest(credential string) []byte {
	sum := sha256.Sum256([]byte(credential))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}
