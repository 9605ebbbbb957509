package service

import (
	"context"
	"fmt"
	"time"

	"github.com/msomdec/contact-directory/internal/domain"
)

// DirectoryService answers contact-list and profile queries for resolved
// user ids. Contact mutation is internal (seeding) only.
type DirectoryService struct {
	users domain.UserRepository
}

// NewDirectoryService creates a new DirectoryService.
func NewDirectoryService(users domain.UserRepository) *DirectoryService {
	return &DirectoryService{users: users}
}

// GetContacts returns the user's contacts in insertion order. A user with no
// contacts gets an empty, non-nil slice.
func (s *DirectoryService) GetContacts(ctx context.Context, userID int64) ([]domain.Contact, error) {
	contacts, err := s.users.ListContacts(ctx, userID)
	if err != nil {
		return nil, err
	}
	if contacts == nil {
		contacts = []domain.Contact{}
	}
	return contacts, nil
}

// GetProfile returns the user's full record.
func (s *DirectoryService) GetProfile(ctx context.Context, userID int64) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// AddContact appends a contact entry to the owner's directory. contactID is
// not checked against the user table.
func (s *DirectoryService) AddContact(ctx context.Context, ownerID, contactID int64, name string, addedDate time.Time) (*domain.Contact, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: contact name is required", domain.ErrValidation)
	}

	contact := &domain.Contact{
		OwnerID:     ownerID,
		ContactID:   contactID,
		ContactName: name,
		AddedDate:   addedDate,
	}
	if err := s.users.AddContact(ctx, contact); err != nil {
		return nil, err
	}
	return contact, nil
}

// BlockUser adds blockedID to the owner's blocked set.
func (s *DirectoryService) BlockUser(ctx context.Context, ownerID, blockedID int64) error {
	if ownerID == blockedID {
		return fmt.Errorf("%w: users cannot block themselves", domain.ErrValidation)
	}
	return s.users.BlockUser(ctx, ownerID, blockedID)
}
