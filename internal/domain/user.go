package domain

import (
	"context"
	"time"
)

// User represents a registered account together with its presence state
// and contact directory.
type User struct {
	ID             int64
	Username       string
	CredentialHash string
	Online         bool
	LastSeen       time.Time
	Contacts       []Contact
	BlockedUsers   []int64
}

// Contact is a directory entry owned by a user. ContactID is not required
// to reference an existing user.
type Contact struct {
	ID          int64
	OwnerID     int64
	ContactID   int64
	ContactName string
	AddedDate   time.Time
}

// UserRepository defines persistence operations for users and their
// directories. Implementations must enforce username uniqueness atomically
// in Create and hand out ids that are never reused.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	SetPresence(ctx context.Context, id int64, online bool, lastSeen time.Time) error
	AddContact(ctx context.Context, contact *Contact) error
	ListContacts(ctx context.Context, ownerID int64) ([]Contact, error)
	BlockUser(ctx context.Context, ownerID, blockedID int64) error
	List(ctx context.Context) ([]User, error)
	Count(ctx context.Context) (int, error)
	CountOnline(ctx context.Context) (int, error)
	Delete(ctx context.Context, id int64) error
}
