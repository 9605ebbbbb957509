package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/msomdec/contact-directory/internal/domain"
)

// UserRepository implements domain.UserRepository with id- and
// username-indexed maps guarded by a single lock.
type UserRepository struct {
	mu            sync.RWMutex
	byID          map[int64]*domain.User
	byUsername    map[string]int64
	nextUserID    int64
	nextContactID int64
}

// NewUserRepository creates an empty repository.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:       make(map[int64]*domain.User),
		byUsername: make(map[string]int64),
	}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byUsername[user.Username]; exists {
		return domain.ErrDuplicateUser
	}

	r.nextUserID++
	user.ID = r.nextUserID
	if user.Contacts == nil {
		user.Contacts = []domain.Contact{}
	}
	if user.BlockedUsers == nil {
		user.BlockedUsers = []int64{}
	}

	r.byID[user.ID] = cloneUser(user)
	r.byUsername[user.Username] = user.ID
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneUser(user), nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUsername[username]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneUser(r.byID[id]), nil
}

func (r *UserRepository) SetPresence(ctx context.Context, id int64, online bool, lastSeen time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	user.Online = online
	user.LastSeen = lastSeen
	return nil
}

func (r *UserRepository) AddContact(ctx context.Context, contact *domain.Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	owner, ok := r.byID[contact.OwnerID]
	if !ok {
		return domain.ErrNotFound
	}

	r.nextContactID++
	contact.ID = r.nextContactID
	owner.Contacts = append(owner.Contacts, *contact)
	return nil
}

func (r *UserRepository) ListContacts(ctx context.Context, ownerID int64) ([]domain.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	owner, ok := r.byID[ownerID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return slices.Clone(owner.Contacts), nil
}

func (r *UserRepository) BlockUser(ctx context.Context, ownerID, blockedID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	owner, ok := r.byID[ownerID]
	if !ok {
		return domain.ErrNotFound
	}
	if !slices.Contains(owner.BlockedUsers, blockedID) {
		owner.BlockedUsers = append(owner.BlockedUsers, blockedID)
	}
	return nil
}

// List returns all users ordered by id.
func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]domain.User, 0, len(r.byID))
	for _, u := range r.byID {
		users = append(users, *cloneUser(u))
	}
	slices.SortFunc(users, func(a, b domain.User) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return users, nil
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID), nil
}

func (r *UserRepository) CountOnline(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, u := range r.byID {
		if u.Online {
			n++
		}
	}
	return n, nil
}

// Delete removes a user. The id is not handed out again.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(r.byUsername, user.Username)
	delete(r.byID, id)
	return nil
}

// cloneUser returns a deep copy so callers never share slices with the table.
func cloneUser(u *domain.User) *domain.User {
	c := *u
	c.Contacts = slices.Clone(u.Contacts)
	if c.Contacts == nil {
		c.Contacts = []domain.Contact{}
	}
	c.BlockedUsers = slices.Clone(u.BlockedUsers)
	if c.BlockedUsers == nil {
		c.BlockedUsers = []int64{}
	}
	return &c
}
