// Package seed loads users and their directories from YAML so a fresh
// process has accounts to log in with.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/msomdec/contact-directory/internal/domain"
	"github.com/msomdec/contact-directory/internal/service"
	"gopkg.in/yaml.v3"
)

//go:embed demo.yaml
var demoYAML []byte

// File is the top-level seed document.
type File struct {
	Users []User `yaml:"users"`
}

// User is a seeded account.
type User struct {
	Username     string    `yaml:"username"`
	Password     string    `yaml:"password"`
	Contacts     []Contact `yaml:"contacts"`
	BlockedUsers []string  `yaml:"blockedUsers"`
}

// Contact references another user either by username or by raw id. A raw id
// may point at a user that does not exist.
type Contact struct {
	Contact     string        `yaml:"contact"`
	ContactID   int64         `yaml:"contactId"`
	ContactName string        `yaml:"contactName"`
	AddedAgo    time.Duration `yaml:"addedAgo"`
}

// Demo returns the embedded demo seed.
func Demo() (*File, error) {
	return Parse(demoYAML)
}

// LoadFile reads and parses a seed file from disk.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a seed document.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return &f, nil
}

// Seeder applies seed documents through the identity and directory services.
type Seeder struct {
	identity  *service.IdentityService
	directory *service.DirectoryService
	now       func() time.Time
}

// NewSeeder creates a new Seeder.
func NewSeeder(identity *service.IdentityService, directory *service.DirectoryService) *Seeder {
	return &Seeder{identity: identity, directory: directory, now: time.Now}
}

// Apply registers every user in f, then fills in contacts and blocked users.
// Users that already exist are left untouched, so applying the same file
// twice is a no-op. References may name users from the file or users that
// are already registered; every reference is checked before anything is
// written.
func (s *Seeder) Apply(ctx context.Context, f *File) error {
	ids, err := s.resolveReferences(ctx, f)
	if err != nil {
		return err
	}

	var created []User
	for _, u := range f.Users {
		user, err := s.identity.Register(ctx, u.Username, u.Password)
		if errors.Is(err, domain.ErrDuplicateUser) {
			slog.Debug("seed user already exists", "username", u.Username)
			existing, err := s.identity.FindByUsername(ctx, u.Username)
			if err != nil {
				return fmt.Errorf("seed user %q: %w", u.Username, err)
			}
			ids[u.Username] = existing.ID
			continue
		}
		if err != nil {
			return fmt.Errorf("seed user %q: %w", u.Username, err)
		}
		ids[u.Username] = user.ID
		created = append(created, u)
	}

	now := s.now()
	for _, u := range created {
		owner := ids[u.Username]

		for _, c := range u.Contacts {
			contactID := c.ContactID
			if c.Contact != "" {
				contactID = ids[c.Contact]
			}
			if _, err := s.directory.AddContact(ctx, owner, contactID, c.ContactName, now.Add(-c.AddedAgo)); err != nil {
				return fmt.Errorf("seed contact for %q: %w", u.Username, err)
			}
		}

		for _, name := range u.BlockedUsers {
			if err := s.directory.BlockUser(ctx, owner, ids[name]); err != nil {
				return fmt.Errorf("seed blocked user for %q: %w", u.Username, err)
			}
		}
	}

	slog.Info("seed applied", "users", len(f.Users), "created", len(created))
	return nil
}

// resolveReferences maps every username a contact or block entry refers to
// onto an id. Names defined in f resolve once they are registered; other
// names must already exist.
func (s *Seeder) resolveReferences(ctx context.Context, f *File) (map[string]int64, error) {
	defined := make(map[string]bool, len(f.Users))
	for _, u := range f.Users {
		defined[u.Username] = true
	}

	ids := make(map[string]int64)
	resolve := func(owner, name, kind string) error {
		if defined[name] {
			return nil
		}
		if _, ok := ids[name]; ok {
			return nil
		}
		existing, err := s.identity.FindByUsername(ctx, name)
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("seed user %q: unknown %s %q", owner, kind, name)
		}
		if err != nil {
			return fmt.Errorf("seed user %q: resolve %q: %w", owner, name, err)
		}
		ids[name] = existing.ID
		return nil
	}

	for _, u := range f.Users {
		for _, c := range u.Contacts {
			if c.Contact == "" {
				continue
			}
			if err := resolve(u.Username, c.Contact, "contact"); err != nil {
				return nil, err
			}
		}
		for _, name := range u.BlockedUsers {
			if err := resolve(u.Username, name, "blocked user"); err != nil {
				return nil, err
			}
		}
	}
	return ids, nil
}
