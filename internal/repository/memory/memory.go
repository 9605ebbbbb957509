// Package memory provides an in-process storage backend. State lives only
// for the lifetime of the process.
package memory

import (
	"context"

	"github.com/msomdec/contact-directory/internal/domain"
)

// DB is the in-memory implementation of domain.Database.
type DB struct {
	users *UserRepository
}

// New creates an empty in-memory database.
func New() *DB {
	return &DB{users: NewUserRepository()}
}

// Migrate is a no-op; the in-memory tables need no schema.
func (db *DB) Migrate(ctx context.Context) error {
	return nil
}

// Users returns the user repository.
func (db *DB) Users() domain.UserRepository {
	return db.users
}

// Close is a no-op.
func (db *DB) Close() error {
	return nil
}
