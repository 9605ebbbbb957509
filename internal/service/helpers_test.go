package service_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/msomdec/contact-directory/internal/domain"
	"github.com/msomdec/contact-directory/internal/repository/memory"
	"github.com/msomdec/contact-directory/internal/repository/sqlite"
	"github.com/msomdec/contact-directory/internal/service"
)

const testJWTSecret = "test-secret-key-for-unit-tests-0123456789"

// Use cost 4 for fast tests.
const testBcryptCost = 4

// forEachBackend runs fn once per storage backend.
func forEachBackend(t *testing.T, fn func(t *testing.T, users domain.UserRepository)) {
	t.Helper()

	t.Run("memory", func(t *testing.T) {
		fn(t, memory.New().Users())
	})

	t.Run("sqlite", func(t *testing.T) {
		db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
		if err != nil {
			t.Fatalf("New DB: %v", err)
		}
		if err := db.Migrate(context.Background()); err != nil {
			t.Fatalf("Migrate: %v", err)
		}
		t.Cleanup(func() { db.Close() })
		fn(t, db.Users())
	})
}

type testServices struct {
	identity  *service.IdentityService
	sessions  *service.SessionService
	directory *service.DirectoryService
	auth      *service.AuthService
}

func newTestServices(users domain.UserRepository, opts ...service.SessionOption) testServices {
	identity := service.NewIdentityService(users, testBcryptCost)
	sessions := service.NewSessionService(identity, testJWTSecret, opts...)
	return testServices{
		identity:  identity,
		sessions:  sessions,
		directory: service.NewDirectoryService(users),
		auth:      service.NewAuthService(identity, sessions),
	}
}
