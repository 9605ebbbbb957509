package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/msomdec/contact-directory/internal/domain"
)

func TestIdentityService_Register_Success(t *testing.T) {
	forEachBackend(t, func(t *testing.T, users domain.UserRepository) {
		svc := newTestServices(users)
		ctx := context.Background()

		user, err := svc.identity.Register(ctx, "alice", "pw1")
		if err != nil {
			t.Fatalf("Register: %v", err)
		}
		if user.ID == 0 {
			t.Fatal("expected user ID to be set")
		}
		if user.Online {
			t.Fatal("expected new user to be offline")
		}
		if user.LastSeen.IsZero() {
			t.Fatal("expected lastSeen to be set")
		}
		if len(user.Contacts) != 0 || len(user.BlockedUsers) != 0 {
			t.Fatal("expected empty contacts and blocked users")
		}
		if user.CredentialHash == "" || user.CredentialHash == "pw1" {
			t.Fatal("expected credential to be stored hashed")
		}
	})
}

func TestIdentityService_Register_Duplicate(t *testing.T) {
	forEachBackend(t, func(t *testing.T, users domain.UserRepository) {
		svc := newTestServices(users)
		ctx := context.Background()

		if _, err := svc.identity.Register(ctx, "dup", "pw"); err != nil {
			t.Fatalf("first register: %v", err)
		}
		_, err := svc.identity.Register(ctx, "dup", "other")
		if !errors.Is(err, domain.ErrDuplicateUser) {
			t.Fatalf("expected ErrDuplicateUser, got %v", err)
		}
	})
}

func TestIdentityService_Register_EmptyFields(t *testing.T) {
	forEachBackend(t, func(t *testing.T, users domain.UserRepository) {
		svc := newTestServices(users)
		ctx := context.Background()

		tests := []struct {
			name       string
			username   string
			credential string
		}{
			{"empty username", "", "pw"},
			{"empty credential", "bob", ""},
			{"both empty", "", ""},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				_, err := svc.identity.Register(ctx, tc.username, tc.credential)
				if !errors.Is(err, domain.ErrValidation) {
					t.Fatalf("expected ErrValidation, got %v", err)
				}
			})
		}

		n, err := users.Count(ctx)
		if err != nil {
			t.Fatalf("Count: %v", err)
		}
		if n != 0 {
			t.Fatalf("expected no users created, got %d", n)
		}
	})
}

func TestIdentityService_Register_ConcurrentSameUsername(t *testing.T) {
	forEachBackend(t, func(t *testing.T, users domain.UserRepository) {
		svc := newTestServices(users)
		ctx := context.Background()

		var (
			wg         sync.WaitGroup
			mu         sync.Mutex
			successes  int
			duplicates int
		)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.identity.Register(ctx, "racer", "pw")
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					successes++
				case errors.Is(err, domain.ErrDuplicateUser):
					duplicates++
				}
			}()
		}
		wg.Wait()

		if successes != 1 || duplicates != 9 {
			t.Fatalf("expected 1 success and 9 duplicates, got %d and %d", successes, duplicates)
		}
	})
}

func TestIdentityService_Authenticate(t *testing.T) {
	forEachBackend(t, func(t *testing.T, users domain.UserRepository) {
		svc := newTestServices(users)
		ctx := context.Background()

		registered, err := svc.identity.Register(ctx, "carol", "secret")
		if err != nil {
			t.Fatalf("Register: %v", err)
		}

		user, err := svc.identity.Authenticate(ctx, "carol", "secret")
		if err != nil {
			t.Fatalf("Authenticate: %v", err)
		}
		if user.ID != registered.ID {
			t.Fatalf("expected id %d, got %d", registered.ID, user.ID)
		}

		// Authentication is a pure read.
		after, _ := svc.identity.FindByID(ctx, user.ID)
		if after.Online {
			t.Fatal("Authenticate must not mark the user online")
		}
		if !after.LastSeen.Equal(user.LastSeen) {
			t.Fatal("Authenticate must not touch lastSeen")
		}
	})
}

func TestIdentityService_Authenticate_Failures(t *testing.T) {
	forEachBackend(t, func(t *testing.T, users domain.UserRepository) {
		svc := newTestServices(users)
		ctx := context.Background()

		if _, err := svc.identity.Register(ctx, "dave", "right"); err != nil {
			t.Fatalf("Register: %v", err)
		}

		tests := []struct {
			name       string
			username   string
			credential string
			want       error
		}{
			{"wrong credential", "dave", "wrong", domain.ErrInvalidCredentials},
			{"unknown user", "nobody", "right", domain.ErrInvalidCredentials},
			{"wrong case username", "Dave", "right", domain.ErrInvalidCredentials},
			{"empty username", "", "right", domain.ErrValidation},
			{"empty credential", "dave", "", domain.ErrValidation},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				_, err := svc.identity.Authenticate(ctx, tc.username, tc.credential)
				if !errors.Is(err, tc.want) {
					t.Fatalf("expected %v, got %v", tc.want, err)
				}
			})
		}
	})
}

func TestIdentityService_FindByID_NotFound(t *testing.T) {
	forEachBackend(t, func(t *testing.T, users domain.UserRepository) {
		svc := newTestServices(users)

		_, err := svc.identity.FindByID(context.Background(), 424242)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestIdentityService_SetPresence_Idempotent(t *testing.T) {
	forEachBackend(t, func(t *testing.T, users domain.UserRepository) {
		svc := newTestServices(users)
		ctx := context.Background()

		user, err := svc.identity.Register(ctx, "erin", "pw")
		if err != nil {
			t.Fatalf("Register: %v", err)
		}

		for i := 0; i < 2; i++ {
			if err := svc.identity.SetPresence(ctx, user.ID, true, user.LastSeen); err != nil {
				t.Fatalf("SetPresence: %v", err)
			}
		}
		found, _ := svc.identity.FindByID(ctx, user.ID)
		if !found.Online {
			t.Fatal("expected user online")
		}

		err = svc.identity.SetPresence(ctx, 999999, true, user.LastSeen)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestIdentityService_LongCredential(t *testing.T) {
	forEachBackend(t, func(t *testing.T, users domain.UserRepository) {
		svc := newTestServices(users)
		ctx := context.Background()

		long := strings.Repeat("a", 100)
		user, err := svc.identity.Register(ctx, "longpw", long)
		if err != nil {
			t.Fatalf("Register with long credential: %v", err)
		}

		got, err := svc.identity.Authenticate(ctx, "longpw", long)
		if err != nil {
			t.Fatalf("Authenticate with long credential: %v", err)
		}
		if got.ID != user.ID {
			t.Fatalf("expected user %d, got %d", user.ID, got.ID)
		}

		// Differs only after byte 72.
		other := strings.Repeat("a", 99) + "b"
		if _, err := svc.identity.Authenticate(ctx, "longpw", other); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}

func TestIdentityService_FindByUsername(t *testing.T) {
	forEachBackend(t, func(t *testing.T, users domain.UserRepository) {
		svc := newTestServices(users)
		ctx := context.Background()

		user, err := svc.identity.Register(ctx, "alice", "pw1")
		if err != nil {
			t.Fatalf("Register: %v", err)
		}

		got, err := svc.identity.FindByUsername(ctx, "alice")
		if err != nil {
			t.Fatalf("FindByUsername: %v", err)
		}
		if got.ID != user.ID {
			t.Fatalf("expected id %d, got %d", user.ID, got.ID)
		}
		if _, err := svc.identity.FindByUsername(ctx, "Alice"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestIdentityService_CountUsers(t *testing.T) {
	forEachBackend(t, func(t *testing.T, users domain.UserRepository) {
		svc := newTestServices(users)
		ctx := context.Background()

		a, err := svc.identity.Register(ctx, "a", "pw")
		if err != nil {
			t.Fatalf("Register: %v", err)
		}
		if _, err := svc.identity.Register(ctx, "b", "pw"); err != nil {
			t.Fatalf("Register: %v", err)
		}
		if err := svc.identity.SetPresence(ctx, a.ID, true, time.Now()); err != nil {
			t.Fatalf("SetPresence: %v", err)
		}

		total, online, err := svc.identity.CountUsers(ctx)
		if err != nil {
			t.Fatalf("CountUsers: %v", err)
		}
		if total != 2 || online != 1 {
			t.Fatalf("expected 2 total / 1 online, got %d / %d", total, online)
		}
	})
}
