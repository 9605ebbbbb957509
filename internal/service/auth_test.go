package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/msomdec/contact-directory/internal/domain"
	"github.com/msomdec/contact-directory/internal/repository/memory"
	"github.com/msomdec/contact-directory/internal/service"
)

func TestAuthService_RegisterLoginLogout(t *testing.T) {
	forEachBackend(t, func(t *testing.T, users domain.UserRepository) {
		svc := newTestServices(users)
		ctx := context.Background()

		t1, user, err := svc.auth.Register(ctx, "alice", "pw1")
		if err != nil {
			t.Fatalf("Register: %v", err)
		}
		if t1 == "" {
			t.Fatal("expected token from register")
		}
		if user.Online {
			t.Fatal("expected registered user snapshot to be offline")
		}

		stored, _ := svc.identity.FindByID(ctx, user.ID)
		if !stored.Online {
			t.Fatal("expected issuance at registration to mark the user online")
		}

		if _, _, err := svc.auth.Login(ctx, "alice", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
		if n := svc.sessions.Count(); n != 1 {
			t.Fatalf("failed login must not issue a token; live sessions = %d", n)
		}

		if err := svc.auth.Logout(ctx, t1); err != nil {
			t.Fatalf("Logout: %v", err)
		}
		if _, err := svc.auth.ValidateToken(t1); !errors.Is(err, domain.ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken after logout, got %v", err)
		}
	})
}

func TestAuthService_Login_ReturnsOnlineUser(t *testing.T) {
	svc := newTestServices(memory.New().Users())
	ctx := context.Background()

	_, registered, err := svc.auth.Register(ctx, "quinn", "pw")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	token, user, err := svc.auth.Login(ctx, "quinn", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !user.Online {
		t.Fatal("expected logged-in user to be online")
	}

	userID, err := svc.auth.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if userID != registered.ID {
		t.Fatalf("expected user ID %d, got %d", registered.ID, userID)
	}
}

func TestAuthService_Register_Failures(t *testing.T) {
	svc := newTestServices(memory.New().Users())
	ctx := context.Background()

	if _, _, err := svc.auth.Register(ctx, "", "pw"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, _, err := svc.auth.Register(ctx, "rita", "pw"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, _, err := svc.auth.Register(ctx, "rita", "pw"); !errors.Is(err, domain.ErrDuplicateUser) {
		t.Fatalf("expected ErrDuplicateUser, got %v", err)
	}
	if n := svc.sessions.Count(); n != 1 {
		t.Fatalf("expected 1 live session, got %d", n)
	}
}

func TestAuthService_Stats(t *testing.T) {
	svc := newTestServices(memory.New().Users())
	ctx := context.Background()

	t1, _, _ := svc.auth.Register(ctx, "sam", "pw")
	if _, _, err := svc.auth.Register(ctx, "tess", "pw"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := svc.auth.Logout(ctx, t1); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	stats, err := svc.auth.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Users != 2 || stats.Online != 1 || stats.Sessions != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestAuthService_Register_RollsBackWhenTokenFails(t *testing.T) {
	forEachBackend(t, func(t *testing.T, users domain.UserRepository) {
		identity := service.NewIdentityService(users, testBcryptCost)
		sessions := service.NewSessionService(failingPresence{}, testJWTSecret)
		auth := service.NewAuthService(identity, sessions)
		ctx := context.Background()

		if _, _, err := auth.Register(ctx, "alice", "pw1"); err == nil {
			t.Fatal("expected Register to fail when no token can be issued")
		}
		if _, err := identity.FindByUsername(ctx, "alice"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected user to be rolled back, got %v", err)
		}
		if n := sessions.Count(); n != 0 {
			t.Fatalf("expected no live sessions, got %d", n)
		}

		// The username is free again.
		if _, err := identity.Register(ctx, "alice", "pw1"); err != nil {
			t.Fatalf("re-Register: %v", err)
		}
	})
}

func TestAuthService_LongCredential(t *testing.T) {
	svc := newTestServices(memory.New().Users())
	ctx := context.Background()
	long := strings.Repeat("x", 73)

	if _, _, err := svc.auth.Register(ctx, "longpw", long); err != nil {
		t.Fatalf("Register: %v", err)
	}
	token, user, err := svc.auth.Login(ctx, "longpw", long)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token == "" || !user.Online {
		t.Fatal("expected token and online user after login")
	}
}
