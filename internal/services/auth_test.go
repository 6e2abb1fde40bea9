package services

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/botsmith-backend/internal/platform/apierr"
	"github.com/yungbote/botsmith-backend/internal/repos"
	"github.com/yungbote/botsmith-backend/internal/repos/testutil"
)

func newAuthService(t *testing.T) (AuthService, repos.UserRepo) {
	t.Helper()
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	userRepo := repos.NewUserRepo(gdb, log)
	userTokenRepo := repos.NewUserTokenRepo(gdb, log)
	svc := NewAuthService(gdb, log, userRepo, userTokenRepo, "test-secret", time.Hour, 24*time.Hour)
	return svc, userRepo
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Alice@Example.com", "alice", "hunter2secret")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("email not normalized: %q", user.Email)
	}
	if user.Tokens != initialTokenGrant {
		t.Fatalf("expected initial grant %d, got %d", initialTokenGrant, user.Tokens)
	}
	if user.Password == "hunter2secret" {
		t.Fatal("password stored in plaintext")
	}

	access, refresh, err := svc.Login(ctx, "alice@example.com", "hunter2secret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if access == "" || refresh == "" {
		t.Fatal("expected both tokens")
	}

	principal, err := svc.PrincipalFromToken(access)
	if err != nil {
		t.Fatalf("PrincipalFromToken failed: %v", err)
	}
	if principal.ID != user.ID || principal.Username != "alice" {
		t.Fatalf("wrong principal: %+v", principal)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	cases := []struct {
		name     string
		email    string
		username string
		password string
	}{
		{"bad email", "not-an-email", "alice", "hunter2secret"},
		{"empty username", "a@example.com", "", "hunter2secret"},
		{"short password", "a@example.com", "alice", "short"},
	}
	for _, tc := range cases {
		if _, err := svc.Register(ctx, tc.email, tc.username, tc.password); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		} else if status, _ := apierr.StatusOf(err); status != 400 {
			t.Fatalf("%s: expected 400, got %d", tc.name, status)
		}
	}

	if _, err := svc.Register(ctx, "dup@example.com", "dup", "hunter2secret"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := svc.Register(ctx, "dup@example.com", "dup2", "hunter2secret"); err == nil {
		t.Fatal("expected duplicate email to be rejected")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice@example.com", "alice", "hunter2secret"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if _, _, err := svc.Login(ctx, "alice@example.com", "wrongpassword"); err == nil {
		t.Fatal("expected wrong password to fail")
	} else if status, _ := apierr.StatusOf(err); status != 401 {
		t.Fatalf("expected 401, got %d", status)
	}
	if _, _, err := svc.Login(ctx, "nobody@example.com", "hunter2secret"); err == nil {
		t.Fatal("expected unknown email to fail")
	} else if status, _ := apierr.StatusOf(err); status != 401 {
		t.Fatalf("expected 401, got %d", status)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice@example.com", "alice", "hunter2secret"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	_, refresh, err := svc.Login(ctx, "alice@example.com", "hunter2secret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	access2, refresh2, err := svc.Refresh(ctx, refresh)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if access2 == "" || refresh2 == "" || refresh2 == refresh {
		t.Fatal("expected a fresh token pair")
	}

	// The old refresh token is dead after rotation.
	if _, _, err := svc.Refresh(ctx, refresh); err == nil {
		t.Fatal("expected rotated refresh token to be rejected")
	} else if status, _ := apierr.StatusOf(err); status != 401 {
		t.Fatalf("expected 401, got %d", status)
	}
}

func TestLogoutInvalidatesSession(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice@example.com", "alice", "hunter2secret"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	access, refresh, err := svc.Login(ctx, "alice@example.com", "hunter2secret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := svc.Logout(ctx, access); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, _, err := svc.Refresh(ctx, refresh); err == nil {
		t.Fatal("expected refresh to fail after logout")
	}
}

func TestPrincipalFromTokenRejectsGarbage(t *testing.T) {
	svc, _ := newAuthService(t)

	for _, token := range []string{"", "not.a.jwt", "aaaa.bbbb.cccc"} {
		if _, err := svc.PrincipalFromToken(token); err == nil {
			t.Fatalf("expected token %q to be rejected", token)
		}
	}
}
