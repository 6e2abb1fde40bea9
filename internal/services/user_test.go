package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/botsmith-backend/internal/platform/apierr"
	"github.com/yungbote/botsmith-backend/internal/policy"
)

func TestGetOrCreateIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	p := &policy.Principal{ID: uuid.New(), Email: "alice@example.com", Username: "alice"}

	first, err := h.users.GetOrCreate(ctx, p)
	if err != nil {
		t.Fatalf("first GetOrCreate failed: %v", err)
	}
	if first.Tokens != initialTokenGrant {
		t.Fatalf("expected initial grant %d, got %d", initialTokenGrant, first.Tokens)
	}

	second, err := h.users.GetOrCreate(ctx, p)
	if err != nil {
		t.Fatalf("second GetOrCreate failed: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected one user record, got two ids %s and %s", first.ID, second.ID)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("second call changed CreatedAt: %v -> %v", first.CreatedAt, second.CreatedAt)
	}
	if second.Tokens != initialTokenGrant {
		t.Fatalf("second call changed token balance: %d", second.Tokens)
	}
}

func TestGetOrCreateRefreshesDriftedFields(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	p := &policy.Principal{ID: uuid.New(), Email: "bob@example.com", Username: "bob"}
	if _, err := h.users.GetOrCreate(ctx, p); err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}

	p.Username = "bob-renamed"
	updated, err := h.users.GetOrCreate(ctx, p)
	if err != nil {
		t.Fatalf("GetOrCreate after rename failed: %v", err)
	}
	if updated.Username != "bob-renamed" {
		t.Fatalf("expected refreshed username, got %q", updated.Username)
	}

	stored, err := h.userRepo.GetByID(ctx, nil, p.ID)
	if err != nil || stored == nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	if stored.Username != "bob-renamed" {
		t.Fatalf("rename not persisted, got %q", stored.Username)
	}
}

func TestGetOrCreateRejectsAnonymous(t *testing.T) {
	h := newHarness(t)

	_, err := h.users.GetOrCreate(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error for anonymous caller")
	}
	if status, _ := apierr.StatusOf(err); status != 401 {
		t.Fatalf("expected 401, got %d", status)
	}
}
