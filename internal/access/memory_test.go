package access

import (
	"context"
	"errors"
	"testing"
)

func TestInMemoryDuplicateLiveGrant(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()
	first, err := store.CreateGrant(ctx, "u1", KindBrand, "b1")
	if err != nil {
		t.Fatalf("CreateGrant: %v", err)
	}
	second, err := store.CreateGrant(ctx, "u1", KindBrand, "b1")
	if err != nil {
		t.Fatalf("duplicate CreateGrant: %v", err)
	}
	if first.ID != second.ID {
		t.Fatal("duplicate live grant must resolve to the existing row")
	}

	// After revocation a fresh grant for the same triple is a new row.
	if err := store.RevokeGrant(ctx, first.ID); err != nil {
		t.Fatalf("RevokeGrant: %v", err)
	}
	third, err := store.CreateGrant(ctx, "u1", KindBrand, "b1")
	if err != nil {
		t.Fatalf("re-grant: %v", err)
	}
	if third.ID == first.ID {
		t.Fatal("re-grant after revocation must create a new row")
	}
}

func TestInMemoryExistsVariants(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()
	g, err := store.CreateGrant(ctx, "u1", KindProduct, "p1")
	if err != nil {
		t.Fatalf("CreateGrant: %v", err)
	}
	if err := store.RevokeGrant(ctx, g.ID); err != nil {
		t.Fatalf("RevokeGrant: %v", err)
	}

	live, err := store.GrantExists(ctx, "u1", KindProduct, "p1")
	if err != nil || live {
		t.Fatalf("live exists should be false: %v %v", live, err)
	}
	any, err := store.GrantExistsIncludingRevoked(ctx, "u1", KindProduct, "p1")
	if err != nil || !any {
		t.Fatalf("revoked-inclusive exists should be true: %v %v", any, err)
	}

	if err := store.PurgeGrant(ctx, g.ID); err != nil {
		t.Fatalf("PurgeGrant: %v", err)
	}
	any, err = store.GrantExistsIncludingRevoked(ctx, "u1", KindProduct, "p1")
	if err != nil || any {
		t.Fatalf("purged grant must be gone: %v %v", any, err)
	}
	if err := store.RevokeGrant(ctx, g.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("revoking a purged grant: expected ErrNotFound, got %v", err)
	}
}

func TestInMemoryValidation(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()
	if _, err := store.CreateGrant(ctx, "", KindBrand, "b1"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("blank user: expected ErrInvalidInput, got %v", err)
	}
	if _, err := store.CreateGrant(ctx, "u1", Kind(99), "b1"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("invalid kind: expected ErrInvalidInput, got %v", err)
	}
}
