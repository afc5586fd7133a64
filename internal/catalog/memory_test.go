package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/SergeySPashchenko/report-system/internal/access"
)

func TestProductLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()

	p, err := store.CreateProduct(ctx, Product{Name: "Widget", Slug: "widget"})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if p.ExternalID == 0 {
		t.Fatal("expected an assigned external id")
	}

	if err := store.SoftDeleteProduct(ctx, p.ID); err != nil {
		t.Fatalf("SoftDeleteProduct: %v", err)
	}
	if _, err := store.GetProduct(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("trashed product must be hidden from live reads: %v", err)
	}
	trashed, err := store.GetProductAny(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProductAny: %v", err)
	}
	if !trashed.Deleted() {
		t.Fatal("GetProductAny must surface the trashed row")
	}

	// The legacy-key lookup keeps working while the product is trashed; the
	// authorization chain of derived rows depends on it.
	if _, err := store.GetProductByExternalID(ctx, p.ExternalID); err != nil {
		t.Fatalf("GetProductByExternalID on trashed product: %v", err)
	}

	if err := store.RestoreProduct(ctx, p.ID); err != nil {
		t.Fatalf("RestoreProduct: %v", err)
	}
	restored, err := store.GetProduct(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProduct after restore: %v", err)
	}
	if restored.Deleted() {
		t.Fatal("restore must clear the deletion mark")
	}

	if err := store.PurgeProduct(ctx, p.ID); err != nil {
		t.Fatalf("PurgeProduct: %v", err)
	}
	if _, err := store.GetProductAny(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("purged product must be gone: %v", err)
	}
}

func TestDerivedRowsVisibleWhileOwnerTrashed(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()

	p, err := store.CreateProduct(ctx, Product{Name: "Widget", Slug: "widget"})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	e, err := store.CreateExpense(ctx, Expense{ProductRef: p.ExternalID, Name: "Ads", Amount: 5, Currency: "USD"})
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	if err := store.SoftDeleteProduct(ctx, p.ID); err != nil {
		t.Fatalf("SoftDeleteProduct: %v", err)
	}

	// Visibility of the expense is decided by grants, not by the owner's
	// trash state.
	listed, err := store.ListExpenses(ctx, access.ByProductIDs([]string{p.ID}))
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != e.ID {
		t.Fatalf("expense must stay listed while its owner is trashed, got %d rows", len(listed))
	}
}

func TestEmptyScopeShortCircuits(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()
	if _, err := store.CreateProduct(ctx, Product{Name: "Widget", Slug: "widget"}); err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	products, err := store.ListProducts(ctx, access.Empty())
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if products != nil {
		t.Fatalf("empty scope must list nothing, got %d", len(products))
	}
	expenses, err := store.ListExpenses(ctx, access.Empty())
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if expenses != nil {
		t.Fatalf("empty scope must list nothing, got %d", len(expenses))
	}
}

func TestCompanyConflictsOnName(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()
	if _, err := store.CreateCompany(ctx, "Acme", "acme"); err != nil {
		t.Fatalf("CreateCompany: %v", err)
	}
	if _, err := store.CreateCompany(ctx, "Acme", "acme-2"); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate company name: expected ErrConflict, got %v", err)
	}
}

func TestUserEmailLookup(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()
	u, err := store.CreateUser(ctx, "Dev@Example.COM", "Dev", "hash")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	found, err := store.GetUserByEmail(ctx, "dev@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if found.ID != u.ID {
		t.Fatal("email lookup must be case-insensitive")
	}
	if _, err := store.CreateUser(ctx, "dev@example.com", "Other", "hash"); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate email: expected ErrConflict, got %v", err)
	}
}

func TestBrandScopeFiltersListing(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()
	company, err := store.CreateCompany(ctx, "Acme", "acme")
	if err != nil {
		t.Fatalf("CreateCompany: %v", err)
	}
	a, err := store.CreateBrand(ctx, company.ID, "Alpha", "alpha")
	if err != nil {
		t.Fatalf("CreateBrand: %v", err)
	}
	if _, err := store.CreateBrand(ctx, company.ID, "Beta", "beta"); err != nil {
		t.Fatalf("CreateBrand: %v", err)
	}

	brands, err := store.ListBrands(ctx, access.ByBrandIDs([]string{a.ID}))
	if err != nil {
		t.Fatalf("ListBrands: %v", err)
	}
	if len(brands) != 1 || brands[0].ID != a.ID {
		t.Fatalf("expected only the scoped brand, got %d rows", len(brands))
	}

	all, err := store.ListBrands(ctx, access.Unrestricted())
	if err != nil {
		t.Fatalf("ListBrands unrestricted: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected both brands, got %d", len(all))
	}
}
