package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/SergeySPashchenko/report-system/internal/access"
	"github.com/SergeySPashchenko/report-system/internal/catalog"
)

func productRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "external_id", "brand_id", "name", "slug", "created_at", "updated_at", "deleted_at"}).
		AddRow("p1", int64(101), "b1", "Widget", "widget", now, now, nil)
}

func TestListProductsScopeTranslation(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	// Empty scope: no query at all.
	products, err := store.ListProducts(ctx, access.Empty())
	if err != nil {
		t.Fatalf("ListProducts empty: %v", err)
	}
	if products != nil {
		t.Fatalf("empty scope must not touch the database, got %d rows", len(products))
	}

	// Product-id scope becomes an IN clause.
	mock.ExpectQuery(`(?s)select .* from products.*id in \(\$1, \$2\)`).
		WithArgs("p1", "p2").
		WillReturnRows(productRows(now))
	products, err = store.ListProducts(ctx, access.ByProductIDs([]string{"p1", "p2"}))
	if err != nil {
		t.Fatalf("ListProducts by products: %v", err)
	}
	if len(products) != 1 || products[0].ID != "p1" {
		t.Fatalf("unexpected rows: %+v", products)
	}

	// Brand scope filters on brand_id.
	mock.ExpectQuery(`(?s)select .* from products.*brand_id in \(\$1\)`).
		WithArgs("b1").
		WillReturnRows(productRows(now))
	if _, err := store.ListProducts(ctx, access.ByBrandIDs([]string{"b1"})); err != nil {
		t.Fatalf("ListProducts by brands: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListExpensesTranslatesThroughLegacyKey(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	// The scope names product ids; the clause maps them to the numeric key
	// referenced by the expense rows.
	mock.ExpectQuery(`(?s)select .* from expenses e.*e\.product_ref in \(select external_id from products where id in \(\$1\)\)`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_ref", "type_id", "name", "amount", "currency", "spent_at", "created_at", "updated_at", "deleted_at"}).
			AddRow("e1", int64(101), nil, "Ads", int64(500), "USD", now, now, now, nil))

	expenses, err := store.ListExpenses(context.Background(), access.ByProductIDs([]string{"p1"}))
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(expenses) != 1 || expenses[0].ProductRef != 101 {
		t.Fatalf("unexpected rows: %+v", expenses)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetProductByExternalIDIncludesTrashed(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()
	deleted := now.Add(-time.Hour)

	mock.ExpectQuery("select .* from products where external_id").
		WithArgs(int64(101)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "external_id", "brand_id", "name", "slug", "created_at", "updated_at", "deleted_at"}).
			AddRow("p1", int64(101), nil, "Widget", "widget", now, now, deleted))

	p, err := store.GetProductByExternalID(context.Background(), 101)
	if err != nil {
		t.Fatalf("GetProductByExternalID: %v", err)
	}
	if !p.Deleted() {
		t.Fatal("trashed row must be returned")
	}
	if p.BrandID != "" {
		t.Fatalf("null brand must map to empty string, got %q", p.BrandID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSoftDeleteProductNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("update products set deleted_at").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.SoftDeleteProduct(context.Background(), "missing"); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
