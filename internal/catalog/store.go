package catalog

import (
	"context"
	"time"

	"github.com/SergeySPashchenko/report-system/internal/access"
)

// UserStore manages actor identities.
type UserStore interface {
	CreateUser(ctx context.Context, email, name, passwordHash string) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	UpdateUser(ctx context.Context, id string, upd UserUpdate) (User, error)
	SoftDeleteUser(ctx context.Context, id string) error
}

// CompanyStore manages companies. GetCompanyAny includes trashed rows; the
// restore path depends on it.
type CompanyStore interface {
	CreateCompany(ctx context.Context, name, slug string) (Company, error)
	GetCompany(ctx context.Context, id string) (Company, error)
	GetCompanyAny(ctx context.Context, id string) (Company, error)
	GetCompanyBySlug(ctx context.Context, slug string) (Company, error)
	ListCompanies(ctx context.Context, scope access.Scope) ([]Company, error)
	UpdateCompany(ctx context.Context, id string, upd CompanyUpdate) (Company, error)
	SoftDeleteCompany(ctx context.Context, id string) error
	RestoreCompany(ctx context.Context, id string) error
	PurgeCompany(ctx context.Context, id string) error
}

// BrandStore manages brands.
type BrandStore interface {
	CreateBrand(ctx context.Context, companyID, name, slug string) (Brand, error)
	GetBrand(ctx context.Context, id string) (Brand, error)
	GetBrandAny(ctx context.Context, id string) (Brand, error)
	GetBrandBySlug(ctx context.Context, slug string) (Brand, error)
	ListBrands(ctx context.Context, scope access.Scope) ([]Brand, error)
	UpdateBrand(ctx context.Context, id string, upd BrandUpdate) (Brand, error)
	SoftDeleteBrand(ctx context.Context, id string) error
	RestoreBrand(ctx context.Context, id string) error
	PurgeBrand(ctx context.Context, id string) error
}

// ProductStore manages products. GetProductByExternalID resolves the legacy
// numeric key and includes trashed rows because it feeds authorization for
// derived entities.
type ProductStore interface {
	CreateProduct(ctx context.Context, p Product) (Product, error)
	GetProduct(ctx context.Context, id string) (Product, error)
	GetProductAny(ctx context.Context, id string) (Product, error)
	GetProductBySlug(ctx context.Context, slug string) (Product, error)
	GetProductByExternalID(ctx context.Context, externalID int64) (Product, error)
	ListProducts(ctx context.Context, scope access.Scope) ([]Product, error)
	UpdateProduct(ctx context.Context, id string, upd ProductUpdate) (Product, error)
	SoftDeleteProduct(ctx context.Context, id string) error
	RestoreProduct(ctx context.Context, id string) error
	PurgeProduct(ctx context.Context, id string) error
}

// ProductItemStore manages product items.
type ProductItemStore interface {
	CreateProductItem(ctx context.Context, item ProductItem) (ProductItem, error)
	GetProductItem(ctx context.Context, id string) (ProductItem, error)
	GetProductItemAny(ctx context.Context, id string) (ProductItem, error)
	ListProductItems(ctx context.Context, scope access.Scope) ([]ProductItem, error)
	UpdateProductItem(ctx context.Context, id string, upd ProductItemUpdate) (ProductItem, error)
	SoftDeleteProductItem(ctx context.Context, id string) error
	RestoreProductItem(ctx context.Context, id string) error
	PurgeProductItem(ctx context.Context, id string) error
}

// ExpenseStore manages expenses.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, e Expense) (Expense, error)
	GetExpense(ctx context.Context, id string) (Expense, error)
	GetExpenseAny(ctx context.Context, id string) (Expense, error)
	ListExpenses(ctx context.Context, scope access.Scope) ([]Expense, error)
	UpdateExpense(ctx context.Context, id string, upd ExpenseUpdate) (Expense, error)
	SoftDeleteExpense(ctx context.Context, id string) error
	RestoreExpense(ctx context.Context, id string) error
	PurgeExpense(ctx context.Context, id string) error
}

// LookupStore manages the open lookup entities.
type LookupStore interface {
	CreateGender(ctx context.Context, name string) (Gender, error)
	ListGenders(ctx context.Context) ([]Gender, error)
	DeleteGender(ctx context.Context, id string) error
	CreateExpenseType(ctx context.Context, name, slug string) (ExpenseType, error)
	ListExpenseTypes(ctx context.Context) ([]ExpenseType, error)
	DeleteExpenseType(ctx context.Context, id string) error
}

// Store aggregates catalog persistence.
type Store interface {
	UserStore
	CompanyStore
	BrandStore
	ProductStore
	ProductItemStore
	ExpenseStore
	LookupStore
}

// UserUpdate mutates selected user fields.
type UserUpdate struct {
	Email        *string
	Name         *string
	PasswordHash *string
}

// CompanyUpdate mutates selected company fields.
type CompanyUpdate struct {
	Name *string
	Slug *string
}

// BrandUpdate mutates selected brand fields.
type BrandUpdate struct {
	Name *string
	Slug *string
}

// ProductUpdate mutates selected product fields. An empty BrandID clears the
// owning brand.
type ProductUpdate struct {
	Name    *string
	Slug    *string
	BrandID *string
}

// ProductItemUpdate mutates selected item fields.
type ProductItemUpdate struct {
	Name *string
	SKU  *string
}

// ExpenseUpdate mutates selected expense fields.
type ExpenseUpdate struct {
	Name     *string
	Amount   *int64
	Currency *string
	TypeID   *string
	SpentAt  *time.Time
}
