package catalog

import "time"

// User is an actor identity. Users are soft-deletable and never delete
// themselves.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Company is the top of the tenant hierarchy.
type Company struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Slug      string     `json:"slug"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Brand belongs to a company and owns products.
type Brand struct {
	ID        string     `json:"id"`
	CompanyID string     `json:"company_id"`
	Name      string     `json:"name"`
	Slug      string     `json:"slug"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Product carries both its internal id and the numeric key it had in the
// legacy store; expenses and product items reference it by the latter.
// BrandID is empty for products without an owning brand.
type Product struct {
	ID         string     `json:"id"`
	ExternalID int64      `json:"external_id"`
	BrandID    string     `json:"brand_id,omitempty"`
	Name       string     `json:"name"`
	Slug       string     `json:"slug"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}

// ProductItem is a sellable unit of a product.
type ProductItem struct {
	ID         string     `json:"id"`
	ProductRef int64      `json:"product_ref"`
	Name       string     `json:"name"`
	SKU        string     `json:"sku,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}

// Expense records spending attributed to a product.
type Expense struct {
	ID         string     `json:"id"`
	ProductRef int64      `json:"product_ref"`
	TypeID     string     `json:"type_id,omitempty"`
	Name       string     `json:"name"`
	Amount     int64      `json:"amount"`
	Currency   string     `json:"currency"`
	SpentAt    time.Time  `json:"spent_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}

// Gender is an open lookup entity; it is not access-scoped.
type Gender struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ExpenseType is an open lookup entity; it is not access-scoped.
type ExpenseType struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Deleted reports whether the record is trashed.
func (u User) Deleted() bool        { return u.DeletedAt != nil }
func (c Company) Deleted() bool     { return c.DeletedAt != nil }
func (b Brand) Deleted() bool       { return b.DeletedAt != nil }
func (p Product) Deleted() bool     { return p.DeletedAt != nil }
func (i ProductItem) Deleted() bool { return i.DeletedAt != nil }
func (e Expense) Deleted() bool     { return e.DeletedAt != nil }
