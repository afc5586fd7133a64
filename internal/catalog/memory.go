package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/SergeySPashchenko/report-system/internal/access"
	"github.com/SergeySPashchenko/report-system/internal/ids"
)

// InMemory implements Store with in-process concurrency safety. It backs
// tests and local development; production uses the Postgres store.
type InMemory struct {
	mu           sync.RWMutex
	users        map[string]*User
	companies    map[string]*Company
	brands       map[string]*Brand
	products     map[string]*Product
	items        map[string]*ProductItem
	expenses     map[string]*Expense
	genders      map[string]*Gender
	expenseTypes map[string]*ExpenseType
	nextExternal int64
}

// NewInMemory creates an empty catalog store.
func NewInMemory() *InMemory {
	return &InMemory{
		users:        make(map[string]*User),
		companies:    make(map[string]*Company),
		brands:       make(map[string]*Brand),
		products:     make(map[string]*Product),
		items:        make(map[string]*ProductItem),
		expenses:     make(map[string]*Expense),
		genders:      make(map[string]*Gender),
		expenseTypes: make(map[string]*ExpenseType),
		nextExternal: 1000,
	}
}

var _ Store = (*InMemory)(nil)

// --- users ---

func (s *InMemory) CreateUser(ctx context.Context, email, name, passwordHash string) (User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return User{}, ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email && !u.Deleted() {
			return User{}, ErrConflict
		}
	}
	now := time.Now().UTC()
	u := &User{ID: ids.New(), Email: email, Name: name, PasswordHash: passwordHash, CreatedAt: now, UpdatedAt: now}
	s.users[u.ID] = u
	return *u, nil
}

func (s *InMemory) GetUser(ctx context.Context, id string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok || u.Deleted() {
		return User{}, ErrNotFound
	}
	return *u, nil
}

func (s *InMemory) GetUserByEmail(ctx context.Context, email string) (User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email && !u.Deleted() {
			return *u, nil
		}
	}
	return User{}, ErrNotFound
}

func (s *InMemory) UpdateUser(ctx context.Context, id string, upd UserUpdate) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || u.Deleted() {
		return User{}, ErrNotFound
	}
	if upd.Email != nil {
		u.Email = strings.TrimSpace(strings.ToLower(*upd.Email))
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	u.UpdatedAt = time.Now().UTC()
	return *u, nil
}

func (s *InMemory) SoftDeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || u.Deleted() {
		return ErrNotFound
	}
	now := time.Now().UTC()
	u.DeletedAt = &now
	return nil
}

// --- companies ---

func (s *InMemory) CreateCompany(ctx context.Context, name, slug string) (Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Company{}, ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.companies {
		if c.Name == name {
			return Company{}, ErrConflict
		}
	}
	now := time.Now().UTC()
	c := &Company{ID: ids.New(), Name: name, Slug: slug, CreatedAt: now, UpdatedAt: now}
	s.companies[c.ID] = c
	return *c, nil
}

func (s *InMemory) GetCompany(ctx context.Context, id string) (Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.companies[id]
	if !ok || c.Deleted() {
		return Company{}, ErrNotFound
	}
	return *c, nil
}

func (s *InMemory) GetCompanyAny(ctx context.Context, id string) (Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.companies[id]
	if !ok {
		return Company{}, ErrNotFound
	}
	return *c, nil
}

func (s *InMemory) GetCompanyBySlug(ctx context.Context, slug string) (Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.companies {
		if c.Slug == slug && !c.Deleted() {
			return *c, nil
		}
	}
	return Company{}, ErrNotFound
}

func (s *InMemory) ListCompanies(ctx context.Context, scope access.Scope) ([]Company, error) {
	if scope.Mode() == access.ScopeEmpty {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Company
	for _, c := range s.companies {
		if c.Deleted() {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *InMemory) UpdateCompany(ctx context.Context, id string, upd CompanyUpdate) (Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.companies[id]
	if !ok || c.Deleted() {
		return Company{}, ErrNotFound
	}
	if upd.Name != nil {
		c.Name = *upd.Name
	}
	if upd.Slug != nil {
		c.Slug = *upd.Slug
	}
	c.UpdatedAt = time.Now().UTC()
	return *c, nil
}

func (s *InMemory) SoftDeleteCompany(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.companies[id]
	if !ok || c.Deleted() {
		return ErrNotFound
	}
	now := time.Now().UTC()
	c.DeletedAt = &now
	return nil
}

func (s *InMemory) RestoreCompany(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.companies[id]
	if !ok || !c.Deleted() {
		return ErrNotFound
	}
	c.DeletedAt = nil
	c.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *InMemory) PurgeCompany(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.companies[id]; !ok {
		return ErrNotFound
	}
	delete(s.companies, id)
	return nil
}

// --- brands ---

func (s *InMemory) CreateBrand(ctx context.Context, companyID, name, slug string) (Brand, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Brand{}, ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	b := &Brand{ID: ids.New(), CompanyID: companyID, Name: name, Slug: slug, CreatedAt: now, UpdatedAt: now}
	s.brands[b.ID] = b
	return *b, nil
}

func (s *InMemory) GetBrand(ctx context.Context, id string) (Brand, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.brands[id]
	if !ok || b.Deleted() {
		return Brand{}, ErrNotFound
	}
	return *b, nil
}

func (s *InMemory) GetBrandAny(ctx context.Context, id string) (Brand, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.brands[id]
	if !ok {
		return Brand{}, ErrNotFound
	}
	return *b, nil
}

func (s *InMemory) GetBrandBySlug(ctx context.Context, slug string) (Brand, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.brands {
		if b.Slug == slug && !b.Deleted() {
			return *b, nil
		}
	}
	return Brand{}, ErrNotFound
}

func (s *InMemory) ListBrands(ctx context.Context, scope access.Scope) ([]Brand, error) {
	if scope.Mode() == access.ScopeEmpty {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Brand
	for _, b := range s.brands {
		if b.Deleted() {
			continue
		}
		if scope.Mode() == access.ScopeBrandIDs && !scope.Contains(b.ID) {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *InMemory) UpdateBrand(ctx context.Context, id string, upd BrandUpdate) (Brand, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.brands[id]
	if !ok || b.Deleted() {
		return Brand{}, ErrNotFound
	}
	if upd.Name != nil {
		b.Name = *upd.Name
	}
	if upd.Slug != nil {
		b.Slug = *upd.Slug
	}
	b.UpdatedAt = time.Now().UTC()
	return *b, nil
}

func (s *InMemory) SoftDeleteBrand(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.brands[id]
	if !ok || b.Deleted() {
		return ErrNotFound
	}
	now := time.Now().UTC()
	b.DeletedAt = &now
	return nil
}

func (s *InMemory) RestoreBrand(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.brands[id]
	if !ok || !b.Deleted() {
		return ErrNotFound
	}
	b.DeletedAt = nil
	b.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *InMemory) PurgeBrand(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.brands[id]; !ok {
		return ErrNotFound
	}
	delete(s.brands, id)
	return nil
}

// --- products ---

func (s *InMemory) CreateProduct(ctx context.Context, p Product) (Product, error) {
	if strings.TrimSpace(p.Name) == "" {
		return Product{}, ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	p.ID = ids.New()
	if p.ExternalID == 0 {
		s.nextExternal++
		p.ExternalID = s.nextExternal
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	p.DeletedAt = nil
	stored := p
	s.products[p.ID] = &stored
	return p, nil
}

func (s *InMemory) GetProduct(ctx context.Context, id string) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok || p.Deleted() {
		return Product{}, ErrNotFound
	}
	return *p, nil
}

func (s *InMemory) GetProductAny(ctx context.Context, id string) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return *p, nil
}

func (s *InMemory) GetProductBySlug(ctx context.Context, slug string) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.Slug == slug && !p.Deleted() {
			return *p, nil
		}
	}
	return Product{}, ErrNotFound
}

func (s *InMemory) GetProductByExternalID(ctx context.Context, externalID int64) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.ExternalID == externalID {
			return *p, nil
		}
	}
	return Product{}, ErrNotFound
}

func (s *InMemory) ListProducts(ctx context.Context, scope access.Scope) ([]Product, error) {
	if scope.Mode() == access.ScopeEmpty {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Product
	for _, p := range s.products {
		if p.Deleted() || !s.productInScope(*p, scope) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// productInScope applies the scope the way the SQL path does.
func (s *InMemory) productInScope(p Product, scope access.Scope) bool {
	switch scope.Mode() {
	case access.ScopeUnrestricted:
		return true
	case access.ScopeProductIDs:
		return scope.Contains(p.ID)
	case access.ScopeBrandIDs:
		return p.BrandID != "" && scope.Contains(p.BrandID)
	default:
		return false
	}
}

// refInScope resolves the legacy product key and applies the scope; derived
// entities stay visible even when the owning product row is trashed.
func (s *InMemory) refInScope(productRef int64, scope access.Scope) bool {
	if scope.Mode() == access.ScopeUnrestricted {
		return true
	}
	for _, p := range s.products {
		if p.ExternalID == productRef {
			return s.productInScope(*p, scope)
		}
	}
	return false
}

func (s *InMemory) UpdateProduct(ctx context.Context, id string, upd ProductUpdate) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok || p.Deleted() {
		return Product{}, ErrNotFound
	}
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Slug != nil {
		p.Slug = *upd.Slug
	}
	if upd.BrandID != nil {
		p.BrandID = *upd.BrandID
	}
	p.UpdatedAt = time.Now().UTC()
	return *p, nil
}

func (s *InMemory) SoftDeleteProduct(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok || p.Deleted() {
		return ErrNotFound
	}
	now := time.Now().UTC()
	p.DeletedAt = &now
	return nil
}

func (s *InMemory) RestoreProduct(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok || !p.Deleted() {
		return ErrNotFound
	}
	p.DeletedAt = nil
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *InMemory) PurgeProduct(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return ErrNotFound
	}
	delete(s.products, id)
	return nil
}

// --- product items ---

func (s *InMemory) CreateProductItem(ctx context.Context, item ProductItem) (ProductItem, error) {
	if strings.TrimSpace(item.Name) == "" || item.ProductRef == 0 {
		return ProductItem{}, ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	item.ID = ids.New()
	item.CreatedAt = now
	item.UpdatedAt = now
	item.DeletedAt = nil
	stored := item
	s.items[item.ID] = &stored
	return item, nil
}

func (s *InMemory) GetProductItem(ctx context.Context, id string) (ProductItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	if !ok || it.Deleted() {
		return ProductItem{}, ErrNotFound
	}
	return *it, nil
}

func (s *InMemory) GetProductItemAny(ctx context.Context, id string) (ProductItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	if !ok {
		return ProductItem{}, ErrNotFound
	}
	return *it, nil
}

func (s *InMemory) ListProductItems(ctx context.Context, scope access.Scope) ([]ProductItem, error) {
	if scope.Mode() == access.ScopeEmpty {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []ProductItem
	for _, it := range s.items {
		if it.Deleted() || !s.refInScope(it.ProductRef, scope) {
			continue
		}
		out = append(out, *it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *InMemory) UpdateProductItem(ctx context.Context, id string, upd ProductItemUpdate) (ProductItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok || it.Deleted() {
		return ProductItem{}, ErrNotFound
	}
	if upd.Name != nil {
		it.Name = *upd.Name
	}
	if upd.SKU != nil {
		it.SKU = *upd.SKU
	}
	it.UpdatedAt = time.Now().UTC()
	return *it, nil
}

func (s *InMemory) SoftDeleteProductItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok || it.Deleted() {
		return ErrNotFound
	}
	now := time.Now().UTC()
	it.DeletedAt = &now
	return nil
}

func (s *InMemory) RestoreProductItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok || !it.Deleted() {
		return ErrNotFound
	}
	it.DeletedAt = nil
	it.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *InMemory) PurgeProductItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return ErrNotFound
	}
	delete(s.items, id)
	return nil
}

// --- expenses ---

func (s *InMemory) CreateExpense(ctx context.Context, e Expense) (Expense, error) {
	if strings.TrimSpace(e.Name) == "" || e.ProductRef == 0 {
		return Expense{}, ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	e.ID = ids.New()
	e.CreatedAt = now
	e.UpdatedAt = now
	e.DeletedAt = nil
	if e.SpentAt.IsZero() {
		e.SpentAt = now
	}
	stored := e
	s.expenses[e.ID] = &stored
	return e, nil
}

func (s *InMemory) GetExpense(ctx context.Context, id string) (Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.expenses[id]
	if !ok || e.Deleted() {
		return Expense{}, ErrNotFound
	}
	return *e, nil
}

func (s *InMemory) GetExpenseAny(ctx context.Context, id string) (Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.expenses[id]
	if !ok {
		return Expense{}, ErrNotFound
	}
	return *e, nil
}

func (s *InMemory) ListExpenses(ctx context.Context, scope access.Scope) ([]Expense, error) {
	if scope.Mode() == access.ScopeEmpty {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Expense
	for _, e := range s.expenses {
		if e.Deleted() || !s.refInScope(e.ProductRef, scope) {
			continue
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SpentAt.Before(out[j].SpentAt) })
	return out, nil
}

func (s *InMemory) UpdateExpense(ctx context.Context, id string, upd ExpenseUpdate) (Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok || e.Deleted() {
		return Expense{}, ErrNotFound
	}
	if upd.Name != nil {
		e.Name = *upd.Name
	}
	if upd.Amount != nil {
		e.Amount = *upd.Amount
	}
	if upd.Currency != nil {
		e.Currency = *upd.Currency
	}
	if upd.TypeID != nil {
		e.TypeID = *upd.TypeID
	}
	if upd.SpentAt != nil {
		e.SpentAt = *upd.SpentAt
	}
	e.UpdatedAt = time.Now().UTC()
	return *e, nil
}

func (s *InMemory) SoftDeleteExpense(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok || e.Deleted() {
		return ErrNotFound
	}
	now := time.Now().UTC()
	e.DeletedAt = &now
	return nil
}

func (s *InMemory) RestoreExpense(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok || !e.Deleted() {
		return ErrNotFound
	}
	e.DeletedAt = nil
	e.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *InMemory) PurgeExpense(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[id]; !ok {
		return ErrNotFound
	}
	delete(s.expenses, id)
	return nil
}

// --- lookups ---

func (s *InMemory) CreateGender(ctx context.Context, name string) (Gender, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Gender{}, ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g := &Gender{ID: ids.New(), Name: name}
	s.genders[g.ID] = g
	return *g, nil
}

func (s *InMemory) ListGenders(ctx context.Context) ([]Gender, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Gender
	for _, g := range s.genders {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *InMemory) DeleteGender(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.genders[id]; !ok {
		return ErrNotFound
	}
	delete(s.genders, id)
	return nil
}

func (s *InMemory) CreateExpenseType(ctx context.Context, name, slug string) (ExpenseType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return ExpenseType{}, ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &ExpenseType{ID: ids.New(), Name: name, Slug: slug}
	s.expenseTypes[t.ID] = t
	return *t, nil
}

func (s *InMemory) ListExpenseTypes(ctx context.Context) ([]ExpenseType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []ExpenseType
	for _, t := range s.expenseTypes {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *InMemory) DeleteExpenseType(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenseTypes[id]; !ok {
		return ErrNotFound
	}
	delete(s.expenseTypes, id)
	return nil
}
