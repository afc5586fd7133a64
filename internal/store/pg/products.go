package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/SergeySPashchenko/report-system/internal/access"
	"github.com/SergeySPashchenko/report-system/internal/catalog"
	"github.com/SergeySPashchenko/report-system/internal/ids"
)

var (
	_ catalog.ProductStore     = (*Store)(nil)
	_ catalog.ProductItemStore = (*Store)(nil)
	_ catalog.ExpenseStore     = (*Store)(nil)
	_ catalog.LookupStore      = (*Store)(nil)
)

const productColumns = `id, external_id, brand_id, name, slug, created_at, updated_at, deleted_at`

func scanProduct(row interface{ Scan(...any) error }) (catalog.Product, error) {
	var (
		p       catalog.Product
		brandID sql.NullString
	)
	err := row.Scan(&p.ID, &p.ExternalID, &brandID, &p.Name, &p.Slug, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt)
	if err != nil {
		return catalog.Product{}, err
	}
	if brandID.Valid {
		p.BrandID = brandID.String
	}
	return p, nil
}

func (s *Store) CreateProduct(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	if s.db == nil {
		return catalog.Product{}, errors.New("database connection unavailable")
	}
	row := s.db.QueryRowContext(ctx, `
		insert into products (id, external_id, brand_id, name, slug)
		values ($1, $2, $3, $4, $5)
		returning `+productColumns+`
	`, ids.New(), p.ExternalID, nullIfEmpty(p.BrandID), p.Name, p.Slug)
	created, err := scanProduct(row)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok {
			switch pgErr.Code {
			case pgErrUniqueViolation:
				return catalog.Product{}, catalog.ErrConflict
			case pgErrForeignKeyViolation:
				return catalog.Product{}, catalog.ErrNotFound
			}
		}
		return catalog.Product{}, err
	}
	return created, nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (catalog.Product, error) {
	return s.productBy(ctx, "id = $1 and deleted_at is null", id)
}

func (s *Store) GetProductAny(ctx context.Context, id string) (catalog.Product, error) {
	return s.productBy(ctx, "id = $1", id)
}

func (s *Store) GetProductBySlug(ctx context.Context, slug string) (catalog.Product, error) {
	return s.productBy(ctx, "slug = $1 and deleted_at is null", slug)
}

// GetProductByExternalID includes trashed rows: it resolves the owning
// product for authorization of derived entities, and that chain must keep
// working while the product itself is in the trash.
func (s *Store) GetProductByExternalID(ctx context.Context, externalID int64) (catalog.Product, error) {
	if s.db == nil {
		return catalog.Product{}, errors.New("database connection unavailable")
	}
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`select %s from products where external_id = $1`, productColumns), externalID)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Product{}, catalog.ErrNotFound
	}
	if err != nil {
		return catalog.Product{}, err
	}
	return p, nil
}

func (s *Store) productBy(ctx context.Context, cond, arg string) (catalog.Product, error) {
	if s.db == nil {
		return catalog.Product{}, errors.New("database connection unavailable")
	}
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`select %s from products where %s`, productColumns, cond), arg)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Product{}, catalog.ErrNotFound
	}
	if err != nil {
		return catalog.Product{}, err
	}
	return p, nil
}

func (s *Store) ListProducts(ctx context.Context, scope access.Scope) ([]catalog.Product, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	var (
		where = "deleted_at is null"
		args  []any
	)
	switch scope.Mode() {
	case access.ScopeEmpty:
		return nil, nil
	case access.ScopeUnrestricted:
	case access.ScopeProductIDs:
		ids := scope.IDs()
		where += fmt.Sprintf(" and id in (%s)", placeholders(1, len(ids)))
		args = stringArgs(ids)
	case access.ScopeBrandIDs:
		ids := scope.IDs()
		where += fmt.Sprintf(" and brand_id in (%s)", placeholders(1, len(ids)))
		args = stringArgs(ids)
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		select %s from products
		where %s
		order by name
	`, productColumns, where), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) UpdateProduct(ctx context.Context, id string, upd catalog.ProductUpdate) (catalog.Product, error) {
	if s.db == nil {
		return catalog.Product{}, errors.New("database connection unavailable")
	}
	var (
		sets []string
		args []any
		idx  = 1
	)
	if upd.Name != nil {
		sets = append(sets, fmt.Sprintf("name = $%d", idx))
		args = append(args, *upd.Name)
		idx++
	}
	if upd.Slug != nil {
		sets = append(sets, fmt.Sprintf("slug = $%d", idx))
		args = append(args, *upd.Slug)
		idx++
	}
	if upd.BrandID != nil {
		if *upd.BrandID == "" {
			sets = append(sets, "brand_id = null")
		} else {
			sets = append(sets, fmt.Sprintf("brand_id = $%d", idx))
			args = append(args, *upd.BrandID)
			idx++
		}
	}
	if len(sets) > 0 {
		sets = append(sets, "updated_at = now()")
		query := fmt.Sprintf(`update products set %s where id = $%d and deleted_at is null`, strings.Join(sets, ", "), idx)
		args = append(args, id)
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
				return catalog.Product{}, catalog.ErrNotFound
			}
			return catalog.Product{}, err
		}
		aff, err := res.RowsAffected()
		if err != nil {
			return catalog.Product{}, err
		}
		if aff == 0 {
			return catalog.Product{}, catalog.ErrNotFound
		}
	}
	return s.GetProduct(ctx, id)
}

func (s *Store) SoftDeleteProduct(ctx context.Context, id string) error {
	return s.softDelete(ctx, "products", id)
}

func (s *Store) RestoreProduct(ctx context.Context, id string) error {
	return s.restore(ctx, "products", id)
}

func (s *Store) PurgeProduct(ctx context.Context, id string) error {
	return s.purge(ctx, "products", id)
}

// scopeRefClause narrows product_ref columns through the legacy numeric key
// mapping. The subquery does not filter trashed products: visibility of a
// derived row is decided by the grants, not by the owner's trash state.
func scopeRefClause(scope access.Scope, alias string) (string, []any, bool) {
	switch scope.Mode() {
	case access.ScopeUnrestricted:
		return "", nil, true
	case access.ScopeProductIDs:
		ids := scope.IDs()
		clause := fmt.Sprintf(
			"%s.product_ref in (select external_id from products where id in (%s))",
			alias, placeholders(1, len(ids)))
		return clause, stringArgs(ids), true
	case access.ScopeBrandIDs:
		ids := scope.IDs()
		clause := fmt.Sprintf(
			"%s.product_ref in (select external_id from products where brand_id in (%s))",
			alias, placeholders(1, len(ids)))
		return clause, stringArgs(ids), true
	default:
		return "", nil, false
	}
}

// --- product items ---

const itemColumns = `id, product_ref, name, sku, created_at, updated_at, deleted_at`

func scanItem(row interface{ Scan(...any) error }) (catalog.ProductItem, error) {
	var (
		it  catalog.ProductItem
		sku sql.NullString
	)
	err := row.Scan(&it.ID, &it.ProductRef, &it.Name, &sku, &it.CreatedAt, &it.UpdatedAt, &it.DeletedAt)
	if err != nil {
		return catalog.ProductItem{}, err
	}
	if sku.Valid {
		it.SKU = sku.String
	}
	return it, nil
}

func (s *Store) CreateProductItem(ctx context.Context, item catalog.ProductItem) (catalog.ProductItem, error) {
	if s.db == nil {
		return catalog.ProductItem{}, errors.New("database connection unavailable")
	}
	row := s.db.QueryRowContext(ctx, `
		insert into product_items (id, product_ref, name, sku)
		values ($1, $2, $3, $4)
		returning `+itemColumns+`
	`, ids.New(), item.ProductRef, item.Name, nullIfEmpty(item.SKU))
	created, err := scanItem(row)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
			return catalog.ProductItem{}, catalog.ErrNotFound
		}
		return catalog.ProductItem{}, err
	}
	return created, nil
}

func (s *Store) GetProductItem(ctx context.Context, id string) (catalog.ProductItem, error) {
	return s.itemBy(ctx, "id = $1 and deleted_at is null", id)
}

func (s *Store) GetProductItemAny(ctx context.Context, id string) (catalog.ProductItem, error) {
	return s.itemBy(ctx, "id = $1", id)
}

func (s *Store) itemBy(ctx context.Context, cond, arg string) (catalog.ProductItem, error) {
	if s.db == nil {
		return catalog.ProductItem{}, errors.New("database connection unavailable")
	}
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`select %s from product_items where %s`, itemColumns, cond), arg)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.ProductItem{}, catalog.ErrNotFound
	}
	if err != nil {
		return catalog.ProductItem{}, err
	}
	return it, nil
}

func (s *Store) ListProductItems(ctx context.Context, scope access.Scope) ([]catalog.ProductItem, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	clause, args, visible := scopeRefClause(scope, "i")
	if !visible {
		return nil, nil
	}
	where := "i.deleted_at is null"
	if clause != "" {
		where += " and " + clause
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		select i.id, i.product_ref, i.name, i.sku, i.created_at, i.updated_at, i.deleted_at
		from product_items i
		where %s
		order by i.name
	`, where), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.ProductItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) UpdateProductItem(ctx context.Context, id string, upd catalog.ProductItemUpdate) (catalog.ProductItem, error) {
	if s.db == nil {
		return catalog.ProductItem{}, errors.New("database connection unavailable")
	}
	var (
		sets []string
		args []any
		idx  = 1
	)
	if upd.Name != nil {
		sets = append(sets, fmt.Sprintf("name = $%d", idx))
		args = append(args, *upd.Name)
		idx++
	}
	if upd.SKU != nil {
		sets = append(sets, fmt.Sprintf("sku = $%d", idx))
		args = append(args, nullIfEmpty(*upd.SKU))
		idx++
	}
	if len(sets) > 0 {
		sets = append(sets, "updated_at = now()")
		query := fmt.Sprintf(`update product_items set %s where id = $%d and deleted_at is null`, strings.Join(sets, ", "), idx)
		args = append(args, id)
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return catalog.ProductItem{}, err
		}
		aff, err := res.RowsAffected()
		if err != nil {
			return catalog.ProductItem{}, err
		}
		if aff == 0 {
			return catalog.ProductItem{}, catalog.ErrNotFound
		}
	}
	return s.GetProductItem(ctx, id)
}

func (s *Store) SoftDeleteProductItem(ctx context.Context, id string) error {
	return s.softDelete(ctx, "product_items", id)
}

func (s *Store) RestoreProductItem(ctx context.Context, id string) error {
	return s.restore(ctx, "product_items", id)
}

func (s *Store) PurgeProductItem(ctx context.Context, id string) error {
	return s.purge(ctx, "product_items", id)
}

// --- expenses ---

const expenseColumns = `id, product_ref, type_id, name, amount, currency, spent_at, created_at, updated_at, deleted_at`

func scanExpense(row interface{ Scan(...any) error }) (catalog.Expense, error) {
	var (
		e      catalog.Expense
		typeID sql.NullString
	)
	err := row.Scan(&e.ID, &e.ProductRef, &typeID, &e.Name, &e.Amount, &e.Currency, &e.SpentAt, &e.CreatedAt, &e.UpdatedAt, &e.DeletedAt)
	if err != nil {
		return catalog.Expense{}, err
	}
	if typeID.Valid {
		e.TypeID = typeID.String
	}
	return e, nil
}

func (s *Store) CreateExpense(ctx context.Context, e catalog.Expense) (catalog.Expense, error) {
	if s.db == nil {
		return catalog.Expense{}, errors.New("database connection unavailable")
	}
	row := s.db.QueryRowContext(ctx, `
		insert into expenses (id, product_ref, type_id, name, amount, currency, spent_at)
		values ($1, $2, $3, $4, $5, $6, coalesce($7, now()))
		returning `+expenseColumns+`
	`, ids.New(), e.ProductRef, nullIfEmpty(e.TypeID), e.Name, e.Amount, e.Currency, nullableTime(e))
	created, err := scanExpense(row)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
			return catalog.Expense{}, catalog.ErrNotFound
		}
		return catalog.Expense{}, err
	}
	return created, nil
}

func nullableTime(e catalog.Expense) any {
	if e.SpentAt.IsZero() {
		return nil
	}
	return e.SpentAt
}

func (s *Store) GetExpense(ctx context.Context, id string) (catalog.Expense, error) {
	return s.expenseBy(ctx, "id = $1 and deleted_at is null", id)
}

func (s *Store) GetExpenseAny(ctx context.Context, id string) (catalog.Expense, error) {
	return s.expenseBy(ctx, "id = $1", id)
}

func (s *Store) expenseBy(ctx context.Context, cond, arg string) (catalog.Expense, error) {
	if s.db == nil {
		return catalog.Expense{}, errors.New("database connection unavailable")
	}
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`select %s from expenses where %s`, expenseColumns, cond), arg)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Expense{}, catalog.ErrNotFound
	}
	if err != nil {
		return catalog.Expense{}, err
	}
	return e, nil
}

func (s *Store) ListExpenses(ctx context.Context, scope access.Scope) ([]catalog.Expense, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	clause, args, visible := scopeRefClause(scope, "e")
	if !visible {
		return nil, nil
	}
	where := "e.deleted_at is null"
	if clause != "" {
		where += " and " + clause
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		select e.id, e.product_ref, e.type_id, e.name, e.amount, e.currency, e.spent_at, e.created_at, e.updated_at, e.deleted_at
		from expenses e
		where %s
		order by e.spent_at
	`, where), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) UpdateExpense(ctx context.Context, id string, upd catalog.ExpenseUpdate) (catalog.Expense, error) {
	if s.db == nil {
		return catalog.Expense{}, errors.New("database connection unavailable")
	}
	var (
		sets []string
		args []any
		idx  = 1
	)
	if upd.Name != nil {
		sets = append(sets, fmt.Sprintf("name = $%d", idx))
		args = append(args, *upd.Name)
		idx++
	}
	if upd.Amount != nil {
		sets = append(sets, fmt.Sprintf("amount = $%d", idx))
		args = append(args, *upd.Amount)
		idx++
	}
	if upd.Currency != nil {
		sets = append(sets, fmt.Sprintf("currency = $%d", idx))
		args = append(args, *upd.Currency)
		idx++
	}
	if upd.TypeID != nil {
		sets = append(sets, fmt.Sprintf("type_id = $%d", idx))
		args = append(args, nullIfEmpty(*upd.TypeID))
		idx++
	}
	if upd.SpentAt != nil {
		sets = append(sets, fmt.Sprintf("spent_at = $%d", idx))
		args = append(args, *upd.SpentAt)
		idx++
	}
	if len(sets) > 0 {
		sets = append(sets, "updated_at = now()")
		query := fmt.Sprintf(`update expenses set %s where id = $%d and deleted_at is null`, strings.Join(sets, ", "), idx)
		args = append(args, id)
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return catalog.Expense{}, err
		}
		aff, err := res.RowsAffected()
		if err != nil {
			return catalog.Expense{}, err
		}
		if aff == 0 {
			return catalog.Expense{}, catalog.ErrNotFound
		}
	}
	return s.GetExpense(ctx, id)
}

func (s *Store) SoftDeleteExpense(ctx context.Context, id string) error {
	return s.softDelete(ctx, "expenses", id)
}

func (s *Store) RestoreExpense(ctx context.Context, id string) error {
	return s.restore(ctx, "expenses", id)
}

func (s *Store) PurgeExpense(ctx context.Context, id string) error {
	return s.purge(ctx, "expenses", id)
}

// --- lookups ---

func (s *Store) CreateGender(ctx context.Context, name string) (catalog.Gender, error) {
	if s.db == nil {
		return catalog.Gender{}, errors.New("database connection unavailable")
	}
	var g catalog.Gender
	row := s.db.QueryRowContext(ctx, `
		insert into genders (id, name)
		values ($1, $2)
		returning id, name
	`, ids.New(), name)
	if err := row.Scan(&g.ID, &g.Name); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return catalog.Gender{}, catalog.ErrConflict
		}
		return catalog.Gender{}, err
	}
	return g, nil
}

func (s *Store) ListGenders(ctx context.Context) ([]catalog.Gender, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	rows, err := s.db.QueryContext(ctx, `select id, name from genders order by name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.Gender
	for rows.Next() {
		var g catalog.Gender
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) DeleteGender(ctx context.Context, id string) error {
	return s.purge(ctx, "genders", id)
}

func (s *Store) CreateExpenseType(ctx context.Context, name, slug string) (catalog.ExpenseType, error) {
	if s.db == nil {
		return catalog.ExpenseType{}, errors.New("database connection unavailable")
	}
	var t catalog.ExpenseType
	row := s.db.QueryRowContext(ctx, `
		insert into expense_types (id, name, slug)
		values ($1, $2, $3)
		returning id, name, slug
	`, ids.New(), name, slug)
	if err := row.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return catalog.ExpenseType{}, catalog.ErrConflict
		}
		return catalog.ExpenseType{}, err
	}
	return t, nil
}

func (s *Store) ListExpenseTypes(ctx context.Context) ([]catalog.ExpenseType, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	rows, err := s.db.QueryContext(ctx, `select id, name, slug from expense_types order by name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.ExpenseType
	for rows.Next() {
		var t catalog.ExpenseType
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) DeleteExpenseType(ctx context.Context, id string) error {
	return s.purge(ctx, "expense_types", id)
}
