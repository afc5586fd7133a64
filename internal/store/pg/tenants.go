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
	_ catalog.CompanyStore = (*Store)(nil)
	_ catalog.BrandStore   = (*Store)(nil)
)

// --- companies ---

func (s *Store) CreateCompany(ctx context.Context, name, slug string) (catalog.Company, error) {
	if s.db == nil {
		return catalog.Company{}, errors.New("database connection unavailable")
	}
	var c catalog.Company
	row := s.db.QueryRowContext(ctx, `
		insert into companies (id, name, slug)
		values ($1, $2, $3)
		returning id, name, slug, created_at, updated_at
	`, ids.New(), name, slug)
	if err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return catalog.Company{}, catalog.ErrConflict
		}
		return catalog.Company{}, err
	}
	return c, nil
}

const companyColumns = `id, name, slug, created_at, updated_at, deleted_at`

func (s *Store) GetCompany(ctx context.Context, id string) (catalog.Company, error) {
	return s.companyBy(ctx, "id = $1 and deleted_at is null", id)
}

func (s *Store) GetCompanyAny(ctx context.Context, id string) (catalog.Company, error) {
	return s.companyBy(ctx, "id = $1", id)
}

func (s *Store) GetCompanyBySlug(ctx context.Context, slug string) (catalog.Company, error) {
	return s.companyBy(ctx, "slug = $1 and deleted_at is null", slug)
}

func (s *Store) companyBy(ctx context.Context, cond, arg string) (catalog.Company, error) {
	if s.db == nil {
		return catalog.Company{}, errors.New("database connection unavailable")
	}
	var c catalog.Company
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`select %s from companies where %s`, companyColumns, cond), arg).
		Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Company{}, catalog.ErrNotFound
	}
	if err != nil {
		return catalog.Company{}, err
	}
	return c, nil
}

func (s *Store) ListCompanies(ctx context.Context, scope access.Scope) ([]catalog.Company, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	// Companies are visible only under an unrestricted scope.
	if scope.Mode() != access.ScopeUnrestricted {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		select %s from companies
		where deleted_at is null
		order by name
	`, companyColumns))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.Company
	for rows.Next() {
		var c catalog.Company
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) UpdateCompany(ctx context.Context, id string, upd catalog.CompanyUpdate) (catalog.Company, error) {
	if s.db == nil {
		return catalog.Company{}, errors.New("database connection unavailable")
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
	if len(sets) > 0 {
		sets = append(sets, "updated_at = now()")
		query := fmt.Sprintf(`update companies set %s where id = $%d and deleted_at is null`, strings.Join(sets, ", "), idx)
		args = append(args, id)
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
				return catalog.Company{}, catalog.ErrConflict
			}
			return catalog.Company{}, err
		}
		aff, err := res.RowsAffected()
		if err != nil {
			return catalog.Company{}, err
		}
		if aff == 0 {
			return catalog.Company{}, catalog.ErrNotFound
		}
	}
	return s.GetCompany(ctx, id)
}

func (s *Store) SoftDeleteCompany(ctx context.Context, id string) error {
	return s.softDelete(ctx, "companies", id)
}

func (s *Store) RestoreCompany(ctx context.Context, id string) error {
	return s.restore(ctx, "companies", id)
}

func (s *Store) PurgeCompany(ctx context.Context, id string) error {
	return s.purge(ctx, "companies", id)
}

// --- brands ---

func (s *Store) CreateBrand(ctx context.Context, companyID, name, slug string) (catalog.Brand, error) {
	if s.db == nil {
		return catalog.Brand{}, errors.New("database connection unavailable")
	}
	var b catalog.Brand
	row := s.db.QueryRowContext(ctx, `
		insert into brands (id, company_id, name, slug)
		values ($1, $2, $3, $4)
		returning id, company_id, name, slug, created_at, updated_at
	`, ids.New(), companyID, name, slug)
	if err := row.Scan(&b.ID, &b.CompanyID, &b.Name, &b.Slug, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok {
			switch pgErr.Code {
			case pgErrUniqueViolation:
				return catalog.Brand{}, catalog.ErrConflict
			case pgErrForeignKeyViolation:
				return catalog.Brand{}, catalog.ErrNotFound
			}
		}
		return catalog.Brand{}, err
	}
	return b, nil
}

const brandColumns = `id, company_id, name, slug, created_at, updated_at, deleted_at`

func (s *Store) GetBrand(ctx context.Context, id string) (catalog.Brand, error) {
	return s.brandBy(ctx, "id = $1 and deleted_at is null", id)
}

func (s *Store) GetBrandAny(ctx context.Context, id string) (catalog.Brand, error) {
	return s.brandBy(ctx, "id = $1", id)
}

func (s *Store) GetBrandBySlug(ctx context.Context, slug string) (catalog.Brand, error) {
	return s.brandBy(ctx, "slug = $1 and deleted_at is null", slug)
}

func (s *Store) brandBy(ctx context.Context, cond, arg string) (catalog.Brand, error) {
	if s.db == nil {
		return catalog.Brand{}, errors.New("database connection unavailable")
	}
	var b catalog.Brand
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`select %s from brands where %s`, brandColumns, cond), arg).
		Scan(&b.ID, &b.CompanyID, &b.Name, &b.Slug, &b.CreatedAt, &b.UpdatedAt, &b.DeletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Brand{}, catalog.ErrNotFound
	}
	if err != nil {
		return catalog.Brand{}, err
	}
	return b, nil
}

func (s *Store) ListBrands(ctx context.Context, scope access.Scope) ([]catalog.Brand, error) {
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
	case access.ScopeBrandIDs:
		ids := scope.IDs()
		where += fmt.Sprintf(" and id in (%s)", placeholders(1, len(ids)))
		args = stringArgs(ids)
	default:
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		select %s from brands
		where %s
		order by name
	`, brandColumns, where), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.Brand
	for rows.Next() {
		var b catalog.Brand
		if err := rows.Scan(&b.ID, &b.CompanyID, &b.Name, &b.Slug, &b.CreatedAt, &b.UpdatedAt, &b.DeletedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) UpdateBrand(ctx context.Context, id string, upd catalog.BrandUpdate) (catalog.Brand, error) {
	if s.db == nil {
		return catalog.Brand{}, errors.New("database connection unavailable")
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
	if len(sets) > 0 {
		sets = append(sets, "updated_at = now()")
		query := fmt.Sprintf(`update brands set %s where id = $%d and deleted_at is null`, strings.Join(sets, ", "), idx)
		args = append(args, id)
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return catalog.Brand{}, err
		}
		aff, err := res.RowsAffected()
		if err != nil {
			return catalog.Brand{}, err
		}
		if aff == 0 {
			return catalog.Brand{}, catalog.ErrNotFound
		}
	}
	return s.GetBrand(ctx, id)
}

func (s *Store) SoftDeleteBrand(ctx context.Context, id string) error {
	return s.softDelete(ctx, "brands", id)
}

func (s *Store) RestoreBrand(ctx context.Context, id string) error {
	return s.restore(ctx, "brands", id)
}

func (s *Store) PurgeBrand(ctx context.Context, id string) error {
	return s.purge(ctx, "brands", id)
}

// --- soft-delete helpers shared by tenant tables ---

func (s *Store) softDelete(ctx context.Context, table, id string) error {
	if s.db == nil {
		return errors.New("database connection unavailable")
	}
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		update %s set deleted_at = now()
		where id = $1 and deleted_at is null
	`, table), id)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func (s *Store) restore(ctx context.Context, table, id string) error {
	if s.db == nil {
		return errors.New("database connection unavailable")
	}
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		update %s set deleted_at = null, updated_at = now()
		where id = $1 and deleted_at is not null
	`, table), id)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func (s *Store) purge(ctx context.Context, table, id string) error {
	if s.db == nil {
		return errors.New("database connection unavailable")
	}
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`delete from %s where id = $1`, table), id)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return catalog.ErrNotFound
	}
	return nil
}
