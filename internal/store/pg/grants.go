package pg

import (
	"context"
	"database/sql"
	"errors"

	"github.com/SergeySPashchenko/report-system/internal/access"
	"github.com/SergeySPashchenko/report-system/internal/ids"
)

var (
	_ access.GrantStore   = (*Store)(nil)
	_ access.Bootstrapper = (*Store)(nil)
)

func (s *Store) CreateGrant(ctx context.Context, userID string, kind access.Kind, targetID string) (access.Grant, error) {
	if s.db == nil {
		return access.Grant{}, errors.New("database connection unavailable")
	}
	if !kind.Valid() {
		return access.Grant{}, access.ErrInvalidInput
	}

	// The partial unique index keeps one live grant per triple; on conflict
	// the existing grant is returned instead of a duplicate row.
	var g access.Grant
	var kindName string
	row := s.db.QueryRowContext(ctx, `
		insert into grants (id, user_id, kind, target_id)
		values ($1, $2, $3, $4)
		on conflict (user_id, kind, target_id) where revoked_at is null do update
		set target_id = excluded.target_id
		returning id, user_id, kind, target_id, created_at, revoked_at
	`, ids.New(), userID, kind.String(), targetID)
	if err := row.Scan(&g.ID, &g.UserID, &kindName, &g.TargetID, &g.CreatedAt, &g.RevokedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
			return access.Grant{}, access.ErrNotFound
		}
		return access.Grant{}, err
	}
	parsed, err := access.ParseKind(kindName)
	if err != nil {
		return access.Grant{}, err
	}
	g.Kind = parsed
	return g, nil
}

func (s *Store) GetGrant(ctx context.Context, grantID string) (access.Grant, error) {
	if s.db == nil {
		return access.Grant{}, errors.New("database connection unavailable")
	}
	var g access.Grant
	var kindName string
	err := s.db.QueryRowContext(ctx, `
		select id, user_id, kind, target_id, created_at, revoked_at
		from grants
		where id = $1
	`, grantID).Scan(&g.ID, &g.UserID, &kindName, &g.TargetID, &g.CreatedAt, &g.RevokedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return access.Grant{}, access.ErrNotFound
	}
	if err != nil {
		return access.Grant{}, err
	}
	parsed, err := access.ParseKind(kindName)
	if err != nil {
		return access.Grant{}, err
	}
	g.Kind = parsed
	return g, nil
}

func (s *Store) RevokeGrant(ctx context.Context, grantID string) error {
	if s.db == nil {
		return errors.New("database connection unavailable")
	}
	res, err := s.db.ExecContext(ctx, `
		update grants set revoked_at = now()
		where id = $1 and revoked_at is null
	`, grantID)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return access.ErrNotFound
	}
	return nil
}

func (s *Store) PurgeGrant(ctx context.Context, grantID string) error {
	if s.db == nil {
		return errors.New("database connection unavailable")
	}
	res, err := s.db.ExecContext(ctx, `delete from grants where id = $1`, grantID)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return access.ErrNotFound
	}
	return nil
}

func (s *Store) GrantExists(ctx context.Context, userID string, kind access.Kind, targetID string) (bool, error) {
	if s.db == nil {
		return false, errors.New("database connection unavailable")
	}
	var one int
	err := s.db.QueryRowContext(ctx, `
		select 1 from grants
		where user_id = $1 and kind = $2 and target_id = $3 and revoked_at is null
		limit 1
	`, userID, kind.String(), targetID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GrantExistsIncludingRevoked deliberately skips the revoked_at filter: the
// restore policies must see grants for a trashed target even when a related
// row would hide them behind a live-only lookup.
func (s *Store) GrantExistsIncludingRevoked(ctx context.Context, userID string, kind access.Kind, targetID string) (bool, error) {
	if s.db == nil {
		return false, errors.New("database connection unavailable")
	}
	var one int
	err := s.db.QueryRowContext(ctx, `
		select 1 from grants
		where user_id = $1 and kind = $2 and target_id = $3
		limit 1
	`, userID, kind.String(), targetID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) ListGrantTargetIDs(ctx context.Context, userID string, kind access.Kind) ([]string, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	rows, err := s.db.QueryContext(ctx, `
		select distinct target_id from grants
		where user_id = $1 and kind = $2 and revoked_at is null
	`, userID, kind.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ProvisionActor bootstraps a freshly registered actor inside a single
// transaction: upsert the sentinel company by its unique name, then attach a
// live company-wide grant. A crash can never leave the company without the
// grant committed alongside it.
func (s *Store) ProvisionActor(ctx context.Context, userID string) (string, error) {
	if s.db == nil {
		return "", errors.New("database connection unavailable")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		insert into companies (id, name, slug)
		values ($1, $2, $3)
		on conflict (name) do nothing
	`, ids.New(), access.SentinelCompanyName, "main"); err != nil {
		return "", err
	}

	var companyID string
	if err := tx.QueryRowContext(ctx, `
		select id from companies where name = $1
	`, access.SentinelCompanyName).Scan(&companyID); err != nil {
		return "", err
	}

	if _, err := tx.ExecContext(ctx, `
		insert into grants (id, user_id, kind, target_id)
		values ($1, $2, $3, $4)
		on conflict (user_id, kind, target_id) where revoked_at is null do nothing
	`, ids.New(), userID, access.KindCompany.String(), companyID); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return companyID, nil
}
