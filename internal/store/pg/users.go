package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/SergeySPashchenko/report-system/internal/catalog"
	"github.com/SergeySPashchenko/report-system/internal/ids"
)

var _ catalog.Store = (*Store)(nil)

func (s *Store) CreateUser(ctx context.Context, email, name, passwordHash string) (catalog.User, error) {
	if s.db == nil {
		return catalog.User{}, errors.New("database connection unavailable")
	}
	var u catalog.User
	row := s.db.QueryRowContext(ctx, `
		insert into users (id, email, name, password_hash)
		values ($1, $2, $3, $4)
		returning id, email, name, created_at, updated_at
	`, ids.New(), email, name, passwordHash)
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return catalog.User{}, catalog.ErrConflict
		}
		return catalog.User{}, err
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (catalog.User, error) {
	return s.userBy(ctx, "id = $1", id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (catalog.User, error) {
	return s.userBy(ctx, "email = $1", strings.TrimSpace(strings.ToLower(email)))
}

func (s *Store) userBy(ctx context.Context, cond, arg string) (catalog.User, error) {
	if s.db == nil {
		return catalog.User{}, errors.New("database connection unavailable")
	}
	var u catalog.User
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		select id, email, name, password_hash, created_at, updated_at, deleted_at
		from users
		where %s and deleted_at is null
	`, cond), arg).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.User{}, catalog.ErrNotFound
	}
	if err != nil {
		return catalog.User{}, err
	}
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, upd catalog.UserUpdate) (catalog.User, error) {
	if s.db == nil {
		return catalog.User{}, errors.New("database connection unavailable")
	}
	var (
		sets []string
		args []any
		idx  = 1
	)
	if upd.Email != nil {
		sets = append(sets, fmt.Sprintf("email = $%d", idx))
		args = append(args, *upd.Email)
		idx++
	}
	if upd.Name != nil {
		sets = append(sets, fmt.Sprintf("name = $%d", idx))
		args = append(args, *upd.Name)
		idx++
	}
	if upd.PasswordHash != nil {
		sets = append(sets, fmt.Sprintf("password_hash = $%d", idx))
		args = append(args, *upd.PasswordHash)
		idx++
	}
	if len(sets) > 0 {
		sets = append(sets, "updated_at = now()")
		query := fmt.Sprintf(`update users set %s where id = $%d and deleted_at is null`, strings.Join(sets, ", "), idx)
		args = append(args, id)
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
				return catalog.User{}, catalog.ErrConflict
			}
			return catalog.User{}, err
		}
		aff, err := res.RowsAffected()
		if err != nil {
			return catalog.User{}, err
		}
		if aff == 0 {
			return catalog.User{}, catalog.ErrNotFound
		}
	}
	return s.GetUser(ctx, id)
}

func (s *Store) SoftDeleteUser(ctx context.Context, id string) error {
	if s.db == nil {
		return errors.New("database connection unavailable")
	}
	res, err := s.db.ExecContext(ctx, `
		update users set deleted_at = now()
		where id = $1 and deleted_at is null
	`, id)
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
