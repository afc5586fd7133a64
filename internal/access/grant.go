package access

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidInput = errors.New("access: invalid input")
	ErrNotFound     = errors.New("access: not found")
	ErrConflict     = errors.New("access: resource conflict")
)

// Grant is the sole authorization primitive: it links an actor to one target
// of one kind. Entities carry no ACL fields of their own.
type Grant struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Kind      Kind       `json:"-"`
	TargetID  string     `json:"target_id"`
	CreatedAt time.Time  `json:"created_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

// Revoked reports whether the grant has been soft-deleted.
func (g Grant) Revoked() bool {
	return g.RevokedAt != nil
}

// GrantStore persists grants. Revoked grants are excluded from Exists and
// ListTargetIDs; ExistsIncludingRevoked consults every grant ever issued for
// the triple, which the restore policies rely on.
type GrantStore interface {
	CreateGrant(ctx context.Context, userID string, kind Kind, targetID string) (Grant, error)
	GetGrant(ctx context.Context, grantID string) (Grant, error)
	RevokeGrant(ctx context.Context, grantID string) error
	PurgeGrant(ctx context.Context, grantID string) error
	GrantExists(ctx context.Context, userID string, kind Kind, targetID string) (bool, error)
	GrantExistsIncludingRevoked(ctx context.Context, userID string, kind Kind, targetID string) (bool, error)
	ListGrantTargetIDs(ctx context.Context, userID string, kind Kind) ([]string, error)
}

// ProductRef identifies a product to the capability resolver. BrandID is
// empty when the product has no owning brand.
type ProductRef struct {
	ID      string
	BrandID string
}

// CompanyRef identifies a company to the record policy. The sentinel company
// is recognized by name.
type CompanyRef struct {
	ID   string
	Name string
}
