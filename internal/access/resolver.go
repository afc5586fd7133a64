package access

import (
	"context"
	"errors"
	"strings"
)

// Resolver answers capability questions for an actor. It only reads from the
// grant store; every decision is made against a Snapshot so that the
// per-record checks and the listing scope are derived from the same grant
// state and cannot diverge.
type Resolver struct {
	grants GrantStore
}

// NewResolver constructs a Resolver.
func NewResolver(grants GrantStore) (*Resolver, error) {
	if grants == nil {
		return nil, errors.New("grant store is required")
	}
	return &Resolver{grants: grants}, nil
}

// Snapshot is the actor's live grant state at one point in time. All methods
// are pure: holding no grants is an ordinary false, never an error.
type Snapshot struct {
	companies map[string]struct{}
	brands    map[string]struct{}
	products  map[string]struct{}
}

// Snapshot loads the actor's live company, brand and product grant sets.
func (r *Resolver) Snapshot(ctx context.Context, actorID string) (Snapshot, error) {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return Snapshot{}, ErrInvalidInput
	}
	var snap Snapshot
	companies, err := r.grants.ListGrantTargetIDs(ctx, actorID, KindCompany)
	if err != nil {
		return Snapshot{}, err
	}
	snap.companies = toSet(companies)

	// A company-wide grant short-circuits everything else.
	if len(snap.companies) > 0 {
		return snap, nil
	}

	brands, err := r.grants.ListGrantTargetIDs(ctx, actorID, KindBrand)
	if err != nil {
		return Snapshot{}, err
	}
	snap.brands = toSet(brands)

	products, err := r.grants.ListGrantTargetIDs(ctx, actorID, KindProduct)
	if err != nil {
		return Snapshot{}, err
	}
	snap.products = toSet(products)
	return snap, nil
}

// HasCompanyAccess reports whether the actor holds at least one live
// company-wide grant; holders may act on every tenant-scoped entity.
func (s Snapshot) HasCompanyAccess() bool {
	return len(s.companies) > 0
}

// HasBrandAccess reports whether the actor may act on the given brand.
func (s Snapshot) HasBrandAccess(brandID string) bool {
	if s.HasCompanyAccess() {
		return true
	}
	_, ok := s.brands[brandID]
	return ok
}

// HasProductAccess evaluates the fixed precedence: company access wins; a
// non-empty product grant set decides by membership alone (brand grants are
// not consulted as a fallback); otherwise brand grants decide through the
// product's owning brand.
func (s Snapshot) HasProductAccess(p ProductRef) bool {
	if s.HasCompanyAccess() {
		return true
	}
	if len(s.products) > 0 {
		_, ok := s.products[p.ID]
		return ok
	}
	if len(s.brands) > 0 {
		if p.BrandID == "" {
			return false
		}
		_, ok := s.brands[p.BrandID]
		return ok
	}
	return false
}

// HasAnyProductAccess gates list/create operations before a concrete target
// exists.
func (s Snapshot) HasAnyProductAccess() bool {
	return s.HasCompanyAccess() || len(s.products) > 0 || len(s.brands) > 0
}

// HasAnyBrandAccess reports whether the actor can see brands at all.
func (s Snapshot) HasAnyBrandAccess() bool {
	return s.HasCompanyAccess() || len(s.brands) > 0
}

// ProductScope narrows product-scoped listings (products, product items,
// expenses) to exactly the rows HasProductAccess would admit.
func (s Snapshot) ProductScope() Scope {
	switch {
	case s.HasCompanyAccess():
		return Unrestricted()
	case len(s.products) > 0:
		return ByProductIDs(setToSlice(s.products))
	case len(s.brands) > 0:
		return ByBrandIDs(setToSlice(s.brands))
	default:
		return Empty()
	}
}

// BrandScope narrows brand listings analogously.
func (s Snapshot) BrandScope() Scope {
	switch {
	case s.HasCompanyAccess():
		return Unrestricted()
	case len(s.brands) > 0:
		return ByBrandIDs(setToSlice(s.brands))
	default:
		return Empty()
	}
}

// CompanyScope narrows company listings: company-wide grant holders see all
// companies, everyone else sees none.
func (s Snapshot) CompanyScope() Scope {
	if s.HasCompanyAccess() {
		return Unrestricted()
	}
	return Empty()
}

func toSet(ids []string) map[string]struct{} {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		set[id] = struct{}{}
	}
	return set
}

func setToSlice(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}
