package access

import (
	"context"
	"errors"
	"strings"
)

// SentinelCompanyName is the name of the default company created for the
// first actor. It is protected from deletion and renaming regardless of any
// grant.
const SentinelCompanyName = "Main"

// Policies builds the per-entity record policies on top of one resolver.
// Every policy method returns a boolean decision; denial is never an error.
type Policies struct {
	resolver *Resolver
	grants   GrantStore
}

// NewPolicies constructs the policy set.
func NewPolicies(resolver *Resolver, grants GrantStore) (*Policies, error) {
	if resolver == nil || grants == nil {
		return nil, errors.New("resolver and grant store are required")
	}
	return &Policies{resolver: resolver, grants: grants}, nil
}

func (p *Policies) Companies() CompanyPolicy {
	return CompanyPolicy{base: p}
}

func (p *Policies) Brands() BrandPolicy {
	return BrandPolicy{base: p}
}

func (p *Policies) Products() ProductPolicy {
	return ProductPolicy{base: p}
}

func (p *Policies) Users() UserPolicy {
	return UserPolicy{}
}

func (p *Policies) Open() OpenPolicy {
	return OpenPolicy{}
}

// restoreAllowed implements the restore special case: the decision never
// recurses through the target's relations (which may be unreachable while
// the target row is trashed) and consults grants for the target's id/kind
// directly, including revoked ones.
func (p *Policies) restoreAllowed(ctx context.Context, actorID string, kind Kind, targetID string) (bool, error) {
	snap, err := p.resolver.Snapshot(ctx, actorID)
	if err != nil {
		return false, err
	}
	if snap.HasCompanyAccess() {
		return true, nil
	}
	return p.grants.GrantExistsIncludingRevoked(ctx, actorID, kind, targetID)
}

// ProductPolicy gates products and the entities that derive access from
// their owning product (expenses, product items).
type ProductPolicy struct {
	base *Policies
}

func (p ProductPolicy) ViewAny(ctx context.Context, actorID string) (bool, error) {
	snap, err := p.base.resolver.Snapshot(ctx, actorID)
	if err != nil {
		return false, err
	}
	return snap.HasAnyProductAccess(), nil
}

func (p ProductPolicy) Create(ctx context.Context, actorID string) (bool, error) {
	return p.ViewAny(ctx, actorID)
}

func (p ProductPolicy) View(ctx context.Context, actorID string, ref ProductRef) (bool, error) {
	snap, err := p.base.resolver.Snapshot(ctx, actorID)
	if err != nil {
		return false, err
	}
	return snap.HasProductAccess(ref), nil
}

func (p ProductPolicy) Update(ctx context.Context, actorID string, ref ProductRef) (bool, error) {
	return p.View(ctx, actorID, ref)
}

func (p ProductPolicy) Delete(ctx context.Context, actorID string, ref ProductRef) (bool, error) {
	return p.View(ctx, actorID, ref)
}

func (p ProductPolicy) ForceDelete(ctx context.Context, actorID string, ref ProductRef) (bool, error) {
	return p.View(ctx, actorID, ref)
}

func (p ProductPolicy) Restore(ctx context.Context, actorID, productID string) (bool, error) {
	return p.base.restoreAllowed(ctx, actorID, KindProduct, productID)
}

// BrandPolicy gates brands.
type BrandPolicy struct {
	base *Policies
}

func (p BrandPolicy) ViewAny(ctx context.Context, actorID string) (bool, error) {
	snap, err := p.base.resolver.Snapshot(ctx, actorID)
	if err != nil {
		return false, err
	}
	return snap.HasAnyBrandAccess(), nil
}

func (p BrandPolicy) Create(ctx context.Context, actorID string) (bool, error) {
	return p.ViewAny(ctx, actorID)
}

func (p BrandPolicy) View(ctx context.Context, actorID, brandID string) (bool, error) {
	snap, err := p.base.resolver.Snapshot(ctx, actorID)
	if err != nil {
		return false, err
	}
	return snap.HasBrandAccess(brandID), nil
}

func (p BrandPolicy) Update(ctx context.Context, actorID, brandID string) (bool, error) {
	return p.View(ctx, actorID, brandID)
}

func (p BrandPolicy) Delete(ctx context.Context, actorID, brandID string) (bool, error) {
	return p.View(ctx, actorID, brandID)
}

func (p BrandPolicy) ForceDelete(ctx context.Context, actorID, brandID string) (bool, error) {
	return p.View(ctx, actorID, brandID)
}

func (p BrandPolicy) Restore(ctx context.Context, actorID, brandID string) (bool, error) {
	return p.base.restoreAllowed(ctx, actorID, KindBrand, brandID)
}

// CompanyPolicy gates companies. Any authenticated actor may list or create
// companies; acting on a specific company requires a company-wide grant, and
// the sentinel company is immune to deletion and renaming.
type CompanyPolicy struct {
	base *Policies
}

func (p CompanyPolicy) ViewAny(ctx context.Context, actorID string) (bool, error) {
	return strings.TrimSpace(actorID) != "", nil
}

func (p CompanyPolicy) Create(ctx context.Context, actorID string) (bool, error) {
	return strings.TrimSpace(actorID) != "", nil
}

func (p CompanyPolicy) View(ctx context.Context, actorID string, ref CompanyRef) (bool, error) {
	snap, err := p.base.resolver.Snapshot(ctx, actorID)
	if err != nil {
		return false, err
	}
	return snap.HasCompanyAccess(), nil
}

// Update permits company-grant holders, except when the change would rename
// the sentinel company.
func (p CompanyPolicy) Update(ctx context.Context, actorID string, ref CompanyRef, newName string) (bool, error) {
	if ref.Name == SentinelCompanyName {
		newName = strings.TrimSpace(newName)
		if newName != "" && newName != SentinelCompanyName {
			return false, nil
		}
	}
	return p.View(ctx, actorID, ref)
}

func (p CompanyPolicy) Delete(ctx context.Context, actorID string, ref CompanyRef) (bool, error) {
	if ref.Name == SentinelCompanyName {
		return false, nil
	}
	return p.View(ctx, actorID, ref)
}

func (p CompanyPolicy) ForceDelete(ctx context.Context, actorID string, ref CompanyRef) (bool, error) {
	if ref.Name == SentinelCompanyName {
		return false, nil
	}
	return p.View(ctx, actorID, ref)
}

func (p CompanyPolicy) Restore(ctx context.Context, actorID, companyID string) (bool, error) {
	return p.base.restoreAllowed(ctx, actorID, KindCompany, companyID)
}

// UserPolicy is independent of the grant hierarchy: actors manage only their
// own record and can never remove themselves.
type UserPolicy struct{}

func (UserPolicy) ViewAny(actorID string) bool {
	return strings.TrimSpace(actorID) != ""
}

func (UserPolicy) View(actorID, targetID string) bool {
	return strings.TrimSpace(actorID) != ""
}

func (UserPolicy) Update(actorID, targetID string) bool {
	return actorID != "" && actorID == targetID
}

func (UserPolicy) Delete(actorID, targetID string) bool {
	return actorID != "" && targetID != "" && actorID != targetID
}

func (UserPolicy) Restore(actorID, targetID string) bool {
	return actorID != "" && targetID != "" && actorID != targetID
}

func (UserPolicy) ForceDelete(actorID, targetID string) bool {
	return actorID != "" && targetID != "" && actorID != targetID
}

// OpenPolicy covers lookup entities (genders, expense types) that any
// authenticated actor may manage.
type OpenPolicy struct{}

func (OpenPolicy) Allowed(actorID string) bool {
	return strings.TrimSpace(actorID) != ""
}
