package access

import "sort"

// ScopeMode discriminates the listing narrowing a snapshot produces.
type ScopeMode uint8

const (
	// ScopeEmpty yields strictly zero rows without touching storage.
	ScopeEmpty ScopeMode = iota
	// ScopeUnrestricted applies no narrowing.
	ScopeUnrestricted
	// ScopeProductIDs restricts to rows owned by the listed products.
	ScopeProductIDs
	// ScopeBrandIDs restricts to rows whose owning product belongs to one of
	// the listed brands.
	ScopeBrandIDs
)

// Scope is an immutable filter specification applied to a listing before any
// search, sort or pagination. It is a value, not a mutable builder: callers
// thread it through instead of resetting shared state.
type Scope struct {
	mode ScopeMode
	ids  []string
}

// Unrestricted returns the scope that applies no narrowing.
func Unrestricted() Scope { return Scope{mode: ScopeUnrestricted} }

// Empty returns the scope that yields no rows.
func Empty() Scope { return Scope{mode: ScopeEmpty} }

// ByProductIDs returns a scope restricted to the given product ids.
func ByProductIDs(ids []string) Scope {
	if len(ids) == 0 {
		return Empty()
	}
	return Scope{mode: ScopeProductIDs, ids: sortedCopy(ids)}
}

// ByBrandIDs returns a scope restricted to the given brand ids.
func ByBrandIDs(ids []string) Scope {
	if len(ids) == 0 {
		return Empty()
	}
	return Scope{mode: ScopeBrandIDs, ids: sortedCopy(ids)}
}

// Mode returns the scope discriminator.
func (s Scope) Mode() ScopeMode { return s.mode }

// IDs returns a copy of the id set the scope restricts to.
func (s Scope) IDs() []string {
	if len(s.ids) == 0 {
		return nil
	}
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Contains reports membership in the scope's id set.
func (s Scope) Contains(id string) bool {
	for _, v := range s.ids {
		if v == id {
			return true
		}
	}
	return false
}

func sortedCopy(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	sort.Strings(out)
	return out
}
