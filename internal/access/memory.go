package access

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/SergeySPashchenko/report-system/internal/ids"
)

// InMemory implements GrantStore with in-process concurrency safety. It backs
// tests and local development; production uses the Postgres store.
type InMemory struct {
	mu     sync.RWMutex
	grants map[string]*Grant
}

// NewInMemory creates an empty grant store.
func NewInMemory() *InMemory {
	return &InMemory{grants: make(map[string]*Grant)}
}

var _ GrantStore = (*InMemory)(nil)

func (s *InMemory) CreateGrant(ctx context.Context, userID string, kind Kind, targetID string) (Grant, error) {
	userID = strings.TrimSpace(userID)
	targetID = strings.TrimSpace(targetID)
	if userID == "" || targetID == "" || !kind.Valid() {
		return Grant{}, ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// Mirror the partial unique index: one live grant per triple.
	for _, g := range s.grants {
		if g.UserID == userID && g.Kind == kind && g.TargetID == targetID && !g.Revoked() {
			return *g, nil
		}
	}
	g := &Grant{
		ID:        ids.New(),
		UserID:    userID,
		Kind:      kind,
		TargetID:  targetID,
		CreatedAt: time.Now().UTC(),
	}
	s.grants[g.ID] = g
	return *g, nil
}

func (s *InMemory) GetGrant(ctx context.Context, grantID string) (Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.grants[grantID]
	if !ok {
		return Grant{}, ErrNotFound
	}
	return *g, nil
}

func (s *InMemory) RevokeGrant(ctx context.Context, grantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.grants[grantID]
	if !ok || g.Revoked() {
		return ErrNotFound
	}
	now := time.Now().UTC()
	g.RevokedAt = &now
	return nil
}

func (s *InMemory) PurgeGrant(ctx context.Context, grantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.grants[grantID]; !ok {
		return ErrNotFound
	}
	delete(s.grants, grantID)
	return nil
}

func (s *InMemory) GrantExists(ctx context.Context, userID string, kind Kind, targetID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.grants {
		if g.UserID == userID && g.Kind == kind && g.TargetID == targetID && !g.Revoked() {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemory) GrantExistsIncludingRevoked(ctx context.Context, userID string, kind Kind, targetID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.grants {
		if g.UserID == userID && g.Kind == kind && g.TargetID == targetID {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemory) ListGrantTargetIDs(ctx context.Context, userID string, kind Kind) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	var out []string
	for _, g := range s.grants {
		if g.UserID != userID || g.Kind != kind || g.Revoked() {
			continue
		}
		if _, ok := seen[g.TargetID]; ok {
			continue
		}
		seen[g.TargetID] = struct{}{}
		out = append(out, g.TargetID)
	}
	return out, nil
}
