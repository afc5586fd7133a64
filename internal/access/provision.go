package access

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SergeySPashchenko/report-system/internal/obs"
)

// Bootstrapper performs the provisioning write: ensure the sentinel company
// exists (unique natural key closes the check-then-act race) and attach a
// company-wide grant to the actor, both inside one transaction.
type Bootstrapper interface {
	ProvisionActor(ctx context.Context, userID string) (companyID string, err error)
}

// Provisioner runs once per newly created actor. A failed bootstrap means an
// actor with zero grants, which is a silent lockout; it is retried and the
// final error is surfaced, never dropped.
type Provisioner struct {
	store    Bootstrapper
	attempts int
	backoff  time.Duration
}

// NewProvisioner constructs a Provisioner with bounded retries.
func NewProvisioner(store Bootstrapper) (*Provisioner, error) {
	if store == nil {
		return nil, errors.New("bootstrap store is required")
	}
	return &Provisioner{store: store, attempts: 3, backoff: 50 * time.Millisecond}, nil
}

// Provision ensures the sentinel company exists and grants the actor access
// to it. Re-invocation is idempotent: the company is looked up by its unique
// name and the grant insert ignores an existing live duplicate.
func (p *Provisioner) Provision(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	var lastErr error
	for attempt := 1; attempt <= p.attempts; attempt++ {
		companyID, err := p.store.ProvisionActor(ctx, userID)
		if err == nil {
			obs.Info("actor provisioned", map[string]any{
				"user_id":    userID,
				"company_id": companyID,
			})
			return nil
		}
		lastErr = err
		obs.Error("actor provisioning failed", map[string]any{
			"user_id": userID,
			"attempt": attempt,
			"error":   err.Error(),
		})
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.backoff * time.Duration(attempt)):
		}
	}
	return fmt.Errorf("provision actor %s: %w", userID, lastErr)
}
