package access

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubBootstrapper struct {
	failures int
	calls    int
	err      error
}

func (s *stubBootstrapper) ProvisionActor(ctx context.Context, userID string) (string, error) {
	s.calls++
	if s.calls <= s.failures {
		if s.err != nil {
			return "", s.err
		}
		return "", errors.New("transient failure")
	}
	return "c-main", nil
}

func TestProvisionSucceedsFirstTry(t *testing.T) {
	stub := &stubBootstrapper{}
	p, err := NewProvisioner(stub)
	if err != nil {
		t.Fatalf("NewProvisioner: %v", err)
	}
	if err := p.Provision(context.Background(), "u1"); err != nil {
		t.Fatalf("Provision: %v", err)
	}
	if stub.calls != 1 {
		t.Fatalf("expected one call, got %d", stub.calls)
	}
}

func TestProvisionRetriesTransientFailures(t *testing.T) {
	stub := &stubBootstrapper{failures: 2}
	p, err := NewProvisioner(stub)
	if err != nil {
		t.Fatalf("NewProvisioner: %v", err)
	}
	p.backoff = time.Millisecond
	if err := p.Provision(context.Background(), "u1"); err != nil {
		t.Fatalf("Provision after retries: %v", err)
	}
	if stub.calls != 3 {
		t.Fatalf("expected three calls, got %d", stub.calls)
	}
}

func TestProvisionSurfacesFinalError(t *testing.T) {
	boom := errors.New("constraint violated")
	stub := &stubBootstrapper{failures: 10, err: boom}
	p, err := NewProvisioner(stub)
	if err != nil {
		t.Fatalf("NewProvisioner: %v", err)
	}
	p.backoff = time.Millisecond
	if err := p.Provision(context.Background(), "u1"); !errors.Is(err, boom) {
		t.Fatalf("expected final error to surface, got %v", err)
	}
	if stub.calls != p.attempts {
		t.Fatalf("expected %d attempts, got %d", p.attempts, stub.calls)
	}
}

func TestProvisionRejectsBlankActor(t *testing.T) {
	p, err := NewProvisioner(&stubBootstrapper{})
	if err != nil {
		t.Fatalf("NewProvisioner: %v", err)
	}
	if err := p.Provision(context.Background(), "  "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestProvisionHonorsContextCancel(t *testing.T) {
	stub := &stubBootstrapper{failures: 10}
	p, err := NewProvisioner(stub)
	if err != nil {
		t.Fatalf("NewProvisioner: %v", err)
	}
	p.backoff = time.Minute
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Provision(ctx, "u1"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
