package authn

import (
	"errors"
	"testing"
	"time"
)

func setSecret(t *testing.T, value string) {
	t.Helper()
	t.Setenv("REPORT_AUTH_SECRET", value)
	ResetSecretForTests()
	t.Cleanup(ResetSecretForTests)
}

func TestTokenRoundTrip(t *testing.T) {
	setSecret(t, "test-secret")

	token, err := GenerateToken("actor-1", time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	actorID, err := ParseAndValidate(token)
	if err != nil {
		t.Fatalf("ParseAndValidate: %v", err)
	}
	if actorID != "actor-1" {
		t.Fatalf("unexpected actor: %s", actorID)
	}
}

func TestTokenRejectsGarbage(t *testing.T) {
	setSecret(t, "test-secret")
	for _, raw := range []string{"", "  ", "not-a-jwt", "a.b.c"} {
		if _, err := ParseAndValidate(raw); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("ParseAndValidate(%q): expected ErrInvalidToken, got %v", raw, err)
		}
	}
}

func TestTokenRequiresSecret(t *testing.T) {
	setSecret(t, "")
	if _, err := GenerateToken("actor-1", time.Minute); err == nil {
		t.Fatal("expected missing secret error")
	}
}

func TestGenerateTokenValidation(t *testing.T) {
	setSecret(t, "test-secret")
	if _, err := GenerateToken("  ", time.Minute); err == nil {
		t.Fatal("blank actor must be rejected")
	}
	if _, err := GenerateToken("actor-1", 0); err == nil {
		t.Fatal("non-positive ttl must be rejected")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := VerifyPassword(hash, "correct horse"); err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if err := VerifyPassword(hash, "wrong"); err == nil {
		t.Fatal("wrong password must fail verification")
	}
}
