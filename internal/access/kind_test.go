package access

import (
	"errors"
	"testing"
)

func TestKindRoundTrip(t *testing.T) {
	for _, k := range []Kind{KindCompany, KindBrand, KindProduct, KindUser, KindGrant} {
		parsed, err := ParseKind(k.String())
		if err != nil {
			t.Fatalf("ParseKind(%q): %v", k.String(), err)
		}
		if parsed != k {
			t.Fatalf("round trip mismatch: %v != %v", parsed, k)
		}
		if !k.Valid() {
			t.Fatalf("%v should be valid", k)
		}
	}
}

func TestParseKindRejectsUnknown(t *testing.T) {
	for _, raw := range []string{"", "Company", "companies", "tenant"} {
		if _, err := ParseKind(raw); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("ParseKind(%q): expected ErrInvalidInput, got %v", raw, err)
		}
	}
}

func TestKindZeroValueInvalid(t *testing.T) {
	var k Kind
	if k.Valid() {
		t.Fatal("zero kind must be invalid")
	}
	if k.String() != "kind(0)" {
		t.Fatalf("unexpected string: %s", k.String())
	}
}
