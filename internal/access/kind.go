package access

import "fmt"

// Kind is the closed set of entity kinds a grant can target.
type Kind uint8

const (
	KindCompany Kind = iota + 1
	KindBrand
	KindProduct
	KindUser
	KindGrant
)

var kindNames = map[Kind]string{
	KindCompany: "company",
	KindBrand:   "brand",
	KindProduct: "product",
	KindUser:    "user",
	KindGrant:   "grant",
}

// String returns the stable wire/storage name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// ParseKind maps a storage/wire name back to its Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown target kind %q", ErrInvalidInput, s)
}
