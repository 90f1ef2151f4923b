package enums

import "fmt"

// ProductKind distinguishes fixed-price catalog entries from free-amount
// donations whose price is declared by the buyer at checkout.
type ProductKind string

const (
	ProductKindStandard   ProductKind = "standard"
	ProductKindFreeAmount ProductKind = "free_amount"
)

var validProductKinds = []ProductKind{
	ProductKindStandard,
	ProductKindFreeAmount,
}

// String implements fmt.Stringer.
func (k ProductKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known ProductKind.
func (k ProductKind) IsValid() bool {
	for _, candidate := range validProductKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseProductKind converts raw input into a ProductKind.
func ParseProductKind(value string) (ProductKind, error) {
	for _, candidate := range validProductKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product kind %q", value)
}
