package enums

import "fmt"

// TenderMethod is the closed set of payment methods a sale can be settled with.
type TenderMethod string

const (
	TenderMethodCash  TenderMethod = "cash"
	TenderMethodCard  TenderMethod = "card"
	TenderMethodCheck TenderMethod = "check"
)

var validTenderMethods = []TenderMethod{
	TenderMethodCash,
	TenderMethodCard,
	TenderMethodCheck,
}

// String implements fmt.Stringer.
func (m TenderMethod) String() string {
	return string(m)
}

// IsValid reports whether the value is a known TenderMethod.
func (m TenderMethod) IsValid() bool {
	for _, candidate := range validTenderMethods {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseTenderMethod converts raw input into a TenderMethod.
func ParseTenderMethod(value string) (TenderMethod, error) {
	for _, candidate := range validTenderMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid tender method %q", value)
}
