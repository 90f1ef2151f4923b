package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestAllocateProportionalSplit(t *testing.T) {
	shares := Allocate([]decimal.Decimal{dec("30.00"), dec("70.00")}, dec("20.00"))
	if !shares[0].Equal(dec("6.00")) {
		t.Fatalf("expected first share 6.00, got %s", shares[0])
	}
	if !shares[1].Equal(dec("14.00")) {
		t.Fatalf("expected second share 14.00, got %s", shares[1])
	}
}

func TestAllocateSumsExactlyDespiteRounding(t *testing.T) {
	cases := [][]string{
		{"10.00", "10.00", "10.00"},
		{"0.01", "0.01", "0.01"},
		{"33.33", "33.33", "33.34"},
		{"19.99", "0.02", "57.60", "3.45"},
	}
	discounts := []string{"0.01", "0.02", "10.00", "19.99", "33.33"}

	for _, values := range cases {
		parsed := make([]decimal.Decimal, len(values))
		total := decimal.Zero
		for i, v := range values {
			parsed[i] = dec(v)
			total = total.Add(parsed[i])
		}
		for _, d := range discounts {
			discount := dec(d)
			want := discount
			if want.GreaterThan(total) {
				want = total
			}
			shares := Allocate(parsed, discount)
			sum := decimal.Zero
			for i, share := range shares {
				if share.IsNegative() {
					t.Fatalf("values=%v discount=%s: negative share at %d", values, d, i)
				}
				if share.GreaterThan(parsed[i]) {
					t.Fatalf("values=%v discount=%s: share %s exceeds line value %s", values, d, share, parsed[i])
				}
				sum = sum.Add(share)
			}
			if !sum.Equal(want) {
				t.Fatalf("values=%v discount=%s: shares sum to %s, want %s", values, d, sum, want)
			}
		}
	}
}

func TestAllocateCapsAtTotalValue(t *testing.T) {
	shares := Allocate([]decimal.Decimal{dec("5.00"), dec("5.00")}, dec("100.00"))
	if !shares[0].Equal(dec("5.00")) || !shares[1].Equal(dec("5.00")) {
		t.Fatalf("expected full absorption, got %s and %s", shares[0], shares[1])
	}
}

func TestAllocateIgnoresNonPositiveInputs(t *testing.T) {
	shares := Allocate([]decimal.Decimal{decimal.Zero, dec("10.00")}, dec("4.00"))
	if !shares[0].IsZero() {
		t.Fatalf("zero-value line must get no share, got %s", shares[0])
	}
	if !shares[1].Equal(dec("4.00")) {
		t.Fatalf("expected 4.00, got %s", shares[1])
	}

	shares = Allocate([]decimal.Decimal{dec("10.00")}, decimal.Zero)
	if !shares[0].IsZero() {
		t.Fatalf("zero discount must allocate nothing, got %s", shares[0])
	}

	shares = Allocate(nil, dec("4.00"))
	if len(shares) != 0 {
		t.Fatalf("expected empty result for empty input")
	}
}
