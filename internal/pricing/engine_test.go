package pricing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/braderie/caisse-backend/pkg/db/models"
	"github.com/braderie/caisse-backend/pkg/enums"
	pkgerrors "github.com/braderie/caisse-backend/pkg/errors"
)

func testOptions() Options {
	return Options{DonationCeiling: dec("500.00")}
}

func standardProduct(price string) *models.Product {
	return &models.Product{
		ID:       uuid.New(),
		Name:     "article",
		Kind:     enums.ProductKindStandard,
		Price:    dec(price),
		IsActive: true,
	}
}

func donationProduct() *models.Product {
	return &models.Product{
		ID:       uuid.New(),
		Name:     "don libre",
		Kind:     enums.ProductKindFreeAmount,
		Price:    decimal.Zero,
		IsActive: true,
	}
}

func productMap(products ...*models.Product) map[uuid.UUID]*models.Product {
	m := make(map[uuid.UUID]*models.Product, len(products))
	for _, p := range products {
		m[p.ID] = p
	}
	return m
}

func TestPriceCartLineDiscountPercentage(t *testing.T) {
	product := standardProduct("10.00")
	entries := []CartEntry{{
		ProductID: product.ID,
		Qty:       2,
		Discount:  &Discount{Type: enums.DiscountTypePercentage, Value: dec("10")},
	}}

	breakdown, err := PriceCart(entries, productMap(product), nil, testOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	line := breakdown.Lines[0]
	if !line.FinalTotal.Equal(dec("18.00")) {
		t.Fatalf("expected line total 18.00, got %s", line.FinalTotal)
	}
	if !line.FinalUnitPrice.Equal(dec("9.00")) {
		t.Fatalf("expected final unit price 9.00, got %s", line.FinalUnitPrice)
	}
	if !line.LineDiscountAmount.Equal(dec("2.00")) {
		t.Fatalf("expected line discount 2.00, got %s", line.LineDiscountAmount)
	}
	if !breakdown.GrossTotal.Equal(dec("20.00")) || !breakdown.NetTotal.Equal(dec("18.00")) {
		t.Fatalf("unexpected totals gross=%s net=%s", breakdown.GrossTotal, breakdown.NetTotal)
	}
}

func TestPriceCartCartDiscountAllocation(t *testing.T) {
	cheap := standardProduct("30.00")
	dear := standardProduct("70.00")
	entries := []CartEntry{
		{ProductID: cheap.ID, Qty: 1},
		{ProductID: dear.ID, Qty: 1},
	}
	cart := &Discount{Type: enums.DiscountTypeFixedAmount, Value: dec("20.00")}

	breakdown, err := PriceCart(entries, productMap(cheap, dear), cart, testOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !breakdown.Lines[0].CartDiscountShare.Equal(dec("6.00")) {
		t.Fatalf("expected share 6.00, got %s", breakdown.Lines[0].CartDiscountShare)
	}
	if !breakdown.Lines[1].CartDiscountShare.Equal(dec("14.00")) {
		t.Fatalf("expected share 14.00, got %s", breakdown.Lines[1].CartDiscountShare)
	}
	if !breakdown.NetTotal.Equal(dec("80.00")) {
		t.Fatalf("expected net 80.00, got %s", breakdown.NetTotal)
	}
	if !breakdown.DiscountTotal.Equal(dec("20.00")) {
		t.Fatalf("expected discount total 20.00, got %s", breakdown.DiscountTotal)
	}
}

func TestPriceCartInvariantNetPlusDiscountEqualsGross(t *testing.T) {
	a := standardProduct("13.37")
	b := standardProduct("0.99")
	entries := []CartEntry{
		{ProductID: a.ID, Qty: 3, Discount: &Discount{Type: enums.DiscountTypePercentage, Value: dec("7")}},
		{ProductID: b.ID, Qty: 7},
	}
	cart := &Discount{Type: enums.DiscountTypePercentage, Value: dec("5")}

	breakdown, err := PriceCart(entries, productMap(a, b), cart, testOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !breakdown.NetTotal.Add(breakdown.DiscountTotal).Equal(breakdown.GrossTotal) {
		t.Fatalf("net %s + discount %s != gross %s", breakdown.NetTotal, breakdown.DiscountTotal, breakdown.GrossTotal)
	}
	if breakdown.DiscountTotal.IsNegative() {
		t.Fatalf("discount total must not be negative")
	}

	tolerance := dec("0.01")
	for _, line := range breakdown.Lines {
		qty := decimal.NewFromInt(int64(line.Qty))
		reconstructed := line.FinalUnitPrice.Mul(qty).
			Add(line.LineDiscountAmount).
			Add(line.CartDiscountShare)
		diff := reconstructed.Sub(line.OriginUnitPrice.Mul(qty)).Abs()
		if diff.GreaterThan(tolerance) {
			t.Fatalf("line provenance drifts by %s", diff)
		}
	}
}

func TestPriceCartMergesDuplicateEntries(t *testing.T) {
	product := standardProduct("5.00")
	entries := []CartEntry{
		{ProductID: product.ID, Qty: 1, Discount: &Discount{Type: enums.DiscountTypePercentage, Value: dec("50")}},
		{ProductID: product.ID, Qty: 2, Discount: &Discount{Type: enums.DiscountTypePercentage, Value: dec("10")}},
	}

	breakdown, err := PriceCart(entries, productMap(product), nil, testOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(breakdown.Lines) != 1 {
		t.Fatalf("expected merged single line, got %d", len(breakdown.Lines))
	}
	line := breakdown.Lines[0]
	if line.Qty != 3 {
		t.Fatalf("expected merged qty 3, got %d", line.Qty)
	}
	// Most recent discount wins: 10% of 15.00.
	if !line.LineDiscountAmount.Equal(dec("1.50")) {
		t.Fatalf("expected discount 1.50, got %s", line.LineDiscountAmount)
	}
}

func TestPriceCartDonationDeclaredPriceClamped(t *testing.T) {
	don := donationProduct()
	declared := dec("7.00")
	entries := []CartEntry{{ProductID: don.ID, Qty: 1, UnitPrice: &declared}}

	breakdown, err := PriceCart(entries, productMap(don), nil, testOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !breakdown.Lines[0].FinalUnitPrice.Equal(dec("7.00")) {
		t.Fatalf("expected declared price kept, got %s", breakdown.Lines[0].FinalUnitPrice)
	}

	tooHigh := dec("9999.00")
	entries[0].UnitPrice = &tooHigh
	breakdown, err = PriceCart(entries, productMap(don), nil, testOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !breakdown.Lines[0].FinalUnitPrice.Equal(dec("500.00")) {
		t.Fatalf("expected clamp to ceiling, got %s", breakdown.Lines[0].FinalUnitPrice)
	}

	negative := dec("-1.00")
	entries[0].UnitPrice = &negative
	breakdown, err = PriceCart(entries, productMap(don), nil, testOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !breakdown.Lines[0].FinalUnitPrice.IsZero() {
		t.Fatalf("expected negative declared amount clamped to zero, got %s", breakdown.Lines[0].FinalUnitPrice)
	}
}

func TestPriceCartDonationDiscountForbidden(t *testing.T) {
	don := donationProduct()
	declared := dec("7.00")
	entries := []CartEntry{{
		ProductID: don.ID,
		Qty:       1,
		UnitPrice: &declared,
		Discount:  &Discount{Type: enums.DiscountTypePercentage, Value: dec("10")},
	}}

	_, err := PriceCart(entries, productMap(don), nil, testOptions())
	if err == nil {
		t.Fatal("expected discount on donation to fail")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
	if typed.Message() != "remise interdite sur un don" {
		t.Fatalf("unexpected message %q", typed.Message())
	}
}

func TestPriceCartDonationExcludedFromCartDiscount(t *testing.T) {
	don := donationProduct()
	product := standardProduct("40.00")
	declared := dec("10.00")
	entries := []CartEntry{
		{ProductID: don.ID, Qty: 1, UnitPrice: &declared},
		{ProductID: product.ID, Qty: 1},
	}
	cart := &Discount{Type: enums.DiscountTypePercentage, Value: dec("50")}

	breakdown, err := PriceCart(entries, productMap(don, product), cart, testOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 50% of the 40.00 eligible subtotal; the 10.00 donation is untouched.
	if !breakdown.CartDiscountAmount.Equal(dec("20.00")) {
		t.Fatalf("expected cart discount 20.00, got %s", breakdown.CartDiscountAmount)
	}
	if !breakdown.Lines[0].FinalTotal.Equal(dec("10.00")) {
		t.Fatalf("donation line must keep declared total, got %s", breakdown.Lines[0].FinalTotal)
	}
	if !breakdown.NetTotal.Equal(dec("30.00")) {
		t.Fatalf("expected net 30.00, got %s", breakdown.NetTotal)
	}
}

func TestPriceCartIgnoresNonPositiveDiscounts(t *testing.T) {
	product := standardProduct("10.00")
	entries := []CartEntry{{
		ProductID: product.ID,
		Qty:       1,
		Discount:  &Discount{Type: enums.DiscountTypeFixedAmount, Value: dec("-5.00")},
	}}

	breakdown, err := PriceCart(entries, productMap(product), &Discount{Type: enums.DiscountTypePercentage, Value: decimal.Zero}, testOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !breakdown.NetTotal.Equal(dec("10.00")) {
		t.Fatalf("expected discounts ignored, net %s", breakdown.NetTotal)
	}
	if breakdown.CartDiscount != nil {
		t.Fatalf("zero-valued cart discount should be dropped")
	}
}

func TestPriceCartFixedDiscountCappedToBase(t *testing.T) {
	product := standardProduct("10.00")
	entries := []CartEntry{{
		ProductID: product.ID,
		Qty:       1,
		Discount:  &Discount{Type: enums.DiscountTypeFixedAmount, Value: dec("25.00")},
	}}

	breakdown, err := PriceCart(entries, productMap(product), nil, testOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !breakdown.NetTotal.IsZero() {
		t.Fatalf("expected fully discounted line, net %s", breakdown.NetTotal)
	}
}

func TestPriceCartRejectsBadInput(t *testing.T) {
	product := standardProduct("10.00")

	if _, err := PriceCart(nil, productMap(product), nil, testOptions()); err == nil {
		t.Fatal("expected empty cart to fail")
	}

	entries := []CartEntry{{ProductID: product.ID, Qty: 0}}
	if _, err := PriceCart(entries, productMap(product), nil, testOptions()); err == nil {
		t.Fatal("expected zero quantity to fail")
	}

	entries = []CartEntry{{ProductID: uuid.New(), Qty: 1}}
	if _, err := PriceCart(entries, productMap(product), nil, testOptions()); err == nil {
		t.Fatal("expected unknown product to fail")
	}

	entries = []CartEntry{{
		ProductID: product.ID,
		Qty:       1,
		Discount:  &Discount{Type: enums.DiscountTypePercentage, Value: dec("150")},
	}}
	if _, err := PriceCart(entries, productMap(product), nil, testOptions()); err == nil {
		t.Fatal("expected >100 percentage to fail")
	}
}
