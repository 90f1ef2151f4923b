package pricing

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/braderie/caisse-backend/pkg/db/models"
	"github.com/braderie/caisse-backend/pkg/enums"
	pkgerrors "github.com/braderie/caisse-backend/pkg/errors"
)

// Discount is a line- or cart-level reduction.
type Discount struct {
	Type  enums.DiscountType
	Value decimal.Decimal
}

// CartEntry is one submitted cart row before server-side pricing.
type CartEntry struct {
	ProductID uuid.UUID
	Qty       int
	// UnitPrice is the buyer-declared amount; only honored for free-amount
	// products.
	UnitPrice *decimal.Decimal
	Discount  *Discount
}

// PricedLine is the server-trusted pricing of one merged cart line.
type PricedLine struct {
	ProductID          uuid.UUID
	Qty                int
	Donation           bool
	OriginUnitPrice    decimal.Decimal
	FinalUnitPrice     decimal.Decimal
	LineDiscount       *Discount
	LineDiscountAmount decimal.Decimal
	CartDiscountShare  decimal.Decimal
	OriginTotal        decimal.Decimal
	FinalTotal         decimal.Decimal
}

// Breakdown is the full pricing result for a cart.
type Breakdown struct {
	Lines              []PricedLine
	GrossTotal         decimal.Decimal
	NetTotal           decimal.Decimal
	DiscountTotal      decimal.Decimal
	CartDiscount       *Discount
	CartDiscountAmount decimal.Decimal
}

// Options tunes the engine.
type Options struct {
	// DonationCeiling bounds buyer-declared amounts when the product itself
	// does not carry a ceiling.
	DonationCeiling decimal.Decimal
}

// PriceCart converts submitted cart entries into a server-trusted breakdown.
// Products must contain every referenced product. Duplicate entries for the
// same product are merged (summed quantity, most recent discount/price kept).
func PriceCart(entries []CartEntry, products map[uuid.UUID]*models.Product, cartDiscount *Discount, opts Options) (*Breakdown, error) {
	if len(entries) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart contains no items")
	}

	merged, err := mergeEntries(entries)
	if err != nil {
		return nil, err
	}

	lines := make([]PricedLine, 0, len(merged))
	for _, entry := range merged {
		product, ok := products[entry.ProductID]
		if !ok || product == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("unknown product %s", entry.ProductID))
		}
		line, err := priceLine(entry, product, opts)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	eligibleValues := make([]decimal.Decimal, len(lines))
	eligibleSubtotal := decimal.Zero
	for i, line := range lines {
		if line.Donation {
			eligibleValues[i] = decimal.Zero
			continue
		}
		value := line.OriginTotal.Sub(line.LineDiscountAmount)
		eligibleValues[i] = value
		eligibleSubtotal = eligibleSubtotal.Add(value)
	}

	cartAmount := decimal.Zero
	appliedCartDiscount := normalizeDiscount(cartDiscount)
	if appliedCartDiscount != nil {
		cartAmount, err = discountAmount(*appliedCartDiscount, eligibleSubtotal)
		if err != nil {
			return nil, err
		}
	}

	shares := Allocate(eligibleValues, cartAmount)

	breakdown := &Breakdown{
		Lines:              lines,
		CartDiscount:       appliedCartDiscount,
		CartDiscountAmount: cartAmount,
	}

	for i := range breakdown.Lines {
		line := &breakdown.Lines[i]
		line.CartDiscountShare = shares[i]
		if !line.Donation {
			qty := decimal.NewFromInt(int64(line.Qty))
			discounted := line.OriginTotal.Sub(line.LineDiscountAmount).Sub(line.CartDiscountShare)
			line.FinalUnitPrice = discounted.Div(qty).Round(2)
			line.FinalTotal = line.FinalUnitPrice.Mul(qty)
		}
		breakdown.GrossTotal = breakdown.GrossTotal.Add(line.OriginTotal)
		breakdown.NetTotal = breakdown.NetTotal.Add(line.FinalTotal)
	}

	breakdown.DiscountTotal = breakdown.GrossTotal.Sub(breakdown.NetTotal)
	if breakdown.NetTotal.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart total cannot be negative")
	}

	return breakdown, nil
}

func mergeEntries(entries []CartEntry) ([]CartEntry, error) {
	merged := make([]CartEntry, 0, len(entries))
	index := make(map[uuid.UUID]int, len(entries))
	for _, entry := range entries {
		if entry.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart entry missing product id")
		}
		if entry.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart entry quantity must be positive")
		}
		if i, ok := index[entry.ProductID]; ok {
			merged[i].Qty += entry.Qty
			if entry.Discount != nil {
				merged[i].Discount = entry.Discount
			}
			if entry.UnitPrice != nil {
				merged[i].UnitPrice = entry.UnitPrice
			}
			continue
		}
		index[entry.ProductID] = len(merged)
		merged = append(merged, entry)
	}
	return merged, nil
}

func priceLine(entry CartEntry, product *models.Product, opts Options) (PricedLine, error) {
	qty := decimal.NewFromInt(int64(entry.Qty))
	line := PricedLine{
		ProductID: product.ID,
		Qty:       entry.Qty,
		Donation:  product.Donation(),
	}

	if line.Donation {
		if normalizeDiscount(entry.Discount) != nil {
			return PricedLine{}, pkgerrors.New(pkgerrors.CodeValidation, "remise interdite sur un don")
		}
		declared := decimal.Zero
		if entry.UnitPrice != nil {
			declared = *entry.UnitPrice
		}
		ceiling := opts.DonationCeiling
		if product.FreeAmountCeiling != nil {
			ceiling = *product.FreeAmountCeiling
		}
		if declared.IsNegative() {
			declared = decimal.Zero
		}
		if ceiling.IsPositive() && declared.GreaterThan(ceiling) {
			declared = ceiling
		}
		// Declared amount is kept verbatim on the line.
		line.OriginUnitPrice = declared
		line.FinalUnitPrice = declared
		line.OriginTotal = declared.Mul(qty)
		line.FinalTotal = line.OriginTotal
		line.LineDiscountAmount = decimal.Zero
		return line, nil
	}

	line.OriginUnitPrice = product.Price
	line.OriginTotal = product.Price.Mul(qty)

	discount := normalizeDiscount(entry.Discount)
	if discount != nil {
		amount, err := discountAmount(*discount, line.OriginTotal)
		if err != nil {
			return PricedLine{}, err
		}
		line.LineDiscount = discount
		line.LineDiscountAmount = amount
	}

	return line, nil
}

// normalizeDiscount drops zero/negative discount values, which the cart format
// uses to mean "no discount".
func normalizeDiscount(d *Discount) *Discount {
	if d == nil || !d.Value.IsPositive() {
		return nil
	}
	return d
}

func discountAmount(d Discount, base decimal.Decimal) (decimal.Decimal, error) {
	switch d.Type {
	case enums.DiscountTypePercentage:
		if d.Value.GreaterThan(decimal.NewFromInt(100)) {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "percentage discount cannot exceed 100")
		}
		return base.Mul(d.Value).Div(decimal.NewFromInt(100)).Round(2), nil
	case enums.DiscountTypeFixedAmount:
		amount := d.Value.Round(2)
		if amount.GreaterThan(base) {
			amount = base
		}
		return amount, nil
	default:
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid discount type %q", d.Type))
	}
}
