package pricing

import "github.com/shopspring/decimal"

// Allocate splits discount across lines proportionally to their values,
// cent-exact. It walks the lines with running remaining-discount and
// remaining-base counters so rounding drift is absorbed as it goes and the
// last line implicitly picks up whatever remains. The returned shares always
// sum to the capped discount.
//
// A discount larger than the summed values is capped to that sum. Zero or
// negative values receive a zero share.
func Allocate(values []decimal.Decimal, discount decimal.Decimal) []decimal.Decimal {
	shares := make([]decimal.Decimal, len(values))
	for i := range shares {
		shares[i] = decimal.Zero
	}
	if len(values) == 0 || !discount.IsPositive() {
		return shares
	}

	remainingBase := decimal.Zero
	for _, v := range values {
		if v.IsPositive() {
			remainingBase = remainingBase.Add(v)
		}
	}
	if !remainingBase.IsPositive() {
		return shares
	}

	remaining := discount
	if remaining.GreaterThan(remainingBase) {
		remaining = remainingBase
	}

	for i, v := range values {
		if !v.IsPositive() || !remaining.IsPositive() {
			continue
		}
		var share decimal.Decimal
		if v.GreaterThanOrEqual(remainingBase) {
			// Last positive line: absorb the running remainder.
			share = remaining
		} else {
			share = remaining.Mul(v).Div(remainingBase).Round(2)
			if share.GreaterThan(remaining) {
				share = remaining
			}
			if share.GreaterThan(v) {
				share = v
			}
		}
		shares[i] = share
		remaining = remaining.Sub(share)
		remainingBase = remainingBase.Sub(v)
	}

	return shares
}
