package trade

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// ShippingPolicy prices delivery on the server. The fee never comes from
// the client.
type ShippingPolicy struct {
	FlatFee decimal.Decimal
	// FreeThreshold waives the fee once the item subtotal reaches it.
	// Zero disables free shipping.
	FreeThreshold decimal.Decimal
}

// NewShippingPolicy creates a ShippingPolicy
func NewShippingPolicy(flatFee, freeThreshold decimal.Decimal) (ShippingPolicy, error) {
	if flatFee.IsNegative() {
		return ShippingPolicy{}, shared.NewValidationError("Shipping fee cannot be negative")
	}
	if freeThreshold.IsNegative() {
		return ShippingPolicy{}, shared.NewValidationError("Free shipping threshold cannot be negative")
	}
	return ShippingPolicy{FlatFee: flatFee.Round(2), FreeThreshold: freeThreshold}, nil
}

// FeeFor returns the shipping fee for an order made of lines
func (p ShippingPolicy) FeeFor(lines []OrderLineInput) decimal.Decimal {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	if p.FreeThreshold.IsPositive() && subtotal.GreaterThanOrEqual(p.FreeThreshold) {
		return decimal.Zero
	}
	return p.FlatFee
}

var cent = decimal.New(1, -2)

// allocateShipping splits fee into whole-cent shares proportional to
// weights using the largest-remainder method. Shares are never negative
// and sum to fee. Equal weights are used when all weights are zero.
func allocateShipping(fee decimal.Decimal, weights []decimal.Decimal) []decimal.Decimal {
	shares := make([]decimal.Decimal, len(weights))
	if len(weights) == 0 {
		return shares
	}

	total := decimal.Zero
	for _, w := range weights {
		total = total.Add(w)
	}
	weightOf := func(i int) decimal.Decimal { return weights[i] }
	if !total.IsPositive() {
		total = decimal.NewFromInt(int64(len(weights)))
		weightOf = func(int) decimal.Decimal { return decimal.NewFromInt(1) }
	}

	type remainder struct {
		idx  int
		frac decimal.Decimal
	}
	rems := make([]remainder, len(weights))
	allocated := decimal.Zero
	for i := range weights {
		exact := fee.Mul(weightOf(i)).Div(total)
		floor := exact.RoundFloor(2)
		shares[i] = floor
		allocated = allocated.Add(floor)
		rems[i] = remainder{idx: i, frac: exact.Sub(floor)}
	}
	sort.SliceStable(rems, func(a, b int) bool {
		return rems[a].frac.GreaterThan(rems[b].frac)
	})

	left := fee.Sub(allocated)
	for k := 0; left.GreaterThanOrEqual(cent); k++ {
		i := rems[k%len(rems)].idx
		shares[i] = shares[i].Add(cent)
		left = left.Sub(cent)
	}
	// sub-cent residue of a fee with more than two decimals
	if left.IsPositive() {
		i := rems[0].idx
		shares[i] = shares[i].Add(left)
	}
	return shares
}
