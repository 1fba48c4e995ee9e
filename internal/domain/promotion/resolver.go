package promotion

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Resolution is the outcome of applying a product's promotions to its
// base price.
type Resolution struct {
	EffectivePrice  decimal.Decimal
	DiscountAmount  decimal.Decimal
	DiscountPercent decimal.Decimal
	IsDiscounted    bool
}

// Resolve applies the first ByValue promotion in catalog order to
// basePrice. First-wins is the deliberate tie-break: the catalog
// controls precedence by ordering, the resolver never searches for the
// best discount.
//
// A flat-amount promotion larger than the base price yields a negative
// effective price; callers must not assume the result is non-negative.
func Resolve(basePrice decimal.Decimal, promotions []Promotion) Resolution {
	var applied *Promotion
	for i := range promotions {
		if promotions[i].ReducesUnitPrice() {
			applied = &promotions[i]
			break
		}
	}

	if applied == nil {
		return Resolution{
			EffectivePrice:  basePrice,
			DiscountAmount:  decimal.Zero,
			DiscountPercent: decimal.Zero,
			IsDiscounted:    false,
		}
	}

	var effective, percent decimal.Decimal
	switch applied.Kind {
	case Percent:
		effective = basePrice.Mul(hundred.Sub(applied.Amount)).Div(hundred)
		percent = applied.Amount
	case FlatAmount:
		effective = basePrice.Sub(applied.Amount)
		if basePrice.IsZero() {
			percent = decimal.Zero
		} else {
			percent = basePrice.Sub(effective).Div(basePrice).Mul(hundred)
		}
	default:
		// Malformed promotion data degrades to no discount.
		return Resolution{
			EffectivePrice:  basePrice,
			DiscountAmount:  decimal.Zero,
			DiscountPercent: decimal.Zero,
			IsDiscounted:    false,
		}
	}

	return Resolution{
		EffectivePrice:  effective,
		DiscountAmount:  basePrice.Sub(effective),
		DiscountPercent: percent,
		IsDiscounted:    true,
	}
}
