package cart

import (
	"github.com/shopspring/decimal"

	"github.com/bookvine/cart-service/internal/domain/promotion"
)

// Snapshot holds the cart-level totals. It is derived from the line
// set on every mutation and never stored.
type Snapshot struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	LineCount     int             `json:"line_count"`
	ItemCount     int             `json:"item_count"`
}

// ComputeSnapshot folds the promotion resolver over all lines. Full
// recompute, no deltas: carts hold tens of lines and correctness of
// the totals matters far more than the O(n) cost. As a side effect
// each line's cached per-unit Discount is refreshed.
func ComputeSnapshot(lines []*Line) Snapshot {
	snap := Snapshot{
		Subtotal:      decimal.Zero,
		TotalDiscount: decimal.Zero,
	}

	for _, line := range lines {
		res := promotion.Resolve(line.UnitPrice, line.Promotions)
		line.Discount = line.UnitPrice.Sub(res.EffectivePrice)
		if !res.IsDiscounted {
			line.Discount = decimal.Zero
		}

		qty := decimal.NewFromInt(int64(line.Quantity))
		snap.Subtotal = snap.Subtotal.Add(line.UnitPrice.Mul(qty))
		snap.TotalDiscount = snap.TotalDiscount.Add(line.Discount.Mul(qty))
		snap.LineCount++
		snap.ItemCount += line.Quantity
	}

	return snap
}
