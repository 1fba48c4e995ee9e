package cart

import (
	"github.com/shopspring/decimal"

	"github.com/bookvine/cart-service/internal/domain/promotion"
)

// LineKey identifies a cart line. Size may be empty for non-sized
// goods; the pair is unique within a cart.
type LineKey struct {
	ProductID string
	Size      string
}

// Line is one cart entry together with the catalog snapshot (price,
// stock ceiling, promotions) taken when the line was created or last
// refreshed. Discount is the per-unit reduction cached at the last
// snapshot recompute, not recomputed on every read.
type Line struct {
	ProductID         string
	Size              string
	Quantity          int
	UnitPrice         decimal.Decimal
	AvailableQuantity int
	Promotions        []promotion.Promotion
	Discount          decimal.Decimal
}

func (l *Line) Key() LineKey {
	return LineKey{ProductID: l.ProductID, Size: l.Size}
}

// clampQuantity enforces [1, AvailableQuantity]. With overOrdering the
// ceiling is waived and only the floor of 1 applies. Returns the
// clamped value and whether the stock ceiling was hit.
func (l *Line) clampQuantity(qty int, overOrdering bool) (int, bool) {
	if qty < 1 {
		qty = 1
	}
	ceiling := l.AvailableQuantity
	if ceiling < 1 {
		// A line only exists for a product that was in stock when it
		// was created; the floor of 1 still wins over a stale zero.
		ceiling = 1
	}
	if !overOrdering && qty > ceiling {
		return ceiling, qty > l.AvailableQuantity
	}
	return qty, false
}
