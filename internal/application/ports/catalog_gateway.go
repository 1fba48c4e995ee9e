package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/bookvine/cart-service/internal/domain/promotion"
)

// ProductSnapshot is the read-only catalog view cached on a cart line
// at creation or refresh time: unit price, stock ceiling and the
// promotion list in catalog order.
type ProductSnapshot struct {
	ProductID         string                `json:"product_id"`
	Title             string                `json:"title"`
	UnitPrice         decimal.Decimal       `json:"unit_price"`
	AvailableQuantity int                   `json:"available_quantity"`
	Promotions        []promotion.Promotion `json:"promotions"`
}

type CatalogGateway interface {
	GetProduct(ctx context.Context, productID string) (*ProductSnapshot, error)
}
