package ports

import (
	"context"
)

// RemoteLine is a cart line as the remote cart persistence service
// reports it. Catalog data (price, stock, promotions) is not part of
// the wire format; callers join it in from the catalog gateway.
type RemoteLine struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

// CartGateway is the client port for the server-persisted cart. Once a
// session is authenticated the server is authoritative for quantities:
// IncrementQuantity and DecrementQuantity return the resulting
// quantity after the server's own stock clamp, which may differ from
// what the client expected.
//
// DeleteLine returns domain errors.ErrLineNotFound when the line is
// already gone server-side; callers treat that as success.
type CartGateway interface {
	FetchCart(ctx context.Context, token string) ([]RemoteLine, error)
	BulkAppend(ctx context.Context, token string, lines []RemoteLine) error
	IncrementQuantity(ctx context.Context, token, productID, size string) (int, error)
	DecrementQuantity(ctx context.Context, token, productID, size string) (int, error)
	DeleteLine(ctx context.Context, token, productID, size string) error
}
