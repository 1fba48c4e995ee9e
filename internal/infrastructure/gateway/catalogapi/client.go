package catalogapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-faster/errors"

	"github.com/bookvine/cart-service/internal/application/ports"
	domainErrors "github.com/bookvine/cart-service/internal/domain/errors"
	"github.com/bookvine/cart-service/internal/infrastructure/monitoring"
)

// Client reads product snapshots (price, stock, promotions) from the
// catalog/pricing service. It implements ports.CatalogGateway.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) GetProduct(ctx context.Context, productID string) (*ports.ProductSnapshot, error) {
	endpoint := c.baseURL + "/products/" + url.PathEscape(productID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	monitoring.GatewayRequestDuration.WithLabelValues("catalog", "get_product").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, errors.Wrap(domainErrors.ErrGatewayUnavailable, err.Error())
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, domainErrors.ErrProductNotFound
	case resp.StatusCode >= 400:
		return nil, errors.Wrap(domainErrors.ErrGatewayUnavailable,
			fmt.Sprintf("catalog service returned %d", resp.StatusCode))
	}

	var snapshot ports.ProductSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return nil, errors.Wrap(err, "decode product snapshot")
	}
	return &snapshot, nil
}
