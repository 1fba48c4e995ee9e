package cartapi

import (
	"bytes"
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

// Client talks to the remote cart persistence service. It implements
// ports.CartGateway.
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

type cartListResponse struct {
	Items []ports.RemoteLine `json:"items"`
}

type quantityResponse struct {
	Quantity int `json:"quantity"`
}

func (c *Client) FetchCart(ctx context.Context, token string) ([]ports.RemoteLine, error) {
	var out cartListResponse
	if err := c.do(ctx, token, http.MethodGet, "/cart", nil, &out, "fetch_cart"); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) BulkAppend(ctx context.Context, token string, lines []ports.RemoteLine) error {
	body := cartListResponse{Items: lines}
	return c.do(ctx, token, http.MethodPost, "/cart/bulk", body, nil, "bulk_append")
}

func (c *Client) IncrementQuantity(ctx context.Context, token, productID, size string) (int, error) {
	return c.quantityOp(ctx, token, "/cart/increment", productID, size, "increment")
}

func (c *Client) DecrementQuantity(ctx context.Context, token, productID, size string) (int, error) {
	return c.quantityOp(ctx, token, "/cart/decrement", productID, size, "decrement")
}

func (c *Client) DeleteLine(ctx context.Context, token, productID, size string) error {
	q := url.Values{}
	q.Set("product_id", productID)
	q.Set("size", size)
	return c.do(ctx, token, http.MethodDelete, "/cart/item?"+q.Encode(), nil, nil, "delete_line")
}

func (c *Client) quantityOp(ctx context.Context, token, path, productID, size, op string) (int, error) {
	body := ports.RemoteLine{ProductID: productID, Size: size}
	var out quantityResponse
	if err := c.do(ctx, token, http.MethodPost, path, body, &out, op); err != nil {
		return 0, err
	}
	return out.Quantity, nil
}

func (c *Client) do(ctx context.Context, token, method, path string, body, out interface{}, op string) error {
	var reqBody *bytes.Buffer
	if body != nil {
		reqBody = &bytes.Buffer{}
		if err := json.NewEncoder(reqBody).Encode(body); err != nil {
			return errors.Wrap(err, "encode request")
		}
	}

	var req *http.Request
	var err error
	if reqBody != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	}
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	monitoring.GatewayRequestDuration.WithLabelValues("cart", op).Observe(time.Since(start).Seconds())
	if err != nil {
		return errors.Wrap(domainErrors.ErrGatewayUnavailable, err.Error())
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domainErrors.ErrLineNotFound
	case resp.StatusCode >= 400:
		return errors.Wrap(domainErrors.ErrGatewayUnavailable,
			fmt.Sprintf("cart service returned %d", resp.StatusCode))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}
