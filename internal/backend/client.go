package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/example/storefront-state/internal/domain/discount"
)

// ErrBackend wraps any non-2xx response or transport failure. The client does
// not retry; whether to prompt a retry is the caller's decision.
var ErrBackend = errors.New("backend request failed")

const discountPath = "/api/discount"

// TokenSource supplies the current bearer token, or "" when anonymous.
type TokenSource func() string

// Client talks to the storefront backend's discount endpoints.
type Client struct {
	baseURL string
	http    *http.Client
	token   TokenSource
}

func NewClient(baseURL string, token TokenSource) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		token:   token,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		payload = bytes.NewReader(data)
	} else {
		payload = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s %s: status %d", ErrBackend, method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: decoding %s %s: %v", ErrBackend, method, path, err)
		}
	}
	return nil
}

// UserDiscounts fetches one user's discount wallet.
func (c *Client) UserDiscounts(ctx context.Context, userID string) ([]discount.Definition, error) {
	var wallet []discount.Definition
	path := discountPath + "/user/" + url.PathEscape(userID)
	if err := c.do(ctx, http.MethodGet, path, nil, &wallet); err != nil {
		return nil, err
	}
	return wallet, nil
}

// ListDiscounts fetches every discount definition (admin).
func (c *Client) ListDiscounts(ctx context.Context) ([]discount.Definition, error) {
	var all []discount.Definition
	if err := c.do(ctx, http.MethodGet, discountPath, nil, &all); err != nil {
		return nil, err
	}
	return all, nil
}

// CreateDiscount creates a new discount definition (admin).
func (c *Client) CreateDiscount(ctx context.Context, d discount.Definition) (*discount.Definition, error) {
	var created discount.Definition
	if err := c.do(ctx, http.MethodPost, discountPath, d, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateDiscount replaces an existing discount definition (admin).
func (c *Client) UpdateDiscount(ctx context.Context, id string, d discount.Definition) (*discount.Definition, error) {
	var updated discount.Definition
	path := discountPath + "/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodPut, path, d, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteDiscount removes a discount definition (admin).
func (c *Client) DeleteDiscount(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, discountPath+"/"+url.PathEscape(id), nil, nil)
}

// SetDiscountStatus toggles a definition's active flag (admin).
func (c *Client) SetDiscountStatus(ctx context.Context, id string, active bool) error {
	path := discountPath + "/" + url.PathEscape(id) + "/status?active=" + strconv.FormatBool(active)
	return c.do(ctx, http.MethodPatch, path, nil, nil)
}

// DistributeDiscount assigns a discount to every user's wallet (admin).
// The body is intentionally empty; the id rides on the path.
func (c *Client) DistributeDiscount(ctx context.Context, id string) error {
	path := discountPath + "/" + url.PathEscape(id) + "/distribute-all"
	return c.do(ctx, http.MethodPost, path, struct{}{}, nil)
}
