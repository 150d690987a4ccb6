// Package products consumes the storefront's remote product and brand API and
// turns its loosely shaped payloads into Product records.
package products

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/redseam-storefront/pkg/errors"
)

const (
	DefaultBaseURL = "https://api.redseam.redberryinternship.ge/api"

	responseBodyLimit int64 = 1 << 20
	errorBodyLimit    int64 = 1024
)

type requestMetrics interface {
	IncRequest(endpoint, status string)
}

// Client talks to the product API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    requestMetrics
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithMetrics counts every request by endpoint and status class.
func WithMetrics(metrics requestMetrics) Option {
	return func(c *Client) {
		c.metrics = metrics
	}
}

func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

// Product fetches GET {base}/products/{id}. A 404 maps to CodeNotFound.
func (c *Client) Product(ctx context.Context, id string) (*Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	body, err := c.get(ctx, "product", "products/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	obj, err := decodeObject(body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode product response")
	}
	p := Normalize(obj)
	if p.ID == "" {
		p.ID = id
	}
	return &p, nil
}

// CartProduct tries the cart-specific GET {base}/cart/products/{id} first and
// falls back to the plain product endpoint on any failure.
func (c *Client) CartProduct(ctx context.Context, id string) (*Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if body, err := c.get(ctx, "cart_product", "cart/products/"+url.PathEscape(id)); err == nil {
		if obj, err := decodeObject(body); err == nil {
			p := Normalize(obj)
			if p.ID == "" {
				p.ID = id
			}
			return &p, nil
		}
	}
	return c.Product(ctx, id)
}

// ListProducts fetches one page of GET {base}/products?page=N.
func (c *Client) ListProducts(ctx context.Context, page int) ([]Product, error) {
	if page < 1 {
		page = 1
	}
	body, err := c.get(ctx, "products", "products?page="+strconv.Itoa(page))
	if err != nil {
		return nil, err
	}
	objs, err := decodeList(body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode product list")
	}
	out := make([]Product, 0, len(objs))
	for _, obj := range objs {
		out = append(out, Normalize(obj))
	}
	return out, nil
}

// Brand fetches GET {base}/brands/{id}.
func (c *Client) Brand(ctx context.Context, id string) (*Brand, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "brand id is required")
	}
	body, err := c.get(ctx, "brand", "brands/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	obj, err := decodeObject(body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode brand response")
	}
	b := NormalizeBrand(obj)
	if b.ID == "" {
		b.ID = id
	}
	return &b, nil
}

func (c *Client) get(ctx context.Context, endpoint, path string) ([]byte, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "product api client not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(path), nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build "+endpoint+" request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.count(endpoint, "error")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute "+endpoint+" request")
	}
	defer func() { _ = resp.Body.Close() }()
	c.count(endpoint, statusClass(resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		cause := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
		if resp.StatusCode == http.StatusNotFound {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, cause, endpoint+" not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, cause, endpoint+" request failed")
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyLimit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read "+endpoint+" response")
	}
	if len(body) == 0 {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("empty body"), endpoint+" request failed")
	}
	return body, nil
}

func (c *Client) buildURL(path string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", trimmed, path)
}

func (c *Client) count(endpoint, status string) {
	if c.metrics != nil {
		c.metrics.IncRequest(endpoint, status)
	}
}

func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}
