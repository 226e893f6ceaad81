package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Backend is the contract the sync engines depend on. Tests substitute mocks
// for it; production wiring uses *Client.
type Backend interface {
	ListCustomers(ctx context.Context) ([]Customer, error)
	ListProducts(ctx context.Context) ([]Product, error)
	CreateCustomer(ctx context.Context, draft CustomerDraft) (*Customer, error)
	ListOrdersPage(ctx context.Context, page, limit int) (*OrderPage, error)
	ListOrders(ctx context.Context) ([]Order, error)
	GetOrder(ctx context.Context, id string) (*Order, error)
	CreateOrder(ctx context.Context, draft OrderDraft) (*Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status OrderStatus) error
}

// ErrNoDirectLookup signals that the backend does not expose GET /orders/{id};
// callers fall back to scanning the full order list.
var ErrNoDirectLookup = errors.New("backend: direct order lookup not supported")

// APIError is a non-2xx backend response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend: API error %d: %s", e.StatusCode, e.Body)
}

// Client talks JSON over HTTP to the order backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ Backend = (*Client)(nil)

// NewClient builds a client for the backend at baseURL. Timeouts beyond the
// given one are the caller's business via per-call contexts.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// ListCustomers fetches every customer.
func (c *Client) ListCustomers(ctx context.Context) ([]Customer, error) {
	var customers []Customer
	if err := c.getJSON(ctx, "/customers", &customers); err != nil {
		return nil, err
	}
	return customers, nil
}

// ListProducts fetches the product catalog.
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.getJSON(ctx, "/products", &products); err != nil {
		return nil, err
	}
	return products, nil
}

// CreateCustomer registers a new customer and returns it with its
// backend-assigned identifier.
func (c *Client) CreateCustomer(ctx context.Context, draft CustomerDraft) (*Customer, error) {
	var created Customer
	if err := c.doJSON(ctx, http.MethodPost, "/customers", draft, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ListOrdersPage fetches one page of orders. The backend answers with either
// a bare array or an object wrapping an "orders" array depending on the page;
// both are normalized into OrderPage here so callers never see the divergence.
func (c *Client) ListOrdersPage(ctx context.Context, page, limit int) (*OrderPage, error) {
	body, err := c.request(ctx, http.MethodGet, fmt.Sprintf("/orders?page=%d&limit=%d", page, limit), nil)
	if err != nil {
		return nil, err
	}
	orders, err := decodeOrderList(body)
	if err != nil {
		return nil, fmt.Errorf("backend: decoding orders page %d: %w", page, err)
	}
	return &OrderPage{Orders: orders, Limit: limit}, nil
}

// ListOrders fetches the backend's full, unpaginated order set.
func (c *Client) ListOrders(ctx context.Context) ([]Order, error) {
	body, err := c.request(ctx, http.MethodGet, "/orders", nil)
	if err != nil {
		return nil, err
	}
	orders, err := decodeOrderList(body)
	if err != nil {
		return nil, fmt.Errorf("backend: decoding order list: %w", err)
	}
	return orders, nil
}

// GetOrder fetches a single order by identifier. A 404 for an existing route
// means the order does not exist and yields (nil, nil); a 404/405 for the
// route itself yields ErrNoDirectLookup so callers can fall back to the full
// list.
func (c *Client) GetOrder(ctx context.Context, id string) (*Order, error) {
	body, err := c.request(ctx, http.MethodGet, "/orders/"+id, nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			switch apiErr.StatusCode {
			case http.StatusNotFound:
				// Express-style backends answer 404 both for a missing order
				// and for an unknown route; an HTML body marks the latter.
				if looksLikeRouteMiss(apiErr.Body) {
					return nil, ErrNoDirectLookup
				}
				return nil, nil
			case http.StatusMethodNotAllowed, http.StatusNotImplemented:
				return nil, ErrNoDirectLookup
			}
		}
		return nil, err
	}
	var order Order
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, fmt.Errorf("backend: decoding order %s: %w", id, err)
	}
	return &order, nil
}

// CreateOrder submits a new order and returns it with its backend-assigned
// identifier.
func (c *Client) CreateOrder(ctx context.Context, draft OrderDraft) (*Order, error) {
	var created Order
	if err := c.doJSON(ctx, http.MethodPost, "/orders", draft, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateOrderStatus patches the status of one order. Any 2xx is success; the
// response body carries no contract.
func (c *Client) UpdateOrderStatus(ctx context.Context, id string, status OrderStatus) error {
	payload := struct {
		Status OrderStatus `json:"status"`
	}{Status: status}
	_, err := c.request(ctx, http.MethodPatch, "/orders/"+id+"/status", payload)
	return err
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	body, err := c.request(ctx, method, path, in)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("backend: decoding %s %s response: %w", method, path, err)
	}
	return nil
}

// request performs one HTTP exchange against the backend. Non-2xx responses
// become *APIError; transport failures are returned as-is so the caller
// treats both identically for state management.
func (c *Client) request(ctx context.Context, method, path string, in interface{}) ([]byte, error) {
	var reqBody io.Reader
	if in != nil {
		jsonBody, err := json.Marshal(in)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("backend request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("backend returned error status",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Int("status", resp.StatusCode))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return respBody, nil
}

// decodeOrderList accepts both backend list shapes: a bare JSON array and an
// object with an "orders" array.
func decodeOrderList(body []byte) ([]Order, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var orders []Order
		if err := json.Unmarshal(trimmed, &orders); err != nil {
			return nil, err
		}
		return orders, nil
	}
	var wrapped struct {
		Orders []Order `json:"orders"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Orders, nil
}

func looksLikeRouteMiss(body string) bool {
	trimmed := bytes.TrimSpace([]byte(body))
	return len(trimmed) == 0 || trimmed[0] == '<'
}
