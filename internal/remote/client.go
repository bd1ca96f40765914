package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Client is the order-store contract the terminal depends on. Satisfied by
// *HTTPClient; narrow enough to mock in tests.
type Client interface {
	Login(ctx context.Context, phone, password string) (*TokenPair, error)
	PinLogin(ctx context.Context, pin int) (*TokenPair, error)
	Me(ctx context.Context) (*User, error)

	FetchOrder(ctx context.Context, id string) (*Order, error)
	FetchMenuItems(ctx context.Context) ([]MenuItem, error)
	CreateOrderItems(ctx context.Context, orderID string, items []NewOrderItem) ([]OrderItem, error)
	UpdateOrderItem(ctx context.Context, itemID string, upd ItemUpdate) (*OrderItem, error)
	DeleteOrderItem(ctx context.Context, itemID string) error
	UpdateOrderStatus(ctx context.Context, orderID, status string) (*Order, error)
}

// TokenSource supplies and receives JWT tokens. Satisfied by *auth.Session.
type TokenSource interface {
	AccessToken() string
	RefreshToken() string
	SetAccessToken(token string)
}

// APIError is a non-2xx response from the remote store.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("remote store: %d %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a remote 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// HTTPClient talks to the remote order store over HTTP with bearer-token
// auth. On a 401 it refreshes the access token once and retries the
// request, mirroring the terminal's previous token-refresh behavior.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

// NewHTTPClient creates a client for the store at baseURL. Timeouts and
// retries beyond the single refresh-retry belong to the injected hc.
func NewHTTPClient(baseURL string, hc *http.Client, tokens TokenSource) *HTTPClient {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
		tokens:  tokens,
	}
}

// --- Auth endpoints (public) ---

func (c *HTTPClient) Login(ctx context.Context, phone, password string) (*TokenPair, error) {
	body := map[string]string{"phone_number": phone, "password": password}
	var pair TokenPair
	if err := c.doPublic(ctx, http.MethodPost, "/phone-jwt-login/", body, &pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

func (c *HTTPClient) PinLogin(ctx context.Context, pin int) (*TokenPair, error) {
	body := map[string]int{"pin": pin}
	var pair TokenPair
	if err := c.doPublic(ctx, http.MethodPost, "/pin-login/", body, &pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

func (c *HTTPClient) Me(ctx context.Context) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/getme/", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// --- Order store endpoints ---

func (c *HTTPClient) FetchOrder(ctx context.Context, id string) (*Order, error) {
	var o Order
	if err := c.do(ctx, http.MethodGet, "/orders/"+id+"/", nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *HTTPClient) FetchMenuItems(ctx context.Context) ([]MenuItem, error) {
	var items []MenuItem
	if err := c.do(ctx, http.MethodGet, "/menuitems/", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

type bulkCreateRequest struct {
	Order string         `json:"order"`
	Items []NewOrderItem `json:"items"`
}

func (c *HTTPClient) CreateOrderItems(ctx context.Context, orderID string, items []NewOrderItem) ([]OrderItem, error) {
	var created []OrderItem
	req := bulkCreateRequest{Order: orderID, Items: items}
	if err := c.do(ctx, http.MethodPost, "/orderitems/", req, &created); err != nil {
		return nil, err
	}
	return created, nil
}

func (c *HTTPClient) UpdateOrderItem(ctx context.Context, itemID string, upd ItemUpdate) (*OrderItem, error) {
	var item OrderItem
	if err := c.do(ctx, http.MethodPut, "/orderitems/"+itemID+"/", upd, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *HTTPClient) DeleteOrderItem(ctx context.Context, itemID string) error {
	return c.do(ctx, http.MethodDelete, "/orderitems/"+itemID+"/", nil, nil)
}

func (c *HTTPClient) UpdateOrderStatus(ctx context.Context, orderID, status string) (*Order, error) {
	body := map[string]string{"order_status": status}
	var o Order
	if err := c.do(ctx, http.MethodPatch, "/orders/"+orderID+"/", body, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// --- Request plumbing ---

// do performs an authenticated request. A 401 triggers one token refresh
// followed by a single retry; a second 401 is returned to the caller.
func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	err := c.roundTrip(ctx, method, path, body, out, true)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
		if refreshErr := c.refreshAccess(ctx); refreshErr != nil {
			return err
		}
		return c.roundTrip(ctx, method, path, body, out, true)
	}
	return err
}

func (c *HTTPClient) doPublic(ctx context.Context, method, path string, body, out any) error {
	return c.roundTrip(ctx, method, path, body, out, false)
}

func (c *HTTPClient) refreshAccess(ctx context.Context) error {
	refresh := c.tokens.RefreshToken()
	if refresh == "" {
		return errors.New("no refresh token")
	}
	var resp struct {
		Access string `json:"access"`
	}
	body := map[string]string{"refresh": refresh}
	if err := c.roundTrip(ctx, http.MethodPost, "/auth/refresh/", body, &resp, false); err != nil {
		return fmt.Errorf("refresh token: %w", err)
	}
	c.tokens.SetAccessToken(resp.Access)
	return nil
}

func (c *HTTPClient) roundTrip(ctx context.Context, method, path string, body, out any, authed bool) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if authed {
		if token := c.tokens.AccessToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    readErrorMessage(resp.Body),
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// readErrorMessage extracts an error string from a failed response body.
// The store answers either {"error": "..."} or {"detail": "..."}.
func readErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(raw) == 0 {
		return "no response body"
	}
	var parsed struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &parsed); err == nil {
		if parsed.Error != "" {
			return parsed.Error
		}
		if parsed.Detail != "" {
			return parsed.Detail
		}
	}
	return string(raw)
}
