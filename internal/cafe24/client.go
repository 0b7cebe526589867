// Package cafe24 is a typed client for the Cafe24 Admin API: product and
// category reads, order submission, and the OAuth token lifecycle with
// transparent refresh-and-retry on credential expiry.
package cafe24

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const defaultAPIVersion = "2025-12-01"

// APIError is a non-success response from the vendor commerce API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("cafe24: api error (status %d): %s", e.Status, e.Message)
}

// AuthError indicates the vendor credential is invalid and could not be
// refreshed. It is terminal for the request that observed it.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cafe24: auth failed: %s: %v", e.Reason, e.Err)
	}
	return "cafe24: auth failed: " + e.Reason
}

func (e *AuthError) Unwrap() error { return e.Err }

// Config holds the static vendor credentials for one mall.
type Config struct {
	MallID       string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	APIVersion   string

	// AccessToken/RefreshToken seed the client when the TokenStore is empty,
	// e.g. tokens issued manually from the developer console.
	AccessToken  string
	RefreshToken string
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for all vendor calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithBaseURL points the client at a different host, keeping the vendor's
// /api/v2 path layout. Used by tests.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.apiBase = base + "/api/v2/admin"
		c.authBase = base + "/api/v2/oauth"
	}
}

// Client talks to the Cafe24 Admin API on behalf of a single mall.
//
// The access token is shared mutable state: reads take the RLock, and a
// refresh is collapsed through a singleflight group so concurrent callers
// observing an expired credential trigger at most one token exchange.
type Client struct {
	cfg      Config
	http     *http.Client
	store    TokenStore
	apiBase  string
	authBase string

	mu    sync.RWMutex
	token Token

	refresh singleflight.Group
}

// NewClient builds a Client and loads the persisted token, falling back to
// the seed tokens from cfg. A missing token is not an error; API calls made
// before authorization fail with an AuthError.
func NewClient(ctx context.Context, cfg Config, store TokenStore, opts ...Option) (*Client, error) {
	if cfg.MallID == "" {
		return nil, errors.New("cafe24: mall id is required")
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = defaultAPIVersion
	}

	c := &Client{
		cfg:      cfg,
		http:     http.DefaultClient,
		store:    store,
		apiBase:  fmt.Sprintf("https://%s.cafe24api.com/api/v2/admin", cfg.MallID),
		authBase: fmt.Sprintf("https://%s.cafe24api.com/api/v2/oauth", cfg.MallID),
	}
	for _, opt := range opts {
		opt(c)
	}

	t, err := store.Load(ctx)
	switch {
	case err == nil:
		c.token = t
	case errors.Is(err, ErrNoToken):
		if cfg.AccessToken != "" {
			c.token = Token{AccessToken: cfg.AccessToken, RefreshToken: cfg.RefreshToken}
		}
	default:
		return nil, errors.Wrap(err, "load token")
	}

	return c, nil
}

// AuthorizeURL returns the URL a merchant opens to grant the app access.
func (c *Client) AuthorizeURL(state string) string {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", c.cfg.ClientID)
	q.Set("redirect_uri", c.cfg.RedirectURI)
	q.Set("scope", "mall.read_product,mall.read_category,mall.write_order,mall.read_order")
	q.Set("state", state)
	return c.authBase + "/authorize?" + q.Encode()
}

// ExchangeCode trades an authorization code for a token pair and persists it.
func (c *Client) ExchangeCode(ctx context.Context, code string) (Token, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", c.cfg.RedirectURI)

	t, err := c.tokenRequest(ctx, form)
	if err != nil {
		return Token{}, &AuthError{Reason: "code exchange failed", Err: err}
	}
	c.setToken(ctx, t)
	return t, nil
}

// Refresh exchanges the stored refresh token for a new token pair. Concurrent
// calls are collapsed into one in-flight exchange; the vendor's refresh
// endpoint is idempotent, so every waiter can share the same result.
func (c *Client) Refresh(ctx context.Context) (Token, error) {
	v, err, _ := c.refresh.Do("refresh", func() (any, error) {
		c.mu.RLock()
		refreshToken := c.token.RefreshToken
		c.mu.RUnlock()

		if refreshToken == "" {
			return Token{}, &AuthError{Reason: "no refresh token"}
		}

		form := url.Values{}
		form.Set("grant_type", "refresh_token")
		form.Set("refresh_token", refreshToken)

		t, err := c.tokenRequest(ctx, form)
		if err != nil {
			return Token{}, &AuthError{Reason: "token refresh failed", Err: err}
		}
		// Some refresh responses omit the refresh token; keep the old one.
		if t.RefreshToken == "" {
			t.RefreshToken = refreshToken
		}
		c.setToken(ctx, t)
		return t, nil
	})
	if err != nil {
		return Token{}, err
	}
	return v.(Token), nil
}

// SetToken installs and persists a token pair issued out of band.
func (c *Client) SetToken(ctx context.Context, t Token) {
	c.setToken(ctx, t)
}

func (c *Client) setToken(ctx context.Context, t Token) {
	c.mu.Lock()
	c.token = t
	c.mu.Unlock()

	if err := c.store.Save(ctx, t); err != nil {
		zctx.From(ctx).Warn("Persisting vendor token failed", zap.Error(err))
	}
}

func (c *Client) tokenRequest(ctx context.Context, form url.Values) (Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authBase+"/token",
		bytes.NewBufferString(form.Encode()))
	if err != nil {
		return Token{}, errors.Wrap(err, "build token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return Token{}, errors.Wrap(err, "token request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Token{}, errors.Wrap(err, "read token response")
	}
	if resp.StatusCode != http.StatusOK {
		return Token{}, errors.Errorf("token endpoint returned %d: %s", resp.StatusCode, body)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return Token{}, errors.Wrap(err, "decode token response")
	}
	return Token{AccessToken: tr.AccessToken, RefreshToken: tr.RefreshToken}, nil
}

// do performs one authenticated API call. On a 401 it refreshes the token and
// retries exactly once; a second 401 surfaces as an AuthError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte) ([]byte, error) {
	status, respBody, err := c.send(ctx, method, path, query, body)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized {
		zctx.From(ctx).Info("Vendor token expired, refreshing")
		if _, err := c.Refresh(ctx); err != nil {
			return nil, err
		}
		status, respBody, err = c.send(ctx, method, path, query, body)
		if err != nil {
			return nil, err
		}
		if status == http.StatusUnauthorized {
			return nil, &AuthError{Reason: "request rejected after token refresh"}
		}
	}

	if status < 200 || status >= 300 {
		return nil, &APIError{Status: status, Message: vendorMessage(respBody)}
	}
	return respBody, nil
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body []byte) (int, []byte, error) {
	c.mu.RLock()
	accessToken := c.token.AccessToken
	c.mu.RUnlock()

	if accessToken == "" {
		return 0, nil, &AuthError{Reason: "no access token, authorize the app first"}
	}

	u := c.apiBase + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return 0, nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Cafe24-Api-Version", c.cfg.APIVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, errors.Wrap(err, "read response")
	}
	return resp.StatusCode, respBody, nil
}

// vendorMessage extracts the human-readable error message from a vendor error
// body, falling back to the raw body.
func vendorMessage(body []byte) string {
	var er apiErrorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Error.Message != "" {
		return er.Error.Message
	}
	return string(body)
}

// Products lists products, optionally filtered by category.
func (c *Client) Products(ctx context.Context, q ProductQuery) (*ProductsPage, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(q.Limit))
	query.Set("offset", strconv.Itoa(q.Offset))
	if q.Category > 0 {
		query.Set("category", strconv.Itoa(q.Category))
	}

	body, err := c.do(ctx, http.MethodGet, "/products", query, nil)
	if err != nil {
		return nil, err
	}

	var pr productsResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return nil, errors.Wrap(err, "decode products")
	}
	return &ProductsPage{Products: pr.Products, Count: pr.Count}, nil
}

// Product fetches a single product with variants and images embedded.
func (c *Client) Product(ctx context.Context, productNo int) (*Product, error) {
	query := url.Values{}
	query.Set("embed", "variants,images")

	body, err := c.do(ctx, http.MethodGet, "/products/"+strconv.Itoa(productNo), query, nil)
	if err != nil {
		return nil, err
	}

	var pr productResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return nil, errors.Wrap(err, "decode product")
	}
	if pr.Product == nil {
		return nil, &APIError{Status: http.StatusNotFound, Message: "product not found"}
	}
	return pr.Product, nil
}

// Categories lists all mall categories.
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	body, err := c.do(ctx, http.MethodGet, "/categories", nil, nil)
	if err != nil {
		return nil, err
	}

	var cr categoriesResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return nil, errors.Wrap(err, "decode categories")
	}
	return cr.Categories, nil
}

// CreateOrder submits a mirrored order to the vendor platform.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*OrderRecord, error) {
	body, err := c.do(ctx, http.MethodPost, "/orders", nil, encodeOrderRequest(req))
	if err != nil {
		return nil, err
	}

	var or orderResponse
	if err := json.Unmarshal(body, &or); err != nil {
		return nil, errors.Wrap(err, "decode order")
	}
	if or.Order == nil {
		return nil, &APIError{Status: http.StatusBadGateway, Message: "empty order response"}
	}
	return or.Order, nil
}

// Order fetches a vendor order by its vendor-assigned identifier.
func (c *Client) Order(ctx context.Context, orderID string) (*OrderRecord, error) {
	body, err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID), nil, nil)
	if err != nil {
		return nil, err
	}

	var or orderResponse
	if err := json.Unmarshal(body, &or); err != nil {
		return nil, errors.Wrap(err, "decode order")
	}
	if or.Order == nil {
		return nil, &APIError{Status: http.StatusNotFound, Message: "order not found"}
	}
	return or.Order, nil
}

// Orders lists vendor orders.
func (c *Client) Orders(ctx context.Context, limit, offset int) ([]OrderRecord, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))

	body, err := c.do(ctx, http.MethodGet, "/orders", query, nil)
	if err != nil {
		return nil, err
	}

	var or ordersResponse
	if err := json.Unmarshal(body, &or); err != nil {
		return nil, errors.Wrap(err, "decode orders")
	}
	return or.Orders, nil
}

// encodeOrderRequest builds the vendor order payload. The vendor expects the
// tri-state paid flag as "T"/"F" strings, not booleans.
func encodeOrderRequest(req OrderRequest) []byte {
	e := &jx.Encoder{}
	e.ObjStart()
	e.FieldStart("order")
	e.ObjStart()

	e.FieldStart("order_id")
	e.Str(req.OrderID)
	e.FieldStart("payment_method")
	e.Str(req.PaymentMethod)
	e.FieldStart("paid")
	if req.Paid {
		e.Str("T")
	} else {
		e.Str("F")
	}

	e.FieldStart("items")
	e.ArrStart()
	for _, it := range req.Items {
		e.ObjStart()
		e.FieldStart("product_no")
		e.Int(it.ProductNo)
		e.FieldStart("quantity")
		e.Int(it.Quantity)
		e.FieldStart("product_price")
		e.Int64(it.ProductPrice)
		e.ObjEnd()
	}
	e.ArrEnd()

	e.FieldStart("receiver_name")
	e.Str(req.Receiver.Name)
	e.FieldStart("receiver_phone")
	e.Str(req.Receiver.Phone)
	e.FieldStart("receiver_zipcode")
	e.Str(req.Receiver.Zipcode)
	e.FieldStart("receiver_address1")
	e.Str(req.Receiver.Address1)
	e.FieldStart("receiver_address2")
	e.Str(req.Receiver.Address2)

	e.ObjEnd()
	e.ObjEnd()
	return e.Bytes()
}
