// Package toss is a typed client for the Toss Payments v1 API: payment
// confirmation, lookup, and full or partial cancellation.
package toss

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/go-faster/errors"
)

const defaultBaseURL = "https://api.tosspayments.com/v1"

// Payment mirrors the payment object returned by the processor.
type Payment struct {
	PaymentKey  string   `json:"paymentKey"`
	OrderID     string   `json:"orderId"`
	OrderName   string   `json:"orderName"`
	Status      string   `json:"status"`
	TotalAmount int64    `json:"totalAmount"`
	Method      string   `json:"method"`
	RequestedAt string   `json:"requestedAt"`
	ApprovedAt  string   `json:"approvedAt"`
	Cancels     []Cancel `json:"cancels"`
}

// Cancel is one cancellation entry of a payment.
type Cancel struct {
	CancelAmount int64  `json:"cancelAmount"`
	CancelReason string `json:"cancelReason"`
	CanceledAt   string `json:"canceledAt"`
}

// PaymentError is a rejection from the payment processor. Message is the
// processor's human-readable reason and is safe to surface to callers.
type PaymentError struct {
	Status  int
	Code    string
	Message string
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("toss: %s (%s)", e.Message, e.Code)
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for all processor calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithBaseURL points the client at a different host. Used by tests.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = base }
}

// Client talks to the Toss Payments API. The secret key is sent as HTTP Basic
// auth with an empty password, per the processor's protocol.
type Client struct {
	secretKey string
	baseURL   string
	http      *http.Client
}

// NewClient returns a Client authenticated with the given secret key.
func NewClient(secretKey string, opts ...Option) *Client {
	c := &Client{
		secretKey: secretKey,
		baseURL:   defaultBaseURL,
		http:      http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Confirm approves a client-initiated payment. The amount must match the
// amount the widget charged, or the processor rejects the confirmation.
func (c *Client) Confirm(ctx context.Context, paymentKey, orderID string, amount int64) (*Payment, error) {
	return c.post(ctx, "/payments/confirm", map[string]any{
		"paymentKey": paymentKey,
		"orderId":    orderID,
		"amount":     amount,
	})
}

// Payment fetches the current state of a payment.
func (c *Client) Payment(ctx context.Context, paymentKey string) (*Payment, error) {
	return c.request(ctx, http.MethodGet, "/payments/"+url.PathEscape(paymentKey), nil)
}

// Cancel voids a payment. A nil amount cancels the full remaining balance;
// a non-nil amount requests a partial cancellation.
func (c *Client) Cancel(ctx context.Context, paymentKey, reason string, amount *int64) (*Payment, error) {
	body := map[string]any{"cancelReason": reason}
	if amount != nil {
		body["cancelAmount"] = *amount
	}
	return c.post(ctx, "/payments/"+url.PathEscape(paymentKey)+"/cancel", body)
}

func (c *Client) post(ctx context.Context, path string, body map[string]any) (*Payment, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, "encode request")
	}
	return c.request(ctx, http.MethodPost, path, data)
}

func (c *Client) request(ctx context.Context, method, path string, body []byte) (*Payment, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Authorization", "Basic "+basicAuth(c.secretKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}

	if resp.StatusCode != http.StatusOK {
		var pe struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		perr := &PaymentError{Status: resp.StatusCode, Message: "payment request rejected"}
		if err := json.Unmarshal(respBody, &pe); err == nil && pe.Message != "" {
			perr.Code = pe.Code
			perr.Message = pe.Message
		}
		return nil, perr
	}

	var p Payment
	if err := json.Unmarshal(respBody, &p); err != nil {
		return nil, errors.Wrap(err, "decode payment")
	}
	return &p, nil
}

// basicAuth encodes the secret key the way the processor expects:
// base64("<secretKey>:").
func basicAuth(secretKey string) string {
	return base64.StdEncoding.EncodeToString([]byte(secretKey + ":"))
}
