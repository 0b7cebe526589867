package cafe24

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVendor struct {
	mu sync.Mutex

	validToken    string
	refreshToken  string
	tokenGrants   atomic.Int32
	apiCalls      atomic.Int32
	lastOrderBody []byte
	failRefresh   bool
	grantStale    bool
}

func (f *fakeVendor) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v2/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenGrants.Add(1)
		if f.failRefresh {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "client-id", user)
		assert.Equal(t, "client-secret", pass)

		if !f.grantStale {
			f.mu.Lock()
			f.validToken = "fresh-token"
			f.mu.Unlock()
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "fresh-token",
			"refresh_token": "fresh-refresh",
			"expires_in":    7200,
		})
	})

	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			f.apiCalls.Add(1)
			f.mu.Lock()
			valid := "Bearer " + f.validToken
			f.mu.Unlock()
			if r.Header.Get("Authorization") != valid {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next(w, r)
		}
	}

	mux.HandleFunc("GET /api/v2/admin/products/42", authed(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "variants,images", r.URL.Query().Get("embed"))
		_, _ = w.Write([]byte(`{"product": {
			"product_no": 42,
			"product_name": "Linen Shirt",
			"price": "29000.00",
			"detail_image": "https://cdn.example.com/42.jpg",
			"display": "T"
		}}`))
	}))

	mux.HandleFunc("POST /api/v2/admin/orders", authed(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.lastOrderBody = body
		f.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"order": {"order_id": "20260828-0001", "order_status": "N10"}}`))
	}))

	mux.HandleFunc("GET /api/v2/admin/products", authed(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"products": [], "count": 0}`))
	}))

	return mux
}

func newTestClient(t *testing.T, f *fakeVendor, seed Token) (*Client, *FileTokenStore) {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)

	store := NewFileTokenStore(filepath.Join(t.TempDir(), "token.json"))
	require.NoError(t, store.Save(context.Background(), seed))

	c, err := NewClient(context.Background(), Config{
		MallID:       "testmall",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "http://localhost:3000/auth/callback",
	}, store, WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c, store
}

func TestClient_RefreshAndRetryOn401(t *testing.T) {
	f := &fakeVendor{validToken: "fresh-token", refreshToken: "old-refresh"}
	c, store := newTestClient(t, f, Token{AccessToken: "stale", RefreshToken: "old-refresh"})

	p, err := c.Product(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 42, p.ProductNo)
	assert.Equal(t, "Linen Shirt", p.ProductName)
	assert.Equal(t, "29000", p.Price.String())

	// One grant, and the refreshed token must have been persisted.
	assert.EqualValues(t, 1, f.tokenGrants.Load())
	saved, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", saved.AccessToken)
	assert.Equal(t, "fresh-refresh", saved.RefreshToken)
}

func TestClient_SecondUnauthorizedIsAuthError(t *testing.T) {
	// The grant succeeds but hands out a token the API keeps rejecting.
	f := &fakeVendor{validToken: "never-matches", grantStale: true}
	c, _ := newTestClient(t, f, Token{AccessToken: "stale", RefreshToken: "r"})

	_, err := c.Product(context.Background(), 42)
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Contains(t, authErr.Reason, "after token refresh")
}

func TestClient_RefreshFailureSurfacesAuthError(t *testing.T) {
	f := &fakeVendor{validToken: "valid", failRefresh: true}
	c, _ := newTestClient(t, f, Token{AccessToken: "stale", RefreshToken: "r"})

	_, err := c.Product(context.Background(), 42)
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Contains(t, authErr.Reason, "refresh")
}

func TestClient_NoTokenFailsFast(t *testing.T) {
	f := &fakeVendor{validToken: "valid"}
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)

	store := NewFileTokenStore(filepath.Join(t.TempDir(), "token.json"))
	c, err := NewClient(context.Background(), Config{
		MallID: "testmall", ClientID: "client-id", ClientSecret: "client-secret",
	}, store, WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	_, err = c.Products(context.Background(), ProductQuery{Limit: 10})
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.EqualValues(t, 0, f.apiCalls.Load())
}

func TestClient_ConcurrentRefreshCollapses(t *testing.T) {
	f := &fakeVendor{validToken: "fresh-token"}
	c, _ := newTestClient(t, f, Token{AccessToken: "stale", RefreshToken: "r"})

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = c.Refresh(context.Background())
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, f.tokenGrants.Load(), "concurrent refreshes must collapse to one grant")
}

func TestClient_CreateOrderPayload(t *testing.T) {
	f := &fakeVendor{validToken: "tok"}
	c, _ := newTestClient(t, f, Token{AccessToken: "tok", RefreshToken: "r"})

	rec, err := c.CreateOrder(context.Background(), OrderRequest{
		OrderID:       "internal-1",
		PaymentMethod: "etc",
		Paid:          true,
		Items: []OrderItemRequest{
			{ProductNo: 42, Quantity: 2, ProductPrice: 29000},
		},
		Receiver: Receiver{Name: "Hong Gildong", Phone: "010-1234-5678", Zipcode: "12345", Address1: "Seoul"},
	})
	require.NoError(t, err)
	assert.Equal(t, "20260828-0001", rec.OrderID)

	var payload struct {
		Order struct {
			OrderID       string `json:"order_id"`
			PaymentMethod string `json:"payment_method"`
			Paid          string `json:"paid"`
			Items         []struct {
				ProductNo    int   `json:"product_no"`
				Quantity     int   `json:"quantity"`
				ProductPrice int64 `json:"product_price"`
			} `json:"items"`
			ReceiverName     string `json:"receiver_name"`
			ReceiverAddress2 string `json:"receiver_address2"`
		} `json:"order"`
	}
	f.mu.Lock()
	body := f.lastOrderBody
	f.mu.Unlock()
	require.NoError(t, json.Unmarshal(body, &payload))

	assert.Equal(t, "internal-1", payload.Order.OrderID)
	assert.Equal(t, "etc", payload.Order.PaymentMethod)
	assert.Equal(t, "T", payload.Order.Paid)
	require.Len(t, payload.Order.Items, 1)
	assert.Equal(t, 42, payload.Order.Items[0].ProductNo)
	assert.EqualValues(t, 29000, payload.Order.Items[0].ProductPrice)
	assert.Equal(t, "Hong Gildong", payload.Order.ReceiverName)
	assert.Equal(t, "", payload.Order.ReceiverAddress2)
}

func TestFileTokenStore_MissingFile(t *testing.T) {
	store := NewFileTokenStore(filepath.Join(t.TempDir(), "nope.json"))
	_, err := store.Load(context.Background())
	require.True(t, errors.Is(err, ErrNoToken))
}
