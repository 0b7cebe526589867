// Package order keeps the storefront's own order book. Orders are created
// from a cart after payment confirmation, mirrored to the commerce vendor on
// a best-effort basis, and reconciled against the vendor's status later.
package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/cafe24"
	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/product"
)

var (
	// ErrNotFound is returned when no order exists under the given id.
	ErrNotFound = errors.New("order not found")
	// ErrEmptyCart rejects placing an order from a cart with no items.
	ErrEmptyCart = errors.New("cart is empty")
)

// Status is the storefront order lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// statusRank orders the forward-only lifecycle. Cancelled sits outside the
// rank chain and is reachable from any non-terminal state.
var statusRank = map[Status]int{
	StatusPending:   0,
	StatusPaid:      1,
	StatusShipped:   2,
	StatusDelivered: 3,
}

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransitionTo reports whether moving from s to next is legal: strictly
// forward along the lifecycle, or to cancelled from any non-terminal state.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return false
	}
	if s.Terminal() {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	return to > from
}

// vendorStatus maps the vendor's order status codes onto the storefront
// lifecycle. Codes outside this map are ignored during reconciliation.
var vendorStatus = map[string]Status{
	"N00": StatusPending,
	"N10": StatusPaid,
	"N20": StatusShipped,
	"N30": StatusDelivered,
	"C00": StatusCancelled,
}

// StatusFromVendor resolves a vendor status code. ok is false for codes the
// storefront does not model.
func StatusFromVendor(code string) (Status, bool) {
	s, ok := vendorStatus[code]
	return s, ok
}

// Item is one purchased line, frozen at order time.
type Item struct {
	ID        string        `json:"id"`
	ProductID string        `json:"product_id"`
	VariantID string        `json:"variant_id"`
	Title     string        `json:"title"`
	Price     product.Price `json:"price"`
	Quantity  int           `json:"quantity"`
	LineTotal product.Price `json:"line_total"`
}

// ShippingAddress is the recipient the order ships to.
type ShippingAddress struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	ZipCode  string `json:"zip_code"`
	Address1 string `json:"address1"`
	Address2 string `json:"address2,omitempty"`
}

// Order is the storefront's record of a purchase. VendorOrderID is empty when
// mirroring to the vendor failed; reconciliation skips such orders.
type Order struct {
	ID            string          `json:"id"`
	CartID        string          `json:"cart_id"`
	Items         []Item          `json:"items"`
	Total         product.Price   `json:"total"`
	Status        Status          `json:"status"`
	PaymentKey    string          `json:"payment_key,omitempty"`
	VendorOrderID string          `json:"cafe24_order_id,omitempty"`
	Shipping      ShippingAddress `json:"shipping_address"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Repository persists orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context, limit, offset int) ([]Order, error)
	Update(ctx context.Context, o *Order) error
}

// CartSource is the slice of the cart service the order flow needs.
type CartSource interface {
	Get(ctx context.Context, id string) (*cart.Cart, error)
	Clear(ctx context.Context, id string) (*cart.Cart, error)
}

// VendorGateway submits orders to and reads order state from the commerce
// vendor.
type VendorGateway interface {
	CreateOrder(ctx context.Context, req cafe24.OrderRequest) (*cafe24.OrderRecord, error)
	Order(ctx context.Context, orderID string) (*cafe24.OrderRecord, error)
}

// Mirror reports whether the vendor copy of an order was created.
type Mirror string

const (
	MirrorSubmitted Mirror = "submitted"
	MirrorFailed    Mirror = "failed"
)

// PlaceResult is the outcome of placing an order. MirrorErr carries the
// vendor failure when Mirror is MirrorFailed; the order itself is always
// valid.
type PlaceResult struct {
	Order     *Order
	Mirror    Mirror
	MirrorErr error
}
