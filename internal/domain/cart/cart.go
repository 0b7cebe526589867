// Package cart holds server-side shopping carts. Carts are keyed by an opaque
// id carried in a browser cookie; line prices are snapshotted from the catalog
// at add time and totals are recomputed from the lines on every mutation.
package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/domain/product"
)

var (
	// ErrNotFound is returned when no cart exists under the given id.
	ErrNotFound = errors.New("cart not found")
	// ErrInvalidQuantity rejects non-positive quantities on add.
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

// Item is one line of a cart. Price is the unit price captured when the line
// was created; LineTotal is Price times Quantity.
type Item struct {
	ID        string         `json:"id"`
	ProductID string         `json:"product_id"`
	VariantID string         `json:"variant_id"`
	Title     string         `json:"title"`
	Image     *product.Image `json:"image,omitempty"`
	Price     product.Price  `json:"price"`
	Quantity  int            `json:"quantity"`
	LineTotal product.Price  `json:"line_total"`
}

// Cart is a mutable bag of items with derived totals.
type Cart struct {
	ID        string        `json:"id"`
	Items     []Item        `json:"items"`
	ItemCount int           `json:"item_count"`
	Subtotal  product.Price `json:"subtotal"`
	Total     product.Price `json:"total"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Store persists carts. Implementations must return defensive copies so a
// caller can never mutate stored state through a returned value.
type Store interface {
	Get(ctx context.Context, id string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, id string) error
}
