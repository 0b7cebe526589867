package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Price is a currency-tagged amount. Amounts are whole currency units (KRW
// has no subunit) and serialize as decimal strings to avoid float precision
// loss on the wire.
type Price struct {
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currency_code"`
}

// KRW wraps an amount in the storefront's currency.
func KRW(amount decimal.Decimal) Price {
	return Price{Amount: amount, CurrencyCode: "KRW"}
}

// ZeroKRW is the empty total.
func ZeroKRW() Price {
	return KRW(decimal.Zero)
}

// Image is a display image with alt text.
type Image struct {
	URL string `json:"url"`
	Alt string `json:"alt"`
}

// Variant is a purchasable option of a product. Products without vendor
// variants get a single synthesized "default" variant.
type Variant struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Price     Price  `json:"price"`
	Available bool   `json:"available"`
}

// Product is the storefront-facing product shape derived from the vendor
// catalog.
type Product struct {
	ID             string    `json:"id"`
	Handle         string    `json:"handle"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Price          Price     `json:"price"`
	CompareAtPrice *Price    `json:"compare_at_price,omitempty"`
	FeaturedImage  *Image    `json:"featured_image,omitempty"`
	Images         []Image   `json:"images"`
	Variants       []Variant `json:"variants"`
	Available      bool      `json:"available"`
	Tags           []string  `json:"tags"`
	CategoryNo     int       `json:"category_no,omitempty"`
}

// Category is a storefront catalog category.
type Category struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parent_id,omitempty"`
	Path     string `json:"path"`
}

// ListPage is one page of the product listing.
type ListPage struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	Limit    int       `json:"limit"`
	HasNext  bool      `json:"has_next"`
}

// Catalog resolves product references to priced products. The cart store
// prices its lines against this capability.
type Catalog interface {
	Get(ctx context.Context, id string) (*Product, error)
}
