package cafe24

import (
	"github.com/shopspring/decimal"
)

// Product mirrors the subset of the Cafe24 Admin API product resource that the
// storefront consumes. Price fields arrive as either JSON numbers or decimal
// strings depending on the endpoint; decimal.Decimal accepts both.
type Product struct {
	ProductNo        int               `json:"product_no"`
	ProductName      string            `json:"product_name"`
	Description      string            `json:"description"`
	Price            decimal.Decimal   `json:"price"`
	RetailPrice      decimal.Decimal   `json:"retail_price"`
	DetailImage      string            `json:"detail_image"`
	AdditionalImages []string          `json:"additional_images"`
	Display          string            `json:"display"`
	ProductTag       string            `json:"product_tag"`
	Category         []ProductCategory `json:"category"`
	Variants         []Variant         `json:"variants"`
}

// ProductCategory is the category assignment embedded in a product record.
type ProductCategory struct {
	CategoryNo int `json:"category_no"`
}

// Variant is a purchasable option of a product.
type Variant struct {
	VariantCode      string          `json:"variant_code"`
	AdditionalAmount decimal.Decimal `json:"additional_amount"`
	Quantity         int             `json:"quantity"`
	Options          []VariantOption `json:"options"`
}

// VariantOption is a single name/value pair describing a variant.
type VariantOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Category is a mall category as returned by GET /categories.
// FullCategoryName is keyed by depth ("1" is the top level name).
type Category struct {
	CategoryNo       int               `json:"category_no"`
	CategoryName     string            `json:"category_name"`
	ParentCategoryNo int               `json:"parent_category_no"`
	FullCategoryName map[string]string `json:"full_category_name"`
}

// ProductQuery filters a product listing request.
type ProductQuery struct {
	Limit    int
	Offset   int
	Category int
}

// ProductsPage is one page of a product listing.
type ProductsPage struct {
	Products []Product `json:"products"`
	Count    int       `json:"count"`
}

// OrderItemRequest is one line of a vendor order submission.
type OrderItemRequest struct {
	ProductNo    int
	Quantity     int
	ProductPrice int64
}

// Receiver holds the shipping destination of a vendor order.
type Receiver struct {
	Name     string
	Phone    string
	Zipcode  string
	Address1 string
	Address2 string
}

// OrderRequest is the payload submitted to POST /orders. Paid marks the order
// as settled through an external payment method.
type OrderRequest struct {
	OrderID       string
	PaymentMethod string
	Paid          bool
	Items         []OrderItemRequest
	Receiver      Receiver
}

// OrderRecord mirrors the vendor's order resource.
type OrderRecord struct {
	OrderID     string `json:"order_id"`
	OrderStatus string `json:"order_status"`
	Paid        string `json:"paid"`
	OrderDate   string `json:"order_date"`
}

type productsResponse struct {
	Products []Product `json:"products"`
	Count    int       `json:"count"`
}

type productResponse struct {
	Product *Product `json:"product"`
}

type categoriesResponse struct {
	Categories []Category `json:"categories"`
}

type orderResponse struct {
	Order *OrderRecord `json:"order"`
}

type ordersResponse struct {
	Orders []OrderRecord `json:"orders"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
