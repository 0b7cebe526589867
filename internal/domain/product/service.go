package product

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/cafe24"
)

// defaultVariantTitle labels the synthesized variant of a product the vendor
// ships without explicit options.
const defaultVariantTitle = "기본"

// Gateway is the slice of the vendor commerce API the catalog needs.
type Gateway interface {
	Products(ctx context.Context, q cafe24.ProductQuery) (*cafe24.ProductsPage, error)
	Product(ctx context.Context, productNo int) (*cafe24.Product, error)
	Categories(ctx context.Context) ([]cafe24.Category, error)
}

// ListQuery selects a page of the catalog.
type ListQuery struct {
	Page       int
	Limit      int
	CategoryNo int
	// IncludeChildren expands a category filter to its direct child
	// categories as well.
	IncludeChildren bool
}

// Service reshapes vendor catalog data into the storefront product model.
type Service struct {
	vendor Gateway
}

// NewService returns a catalog service backed by the vendor gateway.
func NewService(vendor Gateway) *Service {
	return &Service{vendor: vendor}
}

var _ Catalog = (*Service)(nil)

// Get fetches and reshapes a single product. Non-numeric references and
// vendor 404s both map to ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*Product, error) {
	no, err := strconv.Atoi(id)
	if err != nil {
		return nil, errors.Wrapf(ErrNotFound, "invalid product id %q", id)
	}

	vp, err := s.vendor.Product(ctx, no)
	if err != nil {
		var apiErr *cafe24.APIError
		if errors.As(err, &apiErr) && apiErr.Status == 404 {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "get product %d", no)
	}

	p := transform(vp)
	return &p, nil
}

// List returns one page of products. With a category filter and
// IncludeChildren set, products of the category's direct children are merged
// in and de-duplicated before pagination.
func (s *Service) List(ctx context.Context, q ListQuery) (*ListPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 10
	}
	offset := (q.Page - 1) * q.Limit

	if q.CategoryNo > 0 && q.IncludeChildren {
		return s.listWithChildren(ctx, q, offset)
	}

	page, err := s.vendor.Products(ctx, cafe24.ProductQuery{
		Limit:    q.Limit,
		Offset:   offset,
		Category: q.CategoryNo,
	})
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}

	products := make([]Product, len(page.Products))
	for i := range page.Products {
		products[i] = transform(&page.Products[i])
	}
	total := page.Count
	if total == 0 {
		total = len(products)
	}

	return &ListPage{
		Products: products,
		Total:    total,
		Page:     q.Page,
		Limit:    q.Limit,
		HasNext:  offset+q.Limit < total,
	}, nil
}

// listWithChildren fetches the parent category and each child category, then
// paginates over the merged, de-duplicated result.
func (s *Service) listWithChildren(ctx context.Context, q ListQuery, offset int) (*ListPage, error) {
	categoryIDs := []int{q.CategoryNo}
	children, err := s.childCategoryIDs(ctx, q.CategoryNo)
	if err != nil {
		return nil, err
	}
	categoryIDs = append(categoryIDs, children...)

	var all []Product
	seen := make(map[int]struct{})
	for _, catID := range categoryIDs {
		page, err := s.vendor.Products(ctx, cafe24.ProductQuery{
			Limit:    100,
			Category: catID,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "list products of category %d", catID)
		}
		for i := range page.Products {
			vp := &page.Products[i]
			if _, ok := seen[vp.ProductNo]; ok {
				continue
			}
			seen[vp.ProductNo] = struct{}{}
			all = append(all, transform(vp))
		}
	}

	total := len(all)
	end := min(offset+q.Limit, total)
	var products []Product
	if offset < total {
		products = all[offset:end]
	}

	return &ListPage{
		Products: products,
		Total:    total,
		Page:     q.Page,
		Limit:    q.Limit,
		HasNext:  offset+q.Limit < total,
	}, nil
}

func (s *Service) childCategoryIDs(ctx context.Context, parent int) ([]int, error) {
	cats, err := s.vendor.Categories(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}

	var ids []int
	for _, c := range cats {
		if c.ParentCategoryNo == parent {
			ids = append(ids, c.CategoryNo)
		}
	}
	return ids, nil
}

// Categories returns the storefront category tree as a flat list.
func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	cats, err := s.vendor.Categories(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}

	out := make([]Category, len(cats))
	for i, c := range cats {
		parentID := ""
		if c.ParentCategoryNo > 0 {
			parentID = strconv.Itoa(c.ParentCategoryNo)
		}
		out[i] = Category{
			ID:       strconv.Itoa(c.CategoryNo),
			Name:     c.CategoryName,
			ParentID: parentID,
			Path:     c.FullCategoryName["1"],
		}
	}
	return out, nil
}

// transform maps a vendor product record onto the storefront shape.
// Defaulting rules: a missing detail image leaves FeaturedImage absent, and
// a product without vendor variants gets one synthesized default variant
// priced at the base price.
func transform(vp *cafe24.Product) Product {
	id := strconv.Itoa(vp.ProductNo)
	price := KRW(vp.Price)

	var featured *Image
	var images []Image
	if vp.DetailImage != "" {
		featured = &Image{URL: vp.DetailImage, Alt: vp.ProductName}
		images = append(images, *featured)
	}
	for _, u := range vp.AdditionalImages {
		if u != "" {
			images = append(images, Image{URL: u})
		}
	}

	var compareAt *Price
	if vp.RetailPrice.IsPositive() {
		p := KRW(vp.RetailPrice)
		compareAt = &p
	}

	variants := make([]Variant, 0, len(vp.Variants))
	for _, vv := range vp.Variants {
		title := defaultVariantTitle
		if len(vv.Options) > 0 && vv.Options[0].Value != "" {
			title = vv.Options[0].Value
		}
		variants = append(variants, Variant{
			ID:        vv.VariantCode,
			Title:     title,
			Price:     KRW(vp.Price.Add(vv.AdditionalAmount)),
			Available: vv.Quantity > 0,
		})
	}
	if len(variants) == 0 {
		variants = append(variants, Variant{
			ID:        "default",
			Title:     defaultVariantTitle,
			Price:     price,
			Available: true,
		})
	}

	var tags []string
	if vp.ProductTag != "" {
		tags = strings.Split(vp.ProductTag, ",")
	}

	categoryNo := 0
	if len(vp.Category) > 0 {
		categoryNo = vp.Category[0].CategoryNo
	}

	return Product{
		ID:             id,
		Handle:         id,
		Title:          vp.ProductName,
		Description:    vp.Description,
		Price:          price,
		CompareAtPrice: compareAt,
		FeaturedImage:  featured,
		Images:         images,
		Variants:       variants,
		Available:      vp.Display == "T",
		Tags:           tags,
		CategoryNo:     categoryNo,
	}
}
