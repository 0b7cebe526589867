package product

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/cafe24"
)

type fakeGateway struct {
	products   map[int]*cafe24.Product
	pages      map[int][]cafe24.Product // keyed by category
	categories []cafe24.Category
	err        error
}

func (f *fakeGateway) Products(_ context.Context, q cafe24.ProductQuery) (*cafe24.ProductsPage, error) {
	if f.err != nil {
		return nil, f.err
	}
	ps := f.pages[q.Category]
	return &cafe24.ProductsPage{Products: ps, Count: len(ps)}, nil
}

func (f *fakeGateway) Product(_ context.Context, no int) (*cafe24.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.products[no]
	if !ok {
		return nil, &cafe24.APIError{Status: 404, Message: "product not found"}
	}
	return p, nil
}

func (f *fakeGateway) Categories(_ context.Context) ([]cafe24.Category, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.categories, nil
}

func vendorProduct(no int, name string, price int64) *cafe24.Product {
	return &cafe24.Product{
		ProductNo:   no,
		ProductName: name,
		Price:       decimal.NewFromInt(price),
		Display:     "T",
	}
}

func TestGet_TransformDefaults(t *testing.T) {
	vp := vendorProduct(42, "Linen Shirt", 29000)
	svc := NewService(&fakeGateway{products: map[int]*cafe24.Product{42: vp}})

	p, err := svc.Get(context.Background(), "42")
	require.NoError(t, err)

	assert.Equal(t, "42", p.ID)
	assert.Equal(t, "Linen Shirt", p.Title)
	assert.Equal(t, "29000", p.Price.Amount.String())
	assert.Equal(t, "KRW", p.Price.CurrencyCode)
	assert.Nil(t, p.FeaturedImage, "missing detail image stays absent")
	assert.Nil(t, p.CompareAtPrice)
	assert.True(t, p.Available)

	// No vendor variants: exactly one synthesized default variant at base price.
	require.Len(t, p.Variants, 1)
	assert.Equal(t, "default", p.Variants[0].ID)
	assert.True(t, p.Variants[0].Available)
	assert.Equal(t, "29000", p.Variants[0].Price.Amount.String())
}

func TestGet_TransformVariantsAndImages(t *testing.T) {
	vp := vendorProduct(7, "Wool Coat", 120000)
	vp.DetailImage = "https://cdn.example.com/7.jpg"
	vp.AdditionalImages = []string{"https://cdn.example.com/7b.jpg", ""}
	vp.RetailPrice = decimal.NewFromInt(150000)
	vp.ProductTag = "winter,outer"
	vp.Variants = []cafe24.Variant{
		{
			VariantCode:      "V01",
			AdditionalAmount: decimal.NewFromInt(5000),
			Quantity:         3,
			Options:          []cafe24.VariantOption{{Name: "size", Value: "L"}},
		},
		{VariantCode: "V02", Quantity: 0},
	}

	svc := NewService(&fakeGateway{products: map[int]*cafe24.Product{7: vp}})
	p, err := svc.Get(context.Background(), "7")
	require.NoError(t, err)

	require.NotNil(t, p.FeaturedImage)
	assert.Equal(t, "Wool Coat", p.FeaturedImage.Alt)
	assert.Len(t, p.Images, 2, "empty additional image URLs are dropped")
	require.NotNil(t, p.CompareAtPrice)
	assert.Equal(t, "150000", p.CompareAtPrice.Amount.String())
	assert.Equal(t, []string{"winter", "outer"}, p.Tags)

	require.Len(t, p.Variants, 2)
	assert.Equal(t, "L", p.Variants[0].Title)
	assert.Equal(t, "125000", p.Variants[0].Price.Amount.String())
	assert.True(t, p.Variants[0].Available)
	assert.False(t, p.Variants[1].Available)
}

func TestGet_NotFound(t *testing.T) {
	svc := NewService(&fakeGateway{products: map[int]*cafe24.Product{}})

	_, err := svc.Get(context.Background(), "999")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Get(context.Background(), "not-a-number")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestList_CategoryWithChildrenDeduplicates(t *testing.T) {
	shared := *vendorProduct(1, "Shared", 1000)
	gw := &fakeGateway{
		pages: map[int][]cafe24.Product{
			10: {shared, *vendorProduct(2, "Parent only", 2000)},
			11: {shared, *vendorProduct(3, "Child only", 3000)},
		},
		categories: []cafe24.Category{
			{CategoryNo: 10, CategoryName: "Outer"},
			{CategoryNo: 11, CategoryName: "Coats", ParentCategoryNo: 10},
			{CategoryNo: 20, CategoryName: "Shoes"},
		},
	}

	svc := NewService(gw)
	page, err := svc.List(context.Background(), ListQuery{
		Page: 1, Limit: 10, CategoryNo: 10, IncludeChildren: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, page.Total, "shared product counted once")
	assert.Len(t, page.Products, 3)
	assert.False(t, page.HasNext)
}

func TestList_Pagination(t *testing.T) {
	gw := &fakeGateway{
		pages: map[int][]cafe24.Product{
			10: {*vendorProduct(1, "a", 1), *vendorProduct(2, "b", 2), *vendorProduct(3, "c", 3)},
		},
		categories: []cafe24.Category{{CategoryNo: 10}},
	}

	svc := NewService(gw)
	page, err := svc.List(context.Background(), ListQuery{
		Page: 2, Limit: 2, CategoryNo: 10, IncludeChildren: true,
	})
	require.NoError(t, err)

	assert.Len(t, page.Products, 1)
	assert.Equal(t, "3", page.Products[0].ID)
	assert.False(t, page.HasNext)
}

func TestCategories(t *testing.T) {
	gw := &fakeGateway{categories: []cafe24.Category{
		{CategoryNo: 10, CategoryName: "Outer", FullCategoryName: map[string]string{"1": "Outer"}},
		{CategoryNo: 11, CategoryName: "Coats", ParentCategoryNo: 10},
	}}

	svc := NewService(gw)
	cats, err := svc.Categories(context.Background())
	require.NoError(t, err)

	require.Len(t, cats, 2)
	assert.Equal(t, Category{ID: "10", Name: "Outer", Path: "Outer"}, cats[0])
	assert.Equal(t, "10", cats[1].ParentID)
}
