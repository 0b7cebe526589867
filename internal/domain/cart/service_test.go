package cart

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/product"
)

type fakeCatalog struct {
	products map[string]*product.Product
}

func (f *fakeCatalog) Get(_ context.Context, id string) (*product.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

func catalogWith(ps ...*product.Product) *fakeCatalog {
	m := make(map[string]*product.Product, len(ps))
	for _, p := range ps {
		m[p.ID] = p
	}
	return &fakeCatalog{products: m}
}

func storeProduct(id string, price int64) *product.Product {
	p := product.KRW(decimal.NewFromInt(price))
	return &product.Product{
		ID:    id,
		Title: "product " + id,
		Price: p,
		Variants: []product.Variant{
			{ID: "default", Title: "기본", Price: p, Available: true},
		},
		Available: true,
	}
}

func newTestService(ps ...*product.Product) *Service {
	return NewService(NewMemoryStore(), catalogWith(ps...))
}

func TestService_TotalsRecomputedFromLines(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(storeProduct("1", 1000), storeProduct("2", 500))

	c, err := svc.GetOrCreate(ctx, "")
	require.NoError(t, err)

	c, err = svc.AddItem(ctx, c.ID, "1", "", 2)
	require.NoError(t, err)
	c, err = svc.AddItem(ctx, c.ID, "2", "", 1)
	require.NoError(t, err)

	assert.Equal(t, 3, c.ItemCount)
	assert.Equal(t, "2500", c.Subtotal.Amount.String())
	assert.Equal(t, "2500", c.Total.Amount.String())
	require.Len(t, c.Items, 2)
	assert.Equal(t, "2000", c.Items[0].LineTotal.Amount.String())

	c, err = svc.RemoveItem(ctx, c.ID, c.Items[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 2, c.ItemCount)
	assert.Equal(t, "2000", c.Total.Amount.String())
}

func TestService_AddMergesSameVariant(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(storeProduct("1", 1000))

	c, err := svc.GetOrCreate(ctx, "")
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, c.ID, "1", "", 1)
	require.NoError(t, err)
	c, err = svc.AddItem(ctx, c.ID, "1", "default", 2)
	require.NoError(t, err)

	require.Len(t, c.Items, 1, "same product and variant merge into one line")
	assert.Equal(t, 3, c.Items[0].Quantity)
	assert.Equal(t, "3000", c.Total.Amount.String())
}

func TestService_AddUnknownProductFails(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	c, err := svc.GetOrCreate(ctx, "")
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, c.ID, "missing", "", 1)
	require.ErrorIs(t, err, product.ErrNotFound)

	_, err = svc.AddItem(ctx, c.ID, "missing", "", 0)
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestService_UpdateZeroRemovesLine(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(storeProduct("1", 1000))

	c, err := svc.GetOrCreate(ctx, "")
	require.NoError(t, err)
	c, err = svc.AddItem(ctx, c.ID, "1", "", 2)
	require.NoError(t, err)

	c, err = svc.UpdateItem(ctx, c.ID, c.Items[0].ID, 0)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.True(t, c.Total.Amount.IsZero())
}

func TestService_UpdateMissingLineIsLenient(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(storeProduct("1", 1000))

	c, err := svc.GetOrCreate(ctx, "")
	require.NoError(t, err)
	c, err = svc.AddItem(ctx, c.ID, "1", "", 1)
	require.NoError(t, err)

	got, err := svc.UpdateItem(ctx, c.ID, "no-such-line", 5)
	require.NoError(t, err)
	assert.Equal(t, c.Items, got.Items)

	got, err = svc.RemoveItem(ctx, c.ID, "no-such-line")
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
}

func TestService_PriceSnapshotSurvivesCatalogChange(t *testing.T) {
	ctx := context.Background()
	p := storeProduct("1", 1000)
	svc := newTestService(p)

	c, err := svc.GetOrCreate(ctx, "")
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, c.ID, "1", "", 1)
	require.NoError(t, err)

	// Catalog price changes after the line was created.
	p.Variants[0].Price = product.KRW(decimal.NewFromInt(9999))

	c, err = svc.UpdateItem(ctx, c.ID, mustFirstItem(t, svc, c.ID).ID, 2)
	require.NoError(t, err)
	assert.Equal(t, "2000", c.Total.Amount.String(), "line keeps its snapshotted price")
}

func TestService_ClearKeepsCartAlive(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(storeProduct("1", 1000))

	c, err := svc.GetOrCreate(ctx, "")
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, c.ID, "1", "", 1)
	require.NoError(t, err)

	cleared, err := svc.Clear(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, cleared.ID)
	assert.Empty(t, cleared.Items)

	again, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, again.Items)
}

func TestService_GetOrCreateReusesExisting(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(storeProduct("1", 1000))

	c, err := svc.GetOrCreate(ctx, "")
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, c.ID, "1", "", 1)
	require.NoError(t, err)

	same, err := svc.GetOrCreate(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, same.ID)
	require.Len(t, same.Items, 1)

	fresh, err := svc.GetOrCreate(ctx, "stale-cookie-value")
	require.NoError(t, err)
	assert.NotEqual(t, c.ID, fresh.ID)
	assert.Empty(t, fresh.Items)
}

func TestService_StoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(storeProduct("1", 1000))

	c, err := svc.GetOrCreate(ctx, "")
	require.NoError(t, err)
	c, err = svc.AddItem(ctx, c.ID, "1", "", 1)
	require.NoError(t, err)

	// Mutating a returned cart must not leak into the store.
	c.Items[0].Quantity = 100

	got, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Items[0].Quantity)
}

func TestService_ConcurrentAddsAllLand(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(storeProduct("1", 1000))

	c, err := svc.GetOrCreate(ctx, "")
	require.NoError(t, err)

	const workers = 16
	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			_, err := svc.AddItem(ctx, c.ID, "1", "", 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, workers, got.Items[0].Quantity)
	assert.Equal(t, "16000", got.Total.Amount.String())
}

func TestService_CartLocksEvictedWhenIdle(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(storeProduct("1", 1000))

	c, err := svc.GetOrCreate(ctx, "")
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			_, err := svc.AddItem(ctx, c.ID, "1", "", 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	_, err = svc.Clear(ctx, c.ID)
	require.NoError(t, err)

	svc.mu.Lock()
	defer svc.mu.Unlock()
	assert.Empty(t, svc.locks, "idle carts must not retain lock entries")
}

func mustFirstItem(t *testing.T, svc *Service, cartID string) Item {
	t.Helper()
	c, err := svc.Get(context.Background(), cartID)
	require.NoError(t, err)
	require.NotEmpty(t, c.Items)
	return c.Items[0]
}
