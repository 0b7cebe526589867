package cart

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/product"
)

// Service applies cart mutations. Concurrent mutations of the same cart are
// serialized by a per-cart lock; catalog lookups happen before the lock is
// taken so slow vendor calls never block other carts' writers.
type Service struct {
	store   Store
	catalog product.Catalog
	now     func() time.Time

	mu    sync.Mutex
	locks map[string]*cartLock
}

// cartLock is a reference-counted mutex. Entries leave the map as soon as
// the last holder releases, so idle carts cost nothing.
type cartLock struct {
	mu   sync.Mutex
	refs int
}

func NewService(store Store, catalog product.Catalog) *Service {
	return &Service{
		store:   store,
		catalog: catalog,
		now:     time.Now,
		locks:   make(map[string]*cartLock),
	}
}

// lock serializes mutations of one cart. The returned func releases the
// lock and evicts the map entry once no other goroutine is waiting on it.
func (s *Service) lock(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &cartLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

// GetOrCreate returns the cart under id, or a fresh empty cart when id is
// empty or unknown. The returned cart's ID is authoritative; handlers persist
// it back into the browser cookie.
func (s *Service) GetOrCreate(ctx context.Context, id string) (*Cart, error) {
	if id != "" {
		c, err := s.store.Get(ctx, id)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, errors.Wrap(err, "load cart")
		}
	}

	now := s.now()
	c := &Cart{
		ID:        uuid.NewString(),
		Items:     []Item{},
		Subtotal:  product.ZeroKRW(),
		Total:     product.ZeroKRW(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Save(ctx, c); err != nil {
		return nil, errors.Wrap(err, "save cart")
	}
	return c, nil
}

// Get returns an existing cart.
func (s *Service) Get(ctx context.Context, id string) (*Cart, error) {
	return s.store.Get(ctx, id)
}

// AddItem puts quantity units of a product variant into the cart. Lines with
// the same product and variant merge by summing quantities; the unit price is
// snapshotted from the catalog when the line is first created.
func (s *Service) AddItem(ctx context.Context, cartID, productID, variantID string, quantity int) (*Cart, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	p, err := s.catalog.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	v, err := pickVariant(p, variantID)
	if err != nil {
		return nil, err
	}

	unlock := s.lock(cartID)
	defer unlock()

	c, err := s.store.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}

	merged := false
	for i := range c.Items {
		if c.Items[i].ProductID == productID && c.Items[i].VariantID == v.ID {
			c.Items[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		title := p.Title
		if v.ID != "default" {
			title = p.Title + " / " + v.Title
		}
		c.Items = append(c.Items, Item{
			ID:        uuid.NewString(),
			ProductID: productID,
			VariantID: v.ID,
			Title:     title,
			Image:     p.FeaturedImage,
			Price:     v.Price,
			Quantity:  quantity,
		})
	}

	return s.commit(ctx, c)
}

// UpdateItem sets a line's quantity. A quantity of zero or less removes the
// line. Updating a line that is no longer in the cart is not an error; the
// cart is returned as is.
func (s *Service) UpdateItem(ctx context.Context, cartID, itemID string, quantity int) (*Cart, error) {
	unlock := s.lock(cartID)
	defer unlock()

	c, err := s.store.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}

	for i := range c.Items {
		if c.Items[i].ID != itemID {
			continue
		}
		if quantity <= 0 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
		} else {
			c.Items[i].Quantity = quantity
		}
		return s.commit(ctx, c)
	}
	return c, nil
}

// RemoveItem drops a line from the cart. Removing an absent line is a no-op.
func (s *Service) RemoveItem(ctx context.Context, cartID, itemID string) (*Cart, error) {
	return s.UpdateItem(ctx, cartID, itemID, 0)
}

// Clear empties the cart but keeps it alive under the same id.
func (s *Service) Clear(ctx context.Context, cartID string) (*Cart, error) {
	unlock := s.lock(cartID)
	defer unlock()

	c, err := s.store.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	c.Items = []Item{}
	return s.commit(ctx, c)
}

// commit recomputes derived fields from the lines and persists the cart.
// Callers must hold the cart lock.
func (s *Service) commit(ctx context.Context, c *Cart) (*Cart, error) {
	recalc(c)
	c.UpdatedAt = s.now()
	if err := s.store.Save(ctx, c); err != nil {
		return nil, errors.Wrap(err, "save cart")
	}
	return c, nil
}

// recalc rebuilds line totals, the item count, and the cart totals from
// scratch. Totals are never adjusted incrementally.
func recalc(c *Cart) {
	subtotal := product.ZeroKRW()
	count := 0
	for i := range c.Items {
		it := &c.Items[i]
		it.LineTotal = product.KRW(it.Price.Amount.Mul(decimal.NewFromInt(int64(it.Quantity))))
		subtotal.Amount = subtotal.Amount.Add(it.LineTotal.Amount)
		count += it.Quantity
	}
	c.ItemCount = count
	c.Subtotal = subtotal
	c.Total = subtotal
}

func pickVariant(p *product.Product, variantID string) (*product.Variant, error) {
	if variantID == "" {
		variantID = "default"
	}
	for i := range p.Variants {
		if p.Variants[i].ID == variantID {
			return &p.Variants[i], nil
		}
	}
	// Fall back to the first variant when the requested one does not exist,
	// matching how a single-variant product behaves for any variant id.
	if len(p.Variants) > 0 {
		return &p.Variants[0], nil
	}
	return nil, errors.Wrapf(product.ErrNotFound, "product %s has no variants", p.ID)
}
