package order

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository keeps orders in process memory. Reads and writes pass
// through copies so stored orders cannot be mutated from outside.
type MemoryRepository struct {
	mu     sync.RWMutex
	orders map[string]*Order
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{orders: make(map[string]*Order)}
}

func (r *MemoryRepository) Create(_ context.Context, o *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.orders[o.ID] = cloneOrder(o)
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (*Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneOrder(o), nil
}

// List returns orders newest first.
func (r *MemoryRepository) List(_ context.Context, limit, offset int) ([]Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*Order, 0, len(r.orders))
	for _, o := range r.orders {
		all = append(all, o)
	}
	// ID breaks CreatedAt ties so pagination never sees two orderings.
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if offset >= len(all) {
		return []Order{}, nil
	}
	end := min(offset+limit, len(all))

	out := make([]Order, 0, end-offset)
	for _, o := range all[offset:end] {
		out = append(out, *cloneOrder(o))
	}
	return out, nil
}

func (r *MemoryRepository) Update(_ context.Context, o *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[o.ID]; !ok {
		return ErrNotFound
	}
	r.orders[o.ID] = cloneOrder(o)
	return nil
}

func cloneOrder(o *Order) *Order {
	cp := *o
	cp.Items = make([]Item, len(o.Items))
	copy(cp.Items, o.Items)
	return &cp
}
