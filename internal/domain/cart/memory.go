package cart

import (
	"context"
	"sync"
)

// MemoryStore keeps carts in process memory. Every Get and Save passes
// through a deep copy, so callers and the store never share item slices.
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[string]*Cart
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string]*Cart)}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.carts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(c), nil
}

func (s *MemoryStore) Save(_ context.Context, c *Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.carts[c.ID] = clone(c)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, id)
	return nil
}

func clone(c *Cart) *Cart {
	cp := *c
	cp.Items = make([]Item, len(c.Items))
	copy(cp.Items, c.Items)
	for i := range cp.Items {
		if img := cp.Items[i].Image; img != nil {
			imgCopy := *img
			cp.Items[i].Image = &imgCopy
		}
	}
	return &cp
}
