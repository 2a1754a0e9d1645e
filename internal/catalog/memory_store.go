package catalog

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory product catalog safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	products map[string]Product
}

// NewMemoryStore creates an empty catalog.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{products: make(map[string]Product)}
}

// NewSeededStore creates a catalog pre-populated with the demo
// assortment.
func NewSeededStore() *MemoryStore {
	s := NewMemoryStore()
	s.Put(Product{ID: "item_1", Title: "Test Item", Price: 3500, Stock: 100})
	s.Put(Product{ID: "item_2", Title: "Another Test Item", Price: 2000, Stock: 100})
	s.Put(Product{ID: "bouquet_roses", Title: "Bouquet of Roses", Price: 4500, Stock: 50, FreeShipping: true})
	s.Put(Product{ID: "out_of_stock_item_1", Title: "Out of Stock Item", Price: 1000, Stock: 0})
	return s
}

// Put inserts or replaces a product.
func (s *MemoryStore) Put(p Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

func (s *MemoryStore) Resolve(_ context.Context, id string) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	return p, nil
}
