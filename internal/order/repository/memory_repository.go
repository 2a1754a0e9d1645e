package repository

import (
	"context"
	"sync"

	"github.com/semenovm/ucp-checkout/internal/domain"
)

// MemoryRepository is an in-memory OrderRepository safe for concurrent
// use.
type MemoryRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{orders: make(map[string]*domain.Order)}
}

func (r *MemoryRepository) Create(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[order.ID]; exists {
		return ErrDuplicateOrder
	}
	r.orders[order.ID] = clone(order)
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return clone(order), nil
}

func (r *MemoryRepository) Update(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[order.ID]; !ok {
		return ErrOrderNotFound
	}
	r.orders[order.ID] = clone(order)
	return nil
}

func (r *MemoryRepository) Close() error { return nil }

func clone(o *domain.Order) *domain.Order {
	out := *o
	out.LineItems = append([]domain.OrderLineItem(nil), o.LineItems...)
	out.Totals = append([]domain.Total(nil), o.Totals...)
	out.Adjustments = append([]domain.Adjustment(nil), o.Adjustments...)
	out.Fulfillment.Expectations = append([]domain.FulfillmentExpectation(nil), o.Fulfillment.Expectations...)
	out.Fulfillment.Events = append([]domain.FulfillmentEvent(nil), o.Fulfillment.Events...)
	return &out
}
