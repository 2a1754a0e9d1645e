package repository

import (
	"context"
	"errors"

	"github.com/semenovm/ucp-checkout/internal/domain"
)

var (
	// ErrOrderNotFound is returned for an unknown order id.
	ErrOrderNotFound = errors.New("order not found")

	// ErrDuplicateOrder is returned when an order id is inserted
	// twice.
	ErrDuplicateOrder = errors.New("order already exists")
)

// OrderRepository persists orders and their post-purchase history.
type OrderRepository interface {
	// Create stores a new order, or ErrDuplicateOrder.
	Create(ctx context.Context, order *domain.Order) error

	// Get returns the order, or ErrOrderNotFound.
	Get(ctx context.Context, id string) (*domain.Order, error)

	// Update replaces the stored order.
	Update(ctx context.Context, order *domain.Order) error

	// Close releases the underlying resources.
	Close() error
}
