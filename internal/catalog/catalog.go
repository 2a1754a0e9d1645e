package catalog

import (
	"context"
	"errors"
)

var (
	// ErrProductNotFound is returned when a line item references an
	// unknown product id.
	ErrProductNotFound = errors.New("product not found")

	// ErrInsufficientStock is returned when the requested quantity
	// exceeds what is on hand.
	ErrInsufficientStock = errors.New("Insufficient stock")
)

// Product is a sellable catalog entry. Price is in minor currency
// units.
type Product struct {
	ID           string
	Title        string
	Price        int64
	Stock        int
	FreeShipping bool
}

// Store resolves product ids to catalog entries.
type Store interface {
	// Resolve returns the product for the given id, or
	// ErrProductNotFound.
	Resolve(ctx context.Context, id string) (Product, error)
}
