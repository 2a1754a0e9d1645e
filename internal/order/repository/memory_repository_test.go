package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semenovm/ucp-checkout/internal/domain"
)

func testOrder(id string) *domain.Order {
	return &domain.Order{
		ID:         id,
		CheckoutID: "chk_1",
		LineItems: []domain.OrderLineItem{{
			ID:       "item_1",
			Item:     domain.Item{ID: "item_1", Title: "Test Item"},
			Quantity: domain.OrderQuantity{Total: 1},
		}},
		Adjustments: []domain.Adjustment{},
	}
}

func TestMemoryRepository_CreateAndGet(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testOrder("ord_1")))

	got, err := repo.Get(ctx, "ord_1")
	require.NoError(t, err)
	assert.Equal(t, "chk_1", got.CheckoutID)
}

func TestMemoryRepository_DuplicateCreate(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testOrder("ord_1")))
	assert.ErrorIs(t, repo.Create(ctx, testOrder("ord_1")), ErrDuplicateOrder)
}

func TestMemoryRepository_GetUnknown(t *testing.T) {
	repo := NewMemoryRepository()

	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestMemoryRepository_UpdateUnknown(t *testing.T) {
	repo := NewMemoryRepository()

	err := repo.Update(context.Background(), testOrder("missing"))
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestMemoryRepository_ReturnsCopies(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testOrder("ord_1")))

	first, err := repo.Get(ctx, "ord_1")
	require.NoError(t, err)
	first.Adjustments = append(first.Adjustments, domain.Adjustment{ID: "adj_x"})

	second, err := repo.Get(ctx, "ord_1")
	require.NoError(t, err)
	assert.Empty(t, second.Adjustments)
}
