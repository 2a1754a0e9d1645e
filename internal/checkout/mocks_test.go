package checkout

import (
	"context"

	"github.com/semenovm/ucp-checkout/internal/domain"
)

// MockOrderPlacer implements OrderPlacer for testing
type MockOrderPlacer struct {
	Placed *domain.Checkout // Captures the checkout passed to PlaceOrder
	Ref    *domain.OrderRef
	Err    error
}

func (m *MockOrderPlacer) PlaceOrder(_ context.Context, chk *domain.Checkout) (*domain.OrderRef, error) {
	m.Placed = chk
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Ref != nil {
		return m.Ref, nil
	}
	return &domain.OrderRef{
		ID:           "ord_test",
		CheckoutID:   chk.ID,
		PermalinkURL: "http://localhost:8080/orders/ord_test",
	}, nil
}
