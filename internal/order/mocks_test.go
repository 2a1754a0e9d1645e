package order

import (
	"context"

	"github.com/semenovm/ucp-checkout/internal/domain"
)

// MockNotifier implements Notifier for testing
type MockNotifier struct {
	Events []string // Captures event types in emission order
	Orders []*domain.Order
}

func (m *MockNotifier) Notify(_ context.Context, eventType string, _ string, ord *domain.Order) {
	m.Events = append(m.Events, eventType)
	m.Orders = append(m.Orders, ord)
}
