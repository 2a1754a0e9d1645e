package order

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semenovm/ucp-checkout/internal/domain"
	"github.com/semenovm/ucp-checkout/internal/order/repository"
)

func newTestService() (*Service, *MockNotifier) {
	notifier := &MockNotifier{}
	svc := NewService(repository.NewMemoryRepository(), notifier, "http://localhost:8080")
	return svc, notifier
}

func completedCheckout() *domain.Checkout {
	return &domain.Checkout{
		ID:       "chk_1",
		Status:   domain.CheckoutStatusCompleted,
		Currency: "usd",
		LineItems: []domain.LineItem{{
			ID:       "item_1",
			Item:     domain.Item{ID: "item_1", Title: "Test Item"},
			Quantity: 2,
			Totals: []domain.Total{
				{Type: domain.TotalTypeSubtotal, Amount: 7000},
				{Type: domain.TotalTypeTotal, Amount: 7000},
			},
		}},
		Totals: []domain.Total{
			{Type: domain.TotalTypeSubtotal, Amount: 7000},
			{Type: domain.TotalTypeFulfillment, Amount: 500},
			{Type: domain.TotalTypeTotal, Amount: 7500},
		},
		Fulfillment: &domain.Fulfillment{
			Methods: []domain.FulfillmentMethod{{
				Type: "shipping",
				Destinations: []domain.Destination{{
					ID: "dest_1", StreetAddress: "1 Test Way", Country: "US",
				}},
				SelectedDestinationID: "dest_1",
				Groups: []domain.FulfillmentGroup{{
					Options: []domain.FulfillmentOption{{
						ID: "std-ship", Title: "Standard Shipping (5-7 business days)",
					}},
					SelectedOptionID: "std-ship",
				}},
			}},
		},
	}
}

func TestPlaceOrder(t *testing.T) {
	svc, notifier := newTestService()

	ref, err := svc.PlaceOrder(context.Background(), completedCheckout())
	require.NoError(t, err)

	assert.Equal(t, "chk_1", ref.CheckoutID)
	assert.Contains(t, ref.PermalinkURL, "/orders/"+ref.ID)

	ord, err := svc.Get(context.Background(), ref.ID)
	require.NoError(t, err)
	require.Len(t, ord.LineItems, 1)
	assert.Equal(t, 2, ord.LineItems[0].Quantity.Total)
	assert.Equal(t, int64(7500), domain.AmountOf(ord.Totals, domain.TotalTypeTotal))

	require.Len(t, ord.Fulfillment.Expectations, 1)
	exp := ord.Fulfillment.Expectations[0]
	assert.Equal(t, "Standard Shipping (5-7 business days)", exp.Description)
	require.NotNil(t, exp.Destination)
	assert.Equal(t, "1 Test Way", exp.Destination.StreetAddress)

	require.Equal(t, []string{EventOrderPlaced}, notifier.Events)
}

func TestGet_Unknown(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrOrderNotFound)
}

func TestUpdate_AppendsAdjustment(t *testing.T) {
	svc, _ := newTestService()
	ref, err := svc.PlaceOrder(context.Background(), completedCheckout())
	require.NoError(t, err)

	ord, err := svc.Update(context.Background(), ref.ID, UpdateRequest{
		Adjustments: []domain.Adjustment{{
			ID:     "adj_1",
			Type:   domain.AdjustmentTypeRefund,
			Status: domain.AdjustmentStatusPending,
			Amount: 500,
		}},
	})
	require.NoError(t, err)

	require.Len(t, ord.Adjustments, 1)
	assert.Equal(t, "adj_1", ord.Adjustments[0].ID)
	assert.NotEmpty(t, ord.Adjustments[0].OccurredAt)
}

func TestUpdate_AdjustmentsAreAppendOnly(t *testing.T) {
	svc, _ := newTestService()
	ref, err := svc.PlaceOrder(context.Background(), completedCheckout())
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), ref.ID, UpdateRequest{
		Adjustments: []domain.Adjustment{{
			ID: "adj_1", Type: domain.AdjustmentTypeRefund,
			Status: domain.AdjustmentStatusPending, Amount: 500,
		}},
	})
	require.NoError(t, err)

	// Resubmitting the same id with a different amount must not
	// rewrite the stored adjustment.
	ord, err := svc.Update(context.Background(), ref.ID, UpdateRequest{
		Adjustments: []domain.Adjustment{{
			ID: "adj_1", Type: domain.AdjustmentTypeRefund,
			Status: domain.AdjustmentStatusCompleted, Amount: 9999,
		}},
	})
	require.NoError(t, err)

	require.Len(t, ord.Adjustments, 1)
	assert.Equal(t, int64(500), ord.Adjustments[0].Amount)
	assert.Equal(t, domain.AdjustmentStatusPending, ord.Adjustments[0].Status)
}

func TestUpdate_InvalidAdjustmentType(t *testing.T) {
	svc, _ := newTestService()
	ref, err := svc.PlaceOrder(context.Background(), completedCheckout())
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), ref.ID, UpdateRequest{
		Adjustments: []domain.Adjustment{{
			ID: "adj_1", Type: "rebate",
			Status: domain.AdjustmentStatusPending, Amount: 500,
		}},
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdate_InvalidEventType(t *testing.T) {
	svc, _ := newTestService()
	ref, err := svc.PlaceOrder(context.Background(), completedCheckout())
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), ref.ID, UpdateRequest{
		Fulfillment: &domain.OrderFulfillment{
			Events: []domain.FulfillmentEvent{{ID: "evt_1", Type: "teleported"}},
		},
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdate_ShippedEventEmitsWebhook(t *testing.T) {
	svc, notifier := newTestService()
	ref, err := svc.PlaceOrder(context.Background(), completedCheckout())
	require.NoError(t, err)

	ord, err := svc.Update(context.Background(), ref.ID, UpdateRequest{
		Fulfillment: &domain.OrderFulfillment{
			Events: []domain.FulfillmentEvent{{
				ID:             "evt_1",
				Type:           domain.FulfillmentEventShipped,
				TrackingNumber: "TRK123",
			}},
		},
	})
	require.NoError(t, err)

	require.Len(t, ord.Fulfillment.Events, 1)
	assert.Equal(t, []string{EventOrderPlaced, EventOrderShipped}, notifier.Events)

	// Replaying the same event id appends nothing and emits nothing.
	ord, err = svc.Update(context.Background(), ref.ID, UpdateRequest{
		Fulfillment: &domain.OrderFulfillment{
			Events: []domain.FulfillmentEvent{{
				ID: "evt_1", Type: domain.FulfillmentEventShipped,
			}},
		},
	})
	require.NoError(t, err)
	assert.Len(t, ord.Fulfillment.Events, 1)
	assert.Len(t, notifier.Events, 2)
}

func TestSimulateShipping(t *testing.T) {
	svc, notifier := newTestService()
	ref, err := svc.PlaceOrder(context.Background(), completedCheckout())
	require.NoError(t, err)

	ord, err := svc.SimulateShipping(context.Background(), ref.ID)
	require.NoError(t, err)

	require.Len(t, ord.Fulfillment.Events, 1)
	ev := ord.Fulfillment.Events[0]
	assert.Equal(t, domain.FulfillmentEventShipped, ev.Type)
	assert.NotEmpty(t, ev.TrackingNumber)
	assert.NotEmpty(t, ev.TrackingURL)
	require.Len(t, ev.LineItems, 1)
	assert.Equal(t, 2, ev.LineItems[0].Quantity)

	assert.Equal(t, []string{EventOrderPlaced, EventOrderShipped}, notifier.Events)
}
