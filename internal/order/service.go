package order

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/semenovm/ucp-checkout/internal/domain"
	"github.com/semenovm/ucp-checkout/internal/order/repository"
)

// ErrValidation marks structurally invalid order updates, such as
// out-of-vocabulary adjustment types.
var ErrValidation = errors.New("invalid order update")

// Webhook event types emitted by the order lifecycle.
const (
	EventOrderPlaced  = "order_placed"
	EventOrderShipped = "order_shipped"
)

// Notifier delivers order lifecycle events to the buyer's agent.
type Notifier interface {
	Notify(ctx context.Context, eventType string, checkoutID string, order *domain.Order)
}

// UpdateRequest is the mutable portion of an order. Everything else on
// the stored order is immutable after placement.
type UpdateRequest struct {
	Adjustments []domain.Adjustment      `json:"adjustments,omitempty"`
	Fulfillment *domain.OrderFulfillment `json:"fulfillment,omitempty"`
}

// Service owns order placement and post-purchase updates.
type Service struct {
	repo     repository.OrderRepository
	notifier Notifier
	baseURL  string
	now      func() time.Time
}

func NewService(repo repository.OrderRepository, notifier Notifier, baseURL string) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		baseURL:  baseURL,
		now:      time.Now,
	}
}

// PlaceOrder creates the order record for a completed checkout and
// emits the order_placed event.
func (s *Service) PlaceOrder(ctx context.Context, chk *domain.Checkout) (*domain.OrderRef, error) {
	id := fmt.Sprintf("ord_%s", uuid.NewString())
	now := s.now().UTC()

	lineItems := make([]domain.OrderLineItem, len(chk.LineItems))
	for i, li := range chk.LineItems {
		lineItems[i] = domain.OrderLineItem{
			ID:       li.ID,
			Item:     li.Item,
			Quantity: domain.OrderQuantity{Total: li.Quantity},
			Totals:   li.Totals,
		}
	}

	ord := &domain.Order{
		ID:           id,
		CheckoutID:   chk.ID,
		PermalinkURL: fmt.Sprintf("%s/orders/%s", s.baseURL, id),
		Currency:     chk.Currency,
		LineItems:    lineItems,
		Totals:       chk.Totals,
		Adjustments:  []domain.Adjustment{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	method := chk.Fulfillment.ShippingMethod()
	if opt := method.SelectedOption(); opt != nil {
		exp := domain.FulfillmentExpectation{
			ID:          fmt.Sprintf("exp_%s", uuid.NewString()),
			Type:        "shipping",
			Description: opt.Title,
		}
		if dest := method.SelectedDestination(); dest != nil {
			d := *dest
			exp.Destination = &d
		}
		ord.Fulfillment.Expectations = []domain.FulfillmentExpectation{exp}
	}

	if err := s.repo.Create(ctx, ord); err != nil {
		return nil, err
	}
	log.Printf("order %s placed for checkout %s", ord.ID, chk.ID)
	s.notifier.Notify(ctx, EventOrderPlaced, chk.ID, ord)

	return &domain.OrderRef{ID: ord.ID, CheckoutID: chk.ID, PermalinkURL: ord.PermalinkURL}, nil
}

// Get returns the stored order.
func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	return s.repo.Get(ctx, id)
}

// Update appends new adjustments and fulfillment events to the order.
// Both collections are append-only: entries whose ids already exist
// are left untouched. Any newly appended shipped event emits
// order_shipped.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*domain.Order, error) {
	ord, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	for _, adj := range req.Adjustments {
		if err := adj.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}
	if req.Fulfillment != nil {
		for _, ev := range req.Fulfillment.Events {
			if err := ev.Validate(); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrValidation, err)
			}
		}
	}

	shipped := false
	for _, adj := range req.Adjustments {
		if adj.ID == "" {
			adj.ID = fmt.Sprintf("adj_%s", uuid.NewString())
		}
		if ord.HasAdjustment(adj.ID) {
			continue
		}
		if adj.OccurredAt == "" {
			adj.OccurredAt = s.now().UTC().Format(time.RFC3339)
		}
		ord.Adjustments = append(ord.Adjustments, adj)
	}
	if req.Fulfillment != nil {
		for _, ev := range req.Fulfillment.Events {
			if ev.ID == "" {
				ev.ID = fmt.Sprintf("evt_%s", uuid.NewString())
			}
			if ord.HasEvent(ev.ID) {
				continue
			}
			if ev.OccurredAt == "" {
				ev.OccurredAt = s.now().UTC().Format(time.RFC3339)
			}
			ord.Fulfillment.Events = append(ord.Fulfillment.Events, ev)
			if ev.Type == domain.FulfillmentEventShipped {
				shipped = true
			}
		}
	}

	ord.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, ord); err != nil {
		return nil, err
	}
	if shipped {
		s.notifier.Notify(ctx, EventOrderShipped, ord.CheckoutID, ord)
	}
	return ord, nil
}

// SimulateShipping appends a shipped event with generated tracking
// details and emits order_shipped. Used by the testing surface only.
func (s *Service) SimulateShipping(ctx context.Context, id string) (*domain.Order, error) {
	ord, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	tracking := fmt.Sprintf("TRK%s", uuid.NewString()[:8])
	ev := domain.FulfillmentEvent{
		ID:             fmt.Sprintf("evt_%s", uuid.NewString()),
		Type:           domain.FulfillmentEventShipped,
		OccurredAt:     s.now().UTC().Format(time.RFC3339),
		TrackingNumber: tracking,
		TrackingURL:    fmt.Sprintf("https://tracking.example.com/%s", tracking),
		Description:    "Your package has shipped",
	}
	for _, li := range ord.LineItems {
		ev.LineItems = append(ev.LineItems, domain.EventLineItem{ID: li.ID, Quantity: li.Quantity.Total})
	}
	ord.Fulfillment.Events = append(ord.Fulfillment.Events, ev)
	ord.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, ord); err != nil {
		return nil, err
	}
	log.Printf("order %s marked shipped (tracking %s)", ord.ID, tracking)
	s.notifier.Notify(ctx, EventOrderShipped, ord.CheckoutID, ord)
	return ord, nil
}
