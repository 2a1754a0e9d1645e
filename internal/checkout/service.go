package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/semenovm/ucp-checkout/internal/catalog"
	"github.com/semenovm/ucp-checkout/internal/customer"
	"github.com/semenovm/ucp-checkout/internal/domain"
	"github.com/semenovm/ucp-checkout/internal/fulfillment"
	"github.com/semenovm/ucp-checkout/internal/payment"
	"github.com/semenovm/ucp-checkout/internal/pricing"
)

// OrderPlacer turns a completed checkout into an order.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, chk *domain.Checkout) (*domain.OrderRef, error)
}

// UpdateRequest is a partial checkout update. Pointer fields
// distinguish "omitted" from "set to empty": omitted sections keep
// their current value.
type UpdateRequest struct {
	Currency    *string             `json:"currency,omitempty"`
	LineItems   *[]domain.LineItem  `json:"line_items,omitempty"`
	Buyer       *domain.Buyer       `json:"buyer,omitempty"`
	Payment     *domain.Payment     `json:"payment,omitempty"`
	Discounts   *domain.Discounts   `json:"discounts,omitempty"`
	Fulfillment *domain.Fulfillment `json:"fulfillment,omitempty"`
}

// CreateRequest is the body of a session creation call.
type CreateRequest struct {
	ID          string              `json:"id,omitempty"`
	Currency    string              `json:"currency,omitempty"`
	LineItems   []domain.LineItem   `json:"line_items"`
	Buyer       *domain.Buyer       `json:"buyer,omitempty"`
	Payment     *domain.Payment     `json:"payment,omitempty"`
	Discounts   *domain.Discounts   `json:"discounts,omitempty"`
	Fulfillment *domain.Fulfillment `json:"fulfillment,omitempty"`
}

// session guards a single checkout. Mutations lock the session, work
// on a clone, and swap the clone in only on success, so a failed
// update never leaves a half-applied state behind.
type session struct {
	mu       sync.Mutex
	checkout *domain.Checkout
}

// Service owns the checkout session lifecycle.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*session

	catalog   catalog.Store
	directory customer.Directory
	pricer    *pricing.Engine
	payments  *payment.Registry
	orders    OrderPlacer
}

func NewService(cat catalog.Store, dir customer.Directory, pricer *pricing.Engine, payments *payment.Registry, orders OrderPlacer) *Service {
	return &Service{
		sessions:  make(map[string]*session),
		catalog:   cat,
		directory: dir,
		pricer:    pricer,
		payments:  payments,
		orders:    orders,
	}
}

// Create opens a new session. A client-supplied id is honored; reusing
// an existing id fails with ErrCheckoutExists.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*domain.Checkout, error) {
	chk := &domain.Checkout{
		ID:          req.ID,
		Status:      domain.CheckoutStatusOpen,
		Currency:    req.Currency,
		LineItems:   req.LineItems,
		Buyer:       req.Buyer,
		Discounts:   req.Discounts,
		Fulfillment: req.Fulfillment,
	}
	if chk.ID == "" {
		chk.ID = fmt.Sprintf("chk_%s", uuid.NewString())
	}
	if chk.Currency == "" {
		chk.Currency = "usd"
	}
	if req.Payment != nil {
		chk.Payment = *req.Payment
	}
	if chk.Payment.Instruments == nil {
		chk.Payment.Instruments = []json.RawMessage{}
	}

	reqFulfillment := chk.Fulfillment
	chk.Fulfillment = nil
	if err := s.mergeDestinations(ctx, chk, reqFulfillment); err != nil {
		return nil, err
	}
	if err := s.recompute(ctx, chk); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[chk.ID]; exists {
		return nil, ErrCheckoutExists
	}
	s.sessions[chk.ID] = &session{checkout: chk}
	log.Printf("checkout %s created with %d line items", chk.ID, len(chk.LineItems))
	return chk.Clone(), nil
}

// Get returns a snapshot of the session.
func (s *Service) Get(_ context.Context, id string) (*domain.Checkout, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.checkout.Clone(), nil
}

// Update applies a partial update to an open session and reprices it.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*domain.Checkout, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.checkout.Status.IsTerminal() {
		return nil, ErrCheckoutTerminal
	}

	chk := sess.checkout.Clone()
	if req.Currency != nil {
		chk.Currency = *req.Currency
	}
	if req.LineItems != nil {
		chk.LineItems = *req.LineItems
	}
	if req.Buyer != nil {
		chk.Buyer = req.Buyer
	}
	if req.Payment != nil {
		chk.Payment = *req.Payment
	}
	if req.Discounts != nil {
		chk.Discounts = req.Discounts
	}
	if err := s.mergeDestinations(ctx, chk, req.Fulfillment); err != nil {
		return nil, err
	}
	if err := s.recompute(ctx, chk); err != nil {
		return nil, err
	}

	sess.checkout = chk
	return chk.Clone(), nil
}

// Complete finalizes an open session: fulfillment must be fully
// selected, stock is re-checked, and the payment is captured before
// the order is placed.
func (s *Service) Complete(ctx context.Context, id string, req domain.CompleteRequest) (*domain.Checkout, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.checkout.Status.IsTerminal() {
		return nil, ErrCheckoutTerminal
	}

	chk := sess.checkout.Clone()
	if req.Buyer != nil {
		chk.Buyer = req.Buyer
	}
	if err := s.recompute(ctx, chk); err != nil {
		return nil, err
	}

	method := chk.Fulfillment.ShippingMethod()
	if method == nil || method.SelectedDestination() == nil || method.SelectedOption() == nil {
		return nil, ErrFulfillmentUnselected
	}

	handler, err := s.payments.Resolve(req.PaymentData)
	if err != nil {
		return nil, err
	}
	amount := domain.AmountOf(chk.Totals, domain.TotalTypeTotal)
	if err := handler.Capture(ctx, req.PaymentData, amount, chk.Currency); err != nil {
		return nil, err
	}

	chk.Status = domain.CheckoutStatusCompleted
	ref, err := s.orders.PlaceOrder(ctx, chk)
	if err != nil {
		return nil, fmt.Errorf("placing order for checkout %s: %w", chk.ID, err)
	}
	chk.Order = ref

	sess.checkout = chk
	log.Printf("checkout %s completed, order %s", chk.ID, ref.ID)
	return chk.Clone(), nil
}

// Cancel moves an open session to canceled.
func (s *Service) Cancel(_ context.Context, id string) (*domain.Checkout, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.checkout.Status.IsTerminal() {
		return nil, ErrCheckoutTerminal
	}
	chk := sess.checkout.Clone()
	chk.Status = domain.CheckoutStatusCanceled
	sess.checkout = chk
	log.Printf("checkout %s canceled", chk.ID)
	return chk.Clone(), nil
}

func (s *Service) lookup(id string) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrCheckoutNotFound
	}
	return sess, nil
}

// mergeDestinations folds an incoming fulfillment section into the
// checkout. The buyer's stored address book always comes first, then
// addresses carried over from the session, then newly submitted ones.
// Submitted addresses without an id are persisted to the address book
// when the buyer is known.
func (s *Service) mergeDestinations(ctx context.Context, chk *domain.Checkout, incoming *domain.Fulfillment) error {
	curMethod := chk.Fulfillment.ShippingMethod()
	inMethod := incoming.ShippingMethod()
	if curMethod == nil && inMethod == nil {
		return nil
	}

	email := ""
	if chk.Buyer != nil {
		email = chk.Buyer.Email
	}

	merged := domain.FulfillmentMethod{Type: "shipping"}
	if inMethod != nil && inMethod.ID != "" {
		merged.ID = inMethod.ID
	} else if curMethod != nil {
		merged.ID = curMethod.ID
	}

	var dests []domain.Destination
	appendDest := func(d domain.Destination) {
		for _, existing := range dests {
			if existing.SameAddress(d) {
				return
			}
		}
		dests = append(dests, d)
	}

	if email != "" {
		stored, err := s.directory.Addresses(ctx, email)
		if err != nil {
			return fmt.Errorf("loading address book: %w", err)
		}
		for _, d := range stored {
			appendDest(d)
		}
	}
	if curMethod != nil {
		for _, d := range curMethod.Destinations {
			appendDest(d)
		}
	}
	if inMethod != nil {
		for _, d := range inMethod.Destinations {
			if d.ID == "" {
				if email != "" {
					saved, err := s.directory.SaveAddress(ctx, email, d)
					if err != nil {
						return fmt.Errorf("saving address: %w", err)
					}
					d = saved
				} else {
					d.ID = fmt.Sprintf("addr_%s", uuid.NewString())
				}
			}
			appendDest(d)
		}
	}
	merged.Destinations = dests

	if inMethod != nil && inMethod.SelectedDestinationID != "" {
		merged.SelectedDestinationID = inMethod.SelectedDestinationID
	} else if curMethod != nil {
		merged.SelectedDestinationID = curMethod.SelectedDestinationID
	}

	selectedOption := ""
	if inMethod != nil && len(inMethod.Groups) > 0 && inMethod.Groups[0].SelectedOptionID != "" {
		selectedOption = inMethod.Groups[0].SelectedOptionID
	} else if curMethod != nil && len(curMethod.Groups) > 0 {
		selectedOption = curMethod.Groups[0].SelectedOptionID
	}
	if selectedOption != "" {
		merged.Groups = []domain.FulfillmentGroup{{SelectedOptionID: selectedOption}}
	}

	chk.Fulfillment = &domain.Fulfillment{Methods: []domain.FulfillmentMethod{merged}}
	return nil
}

// recompute re-derives everything the server is authoritative for:
// titles and prices from the catalog, fulfillment options for the
// selected destination, applied discounts, and all totals.
func (s *Service) recompute(ctx context.Context, chk *domain.Checkout) error {
	var (
		subtotal     int64
		freeShipItem bool
	)
	for i, li := range chk.LineItems {
		if li.Quantity <= 0 {
			return ErrInvalidQuantity
		}
		product, err := s.catalog.Resolve(ctx, li.Item.ID)
		if err != nil {
			return err
		}
		if li.Quantity > product.Stock {
			return catalog.ErrInsufficientStock
		}
		li.Item.Title = product.Title
		if li.ID == "" {
			li.ID = li.Item.ID
		}
		li = pricing.PriceLineItem(li, product.Price)
		chk.LineItems[i] = li
		subtotal += domain.AmountOf(li.Totals, domain.TotalTypeTotal)
		if product.FreeShipping {
			freeShipItem = true
		}
	}

	var (
		fulfillCost int64
		hasFulfill  bool
	)
	method := chk.Fulfillment.ShippingMethod()
	if method != nil {
		var dest *domain.Destination
		if method.SelectedDestinationID != "" {
			dest = method.SelectedDestination()
			if dest == nil {
				return fmt.Errorf("%w: destination %s", ErrInvalidSelection, method.SelectedDestinationID)
			}
		}

		options := fulfillment.Options(dest, subtotal, freeShipItem)
		group := domain.FulfillmentGroup{Options: options}
		if len(method.Groups) > 0 {
			group.SelectedOptionID = method.Groups[0].SelectedOptionID
		}
		if group.SelectedOptionID != "" {
			found := false
			for i := range options {
				if options[i].ID == group.SelectedOptionID {
					fulfillCost = fulfillment.Cost(&options[i])
					hasFulfill = true
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("%w: option %s", ErrInvalidSelection, group.SelectedOptionID)
			}
		}
		if len(options) > 0 {
			method.Groups = []domain.FulfillmentGroup{group}
		} else if group.SelectedOptionID != "" {
			return fmt.Errorf("%w: option %s", ErrInvalidSelection, group.SelectedOptionID)
		} else {
			method.Groups = nil
		}
	}

	codes := []string(nil)
	if chk.Discounts != nil {
		codes = chk.Discounts.Codes
	}
	result := s.pricer.Price(chk.LineItems, codes, fulfillCost, hasFulfill)
	chk.Totals = result.Totals
	if chk.Discounts != nil {
		chk.Discounts.Applied = result.Applied
	}
	if chk.Payment.Instruments == nil {
		chk.Payment.Instruments = []json.RawMessage{}
	}
	return nil
}
