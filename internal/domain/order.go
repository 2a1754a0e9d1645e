package domain

import (
	"fmt"
	"time"
)

// AdjustmentType enumerates post-purchase monetary adjustments.
type AdjustmentType string

const (
	AdjustmentTypeRefund AdjustmentType = "refund"
	AdjustmentTypeCredit AdjustmentType = "credit"
)

func (t AdjustmentType) Valid() bool {
	return t == AdjustmentTypeRefund || t == AdjustmentTypeCredit
}

type AdjustmentStatus string

const (
	AdjustmentStatusPending    AdjustmentStatus = "pending"
	AdjustmentStatusProcessing AdjustmentStatus = "processing"
	AdjustmentStatusCompleted  AdjustmentStatus = "completed"
	AdjustmentStatusFailed     AdjustmentStatus = "failed"
	AdjustmentStatusCanceled   AdjustmentStatus = "canceled"
)

func (s AdjustmentStatus) Valid() bool {
	switch s {
	case AdjustmentStatusPending, AdjustmentStatusProcessing,
		AdjustmentStatusCompleted, AdjustmentStatusFailed, AdjustmentStatusCanceled:
		return true
	}
	return false
}

// Adjustment records a refund or store credit applied to an order.
// Adjustments are append-only; an existing adjustment is never
// rewritten by an update.
type Adjustment struct {
	ID          string           `json:"id"`
	Type        AdjustmentType   `json:"type"`
	Status      AdjustmentStatus `json:"status"`
	Amount      int64            `json:"amount"`
	OccurredAt  string           `json:"occurred_at,omitempty"`
	Description string           `json:"description,omitempty"`
}

// Validate rejects adjustments with out-of-vocabulary enum values.
func (a Adjustment) Validate() error {
	if !a.Type.Valid() {
		return fmt.Errorf("invalid adjustment type %q", a.Type)
	}
	if !a.Status.Valid() {
		return fmt.Errorf("invalid adjustment status %q", a.Status)
	}
	return nil
}

type FulfillmentEventType string

const (
	FulfillmentEventShipped   FulfillmentEventType = "shipped"
	FulfillmentEventDelivered FulfillmentEventType = "delivered"
)

func (t FulfillmentEventType) Valid() bool {
	return t == FulfillmentEventShipped || t == FulfillmentEventDelivered
}

type EventLineItem struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity,omitempty"`
}

// FulfillmentEvent is a shipment milestone attached to an order.
type FulfillmentEvent struct {
	ID             string               `json:"id"`
	Type           FulfillmentEventType `json:"type"`
	OccurredAt     string               `json:"occurred_at,omitempty"`
	TrackingNumber string               `json:"tracking_number,omitempty"`
	TrackingURL    string               `json:"tracking_url,omitempty"`
	Description    string               `json:"description,omitempty"`
	LineItems      []EventLineItem      `json:"line_items,omitempty"`
}

func (e FulfillmentEvent) Validate() error {
	if !e.Type.Valid() {
		return fmt.Errorf("invalid fulfillment event type %q", e.Type)
	}
	return nil
}

// FulfillmentExpectation captures what was promised at checkout time:
// the selected option and where it ships.
type FulfillmentExpectation struct {
	ID          string       `json:"id"`
	Type        string       `json:"type,omitempty"`
	Description string       `json:"description,omitempty"`
	Destination *Destination `json:"destination,omitempty"`
}

type OrderFulfillment struct {
	Expectations []FulfillmentExpectation `json:"expectations,omitempty"`
	Events       []FulfillmentEvent       `json:"events,omitempty"`
}

// OrderQuantity wraps a line-item quantity so fulfilled and returned
// counts can be added later without a breaking change.
type OrderQuantity struct {
	Total int `json:"total"`
}

type OrderLineItem struct {
	ID       string        `json:"id"`
	Item     Item          `json:"item"`
	Quantity OrderQuantity `json:"quantity"`
	Totals   []Total       `json:"totals,omitempty"`
}

// Order is the immutable record created from a completed checkout,
// plus its append-only post-purchase history.
type Order struct {
	ID           string           `json:"id"`
	CheckoutID   string           `json:"checkout_id"`
	PermalinkURL string           `json:"permalink_url"`
	Currency     string           `json:"currency,omitempty"`
	LineItems    []OrderLineItem  `json:"line_items"`
	Totals       []Total          `json:"totals,omitempty"`
	Fulfillment  OrderFulfillment `json:"fulfillment"`
	Adjustments  []Adjustment     `json:"adjustments"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// HasEvent reports whether the order already carries the given
// fulfillment event id.
func (o *Order) HasEvent(id string) bool {
	for _, e := range o.Fulfillment.Events {
		if e.ID == id {
			return true
		}
	}
	return false
}

// HasAdjustment reports whether the order already carries the given
// adjustment id.
func (o *Order) HasAdjustment(id string) bool {
	for _, a := range o.Adjustments {
		if a.ID == id {
			return true
		}
	}
	return false
}
