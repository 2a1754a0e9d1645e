package domain

import "encoding/json"

// Checkout is a checkout session: a cart in progress that becomes
// terminal once completed or canceled. Totals are always derived
// server-side; client-submitted prices and titles are ignored.
type Checkout struct {
	ID          string         `json:"id"`
	Status      CheckoutStatus `json:"status"`
	Currency    string         `json:"currency"`
	LineItems   []LineItem     `json:"line_items"`
	Totals      []Total        `json:"totals"`
	Payment     Payment        `json:"payment"`
	Buyer       *Buyer         `json:"buyer,omitempty"`
	Fulfillment *Fulfillment   `json:"fulfillment,omitempty"`
	Discounts   *Discounts     `json:"discounts,omitempty"`

	// Order is populated only after successful completion.
	Order *OrderRef `json:"order,omitempty"`
}

// OrderRef links a completed checkout to the order created from it.
type OrderRef struct {
	ID           string `json:"id"`
	CheckoutID   string `json:"checkout_id"`
	PermalinkURL string `json:"permalink_url"`
}

type Item struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type LineItem struct {
	ID       string  `json:"id"`
	Item     Item    `json:"item"`
	Quantity int     `json:"quantity"`
	Totals   []Total `json:"totals,omitempty"`
}

// Consent holds buyer data-usage preferences. Pointer booleans so that
// "not stated" survives round trips unchanged.
type Consent struct {
	Marketing  *bool `json:"marketing,omitempty"`
	Analytics  *bool `json:"analytics,omitempty"`
	SaleOfData *bool `json:"sale_of_data,omitempty"`
}

type Buyer struct {
	FirstName   string   `json:"first_name,omitempty"`
	LastName    string   `json:"last_name,omitempty"`
	FullName    string   `json:"fullName,omitempty"`
	Email       string   `json:"email,omitempty"`
	PhoneNumber string   `json:"phone_number,omitempty"`
	Consent     *Consent `json:"consent,omitempty"`
}

// Discounts carries the submitted codes and the subset that was
// accepted. Unknown codes are dropped from Applied without error.
type Discounts struct {
	Codes   []string          `json:"codes,omitempty"`
	Applied []AppliedDiscount `json:"applied,omitempty"`
}

type AppliedDiscount struct {
	Code   string `json:"code"`
	Title  string `json:"title,omitempty"`
	Amount int64  `json:"amount"`
}

// PaymentHandlerInfo describes a payment handler declared by the
// caller or advertised in the discovery document.
type PaymentHandlerInfo struct {
	ID                string         `json:"id"`
	Name              string         `json:"name,omitempty"`
	Version           string         `json:"version,omitempty"`
	Spec              string         `json:"spec,omitempty"`
	ConfigSchema      string         `json:"config_schema,omitempty"`
	InstrumentSchemas []string       `json:"instrument_schemas,omitempty"`
	Config            map[string]any `json:"config,omitempty"`
}

// Payment is the session-level payment state. Instruments are kept as
// raw JSON so handler-specific shapes round-trip untouched.
type Payment struct {
	Instruments          []json.RawMessage    `json:"instruments"`
	SelectedInstrumentID string               `json:"selected_instrument_id,omitempty"`
	Handlers             []PaymentHandlerInfo `json:"handlers,omitempty"`
}

// Clone returns a deep copy of the checkout via a JSON round trip.
// Sessions are mutated under a per-session lock; handlers only ever see
// clones.
func (c *Checkout) Clone() *Checkout {
	data, err := json.Marshal(c)
	if err != nil {
		return nil
	}
	var out Checkout
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return &out
}
