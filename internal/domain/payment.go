package domain

import "encoding/json"

// CredentialKind classifies a payment credential by the fields it
// actually carries rather than trusting its declared type alone.
type CredentialKind string

const (
	CredentialKindToken   CredentialKind = "token"
	CredentialKindCard    CredentialKind = "card"
	CredentialKindUnknown CredentialKind = "unknown"
)

// Credential is the union of token and raw-card credential shapes.
// Handlers decide which fields they require.
type Credential struct {
	Type           string          `json:"type,omitempty"`
	Token          string          `json:"token,omitempty"`
	Number         string          `json:"number,omitempty"`
	CardNumberType string          `json:"card_number_type,omitempty"`
	ExpiryMonth    int             `json:"expiry_month,omitempty"`
	ExpiryYear     int             `json:"expiry_year,omitempty"`
	CVC            string          `json:"cvc,omitempty"`
	Name           string          `json:"name,omitempty"`
	Binding        json.RawMessage `json:"binding,omitempty"`
}

// Kind resolves the credential union.
func (c *Credential) Kind() CredentialKind {
	if c == nil {
		return CredentialKindUnknown
	}
	switch c.Type {
	case "token", "stripe_token":
		return CredentialKindToken
	case "card":
		return CredentialKindCard
	}
	if c.Token != "" {
		return CredentialKindToken
	}
	if c.Number != "" {
		return CredentialKindCard
	}
	return CredentialKindUnknown
}

// PaymentData is the instrument submitted on checkout completion.
type PaymentData struct {
	ID             string       `json:"id,omitempty"`
	HandlerID      string       `json:"handler_id,omitempty"`
	HandlerName    string       `json:"handler_name,omitempty"`
	Type           string       `json:"type,omitempty"`
	Brand          string       `json:"brand,omitempty"`
	LastDigits     string       `json:"last_digits,omitempty"`
	Credential     *Credential  `json:"credential,omitempty"`
	BillingAddress *Destination `json:"billing_address,omitempty"`
}

// CompleteRequest is the body of a checkout completion call. Risk
// signals and agent-payments mandates are accepted and recorded but
// not enforced.
type CompleteRequest struct {
	Buyer       *Buyer          `json:"buyer,omitempty"`
	PaymentData *PaymentData    `json:"payment_data,omitempty"`
	RiskSignals map[string]any  `json:"risk_signals,omitempty"`
	AP2         json.RawMessage `json:"ap2,omitempty"`
}
