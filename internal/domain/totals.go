package domain

// TotalType categorizes a price component. Amounts are integer minor
// currency units (cents for USD).
type TotalType string

const (
	TotalTypeSubtotal    TotalType = "subtotal"
	TotalTypeDiscount    TotalType = "discount"
	TotalTypeFulfillment TotalType = "fulfillment"
	TotalTypeTax         TotalType = "tax"
	TotalTypeTotal       TotalType = "total"
)

type Total struct {
	Type        TotalType `json:"type"`
	Amount      int64     `json:"amount"`
	DisplayText string    `json:"display_text,omitempty"`
}

// AmountOf returns the amount of the first entry with the given type,
// or 0 if no such entry exists.
func AmountOf(totals []Total, t TotalType) int64 {
	for _, entry := range totals {
		if entry.Type == t {
			return entry.Amount
		}
	}
	return 0
}
