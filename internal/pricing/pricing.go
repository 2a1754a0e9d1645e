package pricing

import (
	"github.com/semenovm/ucp-checkout/internal/domain"
)

// DiscountRule computes how much a single code takes off the running
// amount.
type DiscountRule struct {
	Code  string
	Title string
	// Percent is applied when > 0, otherwise Fixed.
	Percent int64
	Fixed   int64
}

// Apply returns the deduction for the given running amount. Percentage
// rules truncate the remaining total, so the deduction is the running
// amount minus trunc(running*(100-pct)/100), not a truncated
// percentage of it.
func (r DiscountRule) Apply(running int64) int64 {
	var off int64
	if r.Percent > 0 {
		off = running - running*(100-r.Percent)/100
	} else {
		off = r.Fixed
	}
	if off > running {
		off = running
	}
	if off < 0 {
		off = 0
	}
	return off
}

// Engine prices a checkout: subtotals per line, sequential discount
// stacking in submission order, fulfillment cost, grand total.
type Engine struct {
	rules map[string]DiscountRule
}

// NewEngine creates an engine with the standard promotion set.
func NewEngine() *Engine {
	e := &Engine{rules: make(map[string]DiscountRule)}
	e.AddRule(DiscountRule{Code: "10OFF", Title: "10% off", Percent: 10})
	e.AddRule(DiscountRule{Code: "WELCOME20", Title: "20% off for new customers", Percent: 20})
	e.AddRule(DiscountRule{Code: "FIXED500", Title: "5 off your order", Fixed: 500})
	return e
}

func (e *Engine) AddRule(r DiscountRule) {
	e.rules[r.Code] = r
}

// Result is a fully priced checkout snapshot.
type Result struct {
	LineItems []domain.LineItem
	Totals    []domain.Total
	Applied   []domain.AppliedDiscount
}

// Price computes totals for the given line items, discount codes, and
// selected fulfillment cost. Codes are applied strictly in the order
// submitted, each against the amount left by its predecessors. Unknown
// codes are skipped without error.
func (e *Engine) Price(items []domain.LineItem, codes []string, fulfillmentCost int64, hasFulfillment bool) Result {
	out := make([]domain.LineItem, len(items))
	var subtotal int64
	for i, li := range items {
		out[i] = li
		subtotal += domain.AmountOf(li.Totals, domain.TotalTypeTotal)
	}

	running := subtotal
	var applied []domain.AppliedDiscount
	for _, code := range codes {
		rule, ok := e.rules[code]
		if !ok {
			continue
		}
		off := rule.Apply(running)
		running -= off
		applied = append(applied, domain.AppliedDiscount{Code: rule.Code, Title: rule.Title, Amount: off})
	}
	discountTotal := subtotal - running

	totals := []domain.Total{
		{Type: domain.TotalTypeSubtotal, DisplayText: "Subtotal", Amount: subtotal},
	}
	if discountTotal > 0 {
		totals = append(totals, domain.Total{Type: domain.TotalTypeDiscount, DisplayText: "Discount", Amount: discountTotal})
	}
	if hasFulfillment {
		totals = append(totals, domain.Total{Type: domain.TotalTypeFulfillment, DisplayText: "Shipping", Amount: fulfillmentCost})
	}
	grand := running
	if hasFulfillment {
		grand += fulfillmentCost
	}
	totals = append(totals, domain.Total{Type: domain.TotalTypeTotal, DisplayText: "Total", Amount: grand})

	return Result{LineItems: out, Totals: totals, Applied: applied}
}

// PriceLineItem fills a line item's totals from its unit price and
// quantity.
func PriceLineItem(li domain.LineItem, unitPrice int64) domain.LineItem {
	lineTotal := unitPrice * int64(li.Quantity)
	li.Totals = []domain.Total{
		{Type: domain.TotalTypeSubtotal, Amount: lineTotal},
		{Type: domain.TotalTypeTotal, Amount: lineTotal},
	}
	return li
}
