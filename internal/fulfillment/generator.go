package fulfillment

import (
	"github.com/semenovm/ucp-checkout/internal/domain"
)

const (
	// OptionStandard ships anywhere.
	OptionStandard = "std-ship"
	// OptionExpressUS is offered for US destinations only.
	OptionExpressUS = "exp-ship-us"
	// OptionExpressIntl is offered for non-US destinations.
	OptionExpressIntl = "exp-ship-intl"

	standardCost      int64 = 500
	expressUSCost     int64 = 1500
	expressIntlCost   int64 = 2500
	freeShipThreshold int64 = 10000
)

// FreeShippingEligible reports whether standard shipping is free for
// the given cart: either the subtotal clears the threshold or any
// line item ships free on its own.
func FreeShippingEligible(subtotal int64, freeShipItem bool) bool {
	return subtotal > freeShipThreshold || freeShipItem
}

// Options generates the fulfillment options available for a
// destination. A nil destination yields no options; rates cannot be
// quoted without knowing where the order ships.
func Options(dest *domain.Destination, subtotal int64, freeShipItem bool) []domain.FulfillmentOption {
	if dest == nil {
		return nil
	}

	std := domain.FulfillmentOption{
		ID:     OptionStandard,
		Title:  "Standard Shipping (5-7 business days)",
		Totals: optionTotals(subtotal, standardCost),
	}
	if FreeShippingEligible(subtotal, freeShipItem) {
		std.Title = "Free Standard Shipping (5-7 business days)"
		std.Totals = optionTotals(subtotal, 0)
	}
	opts := []domain.FulfillmentOption{std}

	if dest.Country == "US" {
		opts = append(opts, domain.FulfillmentOption{
			ID:     OptionExpressUS,
			Title:  "Express Shipping (1-2 business days)",
			Totals: optionTotals(subtotal, expressUSCost),
		})
	} else {
		opts = append(opts, domain.FulfillmentOption{
			ID:     OptionExpressIntl,
			Title:  "International Express Shipping (3-5 business days)",
			Totals: optionTotals(subtotal, expressIntlCost),
		})
	}
	return opts
}

// Cost returns the fulfillment charge of an option by reading its
// own totals.
func Cost(opt *domain.FulfillmentOption) int64 {
	if opt == nil {
		return 0
	}
	return domain.AmountOf(opt.Totals, domain.TotalTypeFulfillment)
}

func optionTotals(subtotal, cost int64) []domain.Total {
	return []domain.Total{
		{Type: domain.TotalTypeSubtotal, Amount: subtotal},
		{Type: domain.TotalTypeFulfillment, Amount: cost},
		{Type: domain.TotalTypeTotal, Amount: subtotal + cost},
	}
}
