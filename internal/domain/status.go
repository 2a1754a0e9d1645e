package domain

type CheckoutStatus string

const (
	CheckoutStatusOpen      CheckoutStatus = "open"
	CheckoutStatusCompleted CheckoutStatus = "completed"
	CheckoutStatusCanceled  CheckoutStatus = "canceled"
)

func (s CheckoutStatus) IsTerminal() bool {
	return s == CheckoutStatusCompleted || s == CheckoutStatusCanceled
}

// String representation (for logging)
func (s CheckoutStatus) String() string {
	return string(s)
}
