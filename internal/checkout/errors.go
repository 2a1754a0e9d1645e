package checkout

import "errors"

var (
	// ErrCheckoutNotFound is returned for an unknown session id.
	ErrCheckoutNotFound = errors.New("checkout session not found")

	// ErrCheckoutExists is returned when creating a session with an id
	// that is already in use.
	ErrCheckoutExists = errors.New("checkout session already exists")

	// ErrCheckoutTerminal is returned for mutations on a completed or
	// canceled session.
	ErrCheckoutTerminal = errors.New("checkout session is in a terminal state")

	// ErrFulfillmentUnselected is returned on completion when the
	// session has no selected destination or option.
	ErrFulfillmentUnselected = errors.New("Fulfillment address and option must be selected")

	// ErrInvalidSelection is returned when a selected destination or
	// option id does not exist on the session.
	ErrInvalidSelection = errors.New("invalid fulfillment selection")

	// ErrInvalidQuantity is returned for non-positive line quantities.
	ErrInvalidQuantity = errors.New("quantity must be positive")
)
