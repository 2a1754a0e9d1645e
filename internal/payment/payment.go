package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/semenovm/ucp-checkout/internal/domain"
)

var (
	// ErrPaymentDeclined is returned when the processor refuses the
	// charge.
	ErrPaymentDeclined = errors.New("payment declined")

	// ErrInvalidCredential is returned when the submitted instrument
	// is structurally unusable.
	ErrInvalidCredential = errors.New("invalid payment credential")

	// ErrUnknownHandler is returned when the instrument names a
	// handler this server does not advertise.
	ErrUnknownHandler = errors.New("unknown payment handler")
)

// failToken always declines, so callers can exercise the failure path
// without a real processor.
const failToken = "fail_token"

// Handler authorizes and captures a single payment.
type Handler interface {
	ID() string
	Name() string
	// Capture charges the instrument for the given amount in minor
	// units.
	Capture(ctx context.Context, data *domain.PaymentData, amount int64, currency string) error
}

// Registry resolves the handler for a submitted instrument.
type Registry struct {
	handlers map[string]Handler
	order    []string
}

// NewRegistry creates a registry with the advertised handler set, all
// backed by the simulated processor.
func NewRegistry() *Registry {
	r := &Registry{handlers: make(map[string]Handler)}
	r.Register(&simulatedHandler{id: "google_pay", name: "dev.ucp.google_pay"})
	r.Register(&simulatedHandler{id: "mock_payment_handler", name: "dev.ucp.mock_payment_handler"})
	r.Register(&simulatedHandler{id: "shop_pay", name: "com.shopify.shop_pay"})
	return r
}

func (r *Registry) Register(h Handler) {
	if _, ok := r.handlers[h.ID()]; !ok {
		r.order = append(r.order, h.ID())
	}
	r.handlers[h.ID()] = h
}

// Handlers returns the registered handlers in registration order.
func (r *Registry) Handlers() []Handler {
	out := make([]Handler, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.handlers[id])
	}
	return out
}

// Resolve picks the handler for the instrument. Instruments that do
// not name a handler fall through to the default handler.
func (r *Registry) Resolve(data *domain.PaymentData) (Handler, error) {
	if data == nil {
		return nil, ErrInvalidCredential
	}
	id := data.HandlerID
	if id == "" {
		id = data.HandlerName
	}
	if id == "" {
		return r.handlers["mock_payment_handler"], nil
	}
	if h, ok := r.handlers[id]; ok {
		return h, nil
	}
	for _, h := range r.handlers {
		if h.Name() == id {
			return h, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownHandler, id)
}

// simulatedHandler validates the credential shape and charges against
// a pretend processor. Token credentials succeed unless they carry the
// fail token; card credentials are validated structurally only.
type simulatedHandler struct {
	id   string
	name string
}

func (h *simulatedHandler) ID() string   { return h.id }
func (h *simulatedHandler) Name() string { return h.name }

func (h *simulatedHandler) Capture(_ context.Context, data *domain.PaymentData, amount int64, _ string) error {
	if amount < 0 {
		return fmt.Errorf("%w: negative amount", ErrInvalidCredential)
	}
	cred := data.Credential
	switch cred.Kind() {
	case domain.CredentialKindToken:
		if cred.Token == "" {
			return fmt.Errorf("%w: empty token", ErrInvalidCredential)
		}
		if cred.Token == failToken {
			return ErrPaymentDeclined
		}
		return nil
	case domain.CredentialKindCard:
		if cred.Number == "" {
			return fmt.Errorf("%w: missing card number", ErrInvalidCredential)
		}
		if cred.ExpiryMonth < 1 || cred.ExpiryMonth > 12 {
			return fmt.Errorf("%w: bad expiry month", ErrInvalidCredential)
		}
		return nil
	default:
		return fmt.Errorf("%w: unrecognized credential", ErrInvalidCredential)
	}
}
