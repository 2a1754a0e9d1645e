package discovery

import (
	"fmt"

	"github.com/semenovm/ucp-checkout/internal/agent"
	"github.com/semenovm/ucp-checkout/internal/domain"
	"github.com/semenovm/ucp-checkout/internal/payment"
)

// Capability is one protocol surface this server implements.
type Capability struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Spec    string `json:"spec,omitempty"`
	Schema  string `json:"schema,omitempty"`
}

// Document is the /.well-known/ucp discovery payload.
type Document struct {
	UCP     Section        `json:"ucp"`
	Payment PaymentSection `json:"payment"`
}

type Section struct {
	Version      string            `json:"version"`
	Capabilities []Capability      `json:"capabilities"`
	Services     map[string]string `json:"services,omitempty"`
}

type PaymentSection struct {
	Handlers []domain.PaymentHandlerInfo `json:"handlers"`
}

var capabilityNames = []string{
	"dev.ucp.shopping.checkout",
	"dev.ucp.shopping.order",
	"dev.ucp.shopping.refund",
	"dev.ucp.shopping.return",
	"dev.ucp.shopping.dispute",
	"dev.ucp.shopping.discount",
	"dev.ucp.shopping.fulfillment",
	"dev.ucp.shopping.buyer_consent",
}

// Build assembles the discovery document for a server hosted at
// baseURL. Spec and schema links are self-hosted so the document has
// no external fetch dependencies.
func Build(baseURL string, registry *payment.Registry) Document {
	caps := make([]Capability, 0, len(capabilityNames))
	for _, name := range capabilityNames {
		caps = append(caps, Capability{
			Name:    name,
			Version: agent.ProtocolVersion,
			Spec:    fmt.Sprintf("%s/specs/%s.md", baseURL, name),
			Schema:  fmt.Sprintf("%s/schemas/%s.json", baseURL, name),
		})
	}

	handlers := make([]domain.PaymentHandlerInfo, 0)
	for _, h := range registry.Handlers() {
		info := domain.PaymentHandlerInfo{
			ID:           h.ID(),
			Name:         h.Name(),
			Version:      agent.ProtocolVersion,
			Spec:         fmt.Sprintf("%s/specs/payment/%s.md", baseURL, h.ID()),
			ConfigSchema: fmt.Sprintf("%s/schemas/payment/%s.json", baseURL, h.ID()),
			InstrumentSchemas: []string{
				fmt.Sprintf("%s/schemas/payment/%s.instrument.json", baseURL, h.ID()),
			},
			Config: map[string]any{"mode": "test"},
		}
		if h.ID() == "shop_pay" {
			info.Config["shop_id"] = "demo-shop"
		}
		handlers = append(handlers, info)
	}

	return Document{
		UCP: Section{
			Version:      agent.ProtocolVersion,
			Capabilities: caps,
			Services: map[string]string{
				"checkout": fmt.Sprintf("%s/checkout-sessions", baseURL),
				"order":    fmt.Sprintf("%s/orders", baseURL),
			},
		},
		Payment: PaymentSection{Handlers: handlers},
	}
}
