package domain

// Destination is a shipping address in schema.org postal-address form.
type Destination struct {
	ID            string `json:"id,omitempty"`
	FullName      string `json:"full_name,omitempty"`
	StreetAddress string `json:"street_address,omitempty"`
	Locality      string `json:"address_locality,omitempty"`
	Region        string `json:"address_region,omitempty"`
	PostalCode    string `json:"postal_code,omitempty"`
	Country       string `json:"address_country,omitempty"`
	PhoneNumber   string `json:"phone_number,omitempty"`
}

// SameAddress reports whether two destinations point at the same
// physical place. IDs and contact fields are ignored.
func (d Destination) SameAddress(o Destination) bool {
	return d.StreetAddress == o.StreetAddress &&
		d.Locality == o.Locality &&
		d.Region == o.Region &&
		d.PostalCode == o.PostalCode &&
		d.Country == o.Country
}

type FulfillmentOption struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Totals []Total `json:"totals,omitempty"`
}

type FulfillmentGroup struct {
	ID               string              `json:"id,omitempty"`
	Options          []FulfillmentOption `json:"options"`
	SelectedOptionID string              `json:"selected_option_id,omitempty"`
}

type FulfillmentMethod struct {
	ID                    string             `json:"id,omitempty"`
	Type                  string             `json:"type,omitempty"`
	Destinations          []Destination      `json:"destinations,omitempty"`
	SelectedDestinationID string             `json:"selected_destination_id,omitempty"`
	Groups                []FulfillmentGroup `json:"groups,omitempty"`
}

type Fulfillment struct {
	Methods []FulfillmentMethod `json:"methods"`
}

// ShippingMethod returns the first shipping-type method, or the first
// method when none declares a type. Returns nil when there are no
// methods at all.
func (f *Fulfillment) ShippingMethod() *FulfillmentMethod {
	if f == nil || len(f.Methods) == 0 {
		return nil
	}
	for i := range f.Methods {
		if f.Methods[i].Type == "shipping" {
			return &f.Methods[i]
		}
	}
	return &f.Methods[0]
}

// SelectedDestination resolves the method's selected destination id
// against its destination list.
func (m *FulfillmentMethod) SelectedDestination() *Destination {
	if m == nil || m.SelectedDestinationID == "" {
		return nil
	}
	for i := range m.Destinations {
		if m.Destinations[i].ID == m.SelectedDestinationID {
			return &m.Destinations[i]
		}
	}
	return nil
}

// SelectedOption resolves the selected option of the method's first
// group.
func (m *FulfillmentMethod) SelectedOption() *FulfillmentOption {
	if m == nil || len(m.Groups) == 0 {
		return nil
	}
	g := m.Groups[0]
	if g.SelectedOptionID == "" {
		return nil
	}
	for i := range g.Options {
		if g.Options[i].ID == g.SelectedOptionID {
			return &g.Options[i]
		}
	}
	return nil
}
