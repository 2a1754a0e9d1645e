package customer

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/semenovm/ucp-checkout/internal/domain"
)

// Directory looks up and persists known shipping addresses per buyer
// email, so returning customers see their address book merged into a
// new checkout.
type Directory interface {
	// Addresses returns the stored addresses for the buyer, oldest
	// first. Unknown buyers get an empty slice.
	Addresses(ctx context.Context, email string) ([]domain.Destination, error)

	// SaveAddress stores the destination for the buyer and returns it
	// with an id assigned. An address matching an existing entry
	// reuses that entry's id instead of creating a duplicate.
	SaveAddress(ctx context.Context, email string, dest domain.Destination) (domain.Destination, error)
}

// MemoryDirectory is an in-memory Directory safe for concurrent use.
type MemoryDirectory struct {
	mu        sync.RWMutex
	addresses map[string][]domain.Destination
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{addresses: make(map[string][]domain.Destination)}
}

// NewSeededDirectory creates a directory with the demo customers.
func NewSeededDirectory() *MemoryDirectory {
	d := NewMemoryDirectory()
	d.addresses["john.doe@example.com"] = []domain.Destination{
		{
			ID:            "addr_1",
			FullName:      "John Doe",
			StreetAddress: "123 Main St",
			Locality:      "Springfield",
			Region:        "IL",
			PostalCode:    "62704",
			Country:       "US",
		},
		{
			ID:            "addr_2",
			FullName:      "John Doe",
			StreetAddress: "456 Oak Ave",
			Locality:      "New York",
			Region:        "NY",
			PostalCode:    "10012",
			Country:       "US",
		},
	}
	d.addresses["jane.doe@example.com"] = nil
	return d
}

func (d *MemoryDirectory) Addresses(_ context.Context, email string) ([]domain.Destination, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	stored := d.addresses[email]
	out := make([]domain.Destination, len(stored))
	copy(out, stored)
	return out, nil
}

func (d *MemoryDirectory) SaveAddress(_ context.Context, email string, dest domain.Destination) (domain.Destination, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, existing := range d.addresses[email] {
		if existing.SameAddress(dest) {
			dest.ID = existing.ID
			return dest, nil
		}
	}
	if dest.ID == "" {
		dest.ID = fmt.Sprintf("addr_%s", uuid.NewString())
	}
	d.addresses[email] = append(d.addresses[email], dest)
	return dest, nil
}
