// Package agent implements the minimal HTTP messaging layer the triage agents use to talk to
// each other and to chat clients: identities, envelopes, chat content, deduplication and dispatch.
package agent

import (
	"strings"

	"github.com/google/uuid"
)

// AddressPrefix starts every agent address.
const AddressPrefix = "agent1q"

// identityNamespace scopes seed-derived agent IDs.
var identityNamespace = uuid.MustParse("5b0d3f8e-6a57-4c1e-9a62-3e7f4d2c9b10")

// Identity names an agent. The same seed always yields the same ID and address.
type Identity struct {
	Name    string
	ID      uuid.UUID
	Address string
}

// NewIdentity derives an identity from seed.
func NewIdentity(name, seed string) Identity {
	id := uuid.NewSHA1(identityNamespace, []byte(seed))
	return Identity{
		Name:    name,
		ID:      id,
		Address: AddressPrefix + strings.ReplaceAll(id.String(), "-", ""),
	}
}

// IsAddress reports whether s has the shape of an agent address.
func IsAddress(s string) bool {
	return strings.HasPrefix(s, AddressPrefix) && len(s) > len(AddressPrefix)
}
