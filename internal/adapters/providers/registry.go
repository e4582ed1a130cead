// Package providers holds the third-party geocoding adapters.
package providers

import (
	"fmt"

	"github.com/samirrijal/geoproxy/internal/core/domain"
	"github.com/samirrijal/geoproxy/internal/core/ports"
)

// Registry is an immutable, ordered set of providers. Safe for concurrent use.
type Registry struct {
	order []domain.ProviderID
	byID  map[domain.ProviderID]ports.Provider
}

// NewRegistry registers providers in the given order. Ids must be unique.
func NewRegistry(providers ...ports.Provider) (*Registry, error) {
	r := &Registry{byID: make(map[domain.ProviderID]ports.Provider, len(providers))}
	for _, p := range providers {
		id := p.ID()
		if id == "" {
			return nil, fmt.Errorf("provider with empty id")
		}
		if _, dup := r.byID[id]; dup {
			return nil, fmt.Errorf("provider %q registered twice", id)
		}
		r.order = append(r.order, id)
		r.byID[id] = p
	}
	return r, nil
}

// IDs returns a copy of the registration order.
func (r *Registry) IDs() []domain.ProviderID {
	out := make([]domain.ProviderID, len(r.order))
	copy(out, r.order)
	return out
}

// Get returns the provider registered under id.
func (r *Registry) Get(id domain.ProviderID) (ports.Provider, bool) {
	p, ok := r.byID[id]
	return p, ok
}
