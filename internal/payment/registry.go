package payment

import (
	"fmt"
	"sort"
)

// Registry holds the configured gateway adapters keyed by name. It is built
// once at startup and read-only afterwards, so no locking is needed.
type Registry struct {
	gateways map[string]Gateway
}

// NewRegistry builds a registry from the given adapters. Duplicate names are
// a wiring bug and rejected outright.
func NewRegistry(gateways ...Gateway) (*Registry, error) {
	r := &Registry{gateways: make(map[string]Gateway, len(gateways))}
	for _, g := range gateways {
		name := g.Name()
		if _, dup := r.gateways[name]; dup {
			return nil, fmt.Errorf("payment: duplicate gateway %q", name)
		}
		r.gateways[name] = g
	}
	return r, nil
}

// Get returns the adapter for name.
func (r *Registry) Get(name string) (Gateway, error) {
	g, ok := r.gateways[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGateway, name)
	}
	return g, nil
}

// Names lists the registered gateway names in stable order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.gateways))
	for name := range r.gateways {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
