package external

import (
	"fmt"
	"sort"
)

// Registry is the fixed set of providers built at startup.
type Registry struct {
	providers map[string]Provider
	names     []string
}

// NewRegistry indexes providers by name. Registering two providers under
// the same name is a configuration error.
func NewRegistry(providers ...Provider) (*Registry, error) {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		if _, ok := r.providers[p.Name()]; ok {
			return nil, fmt.Errorf("%w: %s", ErrProviderConflict, p.Name())
		}
		r.providers[p.Name()] = p
		r.names = append(r.names, p.Name())
	}
	sort.Strings(r.names)
	return r, nil
}

// Get returns the provider registered under name.
func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return p, nil
}

// Names returns the registered provider names in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}
