package provider

import (
	"fmt"
	"strings"

	"github.com/elliotchance/orderedmap/v2"
)

// Registry holds adapters in declaration order. Detection ties are broken by that order.
type Registry struct {
	adapters *orderedmap.OrderedMap[string, Adapter]
}

// NewRegistry creates a registry from adapters in the given order.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: orderedmap.NewOrderedMap[string, Adapter]()}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

// DefaultRegistry returns the built-in adapters, most specific first and generic last.
func DefaultRegistry(opts Options) *Registry {
	return NewRegistry(
		NewCloudflare(opts),
		NewRoute53(opts),
		NewGoDaddy(opts),
		NewDigitalOcean(opts),
		NewGeneric(opts),
	)
}

// Register adds a or replaces the adapter with the same name, keeping its position.
func (r *Registry) Register(a Adapter) {
	r.adapters.Set(strings.ToLower(a.Name()), a)
}

// Get returns the adapter registered under name.
func (r *Registry) Get(name string) (Adapter, bool) {
	return r.adapters.Get(strings.ToLower(strings.TrimSpace(name)))
}

// ByName returns the adapter for name or an error listing the known providers.
func (r *Registry) ByName(name string) (Adapter, error) {
	a, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown provider %q (known: %s)", name, strings.Join(r.Names(), ", "))
	}
	return a, nil
}

// All returns the adapters in declaration order.
func (r *Registry) All() []Adapter {
	out := make([]Adapter, 0, r.adapters.Len())
	for el := r.adapters.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value)
	}
	return out
}

// Names returns the registered provider names in declaration order.
func (r *Registry) Names() []string {
	return r.adapters.Keys()
}

// Len returns the number of registered adapters.
func (r *Registry) Len() int {
	return r.adapters.Len()
}
