package providers

import (
	"fmt"
	"slices"

	"github.com/tripmesh/inventory/internal/apperr"
	"github.com/tripmesh/inventory/internal/search/types"
)

// Registry resolves which adapters serve a request. It is built once at
// startup from configuration and never mutated afterwards, so lookups are safe
// for concurrent use without locking.
type Registry struct {
	byType   map[types.ProductType][]Adapter
	byName   map[string]Adapter
	fallback Adapter
}

// NewRegistry builds a registry from the given adapters. The fallback adapter
// serves callers with no per-org provider configuration; it may also appear in
// adapters. Duplicate names are rejected.
func NewRegistry(adapters []Adapter, fallback Adapter) (*Registry, error) {
	r := &Registry{
		byType:   make(map[types.ProductType][]Adapter),
		byName:   make(map[string]Adapter),
		fallback: fallback,
	}

	for _, a := range adapters {
		if _, ok := r.byName[a.Name()]; ok {
			return nil, fmt.Errorf("duplicate adapter name %q", a.Name())
		}
		r.byName[a.Name()] = a
		for _, pt := range a.Types() {
			r.byType[pt] = append(r.byType[pt], a)
		}
	}

	if fallback != nil {
		if _, ok := r.byName[fallback.Name()]; !ok {
			r.byName[fallback.Name()] = fallback
		}
	}

	return r, nil
}

// Resolve returns the adapters that apply to a query for the given product
// type. Precedence: explicit override, then the caller's enabled-provider set
// intersected with the type's registered adapters, then the fallback adapter.
func (r *Registry) Resolve(pt types.ProductType, override string, enabled []string) ([]Adapter, error) {
	if override != "" {
		a, ok := r.byName[override]
		if !ok || !slices.Contains(a.Types(), pt) {
			return nil, apperr.Newf(apperr.KindNotFound, "provider %q not registered for %s", override, pt)
		}
		return []Adapter{a}, nil
	}

	if len(enabled) > 0 {
		var matched []Adapter
		for _, a := range r.byType[pt] {
			if slices.Contains(enabled, a.Name()) {
				matched = append(matched, a)
			}
		}
		return matched, nil
	}

	if r.fallback != nil && slices.Contains(r.fallback.Types(), pt) {
		return []Adapter{r.fallback}, nil
	}
	return nil, nil
}

// Adapter returns the adapter registered under name. Used by follow-up calls
// after code resolution recovers the provider identity.
func (r *Registry) Adapter(name string) (Adapter, error) {
	a, ok := r.byName[name]
	if !ok {
		return nil, apperr.Newf(apperr.KindNotFound, "provider %q not registered", name)
	}
	return a, nil
}
