// Package registry holds the static tables binding feature names to backend datasets.
package registry

import (
	"fmt"
	"sort"

	"go.ngs.io/medenv/internal/domain"
)

// Registry is an immutable lookup table of features.
type Registry struct {
	features map[string]domain.Feature
	names    []string
}

// New builds a registry from a list of features. Duplicate names are rejected.
func New(features ...domain.Feature) (*Registry, error) {
	r := &Registry{features: make(map[string]domain.Feature, len(features))}
	for _, f := range features {
		if f.Name == "" || f.DatasetID == "" || f.Variable == "" {
			return nil, fmt.Errorf("incomplete feature descriptor: %+v", f)
		}
		if _, dup := r.features[f.Name]; dup {
			return nil, fmt.Errorf("duplicate feature %q", f.Name)
		}
		r.features[f.Name] = f
		r.names = append(r.names, f.Name)
	}
	sort.Strings(r.names)
	return r, nil
}

func mustNew(features ...domain.Feature) *Registry {
	r, err := New(features...)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the descriptor of a feature, or an error wrapping domain.ErrUnknownFeature.
func (r *Registry) Lookup(name string) (domain.Feature, error) {
	f, ok := r.features[name]
	if !ok {
		return domain.Feature{}, fmt.Errorf("%w: no dataset known for %q", domain.ErrUnknownFeature, name)
	}
	return f, nil
}

// Has reports whether the feature exists.
func (r *Registry) Has(name string) bool {
	_, ok := r.features[name]
	return ok
}

// Names returns the sorted feature names.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Features returns every descriptor, sorted by name.
func (r *Registry) Features() []domain.Feature {
	out := make([]domain.Feature, 0, len(r.names))
	for _, n := range r.names {
		out = append(out, r.features[n])
	}
	return out
}
