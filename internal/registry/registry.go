// Package registry maps category names to feed URLs. The mapping is fixed
// when the Registry is built and safe for concurrent readers.
package registry

import (
	"errors"
	"fmt"

	"news-tagger/internal/config"
)

var ErrUnknownCategory = errors.New("unknown category")

type Category struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type Registry struct {
	ordered []Category
	byName  map[string]string
}

func New(categories []config.CategoryConfig) (*Registry, error) {
	r := &Registry{
		ordered: make([]Category, 0, len(categories)),
		byName:  make(map[string]string, len(categories)),
	}
	for _, c := range categories {
		if _, dup := r.byName[c.Name]; dup {
			return nil, fmt.Errorf("category %q registered twice", c.Name)
		}
		r.byName[c.Name] = c.URL
		r.ordered = append(r.ordered, Category{Name: c.Name, URL: c.URL})
	}
	return r, nil
}

// Lookup matches category exactly, with no normalization.
func (r *Registry) Lookup(category string) (string, error) {
	url, ok := r.byName[category]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	return url, nil
}

// Categories returns a copy in registration order.
func (r *Registry) Categories() []Category {
	out := make([]Category, len(r.ordered))
	copy(out, r.ordered)
	return out
}
