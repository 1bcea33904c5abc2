package formats

import (
	"fmt"

	"github.com/custodia-labs/postmetrics/internal/core/domain"
	"github.com/custodia-labs/postmetrics/internal/formats/facebook"
	"github.com/custodia-labs/postmetrics/internal/formats/generic"
	"github.com/custodia-labs/postmetrics/internal/formats/instagram"
	"github.com/custodia-labs/postmetrics/internal/formats/native"
)

// RegisterDefaults registers all built-in layouts with the registry.
// Call this during application initialisation.
func RegisterDefaults(r *Registry) error {
	for _, layout := range []*domain.Layout{
		native.Layout(),
		instagram.Layout(),
		facebook.Layout(),
		generic.Layout(),
	} {
		if err := r.Register(layout); err != nil {
			return fmt.Errorf("register %s: %w", layout.Format, err)
		}
	}
	return nil
}

// NewDefaultRegistry returns a registry holding every built-in layout.
func NewDefaultRegistry() (*Registry, error) {
	r := NewRegistry()
	if err := RegisterDefaults(r); err != nil {
		return nil, err
	}
	return r, nil
}
