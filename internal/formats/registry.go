package formats

import (
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/postmetrics/internal/core/domain"
	"github.com/custodia-labs/postmetrics/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.LayoutRegistry = (*Registry)(nil)

// Registry maps source formats to their layouts and keeps them in
// detection order.
type Registry struct {
	mu      sync.RWMutex
	layouts []*domain.Layout
}

// NewRegistry creates an empty layout registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register validates a layout and adds it to the registry.
// Registering a format twice replaces the earlier layout.
func (r *Registry) Register(layout *domain.Layout) error {
	if layout == nil {
		return fmt.Errorf("%w: nil layout", domain.ErrInvalidInput)
	}
	if err := layout.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.layouts {
		if existing.Format == layout.Format {
			r.layouts = append(r.layouts[:i], r.layouts[i+1:]...)
			break
		}
	}
	r.layouts = append(r.layouts, layout)

	// Stable keeps registration order within equal priorities.
	sort.SliceStable(r.layouts, func(i, j int) bool {
		return r.layouts[i].Priority > r.layouts[j].Priority
	})
	return nil
}

// Layouts returns the registered layouts in detection order.
func (r *Registry) Layouts() []*domain.Layout {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Layout, len(r.layouts))
	copy(out, r.layouts)
	return out
}

// Get returns the layout registered for format.
func (r *Registry) Get(format domain.SourceFormat) (*domain.Layout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, l := range r.layouts {
		if l.Format == format {
			return l, nil
		}
	}
	return nil, fmt.Errorf("layout %s: %w", format, domain.ErrNotFound)
}

// Fallback returns the generic layout, or nil if it was never registered.
func (r *Registry) Fallback() *domain.Layout {
	l, err := r.Get(domain.FormatGeneric)
	if err != nil {
		return nil
	}
	return l
}

// Formats returns the registered formats in detection order.
func (r *Registry) Formats() []domain.SourceFormat {
	layouts := r.Layouts()
	out := make([]domain.SourceFormat, 0, len(layouts))
	for _, l := range layouts {
		out = append(out, l.Format)
	}
	return out
}
