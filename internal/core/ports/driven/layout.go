package driven

import "github.com/custodia-labs/postmetrics/internal/core/domain"

// LayoutRegistry holds the recognised export layouts.
type LayoutRegistry interface {
	// Register validates and adds a layout.
	Register(layout *domain.Layout) error

	// Layouts returns layouts in detection order: priority descending,
	// registration order within equal priority.
	Layouts() []*domain.Layout

	// Get returns the layout for a format.
	// Returns domain.ErrNotFound if the format is not registered.
	Get(format domain.SourceFormat) (*domain.Layout, error)

	// Fallback returns the generic layout used when no signature matches.
	Fallback() *domain.Layout
}
