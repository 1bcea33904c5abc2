// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"time"

	"github.com/custodia-labs/postmetrics/internal/core/domain"
)

// RefreshRequested asks the dashboard to reload its data.
type RefreshRequested struct{}

// DashboardLoaded carries a fresh snapshot back to the model.
type DashboardLoaded struct {
	Summary   *domain.Summary
	Records   []domain.CanonicalRecord
	Freshness *domain.Freshness
	LoadedAt  time.Time
	Err       error
}
