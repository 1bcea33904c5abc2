// Package tui provides an interactive terminal dashboard for postmetrics.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/postmetrics/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces the dashboard reads from.
type Ports struct {
	// Query serves the records table and the freshness line.
	Query driving.QueryService

	// Analytics computes the KPI header.
	Analytics driving.AnalyticsService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Query == nil {
		return ErrMissingQueryService
	}
	if p.Analytics == nil {
		return ErrMissingAnalyticsService
	}
	return nil
}
