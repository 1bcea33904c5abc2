package mcp

import (
	"github.com/custodia-labs/postmetrics/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
type Ports struct {
	// Query serves cached record reads.
	Query driving.QueryService

	// Analytics computes summaries. Optional; the summary tool reports an
	// error without it.
	Analytics driving.AnalyticsService

	// Ingest runs export files through the pipeline.
	Ingest driving.IngestService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Query == nil {
		return ErrMissingQueryService
	}
	if p.Ingest == nil {
		return ErrMissingIngestService
	}
	return nil
}
