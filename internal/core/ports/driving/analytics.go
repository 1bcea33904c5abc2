package driving

import (
	"context"

	"github.com/custodia-labs/postmetrics/internal/core/domain"
)

// AnalyticsService computes KPIs over query results.
type AnalyticsService interface {
	// Summary aggregates the records selected by spec.
	Summary(ctx context.Context, spec domain.QuerySpec) (*domain.Summary, error)
}
