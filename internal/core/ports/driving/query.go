package driving

import (
	"context"

	"github.com/custodia-labs/postmetrics/internal/core/domain"
)

// QueryService serves reads through the query cache.
type QueryService interface {
	// Query returns records matching spec, newest first.
	// The result is shared and must not be modified by the caller.
	Query(ctx context.Context, spec domain.QuerySpec) ([]domain.CanonicalRecord, error)

	// Get returns a single record by identity.
	// Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, key domain.IdentityKey) (*domain.CanonicalRecord, error)

	// Invalidate drops every cached result.
	Invalidate()

	// Freshness reports record count and cache generation.
	Freshness(ctx context.Context) (*domain.Freshness, error)
}
