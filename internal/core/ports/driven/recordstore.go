package driven

import (
	"context"

	"github.com/custodia-labs/postmetrics/internal/core/domain"
)

// RecordStore persists canonical records keyed by IdentityKey.
// Implementations hold no cache: Scan always reflects completed writes.
type RecordStore interface {
	// Upsert writes each record under its key using the dedup policy.
	// Each lookup-and-write is atomic per record. A failing record is
	// reported in UpsertReport.Failures and does not abort the batch.
	// The error is reserved for failures affecting the whole store.
	Upsert(ctx context.Context, records []domain.CanonicalRecord) (domain.UpsertReport, error)

	// Get retrieves a record by key.
	// Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, key domain.IdentityKey) (*domain.CanonicalRecord, error)

	// Scan returns records matching the filter, newest first.
	Scan(ctx context.Context, filter domain.QuerySpec) ([]domain.CanonicalRecord, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
}
