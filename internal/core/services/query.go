package services

import (
	"context"

	"github.com/custodia-labs/postmetrics/internal/cache"
	"github.com/custodia-labs/postmetrics/internal/core/domain"
	"github.com/custodia-labs/postmetrics/internal/core/ports/driven"
	"github.com/custodia-labs/postmetrics/internal/core/ports/driving"
	"github.com/custodia-labs/postmetrics/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// recordKeyPrefix namespaces single-record entries in the shared cache.
const recordKeyPrefix = "record|"

// QueryService serves reads through the process-wide result cache.
// Create exactly one per process and share it with every reader and
// with the ingest pipeline, which invalidates it after each write.
type QueryService struct {
	store   driven.RecordStore
	results *cache.Cache[[]domain.CanonicalRecord]
}

// NewQueryService creates the query layer over store. observer is optional.
func NewQueryService(store driven.RecordStore, cfg domain.PipelineConfig, observer driven.CacheObserver) *QueryService {
	var hooks cache.MetricsHooks
	if observer != nil {
		hooks = cache.MetricsHooks{
			OnHit:        observer.OnHit,
			OnMiss:       observer.OnMiss,
			OnStore:      observer.OnStore,
			OnDiscard:    observer.OnDiscard,
			OnInvalidate: observer.OnInvalidate,
		}
	}
	return &QueryService{
		store: store,
		results: cache.New[[]domain.CanonicalRecord](cache.Options{
			TTL:        cfg.FreshnessWindow,
			MaxEntries: cfg.CacheMaxEntries,
		}, hooks),
	}
}

// Query returns records matching spec, newest first. Results are served
// from the cache while fresh; callers receive their own copy.
func (s *QueryService) Query(ctx context.Context, spec domain.QuerySpec) ([]domain.CanonicalRecord, error) {
	spec = spec.Normalise()
	key := spec.CacheKey()

	records, err := s.results.Get(ctx, key, func(ctx context.Context) ([]domain.CanonicalRecord, error) {
		logger.Debug("Cache miss for %s, scanning store", key)
		return s.store.Scan(ctx, spec)
	})
	if err != nil {
		return nil, err
	}
	return cloneRecords(records), nil
}

// Get returns one record by key, cached like any other read.
// Returns domain.ErrNotFound if no record is stored under key.
func (s *QueryService) Get(ctx context.Context, key domain.IdentityKey) (*domain.CanonicalRecord, error) {
	records, err := s.results.Get(ctx, recordKeyPrefix+key.String(), func(ctx context.Context) ([]domain.CanonicalRecord, error) {
		rec, err := s.store.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		return []domain.CanonicalRecord{*rec}, nil
	})
	if err != nil {
		return nil, err
	}
	rec := records[0].Clone()
	return &rec, nil
}

// Invalidate drops every cached result. The ingest pipeline calls it
// synchronously after each write.
func (s *QueryService) Invalidate() {
	s.results.Invalidate()
	logger.Debug("Query cache invalidated")
}

// Freshness reports the record count and the state of the cache.
func (s *QueryService) Freshness(ctx context.Context) (*domain.Freshness, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return nil, err
	}
	stats := s.results.Stats()
	_, full := s.results.Peek(domain.QuerySpec{}.CacheKey())
	return &domain.Freshness{
		Records:         n,
		Generation:      stats.Generation,
		LastInvalidated: stats.LastInvalidated,
		CachedKeys:      stats.Keys,
		FullScanCached:  full,
		Window:          s.results.TTL(),
	}, nil
}

func cloneRecords(in []domain.CanonicalRecord) []domain.CanonicalRecord {
	out := make([]domain.CanonicalRecord, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}
