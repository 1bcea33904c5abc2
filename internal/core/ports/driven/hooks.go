package driven

import "context"

// RecomputeHook refreshes derived analytics after a write changed state.
// Hooks run after cache invalidation; a failing hook is reported but never
// undoes the write.
type RecomputeHook interface {
	Name() string
	Recompute(ctx context.Context) error
}

// CacheObserver receives query cache events.
type CacheObserver interface {
	OnHit(key string)
	OnMiss(key string)
	OnStore(key string)
	OnDiscard(key string)
	OnInvalidate()
}

// IngestObserver receives per-file ingest outcomes.
type IngestObserver interface {
	ObserveRows(format string, outcome string, n int)
	ObserveDuration(format string, seconds float64)
}
