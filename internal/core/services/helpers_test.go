package services

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/postmetrics/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/postmetrics/internal/adapters/driven/upload/delimited"
	"github.com/custodia-labs/postmetrics/internal/core/domain"
	"github.com/custodia-labs/postmetrics/internal/formats"
)

// pipeline bundles the services wired the way the CLI wires them.
type pipeline struct {
	store  *memory.RecordStore
	query  *QueryService
	ingest *IngestService
}

func newTestPipeline(t *testing.T, opts ...IngestOption) *pipeline {
	t.Helper()

	registry, err := formats.NewDefaultRegistry()
	require.NoError(t, err)

	cfg := domain.DefaultPipelineConfig()
	store := memory.NewRecordStore()
	query := NewQueryService(store, cfg, nil)
	ingest, err := NewIngestService(store, registry, delimited.NewParser(0), query, cfg, opts...)
	require.NoError(t, err)

	return &pipeline{store: store, query: query, ingest: ingest}
}

// ingestCSV runs text through the full pipeline under name.
func (p *pipeline) ingestCSV(t *testing.T, name, text string) *domain.IngestReport {
	t.Helper()
	report, err := p.ingest.IngestReader(context.Background(), name, "", strings.NewReader(text))
	require.NoError(t, err)
	return report
}

func testDetector(t *testing.T) *Detector {
	t.Helper()
	registry, err := formats.NewDefaultRegistry()
	require.NoError(t, err)
	d, err := NewDetector(registry)
	require.NoError(t, err)
	return d
}

func testLayout(t *testing.T, format domain.SourceFormat) *domain.Layout {
	t.Helper()
	registry, err := formats.NewDefaultRegistry()
	require.NoError(t, err)
	l, err := registry.Get(format)
	require.NoError(t, err)
	return l
}

// countingStore wraps the memory store and counts scans.
type countingStore struct {
	*memory.RecordStore

	mu    sync.Mutex
	scans int
	gate  chan struct{}
}

func (s *countingStore) Scan(ctx context.Context, filter domain.QuerySpec) ([]domain.CanonicalRecord, error) {
	s.mu.Lock()
	s.scans++
	gate := s.gate
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return s.RecordStore.Scan(ctx, filter)
}

func (s *countingStore) scanCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scans
}

// fakeHook records recompute calls.
type fakeHook struct {
	name  string
	err   error
	calls int
}

func (h *fakeHook) Name() string { return h.name }

func (h *fakeHook) Recompute(_ context.Context) error {
	h.calls++
	return h.err
}

// fakeObserver records ingest outcomes.
type fakeObserver struct {
	rows      map[string]int
	durations int
}

func (o *fakeObserver) ObserveRows(_ string, outcome string, n int) {
	if o.rows == nil {
		o.rows = make(map[string]int)
	}
	o.rows[outcome] += n
}

func (o *fakeObserver) ObserveDuration(_ string, _ float64) {
	o.durations++
}
