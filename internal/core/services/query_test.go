package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/postmetrics/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/postmetrics/internal/core/domain"
)

func seedRecord(id string, likes int64) domain.CanonicalRecord {
	return domain.CanonicalRecord{
		Key:          domain.IdentityKey{AccountID: "acct", ID: id, Kind: domain.IdentityNative},
		PostID:       id,
		AccountID:    "acct",
		Timestamp:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Metrics:      domain.Metrics{Likes: likes},
		MediaType:    domain.MediaImage,
		SourceFormat: domain.FormatNative,
	}
}

func newCountingQuery(t *testing.T) (*QueryService, *countingStore) {
	t.Helper()
	store := &countingStore{RecordStore: memory.NewRecordStore()}
	return NewQueryService(store, domain.DefaultPipelineConfig(), nil), store
}

func TestQuery_CachesWithinWindow(t *testing.T) {
	q, store := newCountingQuery(t)
	ctx := context.Background()
	_, err := store.Upsert(ctx, []domain.CanonicalRecord{seedRecord("P1", 1)})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		got, err := q.Query(ctx, domain.QuerySpec{})
		require.NoError(t, err)
		assert.Len(t, got, 1)
	}

	assert.Equal(t, 1, store.scanCount())
}

func TestQuery_EquivalentSpecsShareEntry(t *testing.T) {
	q, store := newCountingQuery(t)
	ctx := context.Background()

	_, err := q.Query(ctx, domain.QuerySpec{Hashtag: "#Go"})
	require.NoError(t, err)
	_, err = q.Query(ctx, domain.QuerySpec{Hashtag: "go"})
	require.NoError(t, err)

	assert.Equal(t, 1, store.scanCount())
}

func TestQuery_InvalidateForcesReload(t *testing.T) {
	q, store := newCountingQuery(t)
	ctx := context.Background()

	got, err := q.Query(ctx, domain.QuerySpec{})
	require.NoError(t, err)
	require.Empty(t, got)

	_, err = store.Upsert(ctx, []domain.CanonicalRecord{seedRecord("P1", 1)})
	require.NoError(t, err)

	// Without invalidation the cached empty view is still served.
	got, err = q.Query(ctx, domain.QuerySpec{})
	require.NoError(t, err)
	assert.Empty(t, got)

	q.Invalidate()
	got, err = q.Query(ctx, domain.QuerySpec{})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestQuery_ReturnsCopies(t *testing.T) {
	q, store := newCountingQuery(t)
	ctx := context.Background()
	rec := seedRecord("P1", 1)
	rec.Hashtags = []domain.Hashtag{{Display: "Go", Normalised: "go"}}
	_, err := store.Upsert(ctx, []domain.CanonicalRecord{rec})
	require.NoError(t, err)

	first, err := q.Query(ctx, domain.QuerySpec{})
	require.NoError(t, err)
	first[0].Metrics.Likes = 999
	first[0].Hashtags[0].Display = "changed"

	second, err := q.Query(ctx, domain.QuerySpec{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), second[0].Metrics.Likes)
	assert.Equal(t, "Go", second[0].Hashtags[0].Display)
}

func TestQuery_ConcurrentMissesShareOneScan(t *testing.T) {
	q, store := newCountingQuery(t)
	store.gate = make(chan struct{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := q.Query(ctx, domain.QuerySpec{})
			assert.NoError(t, err)
		}()
	}

	require.Eventually(t, func() bool { return store.scanCount() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(store.gate)
	wg.Wait()

	assert.Equal(t, 1, store.scanCount())
}

func TestQuery_LoadInFlightDuringInvalidateIsNotPublished(t *testing.T) {
	q, store := newCountingQuery(t)
	store.gate = make(chan struct{})
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := q.Query(ctx, domain.QuerySpec{})
		assert.NoError(t, err)
	}()
	require.Eventually(t, func() bool { return store.scanCount() == 1 }, time.Second, time.Millisecond)

	// A write lands while the scan is blocked.
	_, err := store.RecordStore.Upsert(ctx, []domain.CanonicalRecord{seedRecord("P1", 1)})
	require.NoError(t, err)
	q.Invalidate()
	close(store.gate)
	<-done

	store.mu.Lock()
	store.gate = nil
	store.mu.Unlock()

	got, err := q.Query(ctx, domain.QuerySpec{})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 2, store.scanCount())
}

func TestQuery_Get(t *testing.T) {
	q, store := newCountingQuery(t)
	ctx := context.Background()
	_, err := store.Upsert(ctx, []domain.CanonicalRecord{seedRecord("P1", 4)})
	require.NoError(t, err)

	rec, err := q.Get(ctx, domain.IdentityKey{AccountID: "acct", ID: "P1"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), rec.Metrics.Likes)

	_, err = q.Get(ctx, domain.IdentityKey{AccountID: "acct", ID: "missing"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestQuery_Freshness(t *testing.T) {
	q, store := newCountingQuery(t)
	ctx := context.Background()
	_, err := store.Upsert(ctx, []domain.CanonicalRecord{seedRecord("P1", 1), seedRecord("P2", 1)})
	require.NoError(t, err)

	_, err = q.Query(ctx, domain.QuerySpec{})
	require.NoError(t, err)
	q.Invalidate()

	f, err := q.Freshness(ctx)
	require.NoError(t, err)
	assert.False(t, f.FullScanCached)
	assert.Equal(t, 2, f.Records)
	assert.Equal(t, uint64(1), f.Generation)
	assert.Equal(t, 0, f.CachedKeys)
	assert.False(t, f.LastInvalidated.IsZero())
	assert.Equal(t, 300*time.Second, f.Window)

	_, err = q.Query(ctx, domain.QuerySpec{Limit: 1})
	require.NoError(t, err)
	f, err = q.Freshness(ctx)
	require.NoError(t, err)
	assert.False(t, f.FullScanCached)

	_, err = q.Query(ctx, domain.QuerySpec{})
	require.NoError(t, err)
	f, err = q.Freshness(ctx)
	require.NoError(t, err)
	assert.True(t, f.FullScanCached)
	assert.Equal(t, 2, f.CachedKeys)
}
