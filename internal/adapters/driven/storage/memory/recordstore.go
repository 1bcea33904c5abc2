package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/postmetrics/internal/core/domain"
	"github.com/custodia-labs/postmetrics/internal/core/ports/driven"
)

// Ensure RecordStore implements the interface.
var _ driven.RecordStore = (*RecordStore)(nil)

// RecordStore is an in-memory implementation of driven.RecordStore.
// It backs tests and the --memory mode; contents do not survive a restart.
type RecordStore struct {
	mu      sync.RWMutex
	records map[domain.IdentityKey]domain.CanonicalRecord
	now     func() time.Time
}

// NewRecordStore creates a new in-memory record store.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		records: make(map[domain.IdentityKey]domain.CanonicalRecord),
		now:     time.Now,
	}
}

// storeKey drops the identity kind: (account, id) alone is unique.
func storeKey(k domain.IdentityKey) domain.IdentityKey {
	return domain.IdentityKey{AccountID: k.AccountID, ID: k.ID}
}

// Upsert writes each record under the dedup policy.
func (s *RecordStore) Upsert(ctx context.Context, records []domain.CanonicalRecord) (domain.UpsertReport, error) {
	var report domain.UpsertReport
	for i := range records {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		candidate := &records[i]
		if err := candidate.Validate(); err != nil {
			report.Fail(candidate.Key, fmt.Errorf("%w: %w", domain.ErrStoreWriteFailed, err))
			continue
		}
		report.Record(s.upsertOne(candidate))
	}
	return report, nil
}

// upsertOne holds the write lock across lookup and write.
func (s *RecordStore) upsertOne(candidate *domain.CanonicalRecord) domain.Decision {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := storeKey(candidate.Key)
	var existing *domain.CanonicalRecord
	if prev, ok := s.records[key]; ok {
		existing = &prev
	}

	decision, rec, write := domain.Plan(candidate, existing)
	if write {
		rec.UpdatedAt = s.now().UTC()
		s.records[key] = rec.Clone()
	}
	return decision
}

// Get retrieves a record by key.
func (s *RecordStore) Get(_ context.Context, key domain.IdentityKey) (*domain.CanonicalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[storeKey(key)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := rec.Clone()
	return &out, nil
}

// Scan returns matching records, newest first.
func (s *RecordStore) Scan(ctx context.Context, filter domain.QuerySpec) ([]domain.CanonicalRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	filter = filter.Normalise()

	s.mu.RLock()
	out := make([]domain.CanonicalRecord, 0, len(s.records))
	for _, rec := range s.records {
		if filter.Matches(&rec) {
			out = append(out, rec.Clone())
		}
	}
	s.mu.RUnlock()

	domain.SortNewestFirst(out)
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Count returns the number of stored records.
func (s *RecordStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}
