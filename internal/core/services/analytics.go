package services

import (
	"context"
	"sort"

	"github.com/custodia-labs/postmetrics/internal/core/domain"
	"github.com/custodia-labs/postmetrics/internal/core/ports/driven"
	"github.com/custodia-labs/postmetrics/internal/core/ports/driving"
)

// Ensure AnalyticsService implements the interface.
var _ driving.AnalyticsService = (*AnalyticsService)(nil)

// topHashtags is the length of the hashtag leaderboard.
const topHashtags = 10

// AnalyticsService derives KPIs from query results.
// It never reads the store directly.
type AnalyticsService struct {
	query driving.QueryService
}

// NewAnalyticsService creates an analytics service reading through query.
func NewAnalyticsService(query driving.QueryService) *AnalyticsService {
	return &AnalyticsService{query: query}
}

// Summary computes totals and breakdowns over the records matching spec.
func (s *AnalyticsService) Summary(ctx context.Context, spec domain.QuerySpec) (*domain.Summary, error) {
	records, err := s.query.Query(ctx, spec)
	if err != nil {
		return nil, err
	}
	return Summarise(records), nil
}

// Summarise computes a Summary over records.
func Summarise(records []domain.CanonicalRecord) *domain.Summary {
	sum := &domain.Summary{
		Posts:    len(records),
		ByMedia:  make(map[domain.MediaType]int),
		ByFormat: make(map[domain.SourceFormat]int),
	}
	if len(records) == 0 {
		return sum
	}

	accounts := make(map[string]struct{})
	tags := make(map[string]int)
	for i := range records {
		rec := &records[i]
		accounts[rec.AccountID] = struct{}{}

		sum.Totals.Likes += rec.Metrics.Likes
		sum.Totals.Comments += rec.Metrics.Comments
		sum.Totals.Shares += rec.Metrics.Shares
		sum.Totals.Saves += rec.Metrics.Saves
		sum.Totals.Impressions += rec.Metrics.Impressions
		sum.Totals.Reach += rec.Metrics.Reach

		sum.ByMedia[rec.MediaType]++
		sum.ByFormat[rec.SourceFormat]++

		for tag := range rec.HashtagSet() {
			tags[tag]++
		}

		if sum.First.IsZero() || rec.Timestamp.Before(sum.First) {
			sum.First = rec.Timestamp
		}
		if rec.Timestamp.After(sum.Last) {
			sum.Last = rec.Timestamp
		}
	}
	sum.Accounts = len(accounts)

	engagements := float64(sum.Totals.Engagements())
	if sum.Totals.Impressions > 0 {
		sum.EngagementRate = engagements / float64(sum.Totals.Impressions)
	}
	sum.AverageEngagements = engagements / float64(sum.Posts)

	sum.TopHashtags = leaderboard(tags, topHashtags)
	return sum
}

// leaderboard returns the n most used tags, ties broken alphabetically.
func leaderboard(tags map[string]int, n int) []domain.HashtagCount {
	out := make([]domain.HashtagCount, 0, len(tags))
	for tag, posts := range tags {
		out = append(out, domain.HashtagCount{Tag: tag, Posts: posts})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Posts != out[j].Posts {
			return out[i].Posts > out[j].Posts
		}
		return out[i].Tag < out[j].Tag
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// SummaryWarmer is a recompute hook that rebuilds the all-records summary
// after a write, so the first reader after an ingest hits a warm cache.
type SummaryWarmer struct {
	analytics driving.AnalyticsService
}

// Ensure SummaryWarmer implements the hook interface.
var _ driven.RecomputeHook = (*SummaryWarmer)(nil)

// NewSummaryWarmer creates a hook summarising through analytics.
func NewSummaryWarmer(analytics driving.AnalyticsService) *SummaryWarmer {
	return &SummaryWarmer{analytics: analytics}
}

// Name identifies the hook in reports.
func (w *SummaryWarmer) Name() string {
	return "summary"
}

// Recompute summarises every record.
func (w *SummaryWarmer) Recompute(ctx context.Context) error {
	_, err := w.analytics.Summary(ctx, domain.QuerySpec{})
	return err
}
