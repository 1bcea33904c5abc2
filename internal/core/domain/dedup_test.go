package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(likes int64) *CanonicalRecord {
	return &CanonicalRecord{
		Key:          IdentityKey{AccountID: "acct", ID: "P1", Kind: IdentityNative},
		PostID:       "P1",
		AccountID:    "acct",
		Timestamp:    time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Caption:      "launch day",
		Metrics:      Metrics{Likes: likes, Comments: 2, Impressions: 100},
		MediaType:    MediaImage,
		SourceFormat: FormatNative,
	}
}

func TestResolve_InsertWhenAbsent(t *testing.T) {
	assert.Equal(t, DecisionInsert, Resolve(testRecord(10), nil))
}

func TestResolve_SkipWhenIdentical(t *testing.T) {
	existing := testRecord(10)
	candidate := testRecord(10)
	candidate.SourceFormat = FormatGeneric

	assert.Equal(t, DecisionSkip, Resolve(candidate, existing))
}

func TestResolve_ReplaceWhenMetricsGrow(t *testing.T) {
	assert.Equal(t, DecisionReplace, Resolve(testRecord(15), testRecord(10)))
}

func TestResolve_SkipWhenMetricsShrink(t *testing.T) {
	assert.Equal(t, DecisionSkip, Resolve(testRecord(5), testRecord(10)))
}

func TestResolve_ReplaceWhenStrictSuperset(t *testing.T) {
	existing := testRecord(10)
	candidate := testRecord(10)
	candidate.Location = "Delhi"

	assert.Equal(t, DecisionReplace, Resolve(candidate, existing))
}

func TestResolve_SkipWhenExistingSuperset(t *testing.T) {
	existing := testRecord(10)
	existing.Location = "Delhi"
	candidate := testRecord(10)

	assert.Equal(t, DecisionSkip, Resolve(candidate, existing))
}

func TestResolve_MergeWhenNeitherDominates(t *testing.T) {
	existing := testRecord(10)
	existing.Location = "Delhi"
	candidate := testRecord(15)
	candidate.AudienceAge = "18-24"

	assert.Equal(t, DecisionMerge, Resolve(candidate, existing))
}

func TestResolve_MergeWhenSupersetHasLowerMetric(t *testing.T) {
	existing := testRecord(20)
	candidate := testRecord(10)
	candidate.Location = "Delhi"

	assert.Equal(t, DecisionMerge, Resolve(candidate, existing))
}

func TestResolve_MergeWhenMetricsCross(t *testing.T) {
	existing := testRecord(10)
	candidate := testRecord(15)
	candidate.Metrics.Comments = 1

	assert.Equal(t, DecisionMerge, Resolve(candidate, existing))
}

func TestMerge_TakesNonEmptyAndMaxMetrics(t *testing.T) {
	existing := testRecord(10)
	existing.Location = "Delhi"
	existing.Hashtags = []Hashtag{{Display: "Launch", Normalised: "launch"}}
	existing.Metrics.Shares = 7
	existing.FollowerCount = 900

	candidate := testRecord(15)
	candidate.Caption = "launch day (edited)"
	candidate.AudienceAge = "18-24"

	merged := Merge(candidate, existing)

	assert.Equal(t, "launch day (edited)", merged.Caption)
	assert.Equal(t, "Delhi", merged.Location)
	assert.Equal(t, "18-24", merged.AudienceAge)
	assert.Equal(t, int64(900), merged.FollowerCount)
	assert.Equal(t, existing.Hashtags, merged.Hashtags)
	assert.Equal(t, int64(15), merged.Metrics.Likes)
	assert.Equal(t, int64(7), merged.Metrics.Shares)
}

func TestMerge_LinkDoesNotOverrideSpecificType(t *testing.T) {
	existing := testRecord(10)
	existing.MediaType = MediaVideo
	candidate := testRecord(12)
	candidate.MediaType = MediaLink

	merged := Merge(candidate, existing)

	assert.Equal(t, MediaVideo, merged.MediaType)
}

func TestMerge_DoesNotAliasHashtags(t *testing.T) {
	existing := testRecord(10)
	existing.Hashtags = []Hashtag{{Display: "A", Normalised: "a"}}
	candidate := testRecord(12)

	merged := Merge(candidate, existing)
	merged.Hashtags[0].Display = "changed"

	assert.Equal(t, "A", existing.Hashtags[0].Display)
}

func TestPlan_MergeWithoutChangeIsSkip(t *testing.T) {
	existing := testRecord(10)
	existing.MediaType = MediaVideo

	// Only the media label differs and Link never overrides a known type.
	candidate := testRecord(10)
	candidate.MediaType = MediaLink

	require.Equal(t, DecisionMerge, Resolve(candidate, existing))

	d, _, write := Plan(candidate, existing)

	assert.Equal(t, DecisionSkip, d)
	assert.False(t, write)
}

func TestPlan_MergeReturnsMergedRecord(t *testing.T) {
	existing := testRecord(10)
	existing.Location = "Delhi"
	candidate := testRecord(15)
	candidate.AudienceGender = "Female"

	d, rec, write := Plan(candidate, existing)

	require.True(t, write)
	assert.Equal(t, DecisionMerge, d)
	assert.Equal(t, "Delhi", rec.Location)
	assert.Equal(t, "Female", rec.AudienceGender)
	assert.Equal(t, int64(15), rec.Metrics.Likes)
}

func TestPlan_MergeNeverRegresses(t *testing.T) {
	existing := testRecord(30)
	existing.Metrics.Reach = 500
	candidate := testRecord(10)
	candidate.Location = "Pune"

	_, rec, write := Plan(candidate, existing)

	require.True(t, write)
	assert.True(t, metricsAtLeast(rec.Metrics, existing.Metrics))
	assert.True(t, metricsAtLeast(rec.Metrics, candidate.Metrics))
}

func TestPlan_ReplaceKeepsSpecificMediaType(t *testing.T) {
	existing := testRecord(10)
	existing.MediaType = MediaVideo
	candidate := testRecord(15)
	candidate.Location = "Delhi"
	candidate.MediaType = MediaLink

	d, rec, write := Plan(candidate, existing)

	require.True(t, write)
	assert.Equal(t, DecisionReplace, d)
	assert.Equal(t, MediaVideo, rec.MediaType)
	assert.Equal(t, "Delhi", rec.Location)
	assert.Equal(t, int64(15), rec.Metrics.Likes)
	assert.Equal(t, MediaLink, candidate.MediaType)
}

func TestPlan_ReplaceTakesNewSpecificMediaType(t *testing.T) {
	existing := testRecord(10)
	existing.MediaType = MediaLink
	candidate := testRecord(15)
	candidate.MediaType = MediaVideo

	d, rec, write := Plan(candidate, existing)

	require.True(t, write)
	assert.Equal(t, DecisionReplace, d)
	assert.Equal(t, MediaVideo, rec.MediaType)
}

func TestUpsertReport_Counts(t *testing.T) {
	var r UpsertReport
	r.Record(DecisionInsert)
	r.Record(DecisionInsert)
	r.Record(DecisionReplace)
	r.Record(DecisionMerge)
	r.Record(DecisionSkip)

	assert.Equal(t, 2, r.Inserted)
	assert.Equal(t, 1, r.Replaced)
	assert.Equal(t, 1, r.Merged)
	assert.Equal(t, 1, r.Skipped)
	assert.Equal(t, 4, r.Changed())
}

func TestDecision_String(t *testing.T) {
	assert.Equal(t, "insert", DecisionInsert.String())
	assert.Equal(t, "replace", DecisionReplace.String())
	assert.Equal(t, "skip", DecisionSkip.String())
	assert.Equal(t, "merge", DecisionMerge.String())
	assert.Equal(t, "unknown", Decision(42).String())
}
