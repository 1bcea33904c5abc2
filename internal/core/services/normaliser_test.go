package services

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/postmetrics/internal/core/domain"
	"github.com/custodia-labs/postmetrics/internal/formats/facebook"
	"github.com/custodia-labs/postmetrics/internal/formats/native"
)

func normaliseRow(t *testing.T, cfg domain.PipelineConfig, format domain.SourceFormat, header, cells []string, account string) RowResult {
	t.Helper()
	b := Bind(testLayout(t, format), header)
	return NewNormaliser(cfg).Normalise(domain.RawRow{Line: 2, Cells: cells}, b, account)
}

// nativeRow returns a full native row with overrides applied by column name.
func nativeRow(overrides map[string]string) []string {
	values := map[string]string{
		"post_id":         "P1",
		"account_id":      "brand",
		"timestamp":       "2024-03-01T10:00:00Z",
		"caption":         "Launch day",
		"likes":           "10",
		"comments":        "2",
		"shares":          "1",
		"saves":           "0",
		"impressions":     "500",
		"reach":           "300",
		"follower_count":  "1200",
		"audience_gender": "Female",
		"audience_age":    "25-34",
		"location":        "Delhi",
		"hashtags":        "Launch, #launch ,Go",
		"media_type":      "Reel",
		"permalink":       "https://example.com/p/1",
	}
	for k, v := range overrides {
		values[k] = v
	}
	cells := make([]string, len(native.Header))
	for i, col := range native.Header {
		cells[i] = values[col]
	}
	return cells
}

func TestNormalise_NativeRow(t *testing.T) {
	res := normaliseRow(t, domain.DefaultPipelineConfig(), domain.FormatNative, native.Header, nativeRow(nil), "")

	require.NotNil(t, res.Record)
	assert.Nil(t, res.Rejected)
	assert.Empty(t, res.Warnings)

	rec := res.Record
	assert.Equal(t, domain.IdentityKey{AccountID: "brand", ID: "P1", Kind: domain.IdentityNative}, rec.Key)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), rec.Timestamp)
	assert.Equal(t, domain.Metrics{Likes: 10, Comments: 2, Shares: 1, Impressions: 500, Reach: 300}, rec.Metrics)
	assert.Equal(t, int64(1200), rec.FollowerCount)
	assert.Equal(t, "Female", rec.AudienceGender)
	assert.Equal(t, "25-34", rec.AudienceAge)
	assert.Equal(t, "Delhi", rec.Location)
	assert.Equal(t, domain.MediaVideo, rec.MediaType)
	assert.Equal(t, domain.FormatNative, rec.SourceFormat)
	assert.Equal(t, []domain.Hashtag{
		{Display: "Launch", Normalised: "launch"},
		{Display: "Go", Normalised: "go"},
	}, rec.Hashtags)
}

func TestNormalise_NegativeLikesClampedWithWarning(t *testing.T) {
	res := normaliseRow(t, domain.DefaultPipelineConfig(), domain.FormatNative, native.Header,
		nativeRow(map[string]string{"likes": "-5"}), "")

	require.NotNil(t, res.Record)
	assert.Equal(t, int64(0), res.Record.Metrics.Likes)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, domain.FieldLikes, res.Warnings[0].Field)
	assert.Equal(t, "likes", res.Warnings[0].Column)
	assert.Equal(t, "-5", res.Warnings[0].Raw)
	assert.Equal(t, 2, res.Warnings[0].Line)
	assert.Equal(t, "negative value clamped to 0", res.Warnings[0].Message)
}

func TestNormalise_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		ts     string
		reason string
	}{
		{"missing timestamp", "", "missing timestamp"},
		{"blank marker", "N/A", "missing timestamp"},
		{"unparseable timestamp", "soon", `unparseable timestamp "soon"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := normaliseRow(t, domain.DefaultPipelineConfig(), domain.FormatNative, native.Header,
				nativeRow(map[string]string{"timestamp": tt.ts}), "")

			assert.Nil(t, res.Record)
			require.NotNil(t, res.Rejected)
			assert.Equal(t, 2, res.Rejected.Line)
			assert.Equal(t, tt.reason, res.Rejected.Reason)
		})
	}
}

func TestNormalise_NoTimestampColumn(t *testing.T) {
	res := normaliseRow(t, domain.DefaultPipelineConfig(), domain.FormatGeneric,
		[]string{"id", "likes"}, []string{"1", "4"}, "")

	require.NotNil(t, res.Rejected)
	assert.Equal(t, "no timestamp column", res.Rejected.Reason)
}

func TestNormalise_IgnoredRows(t *testing.T) {
	cfg := domain.DefaultPipelineConfig()

	blank := normaliseRow(t, cfg, domain.FormatNative, native.Header, make([]string, len(native.Header)), "")
	repeated := normaliseRow(t, cfg, domain.FormatNative, native.Header, append([]string(nil), native.Header...), "")

	assert.True(t, blank.Ignored)
	assert.Nil(t, blank.Record)
	assert.True(t, repeated.Ignored)
}

func TestNormalise_AccountPrecedence(t *testing.T) {
	header := []string{"post_id", "timestamp", "account_id"}
	cfg := domain.DefaultPipelineConfig()

	fromRow := normaliseRow(t, cfg, domain.FormatNative, header, []string{"P1", "2024-03-01", "row"}, "upload")
	fromUpload := normaliseRow(t, cfg, domain.FormatNative, header, []string{"P1", "2024-03-01", ""}, "upload")
	fromDefault := normaliseRow(t, cfg, domain.FormatNative, header, []string{"P1", "2024-03-01", ""}, "")

	cfg.DefaultAccount = "configured"
	fromConfig := normaliseRow(t, cfg, domain.FormatNative, header, []string{"P1", "2024-03-01", ""}, "")

	assert.Equal(t, "row", fromRow.Record.AccountID)
	assert.Equal(t, "upload", fromUpload.Record.AccountID)
	assert.Equal(t, domain.DefaultAccountID, fromDefault.Record.AccountID)
	assert.Equal(t, "configured", fromConfig.Record.AccountID)
	assert.Equal(t, "configured", fromConfig.Record.Key.AccountID)
}

func TestNormalise_MediaTypeFallbacks(t *testing.T) {
	cfg := domain.DefaultPipelineConfig()

	unknown := normaliseRow(t, cfg, domain.FormatNative, native.Header, nativeRow(map[string]string{"media_type": "story"}), "")
	missing := normaliseRow(t, cfg, domain.FormatNative, native.Header, nativeRow(map[string]string{"media_type": ""}), "")
	canonical := normaliseRow(t, cfg, domain.FormatNative, native.Header, nativeRow(map[string]string{"media_type": "carousel"}), "")

	assert.Equal(t, domain.MediaLink, unknown.Record.MediaType)
	assert.Equal(t, domain.MediaLink, missing.Record.MediaType)
	assert.Equal(t, domain.MediaCarousel, canonical.Record.MediaType)
}

func TestNormalise_InstagramRow(t *testing.T) {
	header := []string{"Post ID", "Account username", "Publish time", "Description", "Likes", "Views", "Follows", "Post type"}
	cells := []string{"1789", "brand_ig", "03/01/2024 10:30", "New drop #Summer #sale #summer", "1,204", "9000", "15", "IG carousel"}

	res := normaliseRow(t, domain.DefaultPipelineConfig(), domain.FormatInstagramPosts, header, cells, "")

	require.NotNil(t, res.Record)
	rec := res.Record
	assert.Equal(t, "brand_ig", rec.AccountID)
	assert.Equal(t, "1789", rec.Key.ID)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC), rec.Timestamp)
	assert.Equal(t, int64(1204), rec.Metrics.Likes)
	assert.Equal(t, int64(9000), rec.Metrics.Impressions)
	assert.Equal(t, int64(15), rec.FollowerCount)
	assert.Equal(t, domain.MediaCarousel, rec.MediaType)
	assert.Equal(t, []domain.Hashtag{
		{Display: "Summer", Normalised: "summer"},
		{Display: "sale", Normalised: "sale"},
	}, rec.Hashtags)

	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "non-numeric characters dropped", res.Warnings[0].Message)
}

func TestNormalise_FacebookRows(t *testing.T) {
	header := []string{"Row Labels", facebook.ColumnThreeSecondViews, facebook.ColumnOneMinuteViews, facebook.ColumnReactions, "(F, 25-34)", "(M, 25-34)"}
	cfg := domain.DefaultPipelineConfig()

	video := normaliseRow(t, cfg, domain.FormatFacebookVideo, header, []string{"03/01/2024", "120", "0", "8", "40", "10"}, "page")
	image := normaliseRow(t, cfg, domain.FormatFacebookVideo, header, []string{"03/02/2024", "5", "0", "1", "0", "0"}, "page")
	total := normaliseRow(t, cfg, domain.FormatFacebookVideo, header, []string{"Grand Total", "125", "0", "9", "40", "10"}, "page")

	require.NotNil(t, video.Record)
	assert.Equal(t, "page", video.Record.AccountID)
	assert.Equal(t, domain.IdentityFallback, video.Record.Key.Kind)
	assert.Equal(t, int64(120), video.Record.Metrics.Impressions)
	assert.Equal(t, int64(8), video.Record.Metrics.Likes)
	assert.Equal(t, domain.MediaVideo, video.Record.MediaType)
	assert.Equal(t, "Female", video.Record.AudienceGender)
	assert.Equal(t, "25-34", video.Record.AudienceAge)

	require.NotNil(t, image.Record)
	assert.Equal(t, domain.MediaImage, image.Record.MediaType)
	assert.Empty(t, image.Record.AudienceGender)

	assert.True(t, total.Ignored)
}

func TestNormalise_CaptionCapKeepsFullCaptionIdentity(t *testing.T) {
	cfg := domain.DefaultPipelineConfig()
	cfg.CaptionLimit = 10
	header := []string{"timestamp", "caption"}
	caption := strings.Repeat("a", 50) + " tail"

	res := normaliseRow(t, cfg, domain.FormatNative, header, []string{"2024-03-01", caption}, "acct")

	require.NotNil(t, res.Record)
	assert.Equal(t, strings.Repeat("a", 10), res.Record.Caption)
	want := DeriveIdentity("acct", "", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), caption)
	assert.Equal(t, want, res.Record.Key)
}

func TestNormalise_HashtagCap(t *testing.T) {
	cfg := domain.DefaultPipelineConfig()
	cfg.MaxHashtags = 2

	res := normaliseRow(t, cfg, domain.FormatNative, native.Header, nativeRow(map[string]string{"hashtags": "a b c d"}), "")

	require.NotNil(t, res.Record)
	assert.Len(t, res.Record.Hashtags, 2)
	assert.Equal(t, "a", res.Record.Hashtags[0].Normalised)
}

func TestSplitHashtags(t *testing.T) {
	got := SplitHashtags("#Go, rust;#GO |  zig")

	assert.Equal(t, []domain.Hashtag{
		{Display: "Go", Normalised: "go"},
		{Display: "rust", Normalised: "rust"},
		{Display: "zig", Normalised: "zig"},
	}, got)
}

func TestCaptionHashtags(t *testing.T) {
	got := CaptionHashtags("Big news! #Launch2024 and #café_time, not a#tag? #launch2024")

	require.Len(t, got, 3)
	assert.Equal(t, "Launch2024", got[0].Display)
	assert.Equal(t, "café_time", got[1].Display)
	assert.Equal(t, "tag", got[2].Normalised)
}
