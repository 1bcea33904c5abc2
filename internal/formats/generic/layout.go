// Package generic describes the fallback layout used when no known export
// signature matches. Columns are bound by fuzzy name against an alias table.
package generic

import (
	"maps"
	"time"

	"github.com/custodia-labs/postmetrics/internal/core/domain"
)

// Priority is the lowest; the generic layout is tried last.
const Priority = 1

// Aliases maps each canonical field to the folded column names accepted
// for it. Names are compared after lower-casing and turning spaces and
// hyphens into underscores.
var Aliases = map[domain.Field][]string{
	domain.FieldPostID:         {"post_id", "id", "postid", "content_id", "media_id"},
	domain.FieldAccountID:      {"account_id", "account", "account_username", "username", "page", "page_name", "handle"},
	domain.FieldTimestamp:      {"timestamp", "date", "time", "publish_time", "created_at", "posted_at", "date_posted"},
	domain.FieldCaption:        {"caption", "text", "description", "message", "copy", "content", "title"},
	domain.FieldLikes:          {"likes", "like", "like_count", "num_likes", "likes_count", "reactions", "favorites"},
	domain.FieldComments:       {"comments", "comment", "comment_count", "num_comments"},
	domain.FieldShares:         {"shares", "share", "share_count", "reshares", "num_shares"},
	domain.FieldSaves:          {"saves", "save", "saved"},
	domain.FieldImpressions:    {"impressions", "views", "view", "view_count", "video_views"},
	domain.FieldReach:          {"reach", "people_reached", "unique_views"},
	domain.FieldFollowerCount:  {"follower_count", "followers", "follower", "follows", "subscribers"},
	domain.FieldAudienceGender: {"audience_gender", "gender"},
	domain.FieldAudienceAge:    {"audience_age", "age", "age_group"},
	domain.FieldLocation:       {"location", "country", "city", "region"},
	domain.FieldHashtags:       {"hashtags", "tags", "topics"},
	domain.FieldMediaType:      {"media_type", "type", "post_type", "content_type", "asset_type"},
	domain.FieldPermalink:      {"permalink", "link", "url", "post_link"},
}

// Layout returns the generic fallback layout.
func Layout() *domain.Layout {
	return &domain.Layout{
		Format:   domain.FormatGeneric,
		Priority: Priority,
		Fuzzy:    true,
		Columns:  maps.Clone(Aliases),
		TimestampLayouts: []string{
			time.RFC3339Nano,
			"2006-01-02T15:04:05",
			"2006-01-02 15:04:05",
			"2006-01-02 15:04",
			"2006-01-02",
			"01/02/2006 15:04",
			"1/2/2006 15:04",
			"01/02/2006",
			"1/2/2006",
			"02 Jan 2006",
			"Jan 2, 2006",
			domain.TimestampUnix,
		},
		MediaRules: []domain.MediaRule{
			{Keyword: "carousel", Type: domain.MediaCarousel},
			{Keyword: "album", Type: domain.MediaCarousel},
			{Keyword: "video", Type: domain.MediaVideo},
			{Keyword: "reel", Type: domain.MediaVideo},
			{Keyword: "image", Type: domain.MediaImage},
			{Keyword: "photo", Type: domain.MediaImage},
			{Keyword: "link", Type: domain.MediaLink},
		},
		CaptionHashtags: true,
	}
}
