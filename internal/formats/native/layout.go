// Package native describes the postmetrics native export layout: one
// column per canonical field, named exactly as the field.
package native

import (
	"time"

	"github.com/custodia-labs/postmetrics/internal/core/domain"
)

// Priority places the native layout ahead of every platform export.
const Priority = 100

// Header is the canonical column order written by exports of this layout.
var Header = []string{
	"post_id", "account_id", "timestamp", "caption",
	"likes", "comments", "shares", "saves", "impressions", "reach",
	"follower_count", "audience_gender", "audience_age", "location",
	"hashtags", "media_type", "permalink",
}

// Layout returns the native layout.
func Layout() *domain.Layout {
	columns := make(map[domain.Field][]string, len(Header))
	for _, name := range Header {
		columns[domain.Field(name)] = []string{name}
	}

	return &domain.Layout{
		Format:   domain.FormatNative,
		Priority: Priority,
		Signature: domain.Signature{
			All: []domain.ColumnRule{domain.Column("post_id"), domain.Column("timestamp")},
		},
		// An epoch-integer timestamp column is still native; a column of
		// free text sharing the name is not.
		CheckTimestamps: true,
		Columns:         columns,
		TimestampLayouts: []string{
			time.RFC3339Nano,
			"2006-01-02T15:04:05",
			"2006-01-02 15:04:05",
			"2006-01-02 15:04",
			"2006-01-02",
			domain.TimestampUnix,
		},
		MediaRules: []domain.MediaRule{
			{Keyword: "carousel", Type: domain.MediaCarousel},
			{Keyword: "album", Type: domain.MediaCarousel},
			{Keyword: "video", Type: domain.MediaVideo},
			{Keyword: "reel", Type: domain.MediaVideo},
			{Keyword: "image", Type: domain.MediaImage},
			{Keyword: "photo", Type: domain.MediaImage},
		},
	}
}
