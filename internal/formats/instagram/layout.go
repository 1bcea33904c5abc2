// Package instagram describes the Instagram post-level insights export.
package instagram

import (
	"time"

	"github.com/custodia-labs/postmetrics/internal/core/domain"
)

// Priority places the Instagram layout after native and before Facebook.
const Priority = 90

// Layout returns the Instagram post export layout.
//
// The export has no hashtag column; tags are read from the description.
// Views are the closest thing to impressions it reports and Follows is the
// follower snapshot.
func Layout() *domain.Layout {
	return &domain.Layout{
		Format:   domain.FormatInstagramPosts,
		Priority: Priority,
		Signature: domain.Signature{
			Any: []domain.ColumnRule{
				domain.Column("post id"),
				domain.Column("account username"),
				domain.Column("permalink"),
			},
		},
		Columns: map[domain.Field][]string{
			domain.FieldPostID:        {"Post ID"},
			domain.FieldAccountID:     {"Account username", "Account ID"},
			domain.FieldTimestamp:     {"Publish time", "Date"},
			domain.FieldCaption:       {"Description"},
			domain.FieldLikes:         {"Likes"},
			domain.FieldComments:      {"Comments"},
			domain.FieldShares:        {"Shares"},
			domain.FieldSaves:         {"Saves"},
			domain.FieldImpressions:   {"Views", "Impressions"},
			domain.FieldReach:         {"Reach"},
			domain.FieldFollowerCount: {"Follows"},
			domain.FieldMediaType:     {"Post type"},
			domain.FieldPermalink:     {"Permalink"},
		},
		TimestampLayouts: []string{
			"01/02/2006 15:04",
			"1/2/2006 15:04",
			"01/02/2006",
			"1/2/2006",
			time.RFC3339,
			"2006-01-02 15:04:05",
			"2006-01-02",
		},
		MediaRules: []domain.MediaRule{
			{Keyword: "reel", Type: domain.MediaVideo},
			{Keyword: "video", Type: domain.MediaVideo},
			{Keyword: "carousel", Type: domain.MediaCarousel},
			{Keyword: "image", Type: domain.MediaImage},
			{Keyword: "photo", Type: domain.MediaImage},
		},
		DefaultMedia:    domain.MediaImage,
		CaptionHashtags: true,
	}
}
