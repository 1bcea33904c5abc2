package domain

import "time"

// HashtagCount is one row of a hashtag leaderboard.
type HashtagCount struct {
	Tag   string `json:"tag"`
	Posts int    `json:"posts"`
}

// Summary holds KPIs derived from a set of records.
type Summary struct {
	Posts    int     `json:"posts"`
	Accounts int     `json:"accounts"`
	Totals   Metrics `json:"totals"`

	// EngagementRate is engagements / impressions, 0 without impressions.
	EngagementRate float64 `json:"engagement_rate"`

	// AverageEngagements is engagements per post.
	AverageEngagements float64 `json:"average_engagements"`

	ByMedia  map[MediaType]int    `json:"by_media"`
	ByFormat map[SourceFormat]int `json:"by_format"`

	TopHashtags []HashtagCount `json:"top_hashtags,omitempty"`

	First time.Time `json:"first,omitempty"`
	Last  time.Time `json:"last,omitempty"`
}
