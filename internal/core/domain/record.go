package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// MediaType is the canonical kind of a post.
type MediaType string

// Canonical media types.
const (
	MediaImage    MediaType = "Image"
	MediaVideo    MediaType = "Video"
	MediaCarousel MediaType = "Carousel"
	MediaLink     MediaType = "Link"
)

// IsValid returns true if the media type is one of the canonical values.
func (m MediaType) IsValid() bool {
	switch m {
	case MediaImage, MediaVideo, MediaCarousel, MediaLink:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (m MediaType) String() string {
	return string(m)
}

// ParseMediaType matches a canonical media type name case-insensitively.
func ParseMediaType(s string) (MediaType, bool) {
	for _, m := range []MediaType{MediaImage, MediaVideo, MediaCarousel, MediaLink} {
		if strings.EqualFold(strings.TrimSpace(s), string(m)) {
			return m, true
		}
	}
	return "", false
}

// SourceFormat identifies which export layout produced a record.
// It is provenance only and never part of identity.
type SourceFormat string

// Recognised source formats, most specific first.
const (
	FormatNative         SourceFormat = "native"
	FormatInstagramPosts SourceFormat = "instagram_post_export"
	FormatFacebookVideo  SourceFormat = "facebook_video_export"
	FormatGeneric        SourceFormat = "generic"
)

// IsValid returns true if the format is recognised.
func (f SourceFormat) IsValid() bool {
	switch f {
	case FormatNative, FormatInstagramPosts, FormatFacebookVideo, FormatGeneric:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (f SourceFormat) String() string {
	return string(f)
}

// Description returns a human-readable description of the format.
func (f SourceFormat) Description() string {
	switch f {
	case FormatNative:
		return "Native postmetrics layout"
	case FormatInstagramPosts:
		return "Instagram post-level export"
	case FormatFacebookVideo:
		return "Facebook video analytics export"
	case FormatGeneric:
		return "Generic layout (fuzzy column matching)"
	default:
		return "Unknown"
	}
}

// Metrics holds the cumulative engagement counters of a post.
// Values are never negative.
type Metrics struct {
	Likes       int64 `json:"likes"`
	Comments    int64 `json:"comments"`
	Shares      int64 `json:"shares"`
	Saves       int64 `json:"saves"`
	Impressions int64 `json:"impressions"`
	Reach       int64 `json:"reach"`
}

// Engagements returns likes + comments + shares + saves.
func (m Metrics) Engagements() int64 {
	return m.Likes + m.Comments + m.Shares + m.Saves
}

// Values returns the counters in a fixed order for component-wise comparison.
func (m Metrics) Values() [6]int64 {
	return [6]int64{m.Likes, m.Comments, m.Shares, m.Saves, m.Impressions, m.Reach}
}

// Max returns the component-wise maximum of m and o.
func (m Metrics) Max(o Metrics) Metrics {
	return Metrics{
		Likes:       max(m.Likes, o.Likes),
		Comments:    max(m.Comments, o.Comments),
		Shares:      max(m.Shares, o.Shares),
		Saves:       max(m.Saves, o.Saves),
		Impressions: max(m.Impressions, o.Impressions),
		Reach:       max(m.Reach, o.Reach),
	}
}

// Hashtag is a tag as it appeared in the source plus its identity form.
type Hashtag struct {
	// Display keeps the original casing, without the leading '#'.
	Display string `json:"display"`

	// Normalised is the lower-cased form used for comparison.
	Normalised string `json:"normalised"`
}

// CanonicalRecord is the normalised, platform-independent form of one post.
type CanonicalRecord struct {
	// Key is the identity the record is stored under.
	// It is assigned once during normalisation.
	Key IdentityKey `json:"key"`

	// PostID is the platform-native ID; empty when the source had none.
	PostID string `json:"post_id,omitempty"`

	// AccountID is the owning account or page.
	AccountID string `json:"account_id"`

	// Timestamp is the publication time, always present.
	Timestamp time.Time `json:"timestamp"`

	Caption string  `json:"caption,omitempty"`
	Metrics Metrics `json:"metrics"`

	// FollowerCount is the follower snapshot at post time.
	FollowerCount int64 `json:"follower_count"`

	AudienceGender string `json:"audience_gender,omitempty"`
	AudienceAge    string `json:"audience_age,omitempty"`
	Location       string `json:"location,omitempty"`
	Permalink      string `json:"permalink,omitempty"`

	// Hashtags preserves source order for display.
	Hashtags []Hashtag `json:"hashtags,omitempty"`

	MediaType    MediaType    `json:"media_type"`
	SourceFormat SourceFormat `json:"source_format"`

	// UpdatedAt is set by the store on every write.
	UpdatedAt time.Time `json:"updated_at"`
}

// HashtagSet returns the normalised hashtags as a set.
func (r CanonicalRecord) HashtagSet() map[string]struct{} {
	set := make(map[string]struct{}, len(r.Hashtags))
	for _, h := range r.Hashtags {
		set[h.Normalised] = struct{}{}
	}
	return set
}

// HasHashtag reports whether the record carries the tag, ignoring case
// and a leading '#'.
func (r CanonicalRecord) HasHashtag(tag string) bool {
	tag = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
	for _, h := range r.Hashtags {
		if h.Normalised == tag {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the record.
func (r CanonicalRecord) Clone() CanonicalRecord {
	if r.Hashtags != nil {
		tags := make([]Hashtag, len(r.Hashtags))
		copy(tags, r.Hashtags)
		r.Hashtags = tags
	}
	return r
}

// Validate checks the invariants a record must hold before it is stored.
func (r CanonicalRecord) Validate() error {
	switch {
	case r.Key.IsZero():
		return fmt.Errorf("%w: record has no identity", ErrInvalidInput)
	case r.Key.AccountID != r.AccountID:
		return fmt.Errorf("%w: key account %q does not match record account %q", ErrInvalidInput, r.Key.AccountID, r.AccountID)
	case r.Timestamp.IsZero():
		return fmt.Errorf("%w: record %s has no timestamp", ErrInvalidInput, r.Key)
	case !r.MediaType.IsValid():
		return fmt.Errorf("%w: record %s has media type %q", ErrInvalidInput, r.Key, r.MediaType)
	case r.FollowerCount < 0:
		return fmt.Errorf("%w: record %s has negative follower count", ErrInvalidInput, r.Key)
	}
	for _, v := range r.Metrics.Values() {
		if v < 0 {
			return fmt.Errorf("%w: record %s has a negative metric", ErrInvalidInput, r.Key)
		}
	}
	return nil
}

// SortNewestFirst orders records by timestamp descending, then by key.
func SortNewestFirst(records []CanonicalRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].Timestamp.Equal(records[j].Timestamp) {
			return records[i].Timestamp.After(records[j].Timestamp)
		}
		return records[i].Key.String() < records[j].Key.String()
	})
}
