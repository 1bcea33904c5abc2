package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// QuerySpec filters a read over stored records.
// The zero value selects every record.
type QuerySpec struct {
	AccountID string

	// Since is inclusive, Until is exclusive.
	Since time.Time
	Until time.Time

	MediaType MediaType
	Hashtag   string
	Format    SourceFormat

	// Limit caps the result size; 0 means no limit.
	Limit int
}

// Normalise returns a copy of q with whitespace and casing canonicalised,
// so equivalent specs share a cache key.
func (q QuerySpec) Normalise() QuerySpec {
	q.AccountID = strings.TrimSpace(q.AccountID)
	q.Hashtag = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(q.Hashtag), "#"))
	if !q.Since.IsZero() {
		q.Since = q.Since.UTC()
	}
	if !q.Until.IsZero() {
		q.Until = q.Until.UTC()
	}
	if q.Limit < 0 {
		q.Limit = 0
	}
	return q
}

// CacheKey returns a stable key for the normalised spec.
func (q QuerySpec) CacheKey() string {
	q = q.Normalise()
	var b strings.Builder
	b.WriteString("records")
	add := func(name, value string) {
		if value == "" {
			return
		}
		b.WriteString("|")
		b.WriteString(name)
		b.WriteString("=")
		b.WriteString(value)
	}
	add("account", q.AccountID)
	if !q.Since.IsZero() {
		add("since", q.Since.Format(time.RFC3339Nano))
	}
	if !q.Until.IsZero() {
		add("until", q.Until.Format(time.RFC3339Nano))
	}
	add("media", string(q.MediaType))
	add("tag", q.Hashtag)
	add("format", string(q.Format))
	if q.Limit > 0 {
		add("limit", strconv.Itoa(q.Limit))
	}
	return b.String()
}

// Matches reports whether rec passes the filter. Limit is not considered.
func (q QuerySpec) Matches(rec *CanonicalRecord) bool {
	q = q.Normalise()
	if q.AccountID != "" && rec.AccountID != q.AccountID {
		return false
	}
	if !q.Since.IsZero() && rec.Timestamp.Before(q.Since) {
		return false
	}
	if !q.Until.IsZero() && !rec.Timestamp.Before(q.Until) {
		return false
	}
	if q.MediaType != "" && rec.MediaType != q.MediaType {
		return false
	}
	if q.Format != "" && rec.SourceFormat != q.Format {
		return false
	}
	if q.Hashtag != "" && !rec.HasHashtag(q.Hashtag) {
		return false
	}
	return true
}

// Freshness describes how current the cached view of the store is.
type Freshness struct {
	// Records is the number of stored records.
	Records int `json:"records"`

	// Generation increments on every invalidation.
	Generation uint64 `json:"generation"`

	// LastInvalidated is when the cache was last cleared by a write.
	LastInvalidated time.Time `json:"last_invalidated"`

	// CachedKeys is the number of query results currently held.
	CachedKeys int `json:"cached_keys"`

	// FullScanCached is true while an unfiltered query is served from cache.
	FullScanCached bool `json:"full_scan_cached"`

	// Window is the configured freshness window.
	Window time.Duration `json:"window"`
}

// QueryParams is the textual form of a QuerySpec, as given on the command
// line, in a request URL or in a tool call. Empty fields do not filter.
type QueryParams struct {
	Account string `json:"account,omitempty"`
	Since   string `json:"since,omitempty"`
	Until   string `json:"until,omitempty"`
	Media   string `json:"media,omitempty"`
	Hashtag string `json:"hashtag,omitempty"`
	Format  string `json:"format,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

// Spec parses p. Dates are YYYY-MM-DD (UTC midnight) or RFC 3339.
// Returns ErrInvalidInput naming the first bad field.
func (p QueryParams) Spec() (QuerySpec, error) {
	spec := QuerySpec{
		AccountID: p.Account,
		Hashtag:   p.Hashtag,
		Limit:     p.Limit,
	}

	var err error
	if spec.Since, err = parseQueryTime("since", p.Since); err != nil {
		return QuerySpec{}, err
	}
	if spec.Until, err = parseQueryTime("until", p.Until); err != nil {
		return QuerySpec{}, err
	}

	if media := strings.TrimSpace(p.Media); media != "" {
		m, ok := ParseMediaType(media)
		if !ok {
			return QuerySpec{}, fmt.Errorf("%w: media %q is not one of Image, Video, Carousel, Link", ErrInvalidInput, media)
		}
		spec.MediaType = m
	}

	if format := strings.ToLower(strings.TrimSpace(p.Format)); format != "" {
		f := SourceFormat(format)
		if !f.IsValid() {
			return QuerySpec{}, fmt.Errorf("%w: unknown format %q", ErrInvalidInput, format)
		}
		spec.Format = f
	}

	if p.Limit < 0 {
		return QuerySpec{}, fmt.Errorf("%w: limit must not be negative", ErrInvalidInput)
	}
	return spec.Normalise(), nil
}

func parseQueryTime(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s %q is not a date", ErrInvalidInput, field, s)
	}
	return t.UTC(), nil
}
