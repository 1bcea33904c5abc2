// Package facebook describes the Facebook video analytics pivot export.
//
// The export is a pivot table: the first column holds the day, metric
// columns are "Sum of ..." aggregates and optional audience breakdown
// columns are labelled like "(M, 25-34)". A "Grand Total" row closes the
// table.
package facebook

import (
	"strings"

	"github.com/custodia-labs/postmetrics/internal/core/domain"
)

// Priority places the Facebook layout after Instagram.
const Priority = 80

// Column names used by the export.
const (
	ColumnThreeSecondViews = "Sum of 3-second video views"
	ColumnOneMinuteViews   = "Sum of 1-minute video views"
	ColumnReactions        = "Sum of Reactions"
	ColumnComments         = "Sum of Comments"
	ColumnShares           = "Sum of Shares"
	ColumnTitle            = "Title"
)

// videoViewThreshold is the 3-second view count above which a post is
// treated as a video even without 1-minute views.
const videoViewThreshold = 20

// genderDominance is how far one gender's total must exceed the other's
// before it is reported instead of Mixed.
const genderDominance = 1.2

// AgeBuckets are the audience age ranges the export breaks down by.
var AgeBuckets = []string{"18-24", "25-34", "35-44", "45-54", "55-64", "65+"}

// Layout returns the Facebook video export layout.
func Layout() *domain.Layout {
	return &domain.Layout{
		Format:   domain.FormatFacebookVideo,
		Priority: Priority,
		Signature: domain.Signature{
			All: []domain.ColumnRule{domain.ColumnContaining("3-second video views")},
		},
		Columns: map[domain.Field][]string{
			domain.FieldCaption:     {ColumnTitle},
			domain.FieldLikes:       {ColumnReactions},
			domain.FieldComments:    {ColumnComments},
			domain.FieldShares:      {ColumnShares},
			domain.FieldImpressions: {ColumnThreeSecondViews},
			domain.FieldReach:       {ColumnOneMinuteViews},
		},
		Positional: map[domain.Field]int{domain.FieldTimestamp: 0},
		TimestampLayouts: []string{
			"01/02/2006",
			"1/2/2006",
			"01/02/2006 15:04",
			"1/2/2006 15:04",
			"2006-01-02",
			"2006-01-02 15:04:05",
		},
		DefaultMedia: domain.MediaImage,
		SkipRow:      skipRow,
		Derive:       derive,
	}
}

// skipRow drops pivot chrome: blank rows, repeated labels and totals.
func skipRow(row domain.RowView) bool {
	first := strings.ToLower(strings.TrimSpace(row.Text(0)))
	switch {
	case first == "":
		return true
	case strings.Contains(first, "grand total"):
		return true
	case strings.Contains(first, "row labels"):
		return true
	}
	return false
}

func derive(row domain.RowView, rec *domain.CanonicalRecord) {
	var threeSec, oneMin, male, female int64
	ages := make(map[string]int64, len(AgeBuckets))

	for i, col := range row.Columns() {
		lower := strings.ToLower(col)
		switch {
		case strings.Contains(lower, "3-second video views"):
			threeSec += row.Count(i)
			continue
		case strings.Contains(lower, "1-minute video views"):
			oneMin += row.Count(i)
			continue
		}

		isMale := strings.Contains(col, "(M,")
		isFemale := strings.Contains(col, "(F,")
		var bucket string
		for _, b := range AgeBuckets {
			if strings.Contains(col, b) {
				bucket = b
				break
			}
		}
		if !isMale && !isFemale && bucket == "" {
			continue
		}

		n := row.Count(i)
		if isMale {
			male += n
		}
		if isFemale {
			female += n
		}
		if bucket != "" {
			ages[bucket] += n
		}
	}

	if oneMin > 0 || threeSec > videoViewThreshold {
		rec.MediaType = domain.MediaVideo
	} else {
		rec.MediaType = domain.MediaImage
	}

	if rec.AudienceGender == "" && male+female > 0 {
		rec.AudienceGender = dominantGender(male, female)
	}
	if rec.AudienceAge == "" {
		rec.AudienceAge = dominantAge(ages)
	}
}

func dominantGender(male, female int64) string {
	switch {
	case float64(male) > float64(female)*genderDominance:
		return "Male"
	case float64(female) > float64(male)*genderDominance:
		return "Female"
	default:
		return "Mixed"
	}
}

// dominantAge returns the bucket with the largest total, earliest bucket
// on ties, or "" when no bucket has a positive total.
func dominantAge(ages map[string]int64) string {
	var best string
	var bestN int64
	for _, b := range AgeBuckets {
		if ages[b] > bestN {
			best, bestN = b, ages[b]
		}
	}
	return best
}
