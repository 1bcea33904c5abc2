package domain

import (
	"errors"
	"fmt"
)

// Field names a canonical record field a source column can map onto.
type Field string

// Canonical fields.
const (
	FieldPostID         Field = "post_id"
	FieldAccountID      Field = "account_id"
	FieldTimestamp      Field = "timestamp"
	FieldCaption        Field = "caption"
	FieldLikes          Field = "likes"
	FieldComments       Field = "comments"
	FieldShares         Field = "shares"
	FieldSaves          Field = "saves"
	FieldImpressions    Field = "impressions"
	FieldReach          Field = "reach"
	FieldFollowerCount  Field = "follower_count"
	FieldAudienceGender Field = "audience_gender"
	FieldAudienceAge    Field = "audience_age"
	FieldLocation       Field = "location"
	FieldHashtags       Field = "hashtags"
	FieldMediaType      Field = "media_type"
	FieldPermalink      Field = "permalink"
)

// Fields lists every canonical field in mapping order.
func Fields() []Field {
	return []Field{
		FieldPostID, FieldAccountID, FieldTimestamp, FieldCaption,
		FieldLikes, FieldComments, FieldShares, FieldSaves, FieldImpressions, FieldReach,
		FieldFollowerCount, FieldAudienceGender, FieldAudienceAge, FieldLocation,
		FieldHashtags, FieldMediaType, FieldPermalink,
	}
}

// IsValid returns true if f is a canonical field.
func (f Field) IsValid() bool {
	for _, known := range Fields() {
		if f == known {
			return true
		}
	}
	return false
}

// IsCounter returns true for fields coerced as non-negative integers.
func (f Field) IsCounter() bool {
	switch f {
	case FieldLikes, FieldComments, FieldShares, FieldSaves,
		FieldImpressions, FieldReach, FieldFollowerCount:
		return true
	default:
		return false
	}
}

// TimestampUnix is a pseudo layout accepting Unix epoch seconds.
const TimestampUnix = "unix"

// ColumnRule matches one header column during detection.
type ColumnRule struct {
	// Name is compared case-insensitively after trimming.
	Name string

	// Contains matches any column containing Name instead of equal to it.
	Contains bool
}

// Column returns a rule matching a column by name.
func Column(name string) ColumnRule {
	return ColumnRule{Name: name}
}

// ColumnContaining returns a rule matching any column containing fragment.
func ColumnContaining(fragment string) ColumnRule {
	return ColumnRule{Name: fragment, Contains: true}
}

// Signature is the set of header columns that identifies a layout.
// All columns in All must be present and, when Any is non-empty,
// at least one of Any.
type Signature struct {
	All []ColumnRule
	Any []ColumnRule
}

// IsEmpty returns true if the signature matches nothing by itself.
func (s Signature) IsEmpty() bool {
	return len(s.All) == 0 && len(s.Any) == 0
}

// MediaRule maps labels containing Keyword onto a media type.
type MediaRule struct {
	Keyword string
	Type    MediaType
}

// RowView is read-only access to one raw row under its header.
// Count routes through the same clamp-and-warn coercion as mapped columns.
type RowView interface {
	Columns() []string
	Text(col int) string
	Count(col int) int64
}

// Layout is the closed description of one export format: how it is
// recognised and how its columns map onto a CanonicalRecord.
type Layout struct {
	Format SourceFormat

	// Priority orders detection, higher first. Equal priorities keep
	// registration order. The generic fallback uses 1.
	Priority int

	Signature Signature

	// CheckTimestamps requires sampled timestamp cells to parse under
	// TimestampLayouts before the layout is selected.
	CheckTimestamps bool

	// Fuzzy folds separators and accepts aliases when binding columns.
	Fuzzy bool

	// Columns lists candidate header names per field, in preference order.
	Columns map[Field][]string

	// Positional binds a field to a column index when no name matches.
	Positional map[Field]int

	// TimestampLayouts are time.Parse layouts tried in order.
	TimestampLayouts []string

	// MediaRules are tried in order against the lower-cased label.
	MediaRules []MediaRule

	// DefaultMedia applies when the layout has no media column.
	// Unrecognised labels always become MediaLink.
	DefaultMedia MediaType

	// CaptionHashtags extracts #tags from the caption when no hashtag
	// column is bound.
	CaptionHashtags bool

	// SkipRow reports non-data rows (totals, repeated headers).
	SkipRow func(row RowView) bool

	// Derive computes fields that are not a direct column copy.
	Derive func(row RowView, rec *CanonicalRecord)
}

// Validate checks the mapping table at construction time.
func (l *Layout) Validate() error {
	if !l.Format.IsValid() {
		return fmt.Errorf("%w: unknown format %q", ErrInvalidInput, l.Format)
	}
	if l.Signature.IsEmpty() && l.Format != FormatGeneric {
		return fmt.Errorf("%w: layout %s has no signature", ErrInvalidInput, l.Format)
	}
	if len(l.Columns[FieldTimestamp]) == 0 {
		if _, ok := l.Positional[FieldTimestamp]; !ok {
			return fmt.Errorf("%w: layout %s does not map timestamp", ErrInvalidInput, l.Format)
		}
	}
	if len(l.TimestampLayouts) == 0 {
		return fmt.Errorf("%w: layout %s has no timestamp layouts", ErrInvalidInput, l.Format)
	}
	var errs []error
	for field, names := range l.Columns {
		if !field.IsValid() {
			errs = append(errs, fmt.Errorf("layout %s: unknown field %q", l.Format, field))
		}
		if len(names) == 0 {
			errs = append(errs, fmt.Errorf("layout %s: field %s has no columns", l.Format, field))
		}
	}
	for field := range l.Positional {
		if !field.IsValid() {
			errs = append(errs, fmt.Errorf("layout %s: unknown positional field %q", l.Format, field))
		}
	}
	for _, rule := range l.MediaRules {
		if !rule.Type.IsValid() {
			errs = append(errs, fmt.Errorf("layout %s: media rule %q has invalid type", l.Format, rule.Keyword))
		}
	}
	if l.DefaultMedia != "" && !l.DefaultMedia.IsValid() {
		errs = append(errs, fmt.Errorf("layout %s: invalid default media %q", l.Format, l.DefaultMedia))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidInput, errors.Join(errs...))
	}
	return nil
}
