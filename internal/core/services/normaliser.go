package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/custodia-labs/postmetrics/internal/core/domain"
)

// captionTagPattern matches #tags inside free text.
var captionTagPattern = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)

// counterFields are coerced through CoerceCount.
var counterFields = []domain.Field{
	domain.FieldLikes,
	domain.FieldComments,
	domain.FieldShares,
	domain.FieldSaves,
	domain.FieldImpressions,
	domain.FieldReach,
	domain.FieldFollowerCount,
}

// RowResult is the outcome of normalising one raw row. Exactly one of
// Record, Rejected or Ignored is set.
type RowResult struct {
	Record   *domain.CanonicalRecord
	Rejected *domain.RejectedRow

	// Ignored marks non-data rows: blank lines, repeated headers, totals.
	Ignored bool

	Warnings []domain.DataWarning
}

// Normaliser maps raw rows onto CanonicalRecord through a Binding.
type Normaliser struct {
	captionLimit   int
	maxHashtags    int
	defaultAccount string
}

// NewNormaliser creates a normaliser with the ingest limits from cfg.
func NewNormaliser(cfg domain.PipelineConfig) *Normaliser {
	account := strings.TrimSpace(cfg.DefaultAccount)
	if account == "" {
		account = domain.DefaultAccountID
	}
	return &Normaliser{
		captionLimit:   cfg.CaptionLimit,
		maxHashtags:    cfg.MaxHashtags,
		defaultAccount: account,
	}
}

// Normalise converts one row. uploadAccount is the account inferred for
// the whole file; a non-blank account cell in the row takes precedence.
//
//nolint:gocyclo // Field-by-field mapping with the rejection rules inline
func (n *Normaliser) Normalise(row domain.RawRow, b *Binding, uploadAccount string) RowResult {
	var res RowResult
	view := newRowView(b, row, &res.Warnings)
	layout := b.Layout

	if rowIsBlank(row) || rowRepeatsHeader(row, b.Header) || (layout.SkipRow != nil && layout.SkipRow(view)) {
		res.Ignored = true
		return res
	}

	// 1. Timestamp: required for every identity branch
	if !b.Bound(domain.FieldTimestamp) {
		res.Rejected = &domain.RejectedRow{Line: row.Line, Reason: "no timestamp column"}
		return res
	}
	rawTS, _ := b.Lookup(row, domain.FieldTimestamp)
	if rawTS == "" {
		res.Rejected = &domain.RejectedRow{Line: row.Line, Reason: "missing timestamp"}
		return res
	}
	ts, ok := ParseTimestamp(rawTS, layout.TimestampLayouts)
	if !ok {
		res.Rejected = &domain.RejectedRow{
			Line:   row.Line,
			Reason: fmt.Sprintf("unparseable timestamp %q", strings.TrimSpace(rawTS)),
		}
		return res
	}

	// 2. Account and identity inputs
	account := n.text(b, row, domain.FieldAccountID)
	if account == "" {
		account = strings.TrimSpace(uploadAccount)
	}
	if account == "" {
		account = n.defaultAccount
	}
	caption := n.text(b, row, domain.FieldCaption)

	rec := &domain.CanonicalRecord{
		PostID:         n.text(b, row, domain.FieldPostID),
		AccountID:      account,
		Timestamp:      ts,
		Caption:        caption,
		AudienceGender: n.text(b, row, domain.FieldAudienceGender),
		AudienceAge:    n.text(b, row, domain.FieldAudienceAge),
		Location:       n.text(b, row, domain.FieldLocation),
		Permalink:      n.text(b, row, domain.FieldPermalink),
		SourceFormat:   layout.Format,
	}

	// 3. Counters, all through the one clamp-and-warn path
	for _, field := range counterFields {
		v := n.count(b, row, field, &res.Warnings)
		switch field {
		case domain.FieldLikes:
			rec.Metrics.Likes = v
		case domain.FieldComments:
			rec.Metrics.Comments = v
		case domain.FieldShares:
			rec.Metrics.Shares = v
		case domain.FieldSaves:
			rec.Metrics.Saves = v
		case domain.FieldImpressions:
			rec.Metrics.Impressions = v
		case domain.FieldReach:
			rec.Metrics.Reach = v
		case domain.FieldFollowerCount:
			rec.FollowerCount = v
		}
	}

	// 4. Hashtags and media type
	if b.Bound(domain.FieldHashtags) {
		rec.Hashtags = n.capHashtags(SplitHashtags(n.text(b, row, domain.FieldHashtags)))
	} else if layout.CaptionHashtags {
		rec.Hashtags = n.capHashtags(CaptionHashtags(caption))
	}
	rec.MediaType = mediaFor(layout, n.text(b, row, domain.FieldMediaType))

	// 5. Layout-specific derived fields
	if layout.Derive != nil {
		layout.Derive(view, rec)
	}

	// 6. Identity uses the full caption; storage keeps the capped one
	rec.Key = DeriveIdentity(rec.AccountID, rec.PostID, rec.Timestamp, caption)
	if n.captionLimit > 0 {
		rec.Caption = truncateRunes(caption, n.captionLimit)
	}

	res.Record = rec
	return res
}

func (n *Normaliser) text(b *Binding, row domain.RawRow, field domain.Field) string {
	v, _ := b.Lookup(row, field)
	return strings.TrimSpace(v)
}

func (n *Normaliser) count(b *Binding, row domain.RawRow, field domain.Field, warnings *[]domain.DataWarning) int64 {
	raw, col := b.Lookup(row, field)
	if col < 0 {
		return 0
	}
	v, msg := CoerceCount(raw)
	if msg != "" {
		*warnings = append(*warnings, warning(row.Line, field, b.Column(col), raw, msg))
	}
	return v
}

func (n *Normaliser) capHashtags(tags []domain.Hashtag) []domain.Hashtag {
	if n.maxHashtags > 0 && len(tags) > n.maxHashtags {
		return tags[:n.maxHashtags]
	}
	return tags
}

// SplitHashtags splits a comma- or space-delimited tag list. Tags keep
// their display casing; duplicates by normalised form are dropped.
func SplitHashtags(raw string) []domain.Hashtag {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n' || r == '|'
	})
	return uniqueHashtags(fields)
}

// CaptionHashtags extracts #tags from a caption in order of appearance.
func CaptionHashtags(caption string) []domain.Hashtag {
	matches := captionTagPattern.FindAllStringSubmatch(caption, -1)
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, m[1])
	}
	return uniqueHashtags(tags)
}

func uniqueHashtags(raw []string) []domain.Hashtag {
	var out []domain.Hashtag
	seen := make(map[string]struct{}, len(raw))
	for _, tag := range raw {
		display := strings.TrimLeft(strings.TrimSpace(tag), "#")
		if display == "" {
			continue
		}
		norm := strings.ToLower(display)
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, domain.Hashtag{Display: display, Normalised: norm})
	}
	return out
}

// mediaFor maps a source label onto the canonical enum. Canonical names
// match directly, then the layout's keyword rules apply in order, and any
// other label becomes Link. Without a label the layout default applies.
func mediaFor(layout *domain.Layout, label string) domain.MediaType {
	if label == "" {
		if layout.DefaultMedia != "" {
			return layout.DefaultMedia
		}
		return domain.MediaLink
	}
	if m, ok := domain.ParseMediaType(label); ok {
		return m
	}
	lower := strings.ToLower(label)
	for _, rule := range layout.MediaRules {
		if strings.Contains(lower, rule.Keyword) {
			return rule.Type
		}
	}
	return domain.MediaLink
}

func rowIsBlank(row domain.RawRow) bool {
	for _, c := range row.Cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// rowRepeatsHeader catches header lines repeated inside concatenated exports.
func rowRepeatsHeader(row domain.RawRow, header []string) bool {
	if len(row.Cells) != len(header) {
		return false
	}
	for i, c := range row.Cells {
		if foldColumn(c) != foldColumn(header[i]) {
			return false
		}
	}
	return true
}

// rowView exposes a raw row to layout hooks. Count coerces through
// CoerceCount and warns at most once per column.
type rowView struct {
	b        *Binding
	row      domain.RawRow
	warnings *[]domain.DataWarning
	warned   map[int]bool
}

func newRowView(b *Binding, row domain.RawRow, warnings *[]domain.DataWarning) *rowView {
	return &rowView{b: b, row: row, warnings: warnings, warned: make(map[int]bool)}
}

func (v *rowView) Columns() []string {
	return v.b.Header
}

func (v *rowView) Text(col int) string {
	return strings.TrimSpace(v.row.Cell(col))
}

func (v *rowView) Count(col int) int64 {
	raw := v.row.Cell(col)
	n, msg := CoerceCount(raw)
	// Bound columns already warned through the field mapping.
	if msg != "" && !v.warned[col] && v.b.FieldOf(col) == "" {
		v.warned[col] = true
		*v.warnings = append(*v.warnings, warning(v.row.Line, "", v.b.Column(col), raw, msg))
	}
	return n
}
