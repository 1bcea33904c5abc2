package domain

import "slices"

// Decision is the outcome of comparing an incoming record against the
// stored record with the same IdentityKey.
type Decision int

// Dedup decisions.
const (
	// DecisionInsert means no record exists yet.
	DecisionInsert Decision = iota
	// DecisionReplace means the incoming record is strictly more complete.
	DecisionReplace
	// DecisionSkip means the stored record is identical or strictly more complete.
	DecisionSkip
	// DecisionMerge means neither dominates; fields are unioned.
	DecisionMerge
)

// String returns the string representation.
func (d Decision) String() string {
	switch d {
	case DecisionInsert:
		return "insert"
	case DecisionReplace:
		return "replace"
	case DecisionSkip:
		return "skip"
	case DecisionMerge:
		return "merge"
	default:
		return "unknown"
	}
}

// optional field bits, used for completeness comparison.
const (
	fieldCaption uint16 = 1 << iota
	fieldFollowerCount
	fieldAudienceGender
	fieldAudienceAge
	fieldLocation
	fieldPermalink
	fieldHashtags
	fieldPostID
)

// presentFields returns a bitmask of the non-empty optional fields.
func presentFields(r *CanonicalRecord) uint16 {
	var set uint16
	if r.Caption != "" {
		set |= fieldCaption
	}
	if r.FollowerCount > 0 {
		set |= fieldFollowerCount
	}
	if r.AudienceGender != "" {
		set |= fieldAudienceGender
	}
	if r.AudienceAge != "" {
		set |= fieldAudienceAge
	}
	if r.Location != "" {
		set |= fieldLocation
	}
	if r.Permalink != "" {
		set |= fieldPermalink
	}
	if len(r.Hashtags) > 0 {
		set |= fieldHashtags
	}
	if r.PostID != "" {
		set |= fieldPostID
	}
	return set
}

// metricsAtLeast returns true if a >= b component-wise.
func metricsAtLeast(a, b Metrics) bool {
	av, bv := a.Values(), b.Values()
	for i := range av {
		if av[i] < bv[i] {
			return false
		}
	}
	return true
}

// MoreComplete reports whether a strictly dominates b.
//
// a dominates b when its optional fields are a strict superset of b's and its
// metrics are component-wise >= b's, or when the field sets are equal and the
// metrics are component-wise >= with at least one strictly greater. Counters
// are cumulative, so a lower count never wins.
func MoreComplete(a, b *CanonicalRecord) bool {
	fa, fb := presentFields(a), presentFields(b)
	if !metricsAtLeast(a.Metrics, b.Metrics) {
		return false
	}
	if fa != fb {
		return fa&fb == fb
	}
	return a.Metrics != b.Metrics
}

// SameContent reports whether two records carry identical data.
// Provenance and store bookkeeping are ignored.
func SameContent(a, b *CanonicalRecord) bool {
	return a.Key == b.Key &&
		a.PostID == b.PostID &&
		a.AccountID == b.AccountID &&
		a.Timestamp.Equal(b.Timestamp) &&
		a.Caption == b.Caption &&
		a.Metrics == b.Metrics &&
		a.FollowerCount == b.FollowerCount &&
		a.AudienceGender == b.AudienceGender &&
		a.AudienceAge == b.AudienceAge &&
		a.Location == b.Location &&
		a.Permalink == b.Permalink &&
		a.MediaType == b.MediaType &&
		slices.Equal(a.Hashtags, b.Hashtags)
}

// Resolve decides how candidate should be written given the stored record.
// existing is nil when nothing is stored under the candidate's key.
func Resolve(candidate, existing *CanonicalRecord) Decision {
	switch {
	case existing == nil:
		return DecisionInsert
	case SameContent(candidate, existing):
		return DecisionSkip
	case MoreComplete(candidate, existing):
		return DecisionReplace
	case MoreComplete(existing, candidate):
		return DecisionSkip
	default:
		return DecisionMerge
	}
}

// Merge unions candidate and existing. Each field takes the non-empty value,
// preferring candidate when both are set. Metrics take the component-wise
// maximum.
func Merge(candidate, existing *CanonicalRecord) CanonicalRecord {
	out := candidate.Clone()

	out.PostID = firstNonEmpty(candidate.PostID, existing.PostID)
	out.Caption = firstNonEmpty(candidate.Caption, existing.Caption)
	out.AudienceGender = firstNonEmpty(candidate.AudienceGender, existing.AudienceGender)
	out.AudienceAge = firstNonEmpty(candidate.AudienceAge, existing.AudienceAge)
	out.Location = firstNonEmpty(candidate.Location, existing.Location)
	out.Permalink = firstNonEmpty(candidate.Permalink, existing.Permalink)

	if out.FollowerCount == 0 {
		out.FollowerCount = existing.FollowerCount
	}
	if len(out.Hashtags) == 0 && len(existing.Hashtags) > 0 {
		out.Hashtags = existing.Clone().Hashtags
	}
	keepSpecificMedia(&out, existing)
	if out.Timestamp.IsZero() {
		out.Timestamp = existing.Timestamp
	}

	out.Metrics = candidate.Metrics.Max(existing.Metrics)
	return out
}

// Plan resolves candidate against existing and returns the decision with
// the record to write. The bool is false when nothing needs writing. A merge
// that would leave existing unchanged is reported as a skip.
func Plan(candidate, existing *CanonicalRecord) (Decision, CanonicalRecord, bool) {
	d := Resolve(candidate, existing)
	switch d {
	case DecisionInsert:
		return d, candidate.Clone(), true
	case DecisionReplace:
		replacement := candidate.Clone()
		keepSpecificMedia(&replacement, existing)
		return d, replacement, true
	case DecisionMerge:
		merged := Merge(candidate, existing)
		if SameContent(&merged, existing) {
			return DecisionSkip, CanonicalRecord{}, false
		}
		return d, merged, true
	default:
		return d, CanonicalRecord{}, false
	}
}

// keepSpecificMedia carries the stored media type over a Link or empty one.
// Link is the fallback for unrecognised labels, so it never overwrites a
// specific type.
func keepSpecificMedia(out, existing *CanonicalRecord) {
	if out.MediaType != MediaLink && out.MediaType != "" {
		return
	}
	if existing.MediaType != "" {
		out.MediaType = existing.MediaType
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
