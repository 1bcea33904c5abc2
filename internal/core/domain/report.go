package domain

import "time"

// DataWarning records a value that was coerced rather than rejected.
type DataWarning struct {
	Line    int    `json:"line"`
	Field   Field  `json:"field,omitempty"`
	Column  string `json:"column"`
	Raw     string `json:"raw"`
	Message string `json:"message"`
}

// RejectedRow is a row whose identity could not be recovered.
type RejectedRow struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// RecordFailure is a single record the store could not write.
type RecordFailure struct {
	Key    IdentityKey `json:"key"`
	Reason string      `json:"reason"`
	Err    error       `json:"-"`
}

// UpsertReport counts the outcome of one batch write.
type UpsertReport struct {
	Inserted int             `json:"inserted"`
	Replaced int             `json:"replaced"`
	Merged   int             `json:"merged"`
	Skipped  int             `json:"skipped"`
	Failures []RecordFailure `json:"failures,omitempty"`
}

// Record counts a decision.
func (r *UpsertReport) Record(d Decision) {
	switch d {
	case DecisionInsert:
		r.Inserted++
	case DecisionReplace:
		r.Replaced++
	case DecisionMerge:
		r.Merged++
	case DecisionSkip:
		r.Skipped++
	}
}

// Fail records a per-record failure.
func (r *UpsertReport) Fail(key IdentityKey, err error) {
	r.Failures = append(r.Failures, RecordFailure{Key: key, Reason: err.Error(), Err: err})
}

// Changed returns how many records changed store state.
func (r UpsertReport) Changed() int {
	return r.Inserted + r.Replaced + r.Merged
}

// IngestReport is the structured outcome of ingesting one file.
type IngestReport struct {
	File   string       `json:"file"`
	Format SourceFormat `json:"format"`

	// Recognised is false when the generic layout was used.
	Recognised bool `json:"recognised"`

	HeaderLine int `json:"header_line"`
	TotalRows  int `json:"total_rows"`

	Inserted int `json:"inserted"`
	Replaced int `json:"replaced"`
	Merged   int `json:"merged"`
	Skipped  int `json:"skipped"`

	// Duplicates counts rows folded into an earlier row of the same file.
	Duplicates int `json:"duplicates"`

	// Ignored counts non-data rows such as totals and repeated headers.
	Ignored int `json:"ignored"`

	Rejected []RejectedRow   `json:"rejected"`
	Warnings []DataWarning   `json:"warnings,omitempty"`
	Failures []RecordFailure `json:"failures,omitempty"`

	// IgnoredColumns lists header columns no canonical field was mapped from.
	IgnoredColumns []string `json:"ignored_columns,omitempty"`

	// RecomputeErrors lists downstream hooks that failed after the write.
	RecomputeErrors []string `json:"recompute_errors,omitempty"`

	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// ApplyUpsert copies store counts into the report.
func (r *IngestReport) ApplyUpsert(u UpsertReport) {
	r.Inserted = u.Inserted
	r.Replaced = u.Replaced
	r.Merged = u.Merged
	r.Skipped = u.Skipped
	r.Failures = u.Failures
}

// Changed returns how many records changed store state.
func (r IngestReport) Changed() int {
	return r.Inserted + r.Replaced + r.Merged
}
