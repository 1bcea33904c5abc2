// Package domain defines the core business entities for postmetrics.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - CanonicalRecord: One social-media post after normalisation
//   - IdentityKey: The value records are deduplicated by
//   - Layout: The column mapping of one recognised export format
//   - RawUpload: A decoded tabular file before normalisation
//   - UpsertReport / IngestReport: Structured outcomes of a write
//
// The deduplication policy (Resolve, Merge) also lives here because it is
// pure and shared by every RecordStore implementation.
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
