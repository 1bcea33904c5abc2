// Package services implements the driving port interfaces.
//
// IngestService is the pipeline orchestrator: it detects the layout of an
// upload, normalises its rows into canonical records, folds duplicates and
// writes them through the record store, then invalidates the query cache.
// QueryService and AnalyticsService serve reads through that cache.
//
// Services depend only on driven ports and are pure Go with no CGO.
package services
