// Package sqlite provides the durable RecordStore backed by a single SQLite file.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO. Records are keyed by (account_id, id); each upserted record is
// resolved against the stored row under the dedup policy inside its own
// transaction, so a failing record never rolls back its neighbours.
//
// # Schema
//
// The schema is managed through numbered migrations in the migrations/
// directory. Applied versions are recorded in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.postmetrics/data/postmetrics.db
//
// # Thread Safety
//
// All operations are safe for concurrent use. Writes are serialised within
// the process; readers run concurrently under WAL.
package sqlite
