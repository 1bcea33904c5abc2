package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Ingestion Errors.

	// ErrEmptyUpload indicates an upload with no header or no data rows.
	// This is fatal for the single ingest call that received it.
	ErrEmptyUpload = errors.New("empty upload")

	// ErrUnreadableUpload indicates the upload bytes could not be parsed as
	// delimited text at all.
	ErrUnreadableUpload = errors.New("unreadable upload")

	// ErrFormatUnrecognized indicates no known signature matched and the
	// generic layout was used. It is informational and never fatal.
	ErrFormatUnrecognized = errors.New("format unrecognized")

	// ErrRowRejected indicates a row whose identity could not be recovered.
	// Rejections are collected per file, never returned for the whole file.
	ErrRowRejected = errors.New("row rejected")

	// ErrStoreWriteFailed indicates a single record could not be written.
	// It is surfaced per record in the UpsertReport.
	ErrStoreWriteFailed = errors.New("store write failed")

	// ErrIngestInProgress indicates another ingest is already running.
	ErrIngestInProgress = errors.New("ingest in progress")
)
