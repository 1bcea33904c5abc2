package driving

import (
	"context"
	"io"
	"time"

	"github.com/custodia-labs/postmetrics/internal/core/domain"
)

// IngestService runs uploaded files through detection, normalisation,
// dedup, store write and cache invalidation.
type IngestService interface {
	// Ingest processes one parsed upload as a single unit.
	// Row-level problems are reported, never returned as an error.
	Ingest(ctx context.Context, upload *domain.RawUpload) (*domain.IngestReport, error)

	// IngestReader parses r as delimited text and ingests it.
	// account overrides filename inference when non-empty.
	IngestReader(ctx context.Context, name, account string, r io.Reader) (*domain.IngestReport, error)

	// IngestFiles ingests paths strictly in the given order and returns a
	// report per ingested file. A file that cannot be read joins the
	// returned error and does not stop later files.
	IngestFiles(ctx context.Context, paths []string, account string) ([]*domain.IngestReport, error)

	// Status returns the state of the ingest pipeline.
	Status(ctx context.Context) (*IngestStatus, error)
}

// IngestStatus represents the current state of the ingest pipeline.
type IngestStatus struct {
	// Running indicates if an ingest is currently in progress.
	Running bool `json:"running"`

	// FilesIngested is the count of files processed since start.
	FilesIngested int `json:"files_ingested"`

	// RecordsChanged is the count of writes that changed store state.
	RecordsChanged int `json:"records_changed"`

	// RowsRejected is the count of rejected rows since start.
	RowsRejected int `json:"rows_rejected"`

	// CurrentFile is the file being ingested while Running.
	CurrentFile string `json:"current_file,omitempty"`

	// LastFile is the name of the most recently ingested file.
	LastFile string `json:"last_file,omitempty"`

	// LastIngest is when the most recent ingest finished.
	LastIngest time.Time `json:"last_ingest,omitempty"`

	// LastReport is the report of the most recent ingest.
	LastReport *domain.IngestReport `json:"last_report,omitempty"`
}
