package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/postmetrics/internal/core/domain"
	"github.com/custodia-labs/postmetrics/internal/core/ports/driven"
	"github.com/custodia-labs/postmetrics/internal/core/ports/driving"
	"github.com/custodia-labs/postmetrics/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// accountSeparator splits "account__export.csv" file names.
const accountSeparator = "__"

// IngestService is the pipeline orchestrator. Each upload runs detection,
// normalisation, within-file dedup and one batch upsert, then invalidates
// the query cache before returning.
type IngestService struct {
	store      driven.RecordStore
	parser     driven.UploadParser
	query      driving.QueryService
	detector   *Detector
	normaliser *Normaliser
	sampleRows int

	hooks    []driven.RecomputeHook
	observer driven.IngestObserver
	now      func() time.Time

	// running admits one ingest at a time.
	running sync.Mutex

	statusMu sync.RWMutex
	status   driving.IngestStatus
}

// IngestOption configures optional collaborators.
type IngestOption func(*IngestService)

// WithRecomputeHooks registers hooks run after every write that changed state.
func WithRecomputeHooks(hooks ...driven.RecomputeHook) IngestOption {
	return func(s *IngestService) {
		s.hooks = append(s.hooks, hooks...)
	}
}

// WithObserver reports per-file outcomes to o.
func WithObserver(o driven.IngestObserver) IngestOption {
	return func(s *IngestService) {
		s.observer = o
	}
}

// NewIngestService creates the orchestrator. query must be the process-wide
// query service so that writes invalidate the cache readers use.
func NewIngestService(
	store driven.RecordStore,
	registry driven.LayoutRegistry,
	parser driven.UploadParser,
	query driving.QueryService,
	cfg domain.PipelineConfig,
	opts ...IngestOption,
) (*IngestService, error) {
	detector, err := NewDetector(registry)
	if err != nil {
		return nil, err
	}
	sampleRows := cfg.SampleRows
	if sampleRows < 1 {
		sampleRows = domain.DefaultPipelineConfig().SampleRows
	}

	s := &IngestService{
		store:      store,
		parser:     parser,
		query:      query,
		detector:   detector,
		normaliser: NewNormaliser(cfg),
		sampleRows: sampleRows,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Ingest processes one parsed upload as a single unit.
func (s *IngestService) Ingest(ctx context.Context, upload *domain.RawUpload) (*domain.IngestReport, error) {
	if upload == nil || len(upload.Header) == 0 {
		name := ""
		if upload != nil {
			name = upload.Name
		}
		return nil, fmt.Errorf("%s: %w", name, domain.ErrEmptyUpload)
	}
	if !s.running.TryLock() {
		return nil, domain.ErrIngestInProgress
	}
	defer s.running.Unlock()

	s.begin(upload.Name)
	report, err := s.ingest(ctx, upload)
	s.finish(upload.Name, report)
	return report, err
}

func (s *IngestService) ingest(ctx context.Context, upload *domain.RawUpload) (*domain.IngestReport, error) {
	logger.Section("Ingest " + upload.Name)
	start := s.now()

	report := &domain.IngestReport{
		File:       upload.Name,
		HeaderLine: upload.HeaderLine,
		TotalRows:  len(upload.Rows),
		Rejected:   []domain.RejectedRow{},
		StartedAt:  start.UTC(),
	}

	// 1. Detect
	detection := s.detector.Detect(upload.Header, upload.Samples(s.sampleRows))
	report.Format = detection.Format()
	report.Recognised = detection.Recognised
	if detection.Recognised {
		logger.Info("Detected format %s", report.Format)
	} else {
		logger.Info("%s: %v, using %s", upload.Name, domain.ErrFormatUnrecognized, report.Format.Description())
	}

	binding := Bind(detection.Layout, upload.Header)
	report.IgnoredColumns = binding.Ignored()
	if len(report.IgnoredColumns) > 0 {
		logger.Debug("Ignored columns: %s", strings.Join(report.IgnoredColumns, ", "))
	}

	// 2. Normalise
	account := strings.TrimSpace(upload.AccountID)
	if account == "" {
		account = AccountFromName(upload.Name)
	}
	records := make([]domain.CanonicalRecord, 0, len(upload.Rows))
	for _, row := range upload.Rows {
		res := s.normaliser.Normalise(row, binding, account)
		report.Warnings = append(report.Warnings, res.Warnings...)
		switch {
		case res.Ignored:
			report.Ignored++
		case res.Rejected != nil:
			logger.Warn("Line %d: %v: %s", res.Rejected.Line, domain.ErrRowRejected, res.Rejected.Reason)
			report.Rejected = append(report.Rejected, *res.Rejected)
		default:
			records = append(records, *res.Record)
		}
	}
	for _, w := range report.Warnings {
		logger.Debug("Line %d column %q: %s (%q)", w.Line, w.Column, w.Message, w.Raw)
	}
	if len(report.Warnings) > 0 {
		logger.Warn("%d values coerced in %s", len(report.Warnings), upload.Name)
	}

	// 3. Fold within-file duplicates
	records, report.Duplicates = FoldDuplicates(records)

	// 4. Store, then invalidate before anyone can read
	if len(records) > 0 {
		upsert, err := s.store.Upsert(ctx, records)
		report.ApplyUpsert(upsert)
		if err != nil || upsert.Changed() > 0 {
			s.query.Invalidate()
		}
		if err != nil {
			report.Duration = s.now().Sub(start)
			return report, fmt.Errorf("writing %s: %w", upload.Name, err)
		}
		for _, f := range report.Failures {
			logger.Warn("%s: %s", f.Key, f.Reason)
		}
	}

	// 5. Downstream recompute
	if report.Changed() > 0 {
		s.recompute(ctx, report)
	}

	report.Duration = s.now().Sub(start)
	s.observe(report)
	logger.Info("%s: %d inserted, %d replaced, %d merged, %d skipped, %d rejected",
		upload.Name, report.Inserted, report.Replaced, report.Merged, report.Skipped, len(report.Rejected))
	return report, nil
}

// IngestReader parses r and ingests it. account overrides inference when set.
func (s *IngestService) IngestReader(ctx context.Context, name, account string, r io.Reader) (*domain.IngestReport, error) {
	upload, err := s.parser.Parse(name, r)
	if err != nil {
		return nil, err
	}
	if account = strings.TrimSpace(account); account != "" {
		upload.AccountID = account
	}
	return s.Ingest(ctx, upload)
}

// IngestFiles ingests paths in order. Later files see the state earlier
// files left behind.
func (s *IngestService) IngestFiles(ctx context.Context, paths []string, account string) ([]*domain.IngestReport, error) {
	reports := make([]*domain.IngestReport, 0, len(paths))
	var errs []error

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		report, err := s.ingestFile(ctx, path, account)
		if report != nil {
			reports = append(reports, report)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			if errors.Is(err, domain.ErrIngestInProgress) {
				break
			}
		}
	}
	return reports, errors.Join(errs...)
}

func (s *IngestService) ingestFile(ctx context.Context, path, account string) (*domain.IngestReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnreadableUpload, err)
	}
	defer f.Close()
	return s.IngestReader(ctx, filepath.Base(path), account, f)
}

// Status returns a snapshot of the pipeline state.
func (s *IngestService) Status(_ context.Context) (*driving.IngestStatus, error) {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	status := s.status
	return &status, nil
}

func (s *IngestService) begin(name string) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.status.Running = true
	s.status.CurrentFile = name
}

func (s *IngestService) finish(name string, report *domain.IngestReport) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.status.Running = false
	s.status.CurrentFile = ""
	s.status.LastFile = name
	s.status.LastIngest = s.now().UTC()
	if report != nil {
		s.status.FilesIngested++
		s.status.RecordsChanged += report.Changed()
		s.status.RowsRejected += len(report.Rejected)
		s.status.LastReport = report
	}
}

func (s *IngestService) recompute(ctx context.Context, report *domain.IngestReport) {
	for _, hook := range s.hooks {
		if err := hook.Recompute(ctx); err != nil {
			logger.Warn("Recompute %s failed: %v", hook.Name(), err)
			report.RecomputeErrors = append(report.RecomputeErrors, fmt.Sprintf("%s: %v", hook.Name(), err))
		}
	}
}

func (s *IngestService) observe(report *domain.IngestReport) {
	if s.observer == nil {
		return
	}
	format := string(report.Format)
	s.observer.ObserveRows(format, "inserted", report.Inserted)
	s.observer.ObserveRows(format, "replaced", report.Replaced)
	s.observer.ObserveRows(format, "merged", report.Merged)
	s.observer.ObserveRows(format, "skipped", report.Skipped)
	s.observer.ObserveRows(format, "duplicate", report.Duplicates)
	s.observer.ObserveRows(format, "ignored", report.Ignored)
	s.observer.ObserveRows(format, "rejected", len(report.Rejected))
	s.observer.ObserveRows(format, "failed", len(report.Failures))
	s.observer.ObserveDuration(format, report.Duration.Seconds())
}

// FoldDuplicates resolves records sharing an identity against each other
// under the dedup policy, keeping the first occurrence's position. It
// returns the folded records and how many rows were folded away.
func FoldDuplicates(records []domain.CanonicalRecord) ([]domain.CanonicalRecord, int) {
	type key struct{ account, id string }

	out := make([]domain.CanonicalRecord, 0, len(records))
	index := make(map[key]int, len(records))
	folded := 0

	for i := range records {
		rec := &records[i]
		k := key{rec.Key.AccountID, rec.Key.ID}
		j, seen := index[k]
		if !seen {
			index[k] = len(out)
			out = append(out, *rec)
			continue
		}
		folded++
		if _, merged, write := domain.Plan(rec, &out[j]); write {
			out[j] = merged
		}
	}
	return out, folded
}

// AccountFromName returns the account prefix of an "account__export.csv"
// file name, or "" when the name has none.
func AccountFromName(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	idx := strings.Index(base, accountSeparator)
	if idx <= 0 {
		return ""
	}
	return strings.TrimSpace(base[:idx])
}
