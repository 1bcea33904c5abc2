package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/postmetrics/internal/core/domain"
	"github.com/custodia-labs/postmetrics/internal/logger"
)

var (
	watchAccount  string
	watchSettle   time.Duration
	watchPerMin   float64
	watchExisting bool
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Ingest CSV exports dropped into a directory",
	Long: `Watches a directory and ingests every .csv file created or written in it.

A file is ingested once it has not changed for the settle period, so
exports still being copied are not read half-written. Ingests are rate
limited. The directory defaults to the watch.dir setting.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchAccount, "account", "a", "", "account for rows that do not name one")
	watchCmd.Flags().DurationVar(&watchSettle, "settle", 2*time.Second, "quiet period before a file is ingested")
	watchCmd.Flags().Float64Var(&watchPerMin, "rate", 30, "maximum ingests per minute")
	watchCmd.Flags().BoolVar(&watchExisting, "existing", false, "ingest .csv files already in the directory first")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errNotConfigured("ingest")
	}

	dir := ""
	if len(args) > 0 {
		dir = args[0]
	} else if settingsService != nil {
		dir = settingsService.Pipeline().WatchDir
	}
	if dir == "" {
		return fmt.Errorf("no directory given and %s is not set", domain.ConfigWatchDir)
	}
	if watchPerMin <= 0 {
		return errors.New("--rate must be positive")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	ctx := cmd.Context()
	limiter := rate.NewLimiter(rate.Limit(watchPerMin/60), 1)
	pending := newUploadQueue(watchSettle)

	if watchExisting {
		existing, err := filepath.Glob(filepath.Join(dir, "*.csv"))
		if err != nil {
			return fmt.Errorf("listing %s: %w", dir, err)
		}
		now := time.Now()
		for _, path := range existing {
			pending.touch(path, now.Add(-watchSettle))
		}
	}

	cmd.Printf("Watching %s for CSV exports (Ctrl+C to stop)\n", dir)

	ticker := time.NewTicker(tickInterval(watchSettle))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			pending.handleEvent(event, time.Now())

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)

		case now := <-ticker.C:
			for _, path := range pending.due(now) {
				if err := limiter.Wait(ctx); err != nil {
					return nil
				}
				reports, err := ingestService.IngestFiles(ctx, []string{path}, watchAccount)
				for _, report := range reports {
					outputIngestReport(cmd, report)
				}
				if err != nil {
					if errors.Is(err, domain.ErrIngestInProgress) {
						pending.touch(path, now)
					}
					cmd.PrintErrf("Error: %v\n", err)
				}
			}
		}
	}
}

func tickInterval(settle time.Duration) time.Duration {
	if half := settle / 2; half > 100*time.Millisecond {
		return half
	}
	return 100 * time.Millisecond
}

// uploadQueue tracks files seen by the watcher until they settle.
type uploadQueue struct {
	settle time.Duration
	seen   map[string]time.Time
}

func newUploadQueue(settle time.Duration) *uploadQueue {
	return &uploadQueue{
		settle: settle,
		seen:   make(map[string]time.Time),
	}
}

// handleEvent records creates and writes of .csv files and forgets files
// that were removed or renamed away.
func (q *uploadQueue) handleEvent(event fsnotify.Event, now time.Time) {
	if !isUploadFile(event.Name) {
		return
	}
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		delete(q.seen, event.Name)
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		q.touch(event.Name, now)
	}
}

func (q *uploadQueue) touch(path string, at time.Time) {
	q.seen[path] = at
}

// due removes and returns, sorted, the files quiet for the settle period.
func (q *uploadQueue) due(now time.Time) []string {
	var ready []string
	for path, at := range q.seen {
		if now.Sub(at) >= q.settle {
			ready = append(ready, path)
			delete(q.seen, path)
		}
	}
	sort.Strings(ready)
	return ready
}

func (q *uploadQueue) len() int {
	return len(q.seen)
}

// isUploadFile accepts visible .csv files.
func isUploadFile(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return strings.EqualFold(filepath.Ext(base), ".csv")
}
