package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/postmetrics/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/postmetrics/internal/adapters/driven/upload/delimited"
	"github.com/custodia-labs/postmetrics/internal/core/domain"
	"github.com/custodia-labs/postmetrics/internal/core/services"
	"github.com/custodia-labs/postmetrics/internal/formats"
	"github.com/custodia-labs/postmetrics/internal/metrics"
)

const testCSV = `post_id,account_id,timestamp,caption,likes,comments,impressions,hashtags,media_type
P1,brand,2024-03-01T10:00:00Z,Launch day,10,2,100,launch,image
P2,brand,2024-03-02T10:00:00Z,Behind the scenes,4,1,50,bts,video
`

// setupTestServices wires in-memory services into the package variables
// and restores the previous state when the test ends.
func setupTestServices(t *testing.T) *services.IngestService {
	t.Helper()

	registry, err := formats.NewDefaultRegistry()
	require.NoError(t, err)

	settings := services.NewSettingsService(memory.NewConfigStore())
	cfg := settings.Pipeline()
	store := memory.NewRecordStore()
	collector := metrics.NewCollector("test")
	query := services.NewQueryService(store, cfg, collector)
	analytics := services.NewAnalyticsService(query)
	ingest, err := services.NewIngestService(store, registry, delimited.NewParser(0), query, cfg,
		services.WithObserver(collector))
	require.NoError(t, err)

	ingestService = ingest
	queryService = query
	analyticsService = analytics
	settingsService = settings
	metricsCollector = collector

	t.Cleanup(func() {
		ingestService = nil
		queryService = nil
		analyticsService = nil
		settingsService = nil
		metricsCollector = nil
		resetFlags(rootCmd)
	})
	return ingest
}

// resetFlags returns every flag to its default; cobra keeps parsed values
// between executions of the same command tree.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

// writeFile writes content to name inside a temp dir and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

// ingestTestCSV stores testCSV through the wired pipeline.
func ingestTestCSV(t *testing.T) {
	t.Helper()
	path := writeFile(t, t.TempDir(), "brand.csv", testCSV)
	out, err := execute(t, "ingest", path)
	require.NoError(t, err, out)
}

func recordIDs(records []domain.CanonicalRecord) []string {
	ids := make([]string, 0, len(records))
	for i := range records {
		ids = append(ids, records[i].PostID)
	}
	return ids
}
