package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/postmetrics/internal/core/domain"
	"github.com/custodia-labs/postmetrics/internal/core/ports/driving"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show store and cache state",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output status as JSON")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if queryService == nil {
		return errNotConfigured("query")
	}
	if ingestService == nil {
		return errNotConfigured("ingest")
	}

	ctx := cmd.Context()
	freshness, err := queryService.Freshness(ctx)
	if err != nil {
		return fmt.Errorf("reading freshness: %w", err)
	}
	status, err := ingestService.Status(ctx)
	if err != nil {
		return fmt.Errorf("reading ingest status: %w", err)
	}

	if statusJSON {
		data, err := json.MarshalIndent(struct {
			Ingest    *driving.IngestStatus `json:"ingest"`
			Freshness *domain.Freshness     `json:"freshness"`
		}{status, freshness}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal status: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Records:          %d\n", freshness.Records)
	cmd.Printf("Cache generation: %d\n", freshness.Generation)
	cmd.Printf("Cached queries:   %d\n", freshness.CachedKeys)
	if freshness.FullScanCached {
		cmd.Println("Full scan:        cached")
	} else {
		cmd.Println("Full scan:        not cached")
	}
	cmd.Printf("Freshness window: %s\n", freshness.Window)
	if !freshness.LastInvalidated.IsZero() {
		cmd.Printf("Last write:       %s\n", freshness.LastInvalidated.Format("2006-01-02 15:04:05"))
	}

	switch {
	case status.Running:
		cmd.Printf("Ingest:           running (%s)\n", status.CurrentFile)
	case status.FilesIngested > 0:
		cmd.Printf("Ingest:           idle, %d file(s), %d change(s), %d rejected row(s)\n",
			status.FilesIngested, status.RecordsChanged, status.RowsRejected)
		cmd.Printf("Last file:        %s\n", status.LastFile)
	default:
		cmd.Println("Ingest:           idle")
	}
	return nil
}
