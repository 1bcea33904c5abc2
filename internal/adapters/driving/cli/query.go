package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/postmetrics/internal/core/domain"
)

// captionWidth is the caption column width of the record table.
const captionWidth = 40

var (
	queryFilters filterFlags
	queryJSON    bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "List stored posts",
	Long: `Lists stored posts newest first, optionally filtered.
Results come from the query cache while it is fresh; any ingest clears it.`,
	Args: cobra.NoArgs,
	RunE: runQuery,
}

func init() {
	queryFilters.register(queryCmd)
	queryCmd.Flags().IntVarP(&queryFilters.params.Limit, "limit", "n", 20, "maximum number of records (0 = all)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output records as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, _ []string) error {
	if queryService == nil {
		return errNotConfigured("query")
	}

	spec, err := queryFilters.spec()
	if err != nil {
		return err
	}

	records, err := queryService.Query(cmd.Context(), spec)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal records: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	outputRecordTable(cmd, records)
	return nil
}

func outputRecordTable(cmd *cobra.Command, records []domain.CanonicalRecord) {
	if len(records) == 0 {
		cmd.Println("No records found.")
		return
	}

	cmd.Printf("%-10s  %-16s  %-8s  %8s  %8s  %8s  %10s  %s\n",
		"DATE", "ACCOUNT", "MEDIA", "LIKES", "COMMENTS", "SHARES", "IMPR.", "CAPTION")
	for i := range records {
		rec := &records[i]
		cmd.Printf("%-10s  %-16s  %-8s  %8d  %8d  %8d  %10d  %s\n",
			rec.Timestamp.Format("2006-01-02"),
			clip(rec.AccountID, 16),
			rec.MediaType,
			rec.Metrics.Likes,
			rec.Metrics.Comments,
			rec.Metrics.Shares,
			rec.Metrics.Impressions,
			clip(rec.Caption, captionWidth),
		)
	}
	cmd.Printf("\n%d record(s)\n", len(records))
}

// clip shortens s to at most n runes on one line.
func clip(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-3]) + "..."
}
