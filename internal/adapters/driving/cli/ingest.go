package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/postmetrics/internal/core/domain"
)

var (
	ingestAccount string
	ingestJSON    bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <files...>",
	Short: "Ingest analytics CSV exports",
	Long: `Ingests one or more CSV exports, in the order given.

Each file is detected, normalised and deduplicated against the store as one
unit. Rows that cannot be used are reported and skipped; the rest of the
file is still stored. The account comes from the rows, else from a file
name prefix such as "brand__posts.csv", else from ingest.default_account.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestAccount, "account", "a", "", "account for rows that do not name one")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output reports as JSON")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errNotConfigured("ingest")
	}

	ctx := cmd.Context()
	progress := !ingestJSON && isTerminal(cmd.ErrOrStderr())

	reports := make([]*domain.IngestReport, 0, len(args))
	var errs []error
	for i, path := range args {
		if progress {
			fmt.Fprintf(cmd.ErrOrStderr(), "[%d/%d] %s\n", i+1, len(args), path)
		}

		done, err := ingestService.IngestFiles(ctx, []string{path}, ingestAccount)
		reports = append(reports, done...)
		if err != nil {
			errs = append(errs, err)
			if errors.Is(err, domain.ErrIngestInProgress) || ctx.Err() != nil {
				break
			}
		}
	}

	if ingestJSON {
		data, err := json.MarshalIndent(reports, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal reports: %w", err)
		}
		cmd.Println(string(data))
	} else {
		for _, report := range reports {
			outputIngestReport(cmd, report)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	return nil
}

func outputIngestReport(cmd *cobra.Command, r *domain.IngestReport) {
	format := string(r.Format)
	if !r.Recognised {
		format += " (format not recognised)"
	}
	cmd.Printf("%s: %s, %d row(s)\n", r.File, format, r.TotalRows)
	cmd.Printf("  %d inserted, %d replaced, %d merged, %d unchanged\n",
		r.Inserted, r.Replaced, r.Merged, r.Skipped)
	if r.Duplicates > 0 || r.Ignored > 0 {
		cmd.Printf("  %d duplicate row(s) folded, %d non-data row(s) ignored\n", r.Duplicates, r.Ignored)
	}
	for _, rej := range r.Rejected {
		cmd.Printf("  rejected line %d: %s\n", rej.Line, rej.Reason)
	}
	if n := len(r.Warnings); n > 0 {
		cmd.Printf("  %d value(s) coerced (use --verbose for details)\n", n)
	}
	for _, f := range r.Failures {
		cmd.Printf("  failed %s: %s\n", f.Key, f.Reason)
	}
	for _, e := range r.RecomputeErrors {
		cmd.Printf("  recompute: %s\n", e)
	}
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
