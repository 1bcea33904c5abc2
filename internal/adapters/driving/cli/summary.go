package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/postmetrics/internal/core/domain"
)

var (
	summaryFilters filterFlags
	summaryJSON    bool
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show engagement KPIs",
	Long: `Shows totals, engagement rate, media mix and top hashtags over the
stored posts, optionally filtered.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func init() {
	summaryFilters.register(summaryCmd)
	summaryCmd.Flags().BoolVar(&summaryJSON, "json", false, "output the summary as JSON")
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	if analyticsService == nil {
		return errNotConfigured("analytics")
	}

	spec, err := summaryFilters.spec()
	if err != nil {
		return err
	}

	sum, err := analyticsService.Summary(cmd.Context(), spec)
	if err != nil {
		return fmt.Errorf("summary failed: %w", err)
	}

	if summaryJSON {
		data, err := json.MarshalIndent(sum, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal summary: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	outputSummary(cmd, sum)
	return nil
}

func outputSummary(cmd *cobra.Command, sum *domain.Summary) {
	if sum.Posts == 0 {
		cmd.Println("No records found.")
		return
	}

	cmd.Printf("Posts:        %d across %d account(s)\n", sum.Posts, sum.Accounts)
	cmd.Printf("Period:       %s to %s\n", sum.First.Format("2006-01-02"), sum.Last.Format("2006-01-02"))
	cmd.Println()
	cmd.Printf("Likes:        %d\n", sum.Totals.Likes)
	cmd.Printf("Comments:     %d\n", sum.Totals.Comments)
	cmd.Printf("Shares:       %d\n", sum.Totals.Shares)
	cmd.Printf("Saves:        %d\n", sum.Totals.Saves)
	cmd.Printf("Impressions:  %d\n", sum.Totals.Impressions)
	cmd.Printf("Reach:        %d\n", sum.Totals.Reach)
	cmd.Println()
	cmd.Printf("Engagement:   %.2f%% of impressions, %.1f per post\n", sum.EngagementRate*100, sum.AverageEngagements)

	media := make([]string, 0, len(sum.ByMedia))
	for m := range sum.ByMedia {
		media = append(media, string(m))
	}
	sort.Strings(media)
	cmd.Println()
	cmd.Println("By media:")
	for _, m := range media {
		cmd.Printf("  %-10s %d\n", m, sum.ByMedia[domain.MediaType(m)])
	}

	if len(sum.TopHashtags) > 0 {
		cmd.Println()
		cmd.Println("Top hashtags:")
		for i, tag := range sum.TopHashtags {
			cmd.Printf("  %2d. #%s (%d)\n", i+1, tag.Tag, tag.Posts)
		}
	}
}
