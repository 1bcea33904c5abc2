package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/postmetrics/internal/core/domain"
)

// defaultQueryLimit caps query_records results when no limit is given.
const defaultQueryLimit = 50

// FilterInput selects records. It is shared by query_records and summary.
type FilterInput struct {
	Account string `json:"account,omitempty" jsonschema:"only records of this account"`
	Since   string `json:"since,omitempty" jsonschema:"inclusive start date, YYYY-MM-DD or RFC 3339"`
	Until   string `json:"until,omitempty" jsonschema:"exclusive end date, YYYY-MM-DD or RFC 3339"`
	Media   string `json:"media,omitempty" jsonschema:"Image, Video, Carousel or Link"`
	Hashtag string `json:"hashtag,omitempty" jsonschema:"only posts carrying this hashtag"`
	Format  string `json:"format,omitempty" jsonschema:"source format such as native or instagram_post_export"`
	Limit   int    `json:"limit,omitempty" jsonschema:"maximum number of records (default 50)"`
}

func (in FilterInput) spec(defaultLimit int) (domain.QuerySpec, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	return domain.QueryParams{
		Account: in.Account,
		Since:   in.Since,
		Until:   in.Until,
		Media:   in.Media,
		Hashtag: in.Hashtag,
		Format:  in.Format,
		Limit:   limit,
	}.Spec()
}

// QueryOutput is the output schema for the query_records tool.
type QueryOutput struct {
	Records []RecordOutput `json:"records"`
	Count   int            `json:"count"`
}

// RecordOutput is a flattened canonical record.
type RecordOutput struct {
	AccountID   string   `json:"account_id"`
	ID          string   `json:"id"`
	PostID      string   `json:"post_id,omitempty"`
	Timestamp   string   `json:"timestamp"`
	Caption     string   `json:"caption,omitempty"`
	MediaType   string   `json:"media_type"`
	Format      string   `json:"format"`
	Likes       int64    `json:"likes"`
	Comments    int64    `json:"comments"`
	Shares      int64    `json:"shares"`
	Saves       int64    `json:"saves"`
	Impressions int64    `json:"impressions"`
	Reach       int64    `json:"reach"`
	Hashtags    []string `json:"hashtags,omitempty"`
}

// SummaryOutput is the output schema for the summary tool.
type SummaryOutput struct {
	Posts              int            `json:"posts"`
	Accounts           int            `json:"accounts"`
	Likes              int64          `json:"likes"`
	Comments           int64          `json:"comments"`
	Shares             int64          `json:"shares"`
	Saves              int64          `json:"saves"`
	Impressions        int64          `json:"impressions"`
	Reach              int64          `json:"reach"`
	EngagementRate     float64        `json:"engagement_rate"`
	AverageEngagements float64        `json:"average_engagements"`
	ByMedia            map[string]int `json:"by_media"`
	TopHashtags        []string       `json:"top_hashtags,omitempty"`
	First              string         `json:"first,omitempty"`
	Last               string         `json:"last,omitempty"`
}

// IngestInput is the input schema for the ingest_file tool.
type IngestInput struct {
	Path    string `json:"path" jsonschema:"path of a CSV export on this machine"`
	Account string `json:"account,omitempty" jsonschema:"account to file the records under when the export has none"`
}

// IngestOutput is the output schema for the ingest_file tool.
type IngestOutput struct {
	File       string   `json:"file"`
	Format     string   `json:"format"`
	Recognised bool     `json:"recognised"`
	TotalRows  int      `json:"total_rows"`
	Inserted   int      `json:"inserted"`
	Replaced   int      `json:"replaced"`
	Merged     int      `json:"merged"`
	Skipped    int      `json:"skipped"`
	Duplicates int      `json:"duplicates"`
	Ignored    int      `json:"ignored"`
	Warnings   int      `json:"warnings"`
	Rejected   []string `json:"rejected,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "query_records",
		Description: "List stored social post records, newest first, with optional filters",
	}, s.handleQueryRecords)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "summary",
		Description: "Engagement totals, rates, media mix and top hashtags over the selected records",
	}, s.handleSummary)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest_file",
		Description: "Ingest an Instagram, Facebook or native CSV export into the local store",
	}, s.handleIngestFile)
}

func (s *Server) handleQueryRecords(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FilterInput,
) (*mcp.CallToolResult, QueryOutput, error) {
	spec, err := input.spec(defaultQueryLimit)
	if err != nil {
		return nil, QueryOutput{}, err
	}

	records, err := s.ports.Query.Query(ctx, spec)
	if err != nil {
		return nil, QueryOutput{}, err
	}

	output := QueryOutput{
		Records: make([]RecordOutput, len(records)),
		Count:   len(records),
	}
	for i := range records {
		output.Records[i] = recordOutput(&records[i])
	}
	return nil, output, nil
}

func (s *Server) handleSummary(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FilterInput,
) (*mcp.CallToolResult, SummaryOutput, error) {
	if s.ports.Analytics == nil {
		return nil, SummaryOutput{}, errors.New("summary is not available")
	}
	spec, err := input.spec(0)
	if err != nil {
		return nil, SummaryOutput{}, err
	}

	sum, err := s.ports.Analytics.Summary(ctx, spec)
	if err != nil {
		return nil, SummaryOutput{}, err
	}

	output := SummaryOutput{
		Posts:              sum.Posts,
		Accounts:           sum.Accounts,
		Likes:              sum.Totals.Likes,
		Comments:           sum.Totals.Comments,
		Shares:             sum.Totals.Shares,
		Saves:              sum.Totals.Saves,
		Impressions:        sum.Totals.Impressions,
		Reach:              sum.Totals.Reach,
		EngagementRate:     sum.EngagementRate,
		AverageEngagements: sum.AverageEngagements,
		ByMedia:            make(map[string]int, len(sum.ByMedia)),
		First:              formatTime(sum.First),
		Last:               formatTime(sum.Last),
	}
	for media, n := range sum.ByMedia {
		output.ByMedia[string(media)] = n
	}
	for _, h := range sum.TopHashtags {
		output.TopHashtags = append(output.TopHashtags, fmt.Sprintf("#%s (%d)", h.Tag, h.Posts))
	}
	return nil, output, nil
}

func (s *Server) handleIngestFile(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	if input.Path == "" {
		return nil, IngestOutput{}, fmt.Errorf("%w: path is required", domain.ErrInvalidInput)
	}

	reports, err := s.ports.Ingest.IngestFiles(ctx, []string{input.Path}, input.Account)
	if len(reports) == 0 {
		if err == nil {
			err = fmt.Errorf("%s: nothing ingested", input.Path)
		}
		return nil, IngestOutput{}, err
	}
	if err != nil {
		return nil, IngestOutput{}, err
	}

	r := reports[0]
	output := IngestOutput{
		File:       r.File,
		Format:     string(r.Format),
		Recognised: r.Recognised,
		TotalRows:  r.TotalRows,
		Inserted:   r.Inserted,
		Replaced:   r.Replaced,
		Merged:     r.Merged,
		Skipped:    r.Skipped,
		Duplicates: r.Duplicates,
		Ignored:    r.Ignored,
		Warnings:   len(r.Warnings),
	}
	for _, rej := range r.Rejected {
		output.Rejected = append(output.Rejected, fmt.Sprintf("line %d: %s", rej.Line, rej.Reason))
	}
	return nil, output, nil
}

func recordOutput(rec *domain.CanonicalRecord) RecordOutput {
	out := RecordOutput{
		AccountID:   rec.AccountID,
		ID:          rec.Key.ID,
		PostID:      rec.PostID,
		Timestamp:   formatTime(rec.Timestamp),
		Caption:     rec.Caption,
		MediaType:   string(rec.MediaType),
		Format:      string(rec.SourceFormat),
		Likes:       rec.Metrics.Likes,
		Comments:    rec.Metrics.Comments,
		Shares:      rec.Metrics.Shares,
		Saves:       rec.Metrics.Saves,
		Impressions: rec.Metrics.Impressions,
		Reach:       rec.Metrics.Reach,
	}
	for _, h := range rec.Hashtags {
		out.Hashtags = append(out.Hashtags, h.Display)
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
