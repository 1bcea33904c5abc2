// Package dashboard renders the KPI header and the records table.
package dashboard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/postmetrics/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/postmetrics/internal/core/domain"
)

// captionWidth is the width of the caption column; captions are cut to fit.
const captionWidth = 36

// headerLines is the height taken by the title and the KPI boxes.
const headerLines = 6

// View is the dashboard view.
type View struct {
	styles  *styles.Styles
	table   table.Model
	summary *domain.Summary
	records []domain.CanonicalRecord
	width   int
	height  int
}

// NewView creates an empty dashboard.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	t := table.New(
		table.WithColumns(columns()),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	t.SetStyles(s.Table())

	return &View{styles: s, table: t, width: 80, height: 24}
}

func columns() []table.Column {
	return []table.Column{
		{Title: "Date", Width: 16},
		{Title: "Account", Width: 14},
		{Title: "Media", Width: 8},
		{Title: "Likes", Width: 7},
		{Title: "Comments", Width: 8},
		{Title: "Shares", Width: 7},
		{Title: "Impr.", Width: 9},
		{Title: "Caption", Width: captionWidth},
	}
}

// SetData replaces the summary and records shown.
func (v *View) SetData(sum *domain.Summary, records []domain.CanonicalRecord) {
	v.summary = sum
	v.records = records

	rows := make([]table.Row, len(records))
	for i := range records {
		rows[i] = row(&records[i])
	}
	v.table.SetRows(rows)
	if v.table.Cursor() >= len(rows) {
		v.table.GotoTop()
	}
}

func row(rec *domain.CanonicalRecord) table.Row {
	return table.Row{
		rec.Timestamp.UTC().Format("2006-01-02 15:04"),
		rec.AccountID,
		string(rec.MediaType),
		strconv.FormatInt(rec.Metrics.Likes, 10),
		strconv.FormatInt(rec.Metrics.Comments, 10),
		strconv.FormatInt(rec.Metrics.Shares, 10),
		strconv.FormatInt(rec.Metrics.Impressions, 10),
		truncate(strings.Join(strings.Fields(rec.Caption), " "), captionWidth),
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// SetDimensions resizes the table to the space under the header.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	if h := height - headerLines - 2; h > 3 {
		v.table.SetHeight(h)
	}
}

// Update forwards navigation keys to the table.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	var cmd tea.Cmd
	v.table, cmd = v.table.Update(msg)
	return v, cmd
}

// Selected returns the record under the cursor, or nil.
func (v *View) Selected() *domain.CanonicalRecord {
	i := v.table.Cursor()
	if i < 0 || i >= len(v.records) {
		return nil
	}
	return &v.records[i]
}

// View renders the header and table.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("postmetrics"))
	b.WriteString("\n\n")
	b.WriteString(v.kpis())
	b.WriteString("\n")

	if len(v.records) == 0 {
		b.WriteString(v.styles.Muted.Render("No records yet. Ingest an export with `postmetrics ingest`."))
		return b.String()
	}
	b.WriteString(v.table.View())
	return b.String()
}

func (v *View) kpis() string {
	sum := v.summary
	if sum == nil {
		sum = &domain.Summary{}
	}
	boxes := []string{
		v.kpi("Posts", strconv.Itoa(sum.Posts)),
		v.kpi("Accounts", strconv.Itoa(sum.Accounts)),
		v.kpi("Likes", strconv.FormatInt(sum.Totals.Likes, 10)),
		v.kpi("Impressions", strconv.FormatInt(sum.Totals.Impressions, 10)),
		v.kpi("Eng. rate", fmt.Sprintf("%.2f%%", sum.EngagementRate*100)),
		v.kpi("Top tag", topTag(sum)),
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, boxes...)
}

func (v *View) kpi(label, value string) string {
	return v.styles.KPIBox.Render(
		v.styles.KPILabel.Render(label) + "\n" + v.styles.KPIValue.Render(value),
	)
}

func topTag(sum *domain.Summary) string {
	if len(sum.TopHashtags) == 0 {
		return "-"
	}
	return "#" + sum.TopHashtags[0].Tag
}
