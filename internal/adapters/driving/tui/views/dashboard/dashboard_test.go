package dashboard

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/postmetrics/internal/core/domain"
)

func testRecords() []domain.CanonicalRecord {
	return []domain.CanonicalRecord{
		{
			AccountID: "brand",
			Timestamp: time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC),
			Caption:   "Behind the scenes",
			Metrics:   domain.Metrics{Likes: 4, Impressions: 100},
			MediaType: domain.MediaVideo,
		},
		{
			AccountID: "brand",
			Timestamp: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
			Caption:   "Launch day",
			Metrics:   domain.Metrics{Likes: 10},
			MediaType: domain.MediaImage,
		},
	}
}

func TestView_Empty(t *testing.T) {
	v := NewView(nil)

	out := v.View()

	assert.Contains(t, out, "postmetrics")
	assert.Contains(t, out, "No records yet")
	assert.Contains(t, out, "Posts")
	assert.Nil(t, v.Selected())
}

func TestView_SetData(t *testing.T) {
	v := NewView(nil)
	v.SetDimensions(140, 30)

	v.SetData(&domain.Summary{
		Posts:          2,
		Accounts:       1,
		Totals:         domain.Metrics{Likes: 14, Impressions: 100},
		EngagementRate: 0.14,
		TopHashtags:    []domain.HashtagCount{{Tag: "launch", Posts: 1}},
	}, testRecords())

	out := v.View()
	assert.Contains(t, out, "14.00%")
	assert.Contains(t, out, "#launch")
	assert.Contains(t, out, "2024-03-02 10:00")
	assert.Contains(t, out, "Behind the scenes")

	require.NotNil(t, v.Selected())
	assert.Equal(t, "Behind the scenes", v.Selected().Caption)
}

func TestView_NavigatesRows(t *testing.T) {
	v := NewView(nil)
	v.SetData(&domain.Summary{}, testRecords())

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyDown})

	require.NotNil(t, v.Selected())
	assert.Equal(t, "Launch day", v.Selected().Caption)
}

func TestView_ShrinkingDataResetsCursor(t *testing.T) {
	v := NewView(nil)
	v.SetData(&domain.Summary{}, testRecords())
	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyDown})

	v.SetData(&domain.Summary{}, testRecords()[:1])

	require.NotNil(t, v.Selected())
	assert.Equal(t, "Behind the scenes", v.Selected().Caption)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
