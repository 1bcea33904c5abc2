package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/postmetrics/internal/core/domain"
)

func TestQueryCmd_HasFilterFlags(t *testing.T) {
	for _, name := range []string{"account", "since", "until", "media", "hashtag", "format", "limit", "json"} {
		assert.NotNil(t, queryCmd.Flags().Lookup(name), name)
	}
	assert.Equal(t, "20", queryCmd.Flags().Lookup("limit").DefValue)
}

func TestQueryCmd_Empty(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "query")

	require.NoError(t, err)
	assert.Contains(t, out, "No records found.")
}

func TestQueryCmd_TableNewestFirst(t *testing.T) {
	setupTestServices(t)
	ingestTestCSV(t)

	out, err := execute(t, "query")

	require.NoError(t, err)
	assert.Contains(t, out, "CAPTION")
	assert.Contains(t, out, "2 record(s)")
	assert.Less(t, strings.Index(out, "Behind the scenes"), strings.Index(out, "Launch day"))
}

func TestQueryCmd_Filters(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{name: "all", args: nil, want: []string{"P2", "P1"}},
		{name: "media", args: []string{"--media", "video"}, want: []string{"P2"}},
		{name: "hashtag", args: []string{"--hashtag", "#Launch"}, want: []string{"P1"}},
		{name: "since", args: []string{"--since", "2024-03-02"}, want: []string{"P2"}},
		{name: "until", args: []string{"--until", "2024-03-02"}, want: []string{"P1"}},
		{name: "limit", args: []string{"-n", "1"}, want: []string{"P2"}},
		{name: "account", args: []string{"--account", "nobody"}, want: []string{}},
		{name: "format", args: []string{"--format", "native"}, want: []string{"P2", "P1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupTestServices(t)
			ingestTestCSV(t)

			args := append([]string{"query", "--json"}, tt.args...)
			out, err := execute(t, args...)

			require.NoError(t, err)
			var records []domain.CanonicalRecord
			require.NoError(t, json.Unmarshal([]byte(out), &records))
			assert.Equal(t, tt.want, recordIDs(records))
		})
	}
}

func TestQueryCmd_InvalidFilter(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "query", "--media", "story")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "media")
}

func TestClip(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"multi\nline  text", 20, "multi line text"},
		{"a very long caption indeed", 10, "a very ..."},
		{"émoji ✨ caption", 8, "émoji..."},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, clip(tt.in, tt.n))
	}
}
