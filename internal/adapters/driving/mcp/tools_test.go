package mcp

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/postmetrics/internal/core/domain"
)

func newIngestedServer(t *testing.T) *Server {
	t.Helper()
	server, err := NewServer(newTestPorts(t))
	require.NoError(t, err)

	_, output, err := server.handleIngestFile(context.Background(), nil, IngestInput{Path: writeExport(t)})
	require.NoError(t, err)
	require.Equal(t, 2, output.Inserted)
	return server
}

func TestServer_handleIngestFile(t *testing.T) {
	ctx := context.Background()

	t.Run("ingests an export", func(t *testing.T) {
		server, err := NewServer(newTestPorts(t))
		require.NoError(t, err)

		_, output, err := server.handleIngestFile(ctx, nil, IngestInput{Path: writeExport(t)})

		require.NoError(t, err)
		assert.Equal(t, "brand.csv", output.File)
		assert.Equal(t, "native", output.Format)
		assert.True(t, output.Recognised)
		assert.Equal(t, 2, output.TotalRows)
		assert.Equal(t, 2, output.Inserted)
		assert.Empty(t, output.Rejected)
	})

	t.Run("second ingest skips everything", func(t *testing.T) {
		server := newIngestedServer(t)

		_, output, err := server.handleIngestFile(ctx, nil, IngestInput{Path: writeExport(t)})

		require.NoError(t, err)
		assert.Equal(t, 0, output.Inserted)
		assert.Equal(t, 2, output.Skipped)
	})

	t.Run("missing path is invalid", func(t *testing.T) {
		server, err := NewServer(newTestPorts(t))
		require.NoError(t, err)

		_, _, err = server.handleIngestFile(ctx, nil, IngestInput{})

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("unreadable file returns error", func(t *testing.T) {
		server, err := NewServer(newTestPorts(t))
		require.NoError(t, err)

		_, _, err = server.handleIngestFile(ctx, nil, IngestInput{Path: filepath.Join(t.TempDir(), "missing.csv")})

		assert.ErrorIs(t, err, domain.ErrUnreadableUpload)
	})
}

func TestServer_handleQueryRecords(t *testing.T) {
	ctx := context.Background()
	server := newIngestedServer(t)

	t.Run("returns records newest first", func(t *testing.T) {
		_, output, err := server.handleQueryRecords(ctx, nil, FilterInput{})

		require.NoError(t, err)
		require.Equal(t, 2, output.Count)
		assert.Equal(t, "P2", output.Records[0].PostID)
		assert.Equal(t, "2024-03-02T10:00:00Z", output.Records[0].Timestamp)
		assert.Equal(t, "Video", output.Records[0].MediaType)
		assert.Equal(t, []string{"bts"}, output.Records[0].Hashtags)
	})

	t.Run("applies filters", func(t *testing.T) {
		_, output, err := server.handleQueryRecords(ctx, nil, FilterInput{Hashtag: "#launch", Limit: 5})

		require.NoError(t, err)
		require.Equal(t, 1, output.Count)
		assert.Equal(t, "P1", output.Records[0].PostID)
	})

	t.Run("rejects bad filters", func(t *testing.T) {
		_, _, err := server.handleQueryRecords(ctx, nil, FilterInput{Since: "last week"})

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestServer_handleSummary(t *testing.T) {
	ctx := context.Background()

	t.Run("summarises records", func(t *testing.T) {
		server := newIngestedServer(t)

		_, output, err := server.handleSummary(ctx, nil, FilterInput{})

		require.NoError(t, err)
		assert.Equal(t, 2, output.Posts)
		assert.Equal(t, int64(14), output.Likes)
		assert.Equal(t, int64(3), output.Comments)
		assert.Equal(t, map[string]int{"Image": 1, "Video": 1}, output.ByMedia)
		assert.Equal(t, []string{"#bts (1)", "#launch (1)"}, output.TopHashtags)
		assert.Equal(t, "2024-03-01T10:00:00Z", output.First)
	})

	t.Run("without analytics returns error", func(t *testing.T) {
		ports := newTestPorts(t)
		ports.Analytics = nil
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleSummary(ctx, nil, FilterInput{})

		require.Error(t, err)
	})
}
