package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/postmetrics/internal/adapters/driven/storage/sqlite"
)

// resetWiring clears services wired by wireServices.
func resetWiring(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		closeServices()
		ingestService = nil
		queryService = nil
		analyticsService = nil
		settingsService = nil
		metricsCollector = nil
		memoryStore = false
	})
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, flag)
	assert.Equal(t, "v", flag.Shorthand)
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("memory"))
}

func TestRootCmd_Subcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"ingest", "query", "summary", "status", "watch", "serve", "mcp", "tui", "config", "version"} {
		assert.True(t, names[want], want)
	}
}

func TestHomeDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(HomeEnv, dir)

	got, err := homeDir()

	require.NoError(t, err)
	assert.Equal(t, dir, got)
}

func TestHomeDir_Default(t *testing.T) {
	t.Setenv(HomeEnv, "")

	got, err := homeDir()

	require.NoError(t, err)
	assert.Equal(t, ".postmetrics", filepath.Base(got))
}

func TestWireServices_SQLite(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(HomeEnv, dir)
	resetWiring(t)

	require.NoError(t, wireServices())

	assert.NotNil(t, ingestService)
	assert.NotNil(t, queryService)
	assert.NotNil(t, analyticsService)
	assert.NotNil(t, settingsService)
	assert.NotNil(t, metricsCollector)
	assert.NotNil(t, closeStore)
	assert.FileExists(t, filepath.Join(dir, "data", sqlite.DatabaseFile))
}

func TestWireServices_DataDirSetting(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "elsewhere")
	t.Setenv(HomeEnv, dir)
	resetWiring(t)
	config := "[storage]\ndata_dir = \"" + filepath.ToSlash(dataDir) + "\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(config), 0600))

	require.NoError(t, wireServices())

	assert.FileExists(t, filepath.Join(dataDir, sqlite.DatabaseFile))
}

func TestWireServices_Memory(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(HomeEnv, dir)
	resetWiring(t)
	memoryStore = true

	require.NoError(t, wireServices())

	assert.Nil(t, closeStore)
	assert.NoDirExists(t, filepath.Join(dir, "data"))
}

func TestExecute_MemoryStoreEndToEnd(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(HomeEnv, dir)
	resetWiring(t)
	t.Cleanup(func() { resetFlags(rootCmd) })
	path := writeFile(t, dir, "brand.csv", testCSV)

	out, err := execute(t, "--memory", "ingest", path)

	require.NoError(t, err)
	assert.Contains(t, out, "2 inserted")
	assert.NotNil(t, queryService)
}
