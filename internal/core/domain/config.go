package domain

import "time"

// Configuration keys understood by the pipeline.
const (
	ConfigDataDir          = "storage.data_dir"
	ConfigFreshnessSeconds = "cache.freshness_seconds"
	ConfigCacheMaxEntries  = "cache.max_entries"
	ConfigSampleRows       = "ingest.sample_rows"
	ConfigDefaultAccount   = "ingest.default_account"
	ConfigCaptionLimit     = "ingest.caption_limit"
	ConfigMaxHashtags      = "ingest.max_hashtags"
	ConfigServerAddr       = "server.addr"
	ConfigWatchDir         = "watch.dir"
)

// DefaultAccountID is used when no account can be inferred.
const DefaultAccountID = "default"

// PipelineConfig holds the tunables of the ingestion pipeline.
type PipelineConfig struct {
	// DataDir is where the SQLite database lives. Empty uses the default.
	DataDir string

	// FreshnessWindow is the maximum age of a cached query result.
	FreshnessWindow time.Duration

	// CacheMaxEntries caps the number of cached query keys.
	CacheMaxEntries int

	// SampleRows is how many data rows the detector sees.
	SampleRows int

	// DefaultAccount applies when neither row nor file name names an account.
	DefaultAccount string

	// CaptionLimit caps stored captions, in runes.
	CaptionLimit int

	// MaxHashtags caps hashtags kept per post.
	MaxHashtags int

	// ServerAddr is the HTTP API listen address.
	ServerAddr string

	// WatchDir is the directory the watch command ingests from.
	WatchDir string
}

// DefaultPipelineConfig returns the default configuration.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		FreshnessWindow: 300 * time.Second,
		CacheMaxEntries: 64,
		SampleRows:      5,
		CaptionLimit:    200,
		MaxHashtags:     10,
		ServerAddr:      "127.0.0.1:8787",
	}
}
