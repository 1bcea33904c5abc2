package driving

import "github.com/custodia-labs/postmetrics/internal/core/domain"

// SettingsService manages pipeline settings.
type SettingsService interface {
	// Pipeline returns the effective configuration, defaults applied.
	Pipeline() domain.PipelineConfig

	// Get returns the effective value of a known key as text.
	Get(key string) (string, error)

	// Set validates and persists a known key.
	Set(key, value string) error

	// Keys lists the known configuration keys.
	Keys() []string
}
