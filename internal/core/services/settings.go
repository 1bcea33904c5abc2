package services

import (
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/postmetrics/internal/core/domain"
	"github.com/custodia-labs/postmetrics/internal/core/ports/driven"
	"github.com/custodia-labs/postmetrics/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

type settingKind int

const (
	kindString settingKind = iota
	kindInt
	kindAddr
)

// setting describes one known configuration key.
type setting struct {
	kind settingKind

	// min is the smallest accepted value of an int setting.
	min int

	// read returns the key's value from an effective configuration.
	read func(cfg domain.PipelineConfig) string
}

var knownSettings = map[string]setting{
	domain.ConfigDataDir: {
		kind: kindString,
		read: func(cfg domain.PipelineConfig) string { return cfg.DataDir },
	},
	domain.ConfigFreshnessSeconds: {
		kind: kindInt,
		read: func(cfg domain.PipelineConfig) string {
			return strconv.Itoa(int(cfg.FreshnessWindow / time.Second))
		},
	},
	domain.ConfigCacheMaxEntries: {
		kind: kindInt,
		read: func(cfg domain.PipelineConfig) string { return strconv.Itoa(cfg.CacheMaxEntries) },
	},
	domain.ConfigSampleRows: {
		kind: kindInt,
		min:  1,
		read: func(cfg domain.PipelineConfig) string { return strconv.Itoa(cfg.SampleRows) },
	},
	domain.ConfigDefaultAccount: {
		kind: kindString,
		read: func(cfg domain.PipelineConfig) string { return cfg.DefaultAccount },
	},
	domain.ConfigCaptionLimit: {
		kind: kindInt,
		read: func(cfg domain.PipelineConfig) string { return strconv.Itoa(cfg.CaptionLimit) },
	},
	domain.ConfigMaxHashtags: {
		kind: kindInt,
		read: func(cfg domain.PipelineConfig) string { return strconv.Itoa(cfg.MaxHashtags) },
	},
	domain.ConfigServerAddr: {
		kind: kindAddr,
		read: func(cfg domain.PipelineConfig) string { return cfg.ServerAddr },
	},
	domain.ConfigWatchDir: {
		kind: kindString,
		read: func(cfg domain.PipelineConfig) string { return cfg.WatchDir },
	},
}

// SettingsService manages pipeline settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Pipeline returns the defaults overlaid with every value set in the store.
func (s *SettingsService) Pipeline() domain.PipelineConfig {
	cfg := domain.DefaultPipelineConfig()

	cfg.DataDir = s.getString(domain.ConfigDataDir, cfg.DataDir)
	cfg.FreshnessWindow = time.Duration(s.getInt(domain.ConfigFreshnessSeconds, int(cfg.FreshnessWindow/time.Second))) * time.Second
	cfg.CacheMaxEntries = s.getInt(domain.ConfigCacheMaxEntries, cfg.CacheMaxEntries)
	cfg.SampleRows = s.getInt(domain.ConfigSampleRows, cfg.SampleRows)
	cfg.DefaultAccount = s.getString(domain.ConfigDefaultAccount, cfg.DefaultAccount)
	cfg.CaptionLimit = s.getInt(domain.ConfigCaptionLimit, cfg.CaptionLimit)
	cfg.MaxHashtags = s.getInt(domain.ConfigMaxHashtags, cfg.MaxHashtags)
	cfg.ServerAddr = s.getString(domain.ConfigServerAddr, cfg.ServerAddr)
	cfg.WatchDir = s.getString(domain.ConfigWatchDir, cfg.WatchDir)

	return cfg
}

// Get returns the effective value of key.
func (s *SettingsService) Get(key string) (string, error) {
	def, ok := knownSettings[key]
	if !ok {
		return "", fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	return def.read(s.Pipeline()), nil
}

// Set validates value for key and persists it.
func (s *SettingsService) Set(key, value string) error {
	def, ok := knownSettings[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	value = strings.TrimSpace(value)

	switch def.kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, key)
		}
		if n < def.min {
			return fmt.Errorf("%w: %s must be at least %d", domain.ErrInvalidInput, key, def.min)
		}
		if err := s.configStore.Set(key, n); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
		return nil
	case kindAddr:
		if _, _, err := net.SplitHostPort(value); err != nil {
			return fmt.Errorf("%w: %s must be host:port", domain.ErrInvalidInput, key)
		}
	}

	if err := s.configStore.Set(key, value); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys lists the known configuration keys, sorted.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(knownSettings))
	for k := range knownSettings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Helper methods for reading config with defaults. A key that is present
// wins even when its value is zero.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	val := s.configStore.GetInt(key)
	if def := knownSettings[key]; val < def.min {
		return defaultVal
	}
	return val
}
