// Package settings loads application settings from an optional YAML file
// overlaid on compiled defaults. Reads are permissive: a missing or
// malformed file, or a field of the wrong type, falls back to the default
// instead of failing startup.
package settings

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Settings holds the tunable configuration of the application.
type Settings struct {
	ListenAddr            string  `yaml:"listen_addr"`
	LogLevel              string  `yaml:"log_level"`
	LogFormat             string  `yaml:"log_format"`
	ChunkRowLimit         int     `yaml:"chunk_row_limit"`
	PreviewRows           int     `yaml:"preview_rows"`
	DefaultIngestTimezone string  `yaml:"default_ingest_timezone"`
	CoercionThreshold     float64 `yaml:"temporal_coercion_threshold"`
	CategoricalLimit      int     `yaml:"categorical_limit"`
	EnableResultCache     bool    `yaml:"enable_result_cache"`
	CacheSizeLimitMB      int     `yaml:"cache_size_limit_mb"`
}

var defaultSettings = Settings{
	ListenAddr:            ":8080",
	LogLevel:              "info",
	LogFormat:             "text",
	ChunkRowLimit:         500_000,
	PreviewRows:           100,
	DefaultIngestTimezone: "UTC",
	CoercionThreshold:     0.8,
	CategoricalLimit:      100,
	EnableResultCache:     true,
	CacheSizeLimitMB:      100,
}

// Defaults returns the compiled-in defaults.
func Defaults() Settings {
	return defaultSettings
}

// Load returns the effective settings: defaults overlaid with whatever the
// YAML file at path provides. If anything goes wrong, it returns defaults.
func Load(path string) Settings {
	settings := defaultSettings
	if path == "" {
		return settings
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return settings
	}

	var m map[string]any
	if err := yaml.Unmarshal(b, &m); err != nil {
		return settings
	}
	if v, ok := m["listen_addr"].(string); ok && v != "" {
		settings.ListenAddr = v
	}
	if v, ok := m["log_level"].(string); ok && v != "" {
		settings.LogLevel = v
	}
	if v, ok := m["log_format"].(string); ok && v != "" {
		settings.LogFormat = v
	}
	if v, ok := m["chunk_row_limit"].(int); ok && v > 0 {
		settings.ChunkRowLimit = v
	}
	if v, ok := m["preview_rows"].(int); ok && v > 0 {
		settings.PreviewRows = v
	}
	if v, ok := m["default_ingest_timezone"].(string); ok && v != "" {
		settings.DefaultIngestTimezone = v
	}
	if v, ok := m["temporal_coercion_threshold"].(float64); ok && v > 0 && v < 1 {
		settings.CoercionThreshold = v
	}
	if v, ok := m["categorical_limit"].(int); ok && v > 0 {
		settings.CategoricalLimit = v
	}
	if v, ok := m["enable_result_cache"].(bool); ok {
		settings.EnableResultCache = v
	}
	if v, ok := m["cache_size_limit_mb"].(int); ok && v > 0 {
		settings.CacheSizeLimitMB = v
	}
	return settings
}
