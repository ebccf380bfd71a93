package config

import (
	"strings"
	"time"

	"github.com/wavecore/blockseq/internal/bytesize"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applySequenceDefaults(&cfg.Sequence)
	applyStoreDefaults(&cfg.Store)
	applyMetricsDefaults(&cfg.Metrics)
	applyShutdownTimeoutDefaults(cfg)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applySequenceDefaults sets the block sizing defaults.
// 1MiB mirrors the historical default disk block size for block-structured
// sample storage.
func applySequenceDefaults(cfg *SequenceConfig) {
	if cfg.MaxDiskBlockSize == 0 {
		cfg.MaxDiskBlockSize = bytesize.MiB
	}
}

// applyStoreDefaults sets block store defaults.
func applyStoreDefaults(cfg *StoreConfig) {
	if cfg.Type == "" {
		cfg.Type = "memory"
	}
	if cfg.Type == "s3" && cfg.S3.MaxRetries == 0 {
		cfg.S3.MaxRetries = 3
	}
}

// applyMetricsDefaults sets metrics defaults.
func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

// applyShutdownTimeoutDefaults sets shutdown timeout defaults.
func applyShutdownTimeoutDefaults(cfg *Config) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
func GetDefaultConfig() *Config {
	cfg := &Config{
		Logging: LoggingConfig{},
		Sequence: SequenceConfig{
			MaxDiskBlockSize: bytesize.MiB,
		},
		Store: StoreConfig{
			Type: "memory",
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
