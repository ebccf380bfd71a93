package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"github.com/wavecore/blockseq/internal/bytesize"
	"gopkg.in/yaml.v3"
)

// Config represents the blockseqctl process configuration.
//
// This structure captures the static configuration of the engine:
//   - Logging configuration
//   - Block size limits that govern Blockify/Paste/Delete/Append behavior
//   - The backing block store (memory, filesystem, or S3)
//   - Metrics settings
//
// Configuration sources (in order of precedence):
//  1. Environment variables (BLOCKSEQ_*) (highest priority)
//  2. Configuration file (YAML)
//  3. Default values (lowest priority)
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Sequence controls block sizing limits shared by every sequence opened
	// by this process, per the max-disk-block-size setting.
	Sequence SequenceConfig `mapstructure:"sequence" yaml:"sequence"`

	// Store configures the block store backend
	Store StoreConfig `mapstructure:"store" yaml:"store"`

	// Metrics contains the metrics settings (see MetricsConfig)
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// SequenceConfig controls the block sizing limits used to derive
// MaxSamples and MinSamples for every sequence opened by this process.
type SequenceConfig struct {
	// MaxDiskBlockSize is the target size, in bytes, of a full-size block on
	// disk. MaxSamples is derived as MaxDiskBlockSize / sampleSize, and
	// MinSamples as MaxSamples / 2.
	// Default: 1MiB
	MaxDiskBlockSize bytesize.ByteSize `mapstructure:"max_disk_block_size" yaml:"max_disk_block_size,omitempty"`
}

// StoreConfig configures the backing block store.
type StoreConfig struct {
	// Type selects the store backend: memory, filesystem, s3
	Type string `mapstructure:"type" validate:"required,oneof=memory filesystem s3" yaml:"type"`

	// Path is the root directory for the filesystem backend
	Path string `mapstructure:"path" yaml:"path,omitempty"`

	// S3 configures the S3-backed block store
	S3 S3Config `mapstructure:"s3" yaml:"s3,omitempty"`
}

// S3Config configures an S3-backed block store.
type S3Config struct {
	Bucket         string `mapstructure:"bucket" yaml:"bucket,omitempty"`
	Region         string `mapstructure:"region" yaml:"region,omitempty"`
	Endpoint       string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	KeyPrefix      string `mapstructure:"key_prefix" yaml:"key_prefix,omitempty"`
	ForcePathStyle bool   `mapstructure:"force_path_style" yaml:"force_path_style,omitempty"`
	MaxRetries     int    `mapstructure:"max_retries" yaml:"max_retries,omitempty"`
}

// MetricsConfig holds the metrics settings. They are loaded and validated
// but not acted on: blockseqctl starts no metrics HTTP server, and metric
// collection is switched on only by metrics.InitRegistry, which nothing in
// blockseqctl calls.
type MetricsConfig struct {
	// Enabled is the configured metrics on/off setting; nothing reads it
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port for the metrics endpoint
	// Default: 9090
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (BLOCKSEQ_*)
//  2. Configuration file
//  3. Default values
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	if !configFileFound {
		cfg := GetDefaultConfig()
		return cfg, nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration with helpful error messages.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  blockseqctl init\n\n"+
				"Or specify a custom config file:\n"+
				"  blockseqctl <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s", configPath)
		}
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to the specified file path in YAML format.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the configuration against its struct tags using
// go-playground/validator.
func Validate(cfg *Config) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return err
	}
	if cfg.Store.Type == "filesystem" && cfg.Store.Path == "" {
		return fmt.Errorf("store.path is required when store.type is filesystem")
	}
	if cfg.Store.Type == "s3" && cfg.Store.S3.Bucket == "" {
		return fmt.Errorf("store.s3.bucket is required when store.type is s3")
	}
	return nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use the BLOCKSEQ_ prefix and underscores
	// Example: BLOCKSEQ_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("BLOCKSEQ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		configDir := getConfigDir()
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error).
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	return true, nil
}

// configDecodeHooks returns a combined decode hook for custom types:
// ByteSize and time.Duration.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
	)
}

func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the configuration directory path.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "blockseq")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "blockseq")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	path := GetDefaultConfigPath()
	_, err := os.Stat(path)
	return err == nil
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() string {
	return getConfigDir()
}
