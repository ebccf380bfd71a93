package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_DefaultConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: "INFO"

sequence:
  max_disk_block_size: 2Mi

store:
  type: memory

metrics:
  enabled: true
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Logging.Format != "text" {
		t.Errorf("expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("expected default output 'stdout', got %q", cfg.Logging.Output)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("expected default shutdown_timeout 30s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.Sequence.MaxDiskBlockSize.Uint64() != 2*1024*1024 {
		t.Errorf("expected max_disk_block_size 2MiB, got %v", cfg.Sequence.MaxDiskBlockSize)
	}
	if cfg.Metrics.Port != 9090 {
		t.Errorf("expected default metrics port 9090, got %d", cfg.Metrics.Port)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	nonExistentPath := filepath.Join(tmpDir, "nonexistent.yaml")

	cfg, err := Load(nonExistentPath)
	if err != nil {
		t.Fatalf("expected no error when loading default config, got: %v", err)
	}

	if cfg == nil {
		t.Fatal("expected default config to be returned")
	}

	if cfg.Sequence.MaxDiskBlockSize.Uint64() != 1024*1024 {
		t.Errorf("expected default max_disk_block_size 1MiB, got %v", cfg.Sequence.MaxDiskBlockSize)
	}
	if cfg.Store.Type != "memory" {
		t.Errorf("expected default store type 'memory', got %q", cfg.Store.Type)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	configContent := `
logging:
  level: INFO
  invalid yaml here [[[
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Fatal("expected error loading invalid YAML config")
	}
}

func TestValidate_RejectsMissingFilesystemPath(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Store.Type = "filesystem"
	cfg.Store.Path = ""

	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for filesystem store without a path")
	}
}

func TestValidate_RejectsMissingS3Bucket(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Store.Type = "s3"
	cfg.Store.S3.Bucket = ""

	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for s3 store without a bucket")
	}
}

func TestSaveConfig_RoundTrips(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "config.yaml")

	cfg := GetDefaultConfig()
	cfg.Store.Type = "filesystem"
	cfg.Store.Path = tmpDir

	if err := SaveConfig(cfg, configPath); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to reload saved config: %v", err)
	}

	if loaded.Store.Path != tmpDir {
		t.Errorf("expected store path %q, got %q", tmpDir, loaded.Store.Path)
	}
}
