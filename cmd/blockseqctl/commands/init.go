package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wavecore/blockseq/internal/config"
)

var initStoreType string
var initStorePath string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Write a default configuration file to the standard location (or the
path given via --config), so subsequent commands don't need to specify
store settings on every invocation.

Examples:
  blockseqctl init
  blockseqctl init --store-type filesystem --store-path /var/lib/blockseq`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initStoreType, "store-type", "memory", "Block store backend (memory|filesystem|s3)")
	initCmd.Flags().StringVar(&initStorePath, "store-path", "", "Root directory for the filesystem backend")
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg := config.GetDefaultConfig()
	cfg.Store.Type = initStoreType
	cfg.Store.Path = initStorePath

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("default configuration is invalid: %w", err)
	}

	path := Flags.ConfigPath
	if path == "" {
		path = config.GetDefaultConfigPath()
	}
	if err := config.SaveConfig(cfg, path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Printf("wrote configuration to %s\n", path)
	return nil
}
