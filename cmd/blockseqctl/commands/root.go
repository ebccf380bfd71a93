// Package commands implements the blockseqctl CLI commands.
package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/wavecore/blockseq/internal/config"
	"github.com/wavecore/blockseq/internal/logger"
)

// Version information injected at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Flags holds the values of the root command's persistent flags, synced in
// PersistentPreRun so subcommands can read them without re-parsing.
var Flags struct {
	ConfigPath string
	Output     string
	Verbose    bool
}

var rootCmd = &cobra.Command{
	Use:   "blockseqctl",
	Short: "Inspect and edit block-structured sample sequences",
	Long: `blockseqctl is the command-line operator tool for block-structured
sample sequence storage: it loads a sequence's persisted block list, reads
and writes its samples, and reports on the block store backing it.

Use "blockseqctl [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		Flags.ConfigPath, _ = cmd.Flags().GetString("config")
		Flags.Output, _ = cmd.Flags().GetString("output")
		Flags.Verbose, _ = cmd.Flags().GetBool("verbose")

		if Flags.Verbose {
			logger.SetLevel("DEBUG")
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: "+config.GetDefaultConfigPath()+")")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "Output format (table|json|yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose (debug) logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(completionCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig loads the process configuration from the --config flag, or the
// default location, applying defaults rather than requiring the file to
// already exist (unlike a long-running server, a one-shot CLI invocation
// should work against an unconfigured memory store out of the box).
func loadConfig() (*config.Config, error) {
	path := Flags.ConfigPath
	if path == "" && !config.DefaultConfigExists() {
		return config.GetDefaultConfig(), nil
	}
	return config.Load(path)
}

// PrintErr prints an error message to stderr.
func PrintErr(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
}

// Exit prints an error and exits with code 1.
func Exit(format string, args ...any) {
	PrintErr(format, args...)
	os.Exit(1)
}
