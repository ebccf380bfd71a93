// Command blockseqctl is an operator CLI for inspecting and editing
// block-structured sample sequences against a configured block store.
package main

import (
	"fmt"
	"os"

	"github.com/wavecore/blockseq/cmd/blockseqctl/commands"
)

// Build-time variables injected via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
