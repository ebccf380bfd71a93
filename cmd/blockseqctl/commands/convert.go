package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wavecore/blockseq/pkg/sample"
)

var convertCmd = &cobra.Command{
	Use:   "convert <sequence.xml> <format>",
	Short: "Convert a sequence's sample format in place",
	Long: `Load a sequence, convert every non-silent block to the target sample
format (int16|int24|float32), and write the result back to the same path.

Examples:
  blockseqctl convert take3.xml int16`,
	Args: cobra.ExactArgs(2),
	RunE: runConvert,
}

func runConvert(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	xmlPath := args[0]

	format, err := sample.ParseFormat(args[1])
	if err != nil {
		return err
	}

	s, closeStore, err := loadSequenceXML(cmd, xmlPath)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := s.ConvertToFormat(ctx, format); err != nil {
		return fmt.Errorf("convert: %w", err)
	}

	if err := writeSequenceXML(ctx, s, xmlPath); err != nil {
		return err
	}
	fmt.Printf("converted %s to %s (%d blocks)\n", xmlPath, format, s.BlockCount())
	return nil
}
