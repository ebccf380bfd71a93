package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wavecore/blockseq/internal/bytesize"
	"github.com/wavecore/blockseq/pkg/sample"
	"github.com/wavecore/blockseq/pkg/sequence"
)

var importFormat string
var importBlockSize string

var importCmd = &cobra.Command{
	Use:   "import <in.wav> <sequence.xml>",
	Short: "Create a new sequence from a WAV file",
	Long: `Read a WAV file, split it into blocks sized per the configured (or
flag-overridden) disk block size, and write the resulting block list out as
a persisted sequence.

Examples:
  blockseqctl import take3.wav take3.xml
  blockseqctl import take3.wav take3.xml --format int16 --block-size 512KiB`,
	Args: cobra.ExactArgs(2),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importFormat, "format", "float32", "Sample format to store (int16|int24|float32)")
	importCmd.Flags().StringVar(&importBlockSize, "block-size", "", "Target disk block size (e.g. 512KiB, 1MiB); defaults to the configured sequence.max_disk_block_size")
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	wavPath, xmlPath := args[0], args[1]

	format, err := sample.ParseFormat(importFormat)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	in, err := os.Open(wavPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", wavPath, err)
	}
	defer func() { _ = in.Close() }()

	buf, _, err := sample.ReadWAV(in)
	if err != nil {
		return fmt.Errorf("read %s: %w", wavPath, err)
	}
	if buf.Format != format {
		buf, err = sample.Convert(format, buf)
		if err != nil {
			return fmt.Errorf("convert to %s: %w", format, err)
		}
	}

	blockSize := cfg.Sequence.MaxDiskBlockSize
	if importBlockSize != "" {
		blockSize, err = bytesize.ParseByteSize(importBlockSize)
		if err != nil {
			return fmt.Errorf("invalid --block-size: %w", err)
		}
	}
	maxSamples := sequence.DeriveMaxSamples(blockSize.Int64(), format)
	s, err := sequence.NewSequence(store, format, maxSamples, xmlPath)
	if err != nil {
		return err
	}
	if err := s.Append(ctx, buf); err != nil {
		return fmt.Errorf("append samples: %w", err)
	}

	out, err := os.Create(xmlPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", xmlPath, err)
	}
	defer func() { _ = out.Close() }()

	if err := s.WriteXML(ctx, out); err != nil {
		return fmt.Errorf("write %s: %w", xmlPath, err)
	}

	fmt.Printf("imported %d samples into %d blocks at %s\n", s.Len(), s.BlockCount(), xmlPath)
	return nil
}
