package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wavecore/blockseq/pkg/sample"
	"github.com/wavecore/blockseq/pkg/sequence"
)

var exportSampleRate int

var exportCmd = &cobra.Command{
	Use:   "export <sequence.xml> <out.wav>",
	Short: "Render a sequence's samples to a WAV file",
	Long: `Load a sequence's persisted block list, read every sample, and write
a mono WAV file at the given sample rate.

Examples:
  blockseqctl export take3.xml take3.wav
  blockseqctl export take3.xml take3.wav --rate 48000`,
	Args: cobra.ExactArgs(2),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().IntVar(&exportSampleRate, "rate", 44100, "Sample rate to stamp in the WAV header")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	xmlPath, wavPath := args[0], args[1]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	s, err := sequence.NewSequence(store, sample.Float32, sequence.MinAllowedMaxSamples, xmlPath)
	if err != nil {
		return err
	}

	in, err := os.Open(xmlPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", xmlPath, err)
	}
	defer func() { _ = in.Close() }()
	if err := s.ReadXML(ctx, in); err != nil {
		return fmt.Errorf("read %s: %w", xmlPath, err)
	}

	buf, err := s.Get(ctx, 0, s.Len())
	if err != nil {
		return fmt.Errorf("read samples: %w", err)
	}

	out, err := os.Create(wavPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", wavPath, err)
	}
	defer func() { _ = out.Close() }()

	if err := sample.WriteWAV(out, buf, exportSampleRate); err != nil {
		return fmt.Errorf("write %s: %w", wavPath, err)
	}

	fmt.Printf("wrote %d samples to %s\n", s.Len(), wavPath)
	return nil
}
