package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/wavecore/blockseq/pkg/sequence"
)

// parseRangeArgs parses two decimal sample-count arguments, as used by the
// edit subcommands' <start> <length> / <at> <length> positional pairs.
func parseRangeArgs(a, b string) (int64, int64, error) {
	x, err := strconv.ParseInt(a, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid sample offset %q: %w", a, err)
	}
	y, err := strconv.ParseInt(b, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid sample count %q: %w", b, err)
	}
	return x, y, nil
}

// writeSequenceXML writes s's block list to a temporary file in the same
// directory as xmlPath and renames it into place, so a crash or write
// failure midway never leaves xmlPath holding a half-written document.
func writeSequenceXML(ctx context.Context, s *sequence.Sequence, xmlPath string) error {
	dir := filepath.Dir(xmlPath)
	tmp, err := os.CreateTemp(dir, filepath.Base(xmlPath)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", xmlPath, err)
	}
	tmpPath := tmp.Name()

	if err := s.WriteXML(ctx, tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", xmlPath, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, xmlPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename %s into place: %w", tmpPath, err)
	}
	return nil
}
