package sequence

import (
	"context"
	"fmt"

	"github.com/wavecore/blockseq/internal/metrics"
)

// InsertSilence implements §4.3.4: build a throwaway sequence of silent
// blocks (zero-storage, so building it costs nothing on disk) and Paste it
// in. Reusing Paste means InsertSilence inherits all of Paste's strong
// guarantee and fast-path selection for free; the only disk cost is
// whatever boundary merging Paste itself performs at the insertion point.
func (s *Sequence) InsertSilence(ctx context.Context, at, length int64) error {
	if length < 0 {
		return fmt.Errorf("%w: InsertSilence: negative length %d", ErrInvalidRange, length)
	}
	if length == 0 {
		return nil
	}

	silence := s.silenceSequence(length)
	return s.Paste(ctx, at, silence)
}

// silenceSequence builds an in-memory-only sequence of silent blocks, each
// idealBlockSize (maxSamples) samples long except the last, which may be
// shorter. It is never committed to s's store directly and exists solely
// as Paste's source argument.
func (s *Sequence) silenceSequence(length int64) *Sequence {
	out := &Sequence{
		id:         s.id + "-silence",
		format:     s.format,
		maxSamples: s.maxSamples,
		minSamples: s.minSamples,
		store:      s.store,
		metrics:    metrics.NewSequenceMetrics(),
	}

	var blocks BlockList
	pos := int64(0)
	remaining := length
	for remaining > 0 {
		n := s.maxSamples
		if n > remaining {
			n = remaining
		}
		h := s.store.NewSilentBlock(n, s.format)
		blocks = append(blocks, BlockRef{Start: pos, Handle: h})
		pos += n
		remaining -= n
	}

	out.blocks = blocks
	out.numSamples = length
	return out
}
