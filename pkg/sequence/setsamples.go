package sequence

import (
	"context"
	"fmt"
	"time"

	"github.com/wavecore/blockseq/pkg/blockstore"
	"github.com/wavecore/blockseq/pkg/sample"
)

// SetSamples implements §4.3.3: overwrite [start, start+length) with buf's
// samples (converted to the sequence's format if buf is at a different
// one), or with silence if buf is nil. Every block touched by the range is
// replaced: a block fully covered by the overwrite becomes a new simple
// block (or, for silence, a zero-storage silent block); a block only
// partially covered is read whole, patched in a scratch buffer, and
// rewritten. Pattern B throughout, since the set of touched blocks can
// span an arbitrary boundary.
func (s *Sequence) SetSamples(ctx context.Context, buf *sample.Buffer, start, length int64) error {
	startT := time.Now()
	ctx = s.logContext(ctx, "SetSamples")
	err := s.setSamples(ctx, buf, start, length)
	s.logEdit(ctx, "SetSamples", startT, err)
	return err
}

func (s *Sequence) setSamples(ctx context.Context, buf *sample.Buffer, start, length int64) error {
	if length < 0 {
		return fmt.Errorf("%w: SetSamples: negative length %d", ErrInvalidRange, length)
	}
	if length == 0 {
		return nil
	}

	blocks, total := s.snapshot()
	if start < 0 || start+length > total {
		return fmt.Errorf("%w: SetSamples range [%d, %d) outside [0, %d]", ErrInvalidRange, start, start+length, total)
	}

	var converted sample.Buffer
	if buf != nil {
		if int64(buf.Len()) != length {
			return fmt.Errorf("%w: SetSamples: buffer has %d samples, want %d", ErrInconsistency, buf.Len(), length)
		}
		var err error
		converted, err = sample.Convert(s.format, *buf)
		if err != nil {
			return fmt.Errorf("%w: SetSamples: %v", ErrInconsistency, err)
		}
	}

	b0 := findBlock(blocks, start)
	b1 := findBlock(blocks, start+length-1)

	newBlocks := blocks[:b0].clone()
	written := int64(0)

	for i := b0; i <= b1; i++ {
		blk := blocks[i]
		overlapStart := blk.Start
		if start > overlapStart {
			overlapStart = start
		}
		overlapEnd := blk.End()
		if start+length < overlapEnd {
			overlapEnd = start + length
		}
		overlapLen := overlapEnd - overlapStart
		localOff := overlapStart - blk.Start

		var h *blockstore.Handle
		fullOverlap := localOff == 0 && overlapLen == blk.Len()

		switch {
		case fullOverlap && buf == nil:
			h = s.store.NewSilentBlock(blk.Len(), s.format)
		case fullOverlap:
			piece := converted.Slice(int(written), int(written+overlapLen))
			var err error
			h, err = s.store.NewSimpleBlock(ctx, s.format, piece)
			if err != nil {
				return fmt.Errorf("%w: SetSamples: %v", ErrIO, err)
			}
		default:
			scratch := sample.NewBuffer(s.format, int(blk.Len()))
			n, err := s.store.ReadData(ctx, blk.Handle, scratch, 0, blk.Len(), true)
			if err != nil || int64(n) != blk.Len() {
				return fmt.Errorf("%w: SetSamples: read block %d: %v", ErrIO, i, err)
			}
			patch := scratch.Slice(int(localOff), int(localOff+overlapLen))
			if buf == nil {
				for j := range patch.Data {
					patch.Data[j] = 0
				}
			} else {
				piece := converted.Slice(int(written), int(written+overlapLen))
				copy(patch.Data, piece.Data)
			}
			h, err = s.store.NewSimpleBlock(ctx, s.format, scratch)
			if err != nil {
				return fmt.Errorf("%w: SetSamples: %v", ErrIO, err)
			}
		}

		newBlocks = append(newBlocks, BlockRef{Start: blk.Start, Handle: h})
		written += overlapLen
	}

	newBlocks = append(newBlocks, blocks[b1+1:]...)
	return s.commitIfConsistent(newBlocks, total)
}
