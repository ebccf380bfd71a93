package sequence

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/wavecore/blockseq/pkg/blockstore"
	"github.com/wavecore/blockseq/pkg/sample"
)

// Append implements §4.3.5: optimised for streaming record/generate. If the
// current last block is under minSamples, it is enlarged in place (read,
// concatenate with as much of buf as fits within maxSamples, replace) before
// any remaining input is split into idealBlockSize pieces. The commit checks
// only the suffix starting at the first block Append touched, keeping
// amortised cost O(samples appended) rather than O(n) per call.
func (s *Sequence) Append(ctx context.Context, buf sample.Buffer) error {
	start := time.Now()
	ctx = s.logContext(ctx, "Append")
	err := s.append(ctx, buf)
	s.logEdit(ctx, "Append", start, err)
	return err
}

func (s *Sequence) append(ctx context.Context, buf sample.Buffer) error {
	if buf.Len() == 0 {
		return nil
	}

	converted, err := sample.Convert(s.format, buf)
	if err != nil {
		return fmt.Errorf("%w: Append: %v", ErrInconsistency, err)
	}

	blocks, total := s.snapshot()
	if int64(converted.Len()) > math.MaxInt64-total {
		return fmt.Errorf("%w: %w: Append(%d) would overflow sample count", ErrInconsistency, ErrOverflow, converted.Len())
	}
	newTotal := total + int64(converted.Len())

	newBlocks := blocks.clone()
	from := len(blocks)
	var bufOffset int64
	pos := total

	if len(newBlocks) > 0 {
		last := newBlocks[len(newBlocks)-1]
		if last.Len() < s.minSamples {
			room := s.maxSamples - last.Len()
			take := int64(converted.Len())
			if take > room {
				take = room
			}
			if take > 0 {
				merged := sample.NewBuffer(s.format, int(last.Len()+take))
				n, err := s.store.ReadData(ctx, last.Handle, merged.Slice(0, int(last.Len())), 0, last.Len(), true)
				if err != nil || int64(n) != last.Len() {
					return fmt.Errorf("%w: Append: read last block: %v", ErrIO, err)
				}
				copy(merged.Slice(int(last.Len()), int(last.Len()+take)).Data, converted.Slice(0, int(take)).Data)

				h, err := s.store.NewSimpleBlock(ctx, s.format, merged)
				if err != nil {
					return fmt.Errorf("%w: Append: %v", ErrIO, err)
				}
				newBlocks[len(newBlocks)-1] = BlockRef{Start: last.Start, Handle: h}
				from = len(newBlocks) - 1
				bufOffset = take
				pos = total + take
			}
		}
	}

	remaining := converted.Slice(int(bufOffset), converted.Len())
	newBlocks, err = blockifyInto(ctx, s.store, s.format, s.maxSamples, newBlocks, pos, remaining)
	if err != nil {
		return err
	}

	return s.appendBlocksIfConsistent(newBlocks, int64(from), newTotal)
}

// appendHandle implements the shared tail of §4.3.6: h is fully constructed
// (and, for AppendCoded, its decode scheduled) before it is ever linked into
// the block list, so a failure building h leaves s untouched; appending
// itself only ever adds one block, so the append-consistency check starting
// at the old length is always O(1) extra work.
func (s *Sequence) appendHandle(ctx context.Context, h *blockstore.Handle, length int64) error {
	if length <= 0 {
		return fmt.Errorf("%w: Append: non-positive block length %d", ErrInvalidRange, length)
	}

	blocks, total := s.snapshot()
	if length > math.MaxInt64-total {
		return fmt.Errorf("%w: %w: Append(%d) would overflow sample count", ErrInconsistency, ErrOverflow, length)
	}
	newTotal := total + length

	newBlocks := append(blocks.clone(), BlockRef{Start: total, Handle: h})
	return s.appendBlocksIfConsistent(newBlocks, int64(len(blocks)), newTotal)
}

// AppendAlias implements §4.3.6: append a single block referencing length
// samples of channel starting at offset within an externally-owned file at
// path, without copying any samples.
func (s *Sequence) AppendAlias(ctx context.Context, path string, offset, length int64, channel int) error {
	start := time.Now()
	ctx = s.logContext(ctx, "AppendAlias")
	h := s.store.NewAliasBlock(path, offset, length, channel, s.format)
	err := s.appendHandle(ctx, h, length)
	s.logEdit(ctx, "AppendAlias", start, err)
	return err
}

// AppendCoded implements §4.3.6's decode-type variant: append a single
// block whose samples are produced by background decoding of a compressed
// source file at path.
func (s *Sequence) AppendCoded(ctx context.Context, path string, length int64) error {
	start := time.Now()
	ctx = s.logContext(ctx, "AppendCoded")
	h, err := s.store.NewOnDemandDecodeBlock(ctx, path, length, s.format)
	if err != nil {
		err = fmt.Errorf("%w: AppendCoded: %v", ErrIO, err)
		s.logEdit(ctx, "AppendCoded", start, err)
		return err
	}
	err = s.appendHandle(ctx, h, length)
	s.logEdit(ctx, "AppendCoded", start, err)
	return err
}
