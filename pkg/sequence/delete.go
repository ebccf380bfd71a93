package sequence

import (
	"context"
	"fmt"
	"time"

	"github.com/wavecore/blockseq/internal/metrics"
	"github.com/wavecore/blockseq/pkg/sample"
)

// Delete implements §4.3.2: remove [start, start+length) from the
// sequence, taking the single-block fast path when the deletion falls
// entirely within one block and leaves it no shorter than minSamples,
// otherwise rebuilding the affected region (Pattern B), merging an
// undersized boundary remnant into its neighbour rather than leaving a
// tiny block behind.
func (s *Sequence) Delete(ctx context.Context, start, length int64) error {
	startT := time.Now()
	ctx = s.logContext(ctx, "Delete")
	err := s.delete(ctx, start, length)
	s.logEdit(ctx, "Delete", startT, err)
	return err
}

func (s *Sequence) delete(ctx context.Context, start, length int64) error {
	if length < 0 {
		return fmt.Errorf("%w: Delete: negative length %d", ErrInvalidRange, length)
	}
	if length == 0 {
		return nil
	}

	blocks, total := s.snapshot()
	if start < 0 || start+length > total {
		return fmt.Errorf("%w: Delete range [%d, %d) outside [0, %d]", ErrInvalidRange, start, start+length, total)
	}

	b0 := findBlock(blocks, start)
	b1 := findBlock(blocks, start+length-1)
	newTotal := total - length

	if b0 == b1 {
		remaining := blocks[b0].Len() - length
		if remaining >= s.minSamples {
			return s.deleteSingleBlock(ctx, blocks, b0, start, length, newTotal)
		}
	}
	return s.deleteGeneral(ctx, blocks, b0, b1, start, length, newTotal)
}

// deleteSingleBlock handles the fast path: the kept prefix and suffix of
// the one affected block are read into a single buffer, written as one new
// file, and swapped in (Pattern A); every later block's Start shifts by
// -length.
func (s *Sequence) deleteSingleBlock(ctx context.Context, blocks BlockList, idx int, start, length, newTotal int64) error {
	blk := blocks[idx]
	prefixLen := start - blk.Start
	suffixLen := blk.Len() - length - prefixLen

	buf := sample.NewBuffer(s.format, int(blk.Len()-length))
	if prefixLen > 0 {
		n, err := s.store.ReadData(ctx, blk.Handle, buf.Slice(0, int(prefixLen)), 0, prefixLen, true)
		if err != nil || int64(n) != prefixLen {
			return fmt.Errorf("%w: Delete: read block prefix: %v", ErrIO, err)
		}
	}
	if suffixLen > 0 {
		n, err := s.store.ReadData(ctx, blk.Handle, buf.Slice(int(prefixLen), int(prefixLen+suffixLen)), prefixLen+length, suffixLen, true)
		if err != nil || int64(n) != suffixLen {
			return fmt.Errorf("%w: Delete: read block suffix: %v", ErrIO, err)
		}
	}

	newHandle, err := s.store.NewSimpleBlock(ctx, s.format, buf)
	if err != nil {
		return fmt.Errorf("%w: Delete: %v", ErrIO, err)
	}

	newBlocks := blocks.clone()
	newBlocks[idx] = BlockRef{Start: blk.Start, Handle: newHandle}
	for i := idx + 1; i < len(newBlocks); i++ {
		newBlocks[i].Start -= length
	}

	s.mu.Lock()
	s.blocks = newBlocks
	s.numSamples = newTotal
	s.mu.Unlock()
	metrics.RecordBlockCount(s.metrics, s.id, len(newBlocks))
	return nil
}

// deleteGeneral implements Pattern B for deletions that span block
// boundaries or that would leave a too-short remnant on a boundary block.
// blocks[0:b0) are kept by reference untouched; the pre-buffer (surviving
// prefix of block b0) and post-buffer (surviving suffix of block b1) are
// each either emitted as their own new block or, if undersized and a
// neighbour exists to absorb them, combined with that neighbour and
// reblockified; blocks after b1 (or b1+1, if the post-buffer absorbed it)
// are kept by reference with Start shifted by -length.
func (s *Sequence) deleteGeneral(ctx context.Context, blocks BlockList, b0, b1 int, start, length, newTotal int64) error {
	newBlocks := blocks[:b0].clone()

	blk0 := blocks[b0]
	preLen := start - blk0.Start
	if preLen > 0 {
		if preLen >= s.minSamples || b0 == 0 {
			buf := sample.NewBuffer(s.format, int(preLen))
			n, err := s.store.ReadData(ctx, blk0.Handle, buf, 0, preLen, true)
			if err != nil || int64(n) != preLen {
				return fmt.Errorf("%w: Delete: read pre-buffer: %v", ErrIO, err)
			}
			h, err := s.store.NewSimpleBlock(ctx, s.format, buf)
			if err != nil {
				return fmt.Errorf("%w: Delete: %v", ErrIO, err)
			}
			newBlocks = append(newBlocks, BlockRef{Start: blk0.Start, Handle: h})
		} else {
			prev := newBlocks[len(newBlocks)-1]
			newBlocks = newBlocks[:len(newBlocks)-1]

			buf := sample.NewBuffer(s.format, int(prev.Len()+preLen))
			n, err := s.store.ReadData(ctx, prev.Handle, buf.Slice(0, int(prev.Len())), 0, prev.Len(), true)
			if err != nil || int64(n) != prev.Len() {
				return fmt.Errorf("%w: Delete: read pre-buffer neighbour: %v", ErrIO, err)
			}
			n, err = s.store.ReadData(ctx, blk0.Handle, buf.Slice(int(prev.Len()), int(prev.Len()+preLen)), 0, preLen, true)
			if err != nil || int64(n) != preLen {
				return fmt.Errorf("%w: Delete: read pre-buffer: %v", ErrIO, err)
			}

			newBlocks, err = s.blockify(ctx, newBlocks, prev.Start, buf)
			if err != nil {
				return err
			}
		}
	}

	blk1 := blocks[b1]
	postLen := blk1.End() - (start + length)
	skipNext := false
	var postBlocks BlockList
	if postLen > 0 {
		hasNext := b1+1 < len(blocks)
		localOff := (start + length) - blk1.Start
		if postLen >= s.minSamples || !hasNext {
			buf := sample.NewBuffer(s.format, int(postLen))
			n, err := s.store.ReadData(ctx, blk1.Handle, buf, localOff, postLen, true)
			if err != nil || int64(n) != postLen {
				return fmt.Errorf("%w: Delete: read post-buffer: %v", ErrIO, err)
			}
			h, err := s.store.NewSimpleBlock(ctx, s.format, buf)
			if err != nil {
				return fmt.Errorf("%w: Delete: %v", ErrIO, err)
			}
			postBlocks = BlockList{{Handle: h}}
		} else {
			next := blocks[b1+1]
			skipNext = true

			buf := sample.NewBuffer(s.format, int(postLen+next.Len()))
			n, err := s.store.ReadData(ctx, blk1.Handle, buf.Slice(0, int(postLen)), localOff, postLen, true)
			if err != nil || int64(n) != postLen {
				return fmt.Errorf("%w: Delete: read post-buffer: %v", ErrIO, err)
			}
			n, err = s.store.ReadData(ctx, next.Handle, buf.Slice(int(postLen), int(postLen+next.Len())), 0, next.Len(), true)
			if err != nil || int64(n) != next.Len() {
				return fmt.Errorf("%w: Delete: read post-buffer neighbour: %v", ErrIO, err)
			}

			postBlocks, err = s.blockify(ctx, nil, 0, buf)
			if err != nil {
				return err
			}
		}
	}

	pos := blk0.Start
	if len(newBlocks) > 0 {
		pos = newBlocks[len(newBlocks)-1].End()
	}
	for _, pb := range postBlocks {
		newBlocks = append(newBlocks, BlockRef{Start: pos, Handle: pb.Handle})
		pos += pb.Len()
	}

	tailStart := b1 + 1
	if skipNext {
		tailStart = b1 + 2
	}
	for _, t := range blocks[tailStart:] {
		newBlocks = append(newBlocks, BlockRef{Start: pos, Handle: t.Handle})
		pos += t.Len()
	}

	return s.commitIfConsistent(newBlocks, newTotal)
}
