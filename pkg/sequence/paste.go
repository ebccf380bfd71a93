package sequence

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/wavecore/blockseq/internal/metrics"
	"github.com/wavecore/blockseq/pkg/sample"
)

// resolveSplit locates the block and in-block offset at which an insertion
// at pos should happen, for any pos in [0, total]. pos == total (inserting
// at the very end) resolves to the last block at its own length, so Paste's
// single-block and merge paths can treat "append past an undersized last
// block" the same way as any other internal split point.
func resolveSplit(blocks BlockList, pos int64) (int, int64) {
	if len(blocks) == 0 {
		return -1, 0
	}
	last := len(blocks) - 1
	if pos >= blocks[last].End() {
		return last, blocks[last].Len()
	}
	idx := findBlock(blocks, pos)
	return idx, pos - blocks[idx].Start
}

// Paste implements §4.3.1: insert src's samples at position at, choosing
// among four strategies (well-formed-tail append, single-block rewrite,
// small-source blockify, large-source three-way merge) to bound the number
// of block files rewritten. Every path builds its new block list before
// touching s, so a failure at any point leaves s unchanged. The multi-block
// paths commit through commitIfConsistent or appendBlocksIfConsistent; the
// single-block rewrite swaps its list in without a consistency check.
func (s *Sequence) Paste(ctx context.Context, at int64, src *Sequence) error {
	start := time.Now()
	ctx = s.logContext(ctx, "Paste")
	err := s.paste(ctx, at, src)
	s.logEdit(ctx, "Paste", start, err)
	return err
}

func (s *Sequence) paste(ctx context.Context, at int64, src *Sequence) error {
	if src == nil {
		return fmt.Errorf("%w: Paste: nil source", ErrInconsistency)
	}
	if src.format != s.format {
		return fmt.Errorf("%w: Paste: source format %s does not match destination %s", ErrFormatMismatch, src.format, s.format)
	}

	blocks, total := s.snapshot()
	if at < 0 || at > total {
		return fmt.Errorf("%w: Paste: position %d outside [0, %d]", ErrInvalidRange, at, total)
	}

	srcBlocks, srcTotal := src.snapshot()
	if srcTotal == 0 {
		return nil
	}
	if srcTotal > math.MaxInt64-total {
		return fmt.Errorf("%w: %w: Paste(%d, len %d) would overflow sample count", ErrInconsistency, ErrOverflow, at, srcTotal)
	}
	newTotal := total + srcTotal

	wellFormedTail := total == 0 || blocks[len(blocks)-1].Len() >= s.minSamples
	if at == total && wellFormedTail {
		return s.pasteAppend(ctx, blocks, total, srcBlocks, newTotal)
	}

	blockIdx, localOffset := resolveSplit(blocks, at)
	blk := blocks[blockIdx]

	if blk.Len()+srcTotal <= s.maxSamples {
		return s.pasteIntoBlock(ctx, blocks, blockIdx, localOffset, src, srcTotal, newTotal)
	}
	if len(srcBlocks) <= 4 {
		return s.pasteSmall(ctx, blocks, blockIdx, localOffset, src, srcTotal, newTotal)
	}
	return s.pasteLarge(ctx, blocks, blockIdx, localOffset, src, srcBlocks, srcTotal, newTotal)
}

// pasteAppend handles Paste at the sequence's well-formed tail: every src
// block is adopted by reference (CopyBlock bumps its refcount rather than
// duplicating samples), so the cost is independent of srcTotal.
func (s *Sequence) pasteAppend(ctx context.Context, blocks BlockList, total int64, srcBlocks BlockList, newTotal int64) error {
	appended := make(BlockList, 0, len(srcBlocks))
	pos := total
	for _, b := range srcBlocks {
		h, err := s.store.CopyBlock(ctx, b.Handle)
		if err != nil {
			return fmt.Errorf("%w: Paste: %v", ErrIO, err)
		}
		appended = append(appended, BlockRef{Start: pos, Handle: h})
		pos += b.Len()
	}
	newBlocks := append(blocks.clone(), appended...)
	return s.appendBlocksIfConsistent(newBlocks, int64(len(blocks)), newTotal)
}

// readBoundary reads the prefix (samples before localOffset) and suffix
// (samples from localOffset to the block's end) of blk into contiguous
// regions of dst, used by every Paste path that splits an existing block.
func (s *Sequence) readBoundary(ctx context.Context, blk BlockRef, localOffset int64, dst sample.Buffer, prefixAt, suffixAt int) error {
	prefixLen := localOffset
	suffixLen := blk.Len() - localOffset

	if prefixLen > 0 {
		n, err := s.store.ReadData(ctx, blk.Handle, dst.Slice(prefixAt, prefixAt+int(prefixLen)), 0, prefixLen, true)
		if err != nil || int64(n) != prefixLen {
			return fmt.Errorf("%w: read block prefix: %v", ErrIO, err)
		}
	}
	if suffixLen > 0 {
		n, err := s.store.ReadData(ctx, blk.Handle, dst.Slice(suffixAt, suffixAt+int(suffixLen)), localOffset, suffixLen, true)
		if err != nil || int64(n) != suffixLen {
			return fmt.Errorf("%w: read block suffix: %v", ErrIO, err)
		}
	}
	return nil
}

// pasteIntoBlock implements Pattern A: the split block plus src's samples
// fit inside one new block, so only that block's handle is replaced; tail
// starts shift by srcTotal. The new file is fully written before anything
// about s is touched, so a write failure leaves s untouched.
func (s *Sequence) pasteIntoBlock(ctx context.Context, blocks BlockList, blockIdx int, localOffset int64, src *Sequence, srcTotal, newTotal int64) error {
	blk := blocks[blockIdx]
	prefixLen := localOffset

	buf := sample.NewBuffer(s.format, int(blk.Len()+srcTotal))
	if err := s.readBoundary(ctx, blk, localOffset, buf, 0, int(prefixLen+srcTotal)); err != nil {
		return fmt.Errorf("%w: Paste: %v", ErrIO, err)
	}

	srcBuf, err := src.Get(ctx, 0, srcTotal)
	if err != nil {
		return fmt.Errorf("%w: Paste: read source: %v", ErrIO, err)
	}
	copy(buf.Slice(int(prefixLen), int(prefixLen+srcTotal)).Data, srcBuf.Data)

	newHandle, err := s.store.NewSimpleBlock(ctx, s.format, buf)
	if err != nil {
		return fmt.Errorf("%w: Paste: %v", ErrIO, err)
	}

	newBlocks := blocks.clone()
	newBlocks[blockIdx] = BlockRef{Start: blk.Start, Handle: newHandle}
	for i := blockIdx + 1; i < len(newBlocks); i++ {
		newBlocks[i].Start += srcTotal
	}

	s.mu.Lock()
	s.blocks = newBlocks
	s.numSamples = newTotal
	s.mu.Unlock()
	metrics.RecordBlockCount(s.metrics, s.id, len(newBlocks))
	return nil
}

// pasteSmall implements the "small src" path (<= 4 source blocks): the
// split block's prefix, the whole of src, and the split block's suffix are
// concatenated and reblockified, replacing just that one block's position
// in the list (Pattern B).
func (s *Sequence) pasteSmall(ctx context.Context, blocks BlockList, blockIdx int, localOffset int64, src *Sequence, srcTotal, newTotal int64) error {
	blk := blocks[blockIdx]
	prefixLen := localOffset

	buf := sample.NewBuffer(s.format, int(blk.Len()+srcTotal))
	if err := s.readBoundary(ctx, blk, localOffset, buf, 0, int(prefixLen+srcTotal)); err != nil {
		return fmt.Errorf("%w: Paste: %v", ErrIO, err)
	}
	srcBuf, err := src.Get(ctx, 0, srcTotal)
	if err != nil {
		return fmt.Errorf("%w: Paste: read source: %v", ErrIO, err)
	}
	copy(buf.Slice(int(prefixLen), int(prefixLen+srcTotal)).Data, srcBuf.Data)

	newBlocks := blocks[:blockIdx].clone()
	newBlocks, err = s.blockify(ctx, newBlocks, blk.Start, buf)
	if err != nil {
		return err
	}

	for _, t := range blocks[blockIdx+1:] {
		newBlocks = append(newBlocks, BlockRef{Start: t.Start + srcTotal, Handle: t.Handle})
	}

	return s.commitIfConsistent(newBlocks, newTotal)
}

// pasteLarge implements the "large src" three-way merge path (>= 5 source
// blocks): only the two boundary regions (split-block-prefix + src's first
// two blocks, and src's last two blocks + split-block-suffix) are copied
// and reblockified; every interior src block is adopted by reference,
// preserving its file and avoiding O(n) copying per §4.3.1's rationale.
func (s *Sequence) pasteLarge(ctx context.Context, blocks BlockList, blockIdx int, localOffset int64, src *Sequence, srcBlocks BlockList, srcTotal, newTotal int64) error {
	blk := blocks[blockIdx]
	prefixLen := localOffset
	n := len(srcBlocks)

	first2Len := srcBlocks[0].Len() + srcBlocks[1].Len()
	last2Len := srcBlocks[n-2].Len() + srcBlocks[n-1].Len()

	leftBuf := sample.NewBuffer(s.format, int(prefixLen+first2Len))
	if prefixLen > 0 {
		nRead, err := s.store.ReadData(ctx, blk.Handle, leftBuf.Slice(0, int(prefixLen)), 0, prefixLen, true)
		if err != nil || int64(nRead) != prefixLen {
			return fmt.Errorf("%w: Paste: read block prefix: %v", ErrIO, err)
		}
	}
	first2, err := src.Get(ctx, 0, first2Len)
	if err != nil {
		return fmt.Errorf("%w: Paste: read source head: %v", ErrIO, err)
	}
	copy(leftBuf.Slice(int(prefixLen), int(prefixLen+first2Len)).Data, first2.Data)

	suffixLen := blk.Len() - localOffset
	rightBuf := sample.NewBuffer(s.format, int(last2Len+suffixLen))
	last2, err := src.Get(ctx, srcTotal-last2Len, last2Len)
	if err != nil {
		return fmt.Errorf("%w: Paste: read source tail: %v", ErrIO, err)
	}
	copy(rightBuf.Slice(0, int(last2Len)).Data, last2.Data)
	if suffixLen > 0 {
		nRead, err := s.store.ReadData(ctx, blk.Handle, rightBuf.Slice(int(last2Len), int(last2Len+suffixLen)), localOffset, suffixLen, true)
		if err != nil || int64(nRead) != suffixLen {
			return fmt.Errorf("%w: Paste: read block suffix: %v", ErrIO, err)
		}
	}

	newBlocks := blocks[:blockIdx].clone()
	newBlocks, err = s.blockify(ctx, newBlocks, blk.Start, leftBuf)
	if err != nil {
		return err
	}

	nextStart := func() int64 {
		if len(newBlocks) == 0 {
			return blk.Start
		}
		return newBlocks[len(newBlocks)-1].End()
	}
	for _, mb := range srcBlocks[2 : n-2] {
		h, err := s.store.CopyBlock(ctx, mb.Handle)
		if err != nil {
			return fmt.Errorf("%w: Paste: %v", ErrIO, err)
		}
		newBlocks = append(newBlocks, BlockRef{Start: nextStart(), Handle: h})
	}

	newBlocks, err = s.blockify(ctx, newBlocks, nextStart(), rightBuf)
	if err != nil {
		return err
	}

	for _, t := range blocks[blockIdx+1:] {
		newBlocks = append(newBlocks, BlockRef{Start: t.Start + srcTotal, Handle: t.Handle})
	}

	return s.commitIfConsistent(newBlocks, newTotal)
}
