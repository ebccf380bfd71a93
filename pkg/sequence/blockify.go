package sequence

import (
	"context"
	"fmt"

	"github.com/wavecore/blockseq/pkg/blockstore"
	"github.com/wavecore/blockseq/pkg/sample"
)

// blockifyInto implements C3: split buf into ceil(len(buf)/maxSamples)
// size-balanced pieces, each written as a new simple block via store, and
// appends one BlockRef per piece to list with Start = startOffset plus the
// piece's offset within buf. Piece boundaries are offset_i = i*totalLen/num
// so that lengths balance within +/-1 sample, matching §4.2. It is a free
// function (rather than a *Sequence method) so ConvertToFormat can blockify
// against a candidate maxSamples before committing to it.
func blockifyInto(ctx context.Context, store blockstore.Store, format sample.Format, maxSamples int64, list BlockList, startOffset int64, buf sample.Buffer) (BlockList, error) {
	totalLen := int64(buf.Len())
	if totalLen == 0 {
		return list, nil
	}

	num := (totalLen + maxSamples - 1) / maxSamples
	if num < 1 {
		num = 1
	}

	pos := startOffset
	var prevOffset int64
	for i := int64(1); i <= num; i++ {
		nextOffset := i * totalLen / num
		length := nextOffset - prevOffset
		if length <= 0 {
			prevOffset = nextOffset
			continue
		}

		piece := buf.Slice(int(prevOffset), int(nextOffset))
		h, err := store.NewSimpleBlock(ctx, format, piece)
		if err != nil {
			return nil, fmt.Errorf("%w: blockify: %v", ErrIO, err)
		}

		list = append(list, BlockRef{Start: pos, Handle: h})
		pos += length
		prevOffset = nextOffset
	}
	return list, nil
}

// blockify is the common case: blockify against the sequence's current
// format and maxSamples.
func (s *Sequence) blockify(ctx context.Context, list BlockList, startOffset int64, buf sample.Buffer) (BlockList, error) {
	return blockifyInto(ctx, s.store, s.format, s.maxSamples, list, startOffset, buf)
}
