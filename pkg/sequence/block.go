package sequence

import "github.com/wavecore/blockseq/pkg/blockstore"

// BlockRef pairs a block's starting sample position within the sequence
// with a handle to its data, mirroring the original implementation's
// SeqBlock (a start offset plus a shared_ptr<BlockFile>).
type BlockRef struct {
	Start  int64
	Handle *blockstore.Handle
}

// End returns the sample position one past the block's last sample.
func (b BlockRef) End() int64 {
	return b.Start + b.Handle.Length()
}

// Len returns the block's length in samples.
func (b BlockRef) Len() int64 {
	return b.Handle.Length()
}

// BlockList is an ordered, contiguous run of BlockRefs: block i's Start
// equals block i-1's End, and the list's total length equals the owning
// sequence's numSamples. BlockLists are treated as immutable snapshots:
// every edit builds a new BlockList rather than mutating one in place,
// which is what makes the atomic-swap commit discipline in commit.go safe.
type BlockList []BlockRef

// TotalLength returns the sum of every block's length.
func (bl BlockList) TotalLength() int64 {
	var n int64
	for _, b := range bl {
		n += b.Len()
	}
	return n
}

// clone returns a shallow copy of bl; BlockRef values (including their
// *blockstore.Handle pointers) are copied, but the handles themselves are
// shared, not duplicated.
func (bl BlockList) clone() BlockList {
	out := make(BlockList, len(bl))
	copy(out, bl)
	return out
}

// recomputeStarts rewrites every block's Start field to be contiguous,
// starting from base. Used after splicing blocks into or out of a list,
// since inserting/removing a block shifts every later block's position.
func recomputeStarts(bl BlockList, base int64) BlockList {
	pos := base
	for i := range bl {
		bl[i].Start = pos
		pos += bl[i].Len()
	}
	return bl
}
