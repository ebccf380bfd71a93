// Package sequence implements the block-structured audio sample sequence:
// a logical, mutable, random-access array of PCM samples backed by an
// ordered list of content-addressed block files. See SPEC_FULL.md §§2-4
// for the component breakdown (C1-C9) this package implements.
package sequence

import (
	"context"
	"fmt"
	"sync"

	"github.com/wavecore/blockseq/internal/logger"
	"github.com/wavecore/blockseq/internal/metrics"
	"github.com/wavecore/blockseq/pkg/blockstore"
	"github.com/wavecore/blockseq/pkg/sample"
)

// MinAllowedMaxSamples and MaxAllowedMaxSamples bound MaxSamples, per §3's
// "clamped to [1024, 64*2^20]" and §6's XML schema constraint on maxsamples.
const (
	MinAllowedMaxSamples int64 = 1024
	MaxAllowedMaxSamples int64 = 64 * 1024 * 1024
)

// DeriveMaxSamples computes MaxSamples from a target on-disk block size in
// bytes and a sample format (maxSamples = diskBlockBytes / SAMPLE_SIZE(fmt)),
// clamped to [MinAllowedMaxSamples, MaxAllowedMaxSamples] per §6's process-wide
// maxDiskBlockSize configuration.
func DeriveMaxSamples(diskBlockBytes int64, format sample.Format) int64 {
	size := int64(format.Size())
	if size <= 0 {
		size = 1
	}
	n := diskBlockBytes / size
	if n < MinAllowedMaxSamples {
		n = MinAllowedMaxSamples
	}
	if n > MaxAllowedMaxSamples {
		n = MaxAllowedMaxSamples
	}
	return n
}

// Sequence is the aggregate described in §3: a contiguous logical sample
// array backed by an ordered BlockList. Every mutator (Paste, Delete,
// SetSamples, InsertSilence, Append, ConvertToFormat) builds a candidate
// BlockList and swaps it in atomically, after C7's consistency check
// passes (the single-block Paste and Delete fast paths, which replace one
// block's handle, swap without running it), giving callers the strong
// exception-safety guarantee described in
// §1 and §9: either the call returns nil and the new state is live, or it
// returns an error and s is observably unchanged.
//
// The block-list swap is guarded by mu per §5's ordering guarantee: readers
// (Get, GetWaveDisplay) take the read lock only long enough to copy the
// snapshot header, so a concurrent reader never observes a torn mix of old
// and new blocks.
type Sequence struct {
	mu sync.RWMutex

	id     string
	format sample.Format

	maxSamples int64
	minSamples int64

	blocks     BlockList
	numSamples int64

	store   blockstore.Store
	metrics metrics.SequenceMetrics

	errorOpening bool
}

// NewSequence creates an empty sequence backed by store. maxSamples sets
// the upper bound on any block's length (I4); minSamples is derived as
// maxSamples/2 per §3. id identifies the sequence in logs and metrics (it
// has no persisted meaning).
func NewSequence(store blockstore.Store, format sample.Format, maxSamples int64, id string) (*Sequence, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: nil block store", ErrInconsistency)
	}
	if !format.Valid() {
		return nil, fmt.Errorf("%w: invalid sample format %d", ErrInconsistency, int(format))
	}
	if maxSamples < MinAllowedMaxSamples || maxSamples > MaxAllowedMaxSamples {
		return nil, fmt.Errorf("%w: maxSamples %d outside [%d, %d]", ErrInconsistency, maxSamples, MinAllowedMaxSamples, MaxAllowedMaxSamples)
	}

	return &Sequence{
		id:         id,
		format:     format,
		maxSamples: maxSamples,
		minSamples: maxSamples / 2,
		store:      store,
		metrics:    metrics.NewSequenceMetrics(),
	}, nil
}

// ID returns the sequence's identifier.
func (s *Sequence) ID() string { return s.id }

// Format returns the sequence's sample format.
func (s *Sequence) Format() sample.Format { return s.format }

// MaxSamples returns the upper bound on any block's length (I4).
func (s *Sequence) MaxSamples() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxSamples
}

// MinSamples returns the target lower bound for a block's length; not an
// inviolable floor, per §3's minimum-length rule.
func (s *Sequence) MinSamples() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.minSamples
}

// Len returns the sequence's total sample count (numSamples, I3).
func (s *Sequence) Len() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.numSamples
}

// ErrorOpening reports whether the most recent ReadXML call repaired a
// missing block, per C8/§7's OpeningError.
func (s *Sequence) ErrorOpening() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errorOpening
}

// BlockCount returns the number of blocks currently in the sequence,
// chiefly for tests and CLI inspection.
func (s *Sequence) BlockCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blocks)
}

// snapshot returns the live BlockList and numSamples under the read lock.
// The returned BlockList header is never mutated in place by this package
// (every edit builds a fresh one), so callers may iterate it without
// holding any lock.
func (s *Sequence) snapshot() (BlockList, int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.blocks, s.numSamples
}

// FindBlock returns the index of the block containing sample position pos.
// pos must be in [0, Len()).
func (s *Sequence) FindBlock(pos int64) (int, error) {
	blocks, total := s.snapshot()
	if pos < 0 || pos >= total {
		return -1, fmt.Errorf("%w: position %d outside [0, %d)", ErrInvalidRange, pos, total)
	}
	return findBlock(blocks, pos), nil
}

// Get reads length samples starting at offset into a freshly allocated
// Buffer at the sequence's format. It is a pure read: no lock is held
// across the store call, since blocks (and their handles) are never
// mutated in place once committed (I6).
func (s *Sequence) Get(ctx context.Context, offset, length int64) (sample.Buffer, error) {
	blocks, total := s.snapshot()
	if offset < 0 || length < 0 || offset+length > total {
		return sample.Buffer{}, fmt.Errorf("%w: range [%d, %d) outside [0, %d)", ErrInvalidRange, offset, offset+length, total)
	}
	out := sample.NewBuffer(s.format, int(length))
	if length == 0 {
		return out, nil
	}

	idx := findBlock(blocks, offset)
	pos := offset
	written := int64(0)
	for written < length {
		b := blocks[idx]
		localOff := pos - b.Start
		want := b.Len() - localOff
		if remain := length - written; want > remain {
			want = remain
		}

		dst := out.Slice(int(written), int(written+want))
		n, err := s.store.ReadData(ctx, b.Handle, dst, localOff, want, true)
		if err != nil {
			return sample.Buffer{}, fmt.Errorf("%w: Get: %v", ErrIO, err)
		}
		if n != want {
			return sample.Buffer{}, fmt.Errorf("%w: Get: short read from block %d (wanted %d, got %d)", ErrIO, idx, want, n)
		}

		written += want
		pos += want
		idx++
	}
	return out, nil
}

// Clone returns a new sequence of identical length and contents, sharing
// every block file by reference count rather than copying samples, per
// §9's shared-ownership model. Used by callers implementing undo snapshots
// or clip duplication; edits on the clone never mutate the original's
// block files (I6), so sharing is safe even before any edit occurs.
func (s *Sequence) Clone(ctx context.Context) (*Sequence, error) {
	blocks, total := s.snapshot()

	out := &Sequence{
		id:         s.id + "-clone",
		format:     s.format,
		maxSamples: s.maxSamples,
		minSamples: s.minSamples,
		store:      s.store,
		metrics:    metrics.NewSequenceMetrics(),
	}

	newBlocks := make(BlockList, len(blocks))
	for i, b := range blocks {
		h, err := s.store.CopyBlock(ctx, b.Handle)
		if err != nil {
			return nil, fmt.Errorf("%w: Clone: %v", ErrIO, err)
		}
		newBlocks[i] = BlockRef{Start: b.Start, Handle: h}
	}

	out.blocks = newBlocks
	out.numSamples = total
	return out, nil
}

// Copy extracts the sub-sequence covering [a, b), sharing block files by
// reference where a whole block falls inside the range and copying partial
// boundary samples into new blocks otherwise. Implements P2's copy
// property and is the basis for clip splitting.
func (s *Sequence) Copy(ctx context.Context, a, b int64) (*Sequence, error) {
	blocks, total := s.snapshot()
	if a < 0 || b < a || b > total {
		return nil, fmt.Errorf("%w: Copy range [%d, %d) outside [0, %d]", ErrInvalidRange, a, b, total)
	}

	out := &Sequence{
		id:         s.id + "-copy",
		format:     s.format,
		maxSamples: s.maxSamples,
		minSamples: s.minSamples,
		store:      s.store,
		metrics:    metrics.NewSequenceMetrics(),
	}
	if a == b {
		return out, nil
	}

	var newBlocks BlockList
	pos := a
	idx := findBlock(blocks, a)
	for pos < b {
		blk := blocks[idx]
		localOff := pos - blk.Start
		avail := blk.Len() - localOff
		take := b - pos
		if take > avail {
			take = avail
		}

		if localOff == 0 && take == blk.Len() {
			h, err := s.store.CopyBlock(ctx, blk.Handle)
			if err != nil {
				return nil, fmt.Errorf("%w: Copy: %v", ErrIO, err)
			}
			newBlocks = append(newBlocks, BlockRef{Start: pos - a, Handle: h})
		} else {
			buf := sample.NewBuffer(s.format, int(take))
			n, err := s.store.ReadData(ctx, blk.Handle, buf, localOff, take, true)
			if err != nil || int64(n) != take {
				return nil, fmt.Errorf("%w: Copy: read block %d: %v", ErrIO, idx, err)
			}
			h, err := s.store.NewSimpleBlock(ctx, s.format, buf)
			if err != nil {
				return nil, fmt.Errorf("%w: Copy: %v", ErrIO, err)
			}
			newBlocks = append(newBlocks, BlockRef{Start: pos - a, Handle: h})
		}

		pos += take
		idx++
	}

	out.blocks = newBlocks
	out.numSamples = b - a
	return out, nil
}

// logContext attaches operation and sequence fields to ctx for the
// duration of a mutator call; mirrors the teacher's request-scoped
// LogContext pattern applied to edit operations instead of RPCs.
func (s *Sequence) logContext(ctx context.Context, operation string) context.Context {
	lc := logger.NewLogContext(s.id).WithOperation(operation)
	return logger.WithContext(ctx, lc)
}
