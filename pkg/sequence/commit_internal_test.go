package sequence

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wavecore/blockseq/pkg/blockstore"
	"github.com/wavecore/blockseq/pkg/blockstore/memory"
	"github.com/wavecore/blockseq/pkg/sample"
)

func TestCheckDetectsGapAndOverlap(t *testing.T) {
	h := blockstore.NewSimpleHandle("a", 4, sample.Float32)
	blocks := BlockList{{Start: 0, Handle: h}, {Start: 5, Handle: h}}
	err := check(blocks, 16, 0, 9)
	require.ErrorIs(t, err, ErrInconsistency)

	overlapping := BlockList{{Start: 0, Handle: h}, {Start: 3, Handle: h}}
	require.ErrorIs(t, check(overlapping, 16, 0, 7), ErrInconsistency)
}

func TestCheckRejectsBlockExceedingMaxSamples(t *testing.T) {
	h := blockstore.NewSimpleHandle("a", 100, sample.Float32)
	blocks := BlockList{{Start: 0, Handle: h}}
	err := check(blocks, 16, 0, 100)
	require.ErrorIs(t, err, ErrInconsistency)
}

func TestCheckExemptsAliasFromMaxSamples(t *testing.T) {
	h := blockstore.NewAliasHandle("/media/x.wav", 0, 100, 0, sample.Float32, false)
	blocks := BlockList{{Start: 0, Handle: h}}
	require.NoError(t, check(blocks, 16, 0, 100))
}

func TestCheckPartialFromIndex(t *testing.T) {
	h0 := blockstore.NewSimpleHandle("a", 4, sample.Float32)
	h1 := blockstore.NewSimpleHandle("b", 4, sample.Float32)
	blocks := BlockList{{Start: 0, Handle: h0}, {Start: 4, Handle: h1}}
	require.NoError(t, check(blocks, 16, 1, 8))
}

func TestPasteOverflowIsDetectedBeforeAnyWrite(t *testing.T) {
	ctx := context.Background()
	s, err := NewSequence(memory.New(), sample.Float32, MinAllowedMaxSamples, "s")
	require.NoError(t, err)
	require.NoError(t, s.append(ctx, sample.FromFloat64(sample.Float32, []float64{1})))

	huge := &Sequence{
		format:     sample.Float32,
		maxSamples: MinAllowedMaxSamples,
		minSamples: MinAllowedMaxSamples / 2,
		store:      s.store,
		blocks:     BlockList{{Start: 0, Handle: blockstore.NewSimpleHandle("x", 1, sample.Float32)}},
		numSamples: math.MaxInt64,
	}

	err = s.paste(ctx, 0, huge)
	require.ErrorIs(t, err, ErrOverflow)
	require.EqualValues(t, 1, s.Len())
}

// newSmallSequence builds a Sequence with a tiny maxSamples, bypassing
// NewSequence's [MinAllowedMaxSamples, MaxAllowedMaxSamples] floor, so the
// single-block fast paths (whose threshold is minSamples) are reachable
// with test-sized buffers.
func newSmallSequence(maxSamples int64) *Sequence {
	return &Sequence{
		format:     sample.Float32,
		maxSamples: maxSamples,
		minSamples: maxSamples / 2,
		store:      memory.New(),
	}
}

func TestDeleteSingleBlockFastPathKeepsOneBlock(t *testing.T) {
	ctx := context.Background()
	s := newSmallSequence(16)
	require.NoError(t, s.append(ctx, sample.FromFloat64(sample.Float32, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})))
	require.Len(t, s.blocks, 1)

	require.NoError(t, s.delete(ctx, 2, 2))
	require.Len(t, s.blocks, 1)

	got, err := s.Get(ctx, 0, s.Len())
	require.NoError(t, err)
	require.InDeltaSlice(t, []float64{1, 2, 5, 6, 7, 8, 9, 10}, got.ToFloat64(), 1e-6)
}

func TestAppendConsistencyCheckOnlyWalksSuffix(t *testing.T) {
	ctx := context.Background()
	s := newSmallSequence(16)
	require.NoError(t, s.append(ctx, sample.FromFloat64(sample.Float32, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})))

	// Corrupt an earlier block's start directly; appendBlocksIfConsistent
	// must not notice, since it only checks from the old length onward.
	s.blocks[0].Start = 999

	require.NoError(t, s.append(ctx, sample.FromFloat64(sample.Float32, []float64{11, 12})))
	require.EqualValues(t, 999, s.blocks[0].Start)

	// A full check from 0, on the other hand, must catch it.
	require.ErrorIs(t, check(s.blocks, s.maxSamples, 0, s.numSamples), ErrInconsistency)
}

func TestSetSamplesFailureLeavesSequenceUnchanged(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	s := &Sequence{
		format:     sample.Float32,
		maxSamples: 16,
		minSamples: 8,
		store:      store,
	}
	require.NoError(t, s.append(ctx, sample.FromFloat64(sample.Float32, []float64{1, 2, 3, 4})))
	before := s.blocks.clone()

	store.InjectWriteFailure(1, nil)
	buf := sample.FromFloat64(sample.Float32, []float64{9, 9, 9, 9})
	err := s.setSamples(ctx, &buf, 0, 4)
	require.Error(t, err)

	require.Equal(t, before, s.blocks)
	got, err := s.Get(ctx, 0, s.Len())
	require.NoError(t, err)
	require.InDeltaSlice(t, []float64{1, 2, 3, 4}, got.ToFloat64(), 1e-6)
}
