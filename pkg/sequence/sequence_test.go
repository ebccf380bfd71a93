package sequence_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wavecore/blockseq/pkg/blockstore/memory"
	"github.com/wavecore/blockseq/pkg/sample"
	"github.com/wavecore/blockseq/pkg/sequence"
)

func newTestSequence(t *testing.T) *sequence.Sequence {
	s, err := sequence.NewSequence(memory.New(), sample.Float32, sequence.MinAllowedMaxSamples, "test")
	require.NoError(t, err)
	return s
}

func bufOf(vals ...float64) sample.Buffer {
	return sample.FromFloat64(sample.Float32, vals)
}

func readAll(t *testing.T, ctx context.Context, s *sequence.Sequence) []float64 {
	buf, err := s.Get(ctx, 0, s.Len())
	require.NoError(t, err)
	return buf.ToFloat64()
}

func TestEmptyAppendRead(t *testing.T) {
	ctx := context.Background()
	s, err := sequence.NewSequence(memory.New(), sample.Float32, sequence.MinAllowedMaxSamples, "t")
	require.NoError(t, err)

	require.NoError(t, s.Append(ctx, bufOf(1, 2, 3, 4, 5)))
	require.EqualValues(t, 5, s.Len())
	require.Equal(t, 1, s.BlockCount())

	got := readAll(t, ctx, s)
	require.InDeltaSlice(t, []float64{1, 2, 3, 4, 5}, got, 1e-6)
}

func TestPasteAtEndAppendsSamples(t *testing.T) {
	ctx := context.Background()
	s := newTestSequence(t)
	require.NoError(t, s.Append(ctx, bufOf(1, 2, 3)))

	src, err := sequence.NewSequence(memory.New(), sample.Float32, sequence.MinAllowedMaxSamples, "src")
	require.NoError(t, err)
	require.NoError(t, src.Append(ctx, bufOf(4, 5, 6)))

	require.NoError(t, s.Paste(ctx, s.Len(), src))
	require.EqualValues(t, 6, s.Len())
	require.InDeltaSlice(t, []float64{1, 2, 3, 4, 5, 6}, readAll(t, ctx, s), 1e-6)
}

func TestPasteRejectsFormatMismatch(t *testing.T) {
	ctx := context.Background()
	s := newTestSequence(t)
	require.NoError(t, s.Append(ctx, bufOf(1, 2, 3)))

	other, err := sequence.NewSequence(memory.New(), sample.Int16, sequence.MinAllowedMaxSamples, "other")
	require.NoError(t, err)
	require.NoError(t, other.Append(ctx, bufOf(0.1)))

	err = s.Paste(ctx, 0, other)
	require.ErrorIs(t, err, sequence.ErrFormatMismatch)
	require.EqualValues(t, 3, s.Len())
}

func TestPasteIntoMiddleMergesOneBlock(t *testing.T) {
	ctx := context.Background()
	s := newTestSequence(t)
	require.NoError(t, s.Append(ctx, bufOf(1, 2, 3, 4)))

	src, err := sequence.NewSequence(memory.New(), sample.Float32, sequence.MinAllowedMaxSamples, "src")
	require.NoError(t, err)
	require.NoError(t, src.Append(ctx, bufOf(9, 9)))

	require.NoError(t, s.Paste(ctx, 2, src))
	require.InDeltaSlice(t, []float64{1, 2, 9, 9, 3, 4}, readAll(t, ctx, s), 1e-6)
}

func TestDeleteGeneralPathSplitsBoundaries(t *testing.T) {
	ctx := context.Background()
	s := newTestSequence(t)
	require.NoError(t, s.Append(ctx, bufOf(1, 2, 3, 4, 5, 6, 7, 8)))

	require.NoError(t, s.Delete(ctx, 2, 2))
	require.InDeltaSlice(t, []float64{1, 2, 5, 6, 7, 8}, readAll(t, ctx, s), 1e-6)
}

func TestDeleteEntireSequence(t *testing.T) {
	ctx := context.Background()
	s := newTestSequence(t)
	require.NoError(t, s.Append(ctx, bufOf(1, 2, 3)))

	require.NoError(t, s.Delete(ctx, 0, 3))
	require.EqualValues(t, 0, s.Len())
	require.Equal(t, 0, s.BlockCount())
}

func TestDeleteRejectsOutOfRange(t *testing.T) {
	ctx := context.Background()
	s := newTestSequence(t)
	require.NoError(t, s.Append(ctx, bufOf(1, 2, 3)))

	err := s.Delete(ctx, 2, 5)
	require.ErrorIs(t, err, sequence.ErrInvalidRange)
	require.EqualValues(t, 3, s.Len())
}

func TestSetSamplesFullBlockOverwrite(t *testing.T) {
	ctx := context.Background()
	s := newTestSequence(t)
	require.NoError(t, s.Append(ctx, bufOf(1, 2, 3, 4)))

	buf := bufOf(9, 9, 9, 9)
	require.NoError(t, s.SetSamples(ctx, &buf, 0, 4))
	require.InDeltaSlice(t, []float64{9, 9, 9, 9}, readAll(t, ctx, s), 1e-6)
}

func TestSetSamplesPartialOverlapPatchesInPlace(t *testing.T) {
	ctx := context.Background()
	s := newTestSequence(t)
	require.NoError(t, s.Append(ctx, bufOf(1, 2, 3, 4, 5, 6)))

	buf := bufOf(0, 0)
	require.NoError(t, s.SetSamples(ctx, &buf, 2, 2))
	require.InDeltaSlice(t, []float64{1, 2, 0, 0, 5, 6}, readAll(t, ctx, s), 1e-6)
}

func TestSetSamplesNilIsSilence(t *testing.T) {
	ctx := context.Background()
	s := newTestSequence(t)
	require.NoError(t, s.Append(ctx, bufOf(1, 2, 3, 4)))

	require.NoError(t, s.SetSamples(ctx, nil, 0, 4))
	require.InDeltaSlice(t, []float64{0, 0, 0, 0}, readAll(t, ctx, s), 1e-6)
}

func TestInsertSilenceIntoEmptySequenceCostsNoBlocksBeyondNeeded(t *testing.T) {
	ctx := context.Background()
	s := newTestSequence(t)

	require.NoError(t, s.InsertSilence(ctx, 0, 100))
	require.EqualValues(t, 100, s.Len())
	require.Equal(t, 1, s.BlockCount())
	for _, v := range readAll(t, ctx, s) {
		require.Zero(t, v)
	}
}

func TestAppendEnlargesUndersizedLastBlock(t *testing.T) {
	ctx := context.Background()
	s, err := sequence.NewSequence(memory.New(), sample.Float32, sequence.MinAllowedMaxSamples, "t")
	require.NoError(t, err)

	require.NoError(t, s.Append(ctx, bufOf(1, 2))) // far below minSamples(512)
	require.Equal(t, 1, s.BlockCount())

	require.NoError(t, s.Append(ctx, bufOf(3, 4)))
	require.Equal(t, 1, s.BlockCount())
	require.InDeltaSlice(t, []float64{1, 2, 3, 4}, readAll(t, ctx, s), 1e-6)
}

func TestConvertToFormatRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestSequence(t)
	require.NoError(t, s.Append(ctx, bufOf(0.5, -0.5, 0.25, -0.25)))

	require.NoError(t, s.ConvertToFormat(ctx, sample.Int16))
	require.Equal(t, sample.Int16, s.Format())

	require.NoError(t, s.ConvertToFormat(ctx, sample.Float32))
	require.Equal(t, sample.Float32, s.Format())
	require.InDeltaSlice(t, []float64{0.5, -0.5, 0.25, -0.25}, readAll(t, ctx, s), 1e-3)
}

func TestConvertToFormatNoOp(t *testing.T) {
	ctx := context.Background()
	s := newTestSequence(t)
	require.NoError(t, s.Append(ctx, bufOf(1, 2, 3)))

	before := s.BlockCount()
	require.NoError(t, s.ConvertToFormat(ctx, sample.Float32))
	require.Equal(t, before, s.BlockCount())
}

func TestCopyRangeCopiesPartialBlock(t *testing.T) {
	ctx := context.Background()
	s := newTestSequence(t)
	require.NoError(t, s.Append(ctx, bufOf(1, 2, 3, 4, 5, 6)))

	sub, err := s.Copy(ctx, 1, 4)
	require.NoError(t, err)
	require.EqualValues(t, 3, sub.Len())
	require.InDeltaSlice(t, []float64{2, 3, 4}, readAll(t, ctx, sub), 1e-6)
}

func TestGetWaveDisplayTwoPixelsInOneBlock(t *testing.T) {
	ctx := context.Background()
	s := newTestSequence(t)
	require.NoError(t, s.Append(ctx, bufOf(1, -1, 0.5, -0.5)))

	display, err := s.GetWaveDisplay(ctx, []int64{0, 2, 4})
	require.NoError(t, err)
	require.Len(t, display.Min, 2)
	require.InDelta(t, -1, display.Min[0], 1e-3)
	require.InDelta(t, 1, display.Max[0], 1e-3)
	require.InDelta(t, -0.5, display.Min[1], 1e-3)
	require.InDelta(t, 0.5, display.Max[1], 1e-3)
	require.Equal(t, 0, display.BlockStatus[0])
}

func TestGetWaveDisplayEmptySequence(t *testing.T) {
	ctx := context.Background()
	s := newTestSequence(t)

	display, err := s.GetWaveDisplay(ctx, []int64{0, 10})
	require.NoError(t, err)
	require.Len(t, display.Min, 1)
	require.Zero(t, display.Min[0])
}

func TestXMLRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	s, err := sequence.NewSequence(store, sample.Float32, sequence.MinAllowedMaxSamples, "s")
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, bufOf(1, 2, 3, 4, 5)))

	var buf bytes.Buffer
	require.NoError(t, s.WriteXML(ctx, &buf))

	loaded, err := sequence.NewSequence(store, sample.Float32, sequence.MinAllowedMaxSamples, "loaded")
	require.NoError(t, err)
	require.NoError(t, loaded.ReadXML(ctx, bytes.NewReader(buf.Bytes())))

	require.False(t, loaded.ErrorOpening())
	require.EqualValues(t, 5, loaded.Len())
	require.InDeltaSlice(t, []float64{1, 2, 3, 4, 5}, readAll(t, ctx, loaded), 1e-6)
}

func TestXMLReadRepairsMissingBlock(t *testing.T) {
	ctx := context.Background()
	sourceStore := memory.New()
	s, err := sequence.NewSequence(sourceStore, sample.Float32, sequence.MinAllowedMaxSamples, "s")
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, bufOf(1, 2, 3, 4, 5)))

	var buf bytes.Buffer
	require.NoError(t, s.WriteXML(ctx, &buf))

	// A fresh store has no record of the serialised block id, so the
	// loader must repair it with silence rather than fail outright.
	loaded, err := sequence.NewSequence(memory.New(), sample.Float32, sequence.MinAllowedMaxSamples, "loaded")
	require.NoError(t, err)
	require.NoError(t, loaded.ReadXML(ctx, bytes.NewReader(buf.Bytes())))

	require.True(t, loaded.ErrorOpening())
	require.EqualValues(t, 5, loaded.Len())
	require.InDeltaSlice(t, []float64{0, 0, 0, 0, 0}, readAll(t, ctx, loaded), 1e-6)
}

func TestCloneSharesBlocksAndEditsDiverge(t *testing.T) {
	ctx := context.Background()
	s := newTestSequence(t)
	require.NoError(t, s.Append(ctx, bufOf(1, 2, 3)))

	clone, err := s.Clone(ctx)
	require.NoError(t, err)

	require.NoError(t, clone.Delete(ctx, 0, 1))
	require.InDeltaSlice(t, []float64{1, 2, 3}, readAll(t, ctx, s), 1e-6)
	require.InDeltaSlice(t, []float64{2, 3}, readAll(t, ctx, clone), 1e-6)
}
