// Package storetest runs a shared conformance suite against any
// blockstore.Store implementation, matching property P10: memory,
// filesystem, and S3-compatible backends must behave identically on the
// operations the sequence engine relies on.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wavecore/blockseq/pkg/blockstore"
	"github.com/wavecore/blockseq/pkg/sample"
)

// RunConformanceSuite exercises newStore() against the contract every
// blockstore.Store backend must satisfy.
func RunConformanceSuite(t *testing.T, newStore func(t *testing.T) blockstore.Store) {
	t.Run("WriteThenRead", func(t *testing.T) { testWriteThenRead(t, newStore(t)) })
	t.Run("SilentBlockReadsZero", func(t *testing.T) { testSilentBlock(t, newStore(t)) })
	t.Run("CopyBlockSharesUnlocked", func(t *testing.T) { testCopyUnlocked(t, newStore(t)) })
	t.Run("CopyBlockDuplicatesLocked", func(t *testing.T) { testCopyLocked(t, newStore(t)) })
	t.Run("MinMaxRMS", func(t *testing.T) { testMinMaxRMS(t, newStore(t)) })
	t.Run("HealthCheckAfterClose", func(t *testing.T) { testHealthCheckAfterClose(t, newStore(t)) })
}

func testWriteThenRead(t *testing.T, s blockstore.Store) {
	ctx := context.Background()
	buf := sample.FromFloat64(sample.Float32, []float64{0.1, 0.2, 0.3, 0.4})
	h, err := s.NewSimpleBlock(ctx, sample.Float32, buf)
	require.NoError(t, err)
	require.Equal(t, int64(4), s.Length(h))

	dst := sample.NewBuffer(sample.Float32, 4)
	n, err := s.ReadData(ctx, h, dst, 0, 4, true)
	require.NoError(t, err)
	require.Equal(t, int64(4), n)
	require.InDeltaSlice(t, buf.ToFloat64(), dst.ToFloat64(), 1e-6)
}

func testSilentBlock(t *testing.T, s blockstore.Store) {
	ctx := context.Background()
	h := s.NewSilentBlock(10, sample.Int16)
	dst := sample.NewBuffer(sample.Int16, 10)
	n, err := s.ReadData(ctx, h, dst, 0, 10, true)
	require.NoError(t, err)
	require.Equal(t, int64(10), n)
	for _, v := range dst.ToFloat64() {
		require.Zero(t, v)
	}
}

func testCopyUnlocked(t *testing.T, s blockstore.Store) {
	ctx := context.Background()
	buf := sample.FromFloat64(sample.Int16, []float64{0.5, -0.5})
	h, err := s.NewSimpleBlock(ctx, sample.Int16, buf)
	require.NoError(t, err)

	copyH, err := s.CopyBlock(ctx, h)
	require.NoError(t, err)
	require.Equal(t, h.ID(), copyH.ID())
	require.EqualValues(t, 2, h.RefCount())
}

func testCopyLocked(t *testing.T, s blockstore.Store) {
	ctx := context.Background()
	buf := sample.FromFloat64(sample.Int16, []float64{0.5, -0.5})
	h, err := s.NewSimpleBlock(ctx, sample.Int16, buf)
	require.NoError(t, err)

	s.Lock(h)
	defer s.CloseLock(h)

	copyH, err := s.CopyBlock(ctx, h)
	require.NoError(t, err)
	require.NotEqual(t, h.ID(), copyH.ID())

	dst := sample.NewBuffer(sample.Int16, 2)
	_, err = s.ReadData(ctx, copyH, dst, 0, 2, true)
	require.NoError(t, err)
	require.InDeltaSlice(t, buf.ToFloat64(), dst.ToFloat64(), 1e-4)
}

func testMinMaxRMS(t *testing.T, s blockstore.Store) {
	ctx := context.Background()
	buf := sample.FromFloat64(sample.Float32, []float64{-1, 0, 1, 0.5})
	h, err := s.NewSimpleBlock(ctx, sample.Float32, buf)
	require.NoError(t, err)

	stat, err := s.GetMinMaxRMS(ctx, h, 0, 4)
	require.NoError(t, err)
	require.InDelta(t, -1.0, stat.Min, 1e-3)
	require.InDelta(t, 1.0, stat.Max, 1e-3)
}

func testHealthCheckAfterClose(t *testing.T, s blockstore.Store) {
	require.NoError(t, s.HealthCheck(context.Background()))
	require.NoError(t, s.Close())
	require.ErrorIs(t, s.HealthCheck(context.Background()), blockstore.ErrStoreClosed)
}
