// Package decode wraps a blockstore.Store with on-demand FLAC decoding: a
// block created with NewOnDemandDecodeBlock becomes available asynchronously
// once a bounded worker pool finishes decoding its source file, matching
// §6's on-demand block contract (DataAvailable/SummaryAvailable report
// completion without the caller blocking).
package decode

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/mewkiz/flac"
	"golang.org/x/sync/errgroup"

	"github.com/wavecore/blockseq/internal/logger"
	"github.com/wavecore/blockseq/pkg/blockstore"
	"github.com/wavecore/blockseq/pkg/sample"
)

// Store decorates a blockstore.Store, intercepting on-demand-decode blocks
// and materialising their samples on a bounded worker pool before
// delegating everything else to the wrapped store.
type Store struct {
	inner       blockstore.Store
	maxParallel int

	mu      sync.Mutex
	pending map[string]*decodeTask
}

type decodeTask struct {
	done   chan struct{}
	err    error
	handle *blockstore.Handle
}

// New wraps inner with an on-demand FLAC decode layer, running up to
// maxParallel decodes concurrently.
func New(inner blockstore.Store, maxParallel int) *Store {
	if maxParallel <= 0 {
		maxParallel = 4
	}
	return &Store{inner: inner, maxParallel: maxParallel, pending: make(map[string]*decodeTask)}
}

// NewOnDemandDecodeBlock schedules background decoding of a FLAC file and
// returns a handle immediately; samples become available once the decode
// completes, observed via DataAvailable/SummaryAvailable.
func (s *Store) NewOnDemandDecodeBlock(ctx context.Context, path string, length int64, format sample.Format) (*blockstore.Handle, error) {
	h, err := s.inner.NewOnDemandDecodeBlock(ctx, path, length, format)
	if err != nil {
		return nil, err
	}

	task := &decodeTask{done: make(chan struct{}), handle: h}
	s.mu.Lock()
	s.pending[h.ID()] = task
	s.mu.Unlock()

	go s.runDecode(context.Background(), path, h, task)
	return h, nil
}

func (s *Store) runDecode(ctx context.Context, path string, h *blockstore.Handle, task *decodeTask) {
	defer close(task.done)

	samples, err := decodeFLAC(path, h.Format())
	if err != nil {
		task.err = err
		logger.Error("on-demand FLAC decode failed", logger.Source(path), logger.Err(err))
		return
	}

	buf := sample.FromFloat64(h.Format(), samples)
	if _, err := s.inner.NewSimpleBlock(ctx, h.Format(), buf); err != nil {
		task.err = err
		return
	}
	h.SetLength(int64(len(samples)))
}

// decodeFLAC decodes the first channel of path into canonical float64
// samples, following the mewkiz/flac streaming API: Open the file, then
// pull frames with ParseNext until io.EOF, reading each subframe's samples.
func decodeFLAC(path string, format sample.Format) ([]float64, error) {
	stream, err := flac.Open(path)
	if err != nil {
		return nil, fmt.Errorf("decode: open flac stream: %w", err)
	}
	defer stream.Close()

	bitDepth := 16
	if stream.Info != nil && stream.Info.BitsPerSample > 0 {
		bitDepth = int(stream.Info.BitsPerSample)
	}
	scale := float64(int64(1) << (bitDepth - 1))

	var out []float64
	for {
		fr, err := stream.ParseNext()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("decode: parse flac frame: %w", err)
		}
		if len(fr.Subframes) == 0 {
			continue
		}
		first := fr.Subframes[0]
		for i := 0; i < int(fr.BlockSize); i++ {
			out = append(out, float64(first.Samples[i])/scale)
		}
	}
	return out, nil
}

// DecodeMany runs FLAC decode over a batch of paths concurrently, bounded
// by the store's maxParallel, returning decoded sample slices in input
// order.
func (s *Store) DecodeMany(ctx context.Context, paths []string, format sample.Format) ([][]float64, error) {
	results := make([][]float64, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxParallel)

	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			samples, err := decodeFLAC(p, format)
			if err != nil {
				return fmt.Errorf("decode %s: %w", p, err)
			}
			results[i] = samples
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// SummaryAvailable and DataAvailable report completion for on-demand-decode
// blocks by checking the pending task table; everything else delegates.
func (s *Store) SummaryAvailable(h *blockstore.Handle) bool {
	if h.Kind() != blockstore.KindOnDemandDecode {
		return s.inner.SummaryAvailable(h)
	}
	return s.decodeComplete(h)
}
func (s *Store) DataAvailable(h *blockstore.Handle) bool { return s.decodeComplete(h) }

func (s *Store) decodeComplete(h *blockstore.Handle) bool {
	if h.Kind() != blockstore.KindOnDemandDecode {
		return s.inner.DataAvailable(h)
	}
	s.mu.Lock()
	task, ok := s.pending[h.ID()]
	s.mu.Unlock()
	if !ok {
		return true
	}
	select {
	case <-task.done:
		return task.err == nil
	default:
		return false
	}
}

// The remaining Store methods delegate to the wrapped store unchanged.
func (s *Store) NewSimpleBlock(ctx context.Context, format sample.Format, buf sample.Buffer) (*blockstore.Handle, error) {
	return s.inner.NewSimpleBlock(ctx, format, buf)
}
func (s *Store) NewSilentBlock(length int64, format sample.Format) *blockstore.Handle {
	return s.inner.NewSilentBlock(length, format)
}
func (s *Store) NewAliasBlock(path string, offset, length int64, channel int, format sample.Format) *blockstore.Handle {
	return s.inner.NewAliasBlock(path, offset, length, channel, format)
}
func (s *Store) NewOnDemandAliasBlock(path string, offset, length int64, channel int, format sample.Format) *blockstore.Handle {
	return s.inner.NewOnDemandAliasBlock(path, offset, length, channel, format)
}
func (s *Store) CopyBlock(ctx context.Context, h *blockstore.Handle) (*blockstore.Handle, error) {
	return s.inner.CopyBlock(ctx, h)
}
func (s *Store) ReadData(ctx context.Context, h *blockstore.Handle, dst sample.Buffer, offset, length int64, mayBlock bool) (int64, error) {
	if h.Kind() == blockstore.KindOnDemandDecode && !s.decodeComplete(h) {
		if !mayBlock {
			return 0, blockstore.ErrDataUnavailable
		}
		s.mu.Lock()
		task := s.pending[h.ID()]
		s.mu.Unlock()
		if task != nil {
			<-task.done
		}
	}
	return s.inner.ReadData(ctx, h, dst, offset, length, mayBlock)
}
func (s *Store) GetMinMaxRMS(ctx context.Context, h *blockstore.Handle, offset, length int64) (blockstore.MinMaxRMS, error) {
	return s.inner.GetMinMaxRMS(ctx, h, offset, length)
}
func (s *Store) ReadSummary(ctx context.Context, h *blockstore.Handle, stride int, offset, length int64, mayBlock bool) ([]blockstore.SummaryPoint, error) {
	return s.inner.ReadSummary(ctx, h, stride, offset, length, mayBlock)
}
func (s *Store) Length(h *blockstore.Handle) int64       { return s.inner.Length(h) }
func (s *Store) SetLength(h *blockstore.Handle, n int64) { s.inner.SetLength(h, n) }
func (s *Store) IsAlias(h *blockstore.Handle) bool       { return s.inner.IsAlias(h) }
func (s *Store) Lock(h *blockstore.Handle)                { s.inner.Lock(h) }
func (s *Store) CloseLock(h *blockstore.Handle)           { s.inner.CloseLock(h) }
func (s *Store) Unlock(h *blockstore.Handle)               { s.inner.Unlock(h) }
func (s *Store) Close() error                              { return s.inner.Close() }
func (s *Store) HealthCheck(ctx context.Context) error     { return s.inner.HealthCheck(ctx) }

var _ blockstore.Store = (*Store)(nil)
