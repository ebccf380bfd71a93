// Package memory provides an in-memory blockstore.Store implementation,
// primarily for tests and the sequence engine's fault-injection property
// tests (see pkg/sequence's strong-guarantee suite).
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/wavecore/blockseq/internal/metrics"
	"github.com/wavecore/blockseq/pkg/blockstore"
	"github.com/wavecore/blockseq/pkg/sample"
)

// Store is an in-memory implementation of blockstore.Store.
type Store struct {
	mu      sync.RWMutex
	blocks  map[string]sample.Buffer
	closed  bool
	metrics metrics.StoreMetrics

	// FailNextWrite, if > 0, makes the Nth remaining NewSimpleBlock call
	// return failErr instead of succeeding. Used by property test P5 to
	// inject an I/O failure at a controlled call site.
	FailNextWrite int
	failErr       error
}

// New creates a new in-memory block store.
func New() *Store {
	return &Store{
		blocks:  make(map[string]sample.Buffer),
		metrics: metrics.NewStoreMetrics(),
	}
}

// InjectWriteFailure arranges for the nth subsequent NewSimpleBlock call to
// fail with err instead of succeeding.
func (s *Store) InjectWriteFailure(n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FailNextWrite = n
	s.failErr = err
}

func (s *Store) NewSimpleBlock(ctx context.Context, format sample.Format, buf sample.Buffer) (*blockstore.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, blockstore.ErrStoreClosed
	}
	if s.FailNextWrite > 0 {
		s.FailNextWrite--
		if s.FailNextWrite == 0 {
			err := s.failErr
			if err == nil {
				err = fmt.Errorf("memory: injected write failure")
			}
			return nil, err
		}
	}

	id := uuid.NewString()
	copied := make([]byte, len(buf.Data))
	copy(copied, buf.Data)
	s.blocks[id] = sample.Buffer{Format: buf.Format, Data: copied}

	return blockstore.NewSimpleHandle(id, int64(buf.Len()), buf.Format), nil
}

func (s *Store) NewSilentBlock(length int64, format sample.Format) *blockstore.Handle {
	return blockstore.NewSilentHandle(length, format)
}

func (s *Store) NewAliasBlock(path string, offset, length int64, channel int, format sample.Format) *blockstore.Handle {
	return blockstore.NewAliasHandle(path, offset, length, channel, format, false)
}

func (s *Store) NewOnDemandAliasBlock(path string, offset, length int64, channel int, format sample.Format) *blockstore.Handle {
	return blockstore.NewAliasHandle(path, offset, length, channel, format, true)
}

func (s *Store) NewOnDemandDecodeBlock(ctx context.Context, path string, length int64, format sample.Format) (*blockstore.Handle, error) {
	id := uuid.NewString()
	return blockstore.NewOnDemandDecodeHandle(id, length, format), nil
}

func (s *Store) CopyBlock(ctx context.Context, h *blockstore.Handle) (*blockstore.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, blockstore.ErrStoreClosed
	}
	if h.Kind() == blockstore.KindSilent || h.Kind() == blockstore.KindAlias || h.Kind() == blockstore.KindOnDemandAlias {
		return h.Retain(), nil
	}
	if !h.IsLocked() {
		return h.Retain(), nil
	}

	data, ok := s.blocks[h.ID()]
	if !ok {
		return nil, blockstore.ErrBlockNotFound
	}
	newID := uuid.NewString()
	copied := make([]byte, len(data.Data))
	copy(copied, data.Data)
	s.blocks[newID] = sample.Buffer{Format: data.Format, Data: copied}
	return h.WithID(newID), nil
}

func (s *Store) ReadData(ctx context.Context, h *blockstore.Handle, dst sample.Buffer, offset, length int64, mayBlock bool) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, blockstore.ErrStoreClosed
	}

	switch h.Kind() {
	case blockstore.KindSilent:
		n := blockstore.ClampLen(offset, length, h.Length())
		blockstore.ZeroFill(dst, n)
		return n, nil
	case blockstore.KindAlias, blockstore.KindOnDemandAlias, blockstore.KindOnDemandDecode:
		// The memory store has no external-file or decode backend; it
		// returns silence for alias ranges so in-memory tests can exercise
		// the sequence engine's alias-block bookkeeping without a real
		// decoder. pkg/blockstore/fs and pkg/blockstore/decode provide the
		// real implementations.
		n := blockstore.ClampLen(offset, length, h.Length())
		blockstore.ZeroFill(dst, n)
		return n, nil
	default:
		data, ok := s.blocks[h.ID()]
		if !ok {
			return 0, blockstore.ErrBlockNotFound
		}
		n := blockstore.ClampLen(offset, length, int64(data.Len()))
		converted, err := sample.Convert(dst.Format, data.Slice(int(offset), int(offset+n)))
		if err != nil {
			return 0, err
		}
		copy(dst.Data, converted.Data)
		return n, nil
	}
}

func (s *Store) GetMinMaxRMS(ctx context.Context, h *blockstore.Handle, offset, length int64) (blockstore.MinMaxRMS, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if length <= 0 {
		return blockstore.MinMaxRMS{}, nil
	}
	if h.Kind() == blockstore.KindSilent {
		return blockstore.MinMaxRMS{}, nil
	}
	data, ok := s.blocks[h.ID()]
	if !ok {
		return blockstore.MinMaxRMS{}, blockstore.ErrBlockNotFound
	}
	n := blockstore.ClampLen(offset, length, int64(data.Len()))
	samples := data.Slice(int(offset), int(offset+n)).ToFloat64()
	return sample.Analyze(samples), nil
}

func (s *Store) ReadSummary(ctx context.Context, h *blockstore.Handle, stride int, offset, length int64, mayBlock bool) ([]blockstore.SummaryPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if h.Kind() == blockstore.KindSilent {
		n := (length + int64(stride) - 1) / int64(stride)
		return make([]blockstore.SummaryPoint, n), nil
	}
	data, ok := s.blocks[h.ID()]
	if !ok {
		return nil, blockstore.ErrBlockNotFound
	}
	n := blockstore.ClampLen(offset, length, int64(data.Len()))
	samples := data.Slice(int(offset), int(offset+n)).ToFloat64()
	return sample.SummarizeStride(samples, stride), nil
}

func (s *Store) SummaryAvailable(h *blockstore.Handle) bool {
	return h.Kind() != blockstore.KindOnDemandAlias && h.Kind() != blockstore.KindOnDemandDecode
}

func (s *Store) DataAvailable(h *blockstore.Handle) bool {
	return h.Kind() != blockstore.KindOnDemandDecode
}

func (s *Store) Length(h *blockstore.Handle) int64 { return h.Length() }

func (s *Store) SetLength(h *blockstore.Handle, n int64) { h.SetLength(n) }

func (s *Store) IsAlias(h *blockstore.Handle) bool {
	return h.Kind() == blockstore.KindAlias || h.Kind() == blockstore.KindOnDemandAlias
}

func (s *Store) Lock(h *blockstore.Handle)      { h.SetLocked(true) }
func (s *Store) CloseLock(h *blockstore.Handle) { h.SetLocked(false) }
func (s *Store) Unlock(h *blockstore.Handle)    { h.SetLocked(false) }

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.blocks = nil
	return nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return blockstore.ErrStoreClosed
	}
	return nil
}

// BlockCount returns the number of distinct block payloads stored, for
// tests asserting on sharing/GC behaviour.
func (s *Store) BlockCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blocks)
}

var _ blockstore.Store = (*Store)(nil)
