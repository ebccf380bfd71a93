// Package fs provides a local-filesystem blockstore.Store backed by a
// badger index of block metadata, so a sequence can be reloaded without a
// full directory walk. Block files are sharded two hex characters deep to
// keep any one directory from growing unbounded.
package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/wavecore/blockseq/internal/logger"
	"github.com/wavecore/blockseq/internal/metrics"
	"github.com/wavecore/blockseq/pkg/blockstore"
	"github.com/wavecore/blockseq/pkg/sample"
)

// Store is a local-filesystem implementation of blockstore.Store.
type Store struct {
	mu      sync.RWMutex
	baseDir string
	index   *badgerdb.DB
	closed  bool
	metrics metrics.StoreMetrics
}

// Open creates or reopens a filesystem block store rooted at baseDir, with
// its badger index under baseDir/.index.
func Open(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("fs: create base dir: %w", err)
	}
	idx, err := openIndex(filepath.Join(baseDir, ".index"))
	if err != nil {
		return nil, err
	}
	return &Store{baseDir: baseDir, index: idx, metrics: metrics.NewStoreMetrics()}, nil
}

func (s *Store) blockPath(id string) string {
	return filepath.Join(s.baseDir, id[:2], id)
}

func (s *Store) NewSimpleBlock(ctx context.Context, format sample.Format, buf sample.Buffer) (*blockstore.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, blockstore.ErrStoreClosed
	}

	id := uuid.NewString()
	path := s.blockPath(id)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("fs: create block dir: %w", err)
	}
	if err := os.WriteFile(path, buf.Data, 0o644); err != nil {
		return nil, fmt.Errorf("fs: write block file: %w", err)
	}

	length := int64(buf.Len())
	if err := s.putMeta(id, blockMeta{Length: length, Format: format}); err != nil {
		os.Remove(path)
		return nil, err
	}

	metrics.ObserveWrite(s.metrics, "fs", int64(len(buf.Data)), 0, nil)
	return blockstore.NewSimpleHandle(id, length, format), nil
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
	if err := s.putMeta(id, blockMeta{Length: length, Format: format, AliasPath: path}); err != nil {
		return nil, err
	}
	return blockstore.NewOnDemandDecodeHandle(id, length, format), nil
}

func (s *Store) CopyBlock(ctx context.Context, h *blockstore.Handle) (*blockstore.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, blockstore.ErrStoreClosed
	}

	switch h.Kind() {
	case blockstore.KindSilent, blockstore.KindAlias, blockstore.KindOnDemandAlias:
		return h.Retain(), nil
	}
	if !h.IsLocked() {
		return h.Retain(), nil
	}

	data, err := os.ReadFile(s.blockPath(h.ID()))
	if err != nil {
		return nil, fmt.Errorf("fs: read block for copy: %w", err)
	}
	newID := uuid.NewString()
	newPath := s.blockPath(newID)
	if err := os.MkdirAll(filepath.Dir(newPath), 0o755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(newPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("fs: write duplicated block: %w", err)
	}
	if err := s.putMeta(newID, blockMeta{Length: h.Length(), Format: h.Format()}); err != nil {
		return nil, err
	}
	return h.WithID(newID), nil
}

func (s *Store) readBlockData(h *blockstore.Handle) (sample.Buffer, error) {
	data, err := os.ReadFile(s.blockPath(h.ID()))
	if err != nil {
		if os.IsNotExist(err) {
			return sample.Buffer{}, blockstore.ErrBlockNotFound
		}
		return sample.Buffer{}, fmt.Errorf("fs: read block: %w", err)
	}
	return sample.Buffer{Format: h.Format(), Data: data}, nil
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
	case blockstore.KindAlias, blockstore.KindOnDemandAlias:
		return s.readAlias(h, dst, offset, length)
	case blockstore.KindOnDemandDecode:
		return 0, blockstore.ErrDataUnavailable
	default:
		data, err := s.readBlockData(h)
		if err != nil {
			return 0, err
		}
		n := blockstore.ClampLen(offset, length, int64(data.Len()))
		converted, err := sample.Convert(dst.Format, data.Slice(int(offset), int(offset+n)))
		if err != nil {
			return 0, err
		}
		copy(dst.Data, converted.Data)
		metrics.ObserveRead(s.metrics, "fs", int64(len(converted.Data)), 0, nil)
		return n, nil
	}
}

// readAlias reads raw PCM samples directly from an externally-owned file at
// h's configured channel/offset/format, without copying the file into the
// store.
func (s *Store) readAlias(h *blockstore.Handle, dst sample.Buffer, offset, length int64) (int64, error) {
	f, err := os.Open(h.AliasPath())
	if err != nil {
		return 0, fmt.Errorf("fs: open alias file: %w", err)
	}
	defer f.Close()

	size := h.Format().Size()
	n := blockstore.ClampLen(offset, length, h.Length())
	if n <= 0 {
		return 0, nil
	}
	byteOff := h.AliasOffset() + offset*int64(size)
	buf := make([]byte, n*int64(size))
	if _, err := f.ReadAt(buf, byteOff); err != nil {
		return 0, fmt.Errorf("fs: read alias range: %w", err)
	}
	converted, err := sample.Convert(dst.Format, sample.Buffer{Format: h.Format(), Data: buf})
	if err != nil {
		return 0, err
	}
	copy(dst.Data, converted.Data)
	return n, nil
}

func (s *Store) GetMinMaxRMS(ctx context.Context, h *blockstore.Handle, offset, length int64) (blockstore.MinMaxRMS, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if length <= 0 || h.Kind() == blockstore.KindSilent {
		return blockstore.MinMaxRMS{}, nil
	}
	buf := sample.NewBuffer(h.Format(), int(length))
	n, err := s.readSamplesLocked(h, buf, offset, length)
	if err != nil {
		return blockstore.MinMaxRMS{}, err
	}
	return sample.Analyze(buf.Slice(0, int(n)).ToFloat64()), nil
}

func (s *Store) ReadSummary(ctx context.Context, h *blockstore.Handle, stride int, offset, length int64, mayBlock bool) ([]blockstore.SummaryPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if h.Kind() == blockstore.KindSilent {
		n := (length + int64(stride) - 1) / int64(stride)
		return make([]blockstore.SummaryPoint, n), nil
	}
	buf := sample.NewBuffer(h.Format(), int(length))
	n, err := s.readSamplesLocked(h, buf, offset, length)
	if err != nil {
		return nil, err
	}
	return sample.SummarizeStride(buf.Slice(0, int(n)).ToFloat64(), stride), nil
}

// readSamplesLocked is ReadData's body, reused by the summary and
// min/max/RMS paths, invoked while the caller already holds s.mu.
func (s *Store) readSamplesLocked(h *blockstore.Handle, dst sample.Buffer, offset, length int64) (int64, error) {
	switch h.Kind() {
	case blockstore.KindAlias, blockstore.KindOnDemandAlias:
		return s.readAlias(h, dst, offset, length)
	case blockstore.KindOnDemandDecode:
		return 0, blockstore.ErrDataUnavailable
	default:
		data, err := s.readBlockData(h)
		if err != nil {
			return 0, err
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

func (s *Store) SummaryAvailable(h *blockstore.Handle) bool {
	return h.Kind() != blockstore.KindOnDemandAlias && h.Kind() != blockstore.KindOnDemandDecode
}

func (s *Store) DataAvailable(h *blockstore.Handle) bool {
	return h.Kind() != blockstore.KindOnDemandDecode
}

func (s *Store) Length(h *blockstore.Handle) int64        { return h.Length() }
func (s *Store) SetLength(h *blockstore.Handle, n int64)  { h.SetLength(n) }
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
	if s.index != nil {
		if err := s.index.Close(); err != nil {
			logger.Error("fs: close badger index", logger.Err(err))
		}
	}
	return nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return blockstore.ErrStoreClosed
	}
	if _, err := os.Stat(s.baseDir); err != nil {
		return fmt.Errorf("fs: health check: %w", err)
	}
	return nil
}

var _ blockstore.Store = (*Store)(nil)
