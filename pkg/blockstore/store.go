// Package blockstore defines the collaborator contract the sequence engine
// requires from its block-file storage backend: creation of simple, silent,
// alias, and on-demand blocks; reading raw samples and precomputed
// summaries; reference-counted sharing; and locking for save/close.
package blockstore

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/wavecore/blockseq/pkg/sample"
)

// Common errors returned by Store implementations.
var (
	// ErrBlockNotFound is returned when a referenced block handle has no
	// backing data in the store.
	ErrBlockNotFound = errors.New("blockstore: block not found")

	// ErrStoreClosed is returned when an operation is attempted on a
	// closed store.
	ErrStoreClosed = errors.New("blockstore: store is closed")

	// ErrNotAlias is returned by alias-only operations on a non-alias block.
	ErrNotAlias = errors.New("blockstore: block is not an alias")

	// ErrSummaryUnavailable is returned by summary reads on a block whose
	// on-demand decode has not completed.
	ErrSummaryUnavailable = errors.New("blockstore: summary not yet available")

	// ErrDataUnavailable is returned by data reads on a block whose
	// on-demand decode has not completed.
	ErrDataUnavailable = errors.New("blockstore: data not yet available")
)

// Kind classifies how a block's samples are backed.
type Kind int

const (
	// KindSimple is a block whose samples are stored directly by the store.
	KindSimple Kind = iota
	// KindSilent is a zero-storage block of a given length; reads return
	// zeroed samples and summaries without touching the underlying store.
	KindSilent
	// KindAlias is a block whose samples live in an externally-owned file.
	KindAlias
	// KindOnDemandAlias is an alias block whose summary is computed lazily.
	KindOnDemandAlias
	// KindOnDemandDecode is a block whose samples are produced by
	// background decoding of a compressed source file.
	KindOnDemandDecode
)

// Handle is an opaque, reference-counted reference to a block's data.
// Sequences hold Handles inside BlockRefs; the Store is responsible for
// all lifecycle management (the zero value is never valid).
type Handle struct {
	id     string // storage key; empty for silent blocks
	kind   Kind
	length atomic.Int64
	format sample.Format

	aliasPath    string
	aliasOffset  int64
	aliasChannel int

	refs   *int32
	locked *atomic.Bool
}

// ID returns the handle's storage key (empty for silent blocks).
func (h *Handle) ID() string { return h.id }

// Kind reports how the block's samples are backed.
func (h *Handle) Kind() Kind { return h.kind }

// Format reports the sample format the block was written in.
func (h *Handle) Format() sample.Format { return h.format }

// SummaryPoint mirrors sample.SummaryPoint; re-exported so callers of this
// package need not import pkg/sample for the summary read signatures.
type SummaryPoint = sample.SummaryPoint

// MinMaxRMS mirrors sample.MinMaxRMS.
type MinMaxRMS = sample.MinMaxRMS

// Store is the full collaborator contract required by pkg/sequence.
type Store interface {
	// NewSimpleBlock persists buf (len samples at format) and returns a
	// handle to the new block. Fails with a wrapped I/O error.
	NewSimpleBlock(ctx context.Context, format sample.Format, buf sample.Buffer) (*Handle, error)

	// NewSilentBlock returns a zero-storage handle for len silent samples.
	NewSilentBlock(length int64, format sample.Format) *Handle

	// NewAliasBlock returns a handle referencing length samples of channel
	// starting at offset within an externally-owned file at path. No data
	// is copied.
	NewAliasBlock(path string, offset, length int64, channel int, format sample.Format) *Handle

	// NewOnDemandAliasBlock is like NewAliasBlock but its summary is
	// computed lazily by a background task; SummaryAvailable reports false
	// until that task completes.
	NewOnDemandAliasBlock(path string, offset, length int64, channel int, format sample.Format) *Handle

	// NewOnDemandDecodeBlock schedules background decoding of path (e.g. a
	// FLAC file) into length samples at format and returns a handle
	// immediately; DataAvailable/SummaryAvailable report completion.
	NewOnDemandDecodeBlock(ctx context.Context, path string, length int64, format sample.Format) (*Handle, error)

	// CopyBlock returns a handle to the same logical data. If the original
	// is locked (belongs to a project currently being saved), the store
	// physically duplicates the underlying file; otherwise it increments a
	// reference count and returns a handle sharing storage.
	CopyBlock(ctx context.Context, h *Handle) (*Handle, error)

	// ReadData reads up to length samples starting at offset into dst,
	// converting from the block's native format to dst.Format. Returns the
	// number of samples actually read. If mayBlock is false and the data is
	// not yet available (on-demand blocks), returns ErrDataUnavailable
	// instead of blocking.
	ReadData(ctx context.Context, h *Handle, dst sample.Buffer, offset, length int64, mayBlock bool) (int64, error)

	// GetMinMaxRMS returns the statistic over [offset, offset+length). An
	// empty or zero-length range returns the zero value, matching the
	// original implementation's behaviour (see DESIGN.md Open Question 2).
	GetMinMaxRMS(ctx context.Context, h *Handle, offset, length int64) (MinMaxRMS, error)

	// ReadSummary returns precomputed SummaryPoints at the given stride
	// (256 or 65536) covering [offset, offset+length). If mayBlock is false
	// and the summary is not yet available, returns ErrSummaryUnavailable.
	ReadSummary(ctx context.Context, h *Handle, stride int, offset, length int64, mayBlock bool) ([]SummaryPoint, error)

	// SummaryAvailable reports whether precomputed summaries can be read
	// without blocking.
	SummaryAvailable(h *Handle) bool

	// DataAvailable reports whether raw samples can be read without
	// blocking.
	DataAvailable(h *Handle) bool

	// Length returns the block's length in samples.
	Length(h *Handle) int64

	// SetLength adjusts a block's recorded length without touching its
	// underlying data; used when the last block of a batch append is
	// extended in place.
	SetLength(h *Handle, n int64)

	// IsAlias reports whether h references externally-owned media.
	IsAlias(h *Handle) bool

	// Lock pins a block's underlying file so a subsequent CopyBlock must
	// duplicate rather than share it; used while a project referencing the
	// block is being saved.
	Lock(h *Handle)

	// CloseLock releases a lock taken by Lock once the save completes.
	CloseLock(h *Handle)

	// Unlock is an alias for CloseLock retained for symmetry with the
	// original collaborator contract's naming.
	Unlock(h *Handle)

	// Close releases resources held by the store.
	Close() error

	// HealthCheck verifies the store is reachable and operational.
	HealthCheck(ctx context.Context) error
}

// Divisor identifies which summary tier (or raw data) a query should use.
type Divisor int64

const (
	// DivisorRaw means read individual samples; used at high zoom.
	DivisorRaw Divisor = 1
	// Divisor256 is the fine summary tier.
	Divisor256 Divisor = 256
	// Divisor64K is the coarse summary tier.
	Divisor64K Divisor = 65536
)

// ChooseDivisor selects the coarsest tier that still resolves samplesPerPixel,
// matching §4.5's divisor selection rule.
func ChooseDivisor(samplesPerPixel float64) Divisor {
	switch {
	case samplesPerPixel >= float64(Divisor64K):
		return Divisor64K
	case samplesPerPixel >= float64(Divisor256):
		return Divisor256
	default:
		return DivisorRaw
	}
}

// RetryBackoff is shared by backend implementations that wrap flaky
// network calls (S3) with bounded retries.
func RetryBackoff(attempt int) time.Duration {
	d := time.Duration(1<<uint(attempt)) * 20 * time.Millisecond
	if d > 2*time.Second {
		return 2 * time.Second
	}
	return d
}
