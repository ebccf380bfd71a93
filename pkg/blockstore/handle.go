package blockstore

import (
	"sync/atomic"

	"github.com/wavecore/blockseq/pkg/sample"
)

// NewSimpleHandle constructs a Handle for a block whose samples are stored
// under id by the backend. Backend implementations use this rather than
// constructing a Handle literal, since refcounting state must be shared
// across every copy of the handle.
func NewSimpleHandle(id string, length int64, format sample.Format) *Handle {
	refs := int32(1)
	h := &Handle{id: id, kind: KindSimple, format: format, refs: &refs, locked: &atomic.Bool{}}
	h.length.Store(length)
	return h
}

// NewSilentHandle constructs a zero-storage handle of the given length.
func NewSilentHandle(length int64, format sample.Format) *Handle {
	refs := int32(1)
	h := &Handle{kind: KindSilent, format: format, refs: &refs, locked: &atomic.Bool{}}
	h.length.Store(length)
	return h
}

// NewAliasHandle constructs a handle referencing an externally-owned file.
// onDemand selects KindOnDemandAlias (lazy summary) over KindAlias.
func NewAliasHandle(path string, offset, length int64, channel int, format sample.Format, onDemand bool) *Handle {
	refs := int32(1)
	kind := KindAlias
	if onDemand {
		kind = KindOnDemandAlias
	}
	h := &Handle{
		kind:         kind,
		format:       format,
		aliasPath:    path,
		aliasOffset:  offset,
		aliasChannel: channel,
		refs:         &refs,
		locked:       &atomic.Bool{},
	}
	h.length.Store(length)
	return h
}

// NewOnDemandDecodeHandle constructs a handle for a block whose samples are
// produced by a background decode task under the storage key id.
func NewOnDemandDecodeHandle(id string, length int64, format sample.Format) *Handle {
	refs := int32(1)
	h := &Handle{id: id, kind: KindOnDemandDecode, format: format, refs: &refs, locked: &atomic.Bool{}}
	h.length.Store(length)
	return h
}

// Retain shares h's underlying storage, incrementing its reference count,
// and returns a handle value pointing at the same storage. Used by
// CopyBlock when the original is not locked.
func (h *Handle) Retain() *Handle {
	atomic.AddInt32(h.refs, 1)
	clone := &Handle{
		id: h.id, kind: h.kind, format: h.format,
		aliasPath: h.aliasPath, aliasOffset: h.aliasOffset, aliasChannel: h.aliasChannel,
		refs: h.refs, locked: h.locked,
	}
	clone.length.Store(h.length.Load())
	return clone
}

// Release decrements h's reference count and reports whether it reached
// zero (the backend should then delete the underlying storage).
func (h *Handle) Release() bool {
	return atomic.AddInt32(h.refs, -1) == 0
}

// RefCount returns the current reference count, chiefly for tests.
func (h *Handle) RefCount() int32 {
	return atomic.LoadInt32(h.refs)
}

// WithID returns a copy of h with a new storage key and its own
// independent refcount of 1; used by CopyBlock when the original is locked
// and must be physically duplicated.
func (h *Handle) WithID(id string) *Handle {
	refs := int32(1)
	clone := &Handle{
		id: id, kind: h.kind, format: h.format,
		aliasPath: h.aliasPath, aliasOffset: h.aliasOffset, aliasChannel: h.aliasChannel,
		refs: &refs, locked: &atomic.Bool{},
	}
	clone.length.Store(h.length.Load())
	return clone
}

// AliasPath, AliasOffset, AliasChannel expose the fields needed by alias
// and on-demand-decode backends to locate source data.
func (h *Handle) AliasPath() string  { return h.aliasPath }
func (h *Handle) AliasOffset() int64 { return h.aliasOffset }
func (h *Handle) AliasChannel() int  { return h.aliasChannel }

// Length returns the block's length in samples.
func (h *Handle) Length() int64 { return h.length.Load() }

// SetLength adjusts the block's recorded length in place.
func (h *Handle) SetLength(n int64) { h.length.Store(n) }

// IsLocked reports whether Lock has been called without a matching
// CloseLock/Unlock.
func (h *Handle) IsLocked() bool { return h.locked.Load() }

// SetLocked sets or clears the lock flag.
func (h *Handle) SetLocked(v bool) { h.locked.Store(v) }
