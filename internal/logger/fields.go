package logger

import (
	"log/slog"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements so that aggregation
// and querying stay uniform across sequence, blockstore, and CLI code.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Sequence Operations
	// ========================================================================
	KeyOperation    = "operation"     // Edit operation name: paste, delete, append, convert, etc.
	KeySequenceID   = "sequence_id"   // Sequence identifier (project/track scoped)
	KeySampleFormat = "sample_format" // Sample storage format: int16, int24, float32
	KeyNumSamples   = "num_samples"   // Total sample count in the sequence
	KeyMaxSamples   = "max_samples"   // Configured maximum samples per block
	KeyMinSamples   = "min_samples"   // Configured minimum samples per block

	// ========================================================================
	// Block Operations
	// ========================================================================
	KeyBlockIndex  = "block_index"  // Index of a block within a block list
	KeyBlockStart  = "block_start"  // Start sample of a block within the sequence
	KeyBlockLen    = "block_len"    // Length of a block in samples
	KeyBlockRefs   = "block_refs"   // Number of blocks touched by an operation
	KeyDivisor     = "divisor"      // Summary divisor chosen for a display query (1, 256, 65536)
	KeyAliasFile   = "alias_file"   // Backing file path for an alias block
	KeyIsSilent    = "is_silent"    // Whether a block is a silent (zero-filled) block

	// ========================================================================
	// Sample Range I/O
	// ========================================================================
	KeyOffset       = "offset"        // Sample offset for an operation
	KeyCount        = "count"         // Sample count requested
	KeySamplesRead  = "samples_read"  // Actual samples read
	KeySamplesWritten = "samples_written" // Actual samples written

	// ========================================================================
	// Consistency & Commit
	// ========================================================================
	KeyConsistencyStatus = "consistency_status" // Outcome of a consistency check: ok, gap, overlap, order
	KeyExpectedStart     = "expected_start"     // Expected block start during a consistency check
	KeyActualStart       = "actual_start"       // Observed block start during a consistency check

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyErrorCode  = "error_code"  // Numeric error code
	KeySource     = "source"      // Data source: cache, block_store, summary_cache

	// ========================================================================
	// Storage Backend (Block Store)
	// ========================================================================
	KeyContentID  = "content_id"  // Content-addressed identifier of a block's payload
	KeyStoreName  = "store_name"  // Named store identifier from registry
	KeyStoreType  = "store_type"  // Store type: memory, filesystem, s3
	KeyBucket     = "bucket"      // Cloud bucket name (S3)
	KeyKey        = "key"         // Object key in cloud storage
	KeyRegion     = "region"      // Cloud region
	KeyAttempt    = "attempt"     // Retry attempt number
	KeyMaxRetries = "max_retries" // Maximum retry attempts
	KeyDiskBytes  = "disk_bytes"  // Bytes occupied on the backing store

	// ========================================================================
	// Cache Layer (Summary / Block Cache)
	// ========================================================================
	KeyCacheHit      = "cache_hit"      // Cache hit indicator
	KeyCacheSize     = "cache_size"     // Current cache size
	KeyCacheCapacity = "cache_capacity" // Maximum cache capacity
	KeyEvicted       = "evicted"        // Number of entries evicted

	// ========================================================================
	// Persistence (XML project file)
	// ========================================================================
	KeyProjectPath  = "project_path"  // Path to the project/XML file
	KeyRepaired     = "repaired"      // Whether a repair was applied while loading
	KeyMissingBlock = "missing_block" // Identifier of a block missing from the store during load
)

// ============================================================================
// Field constructors for type safety
// These functions provide type-safe construction of slog.Attr values.
// ============================================================================

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// Operation returns a slog.Attr for the edit operation name
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// SequenceID returns a slog.Attr for a sequence identifier
func SequenceID(id string) slog.Attr {
	return slog.String(KeySequenceID, id)
}

// SampleFormat returns a slog.Attr for a sample storage format
func SampleFormat(f string) slog.Attr {
	return slog.String(KeySampleFormat, f)
}

// NumSamples returns a slog.Attr for a total sample count
func NumSamples(n int64) slog.Attr {
	return slog.Int64(KeyNumSamples, n)
}

// MaxSamples returns a slog.Attr for the configured maximum samples per block
func MaxSamples(n int64) slog.Attr {
	return slog.Int64(KeyMaxSamples, n)
}

// MinSamples returns a slog.Attr for the configured minimum samples per block
func MinSamples(n int64) slog.Attr {
	return slog.Int64(KeyMinSamples, n)
}

// BlockIndex returns a slog.Attr for a block's position within a block list
func BlockIndex(i int) slog.Attr {
	return slog.Int(KeyBlockIndex, i)
}

// BlockStart returns a slog.Attr for a block's start sample within the sequence
func BlockStart(s int64) slog.Attr {
	return slog.Int64(KeyBlockStart, s)
}

// BlockLen returns a slog.Attr for a block's length in samples
func BlockLen(n int64) slog.Attr {
	return slog.Int64(KeyBlockLen, n)
}

// BlockRefs returns a slog.Attr for the number of blocks touched by an operation
func BlockRefs(n int) slog.Attr {
	return slog.Int(KeyBlockRefs, n)
}

// Divisor returns a slog.Attr for the summary divisor chosen for a display query
func Divisor(d int) slog.Attr {
	return slog.Int(KeyDivisor, d)
}

// AliasFile returns a slog.Attr for an alias block's backing file path
func AliasFile(path string) slog.Attr {
	return slog.String(KeyAliasFile, path)
}

// IsSilent returns a slog.Attr indicating whether a block is a silent block
func IsSilent(silent bool) slog.Attr {
	return slog.Bool(KeyIsSilent, silent)
}

// Offset returns a slog.Attr for a sample offset
func Offset(off int64) slog.Attr {
	return slog.Int64(KeyOffset, off)
}

// Count returns a slog.Attr for a sample count requested
func Count(c int64) slog.Attr {
	return slog.Int64(KeyCount, c)
}

// SamplesRead returns a slog.Attr for actual samples read
func SamplesRead(n int64) slog.Attr {
	return slog.Int64(KeySamplesRead, n)
}

// SamplesWritten returns a slog.Attr for actual samples written
func SamplesWritten(n int64) slog.Attr {
	return slog.Int64(KeySamplesWritten, n)
}

// ConsistencyStatus returns a slog.Attr for the outcome of a consistency check
func ConsistencyStatus(status string) slog.Attr {
	return slog.String(KeyConsistencyStatus, status)
}

// ExpectedStart returns a slog.Attr for the expected block start during a consistency check
func ExpectedStart(s int64) slog.Attr {
	return slog.Int64(KeyExpectedStart, s)
}

// ActualStart returns a slog.Attr for the observed block start during a consistency check
func ActualStart(s int64) slog.Attr {
	return slog.Int64(KeyActualStart, s)
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for a numeric error code
func ErrorCode(code int) slog.Attr {
	return slog.Int(KeyErrorCode, code)
}

// Source returns a slog.Attr for a data source
func Source(src string) slog.Attr {
	return slog.String(KeySource, src)
}

// ContentID returns a slog.Attr for a block's content-addressed identifier
func ContentID(id string) slog.Attr {
	return slog.String(KeyContentID, id)
}

// StoreName returns a slog.Attr for a named store identifier
func StoreName(name string) slog.Attr {
	return slog.String(KeyStoreName, name)
}

// StoreType returns a slog.Attr for a store type
func StoreType(t string) slog.Attr {
	return slog.String(KeyStoreType, t)
}

// Bucket returns a slog.Attr for a cloud bucket name
func Bucket(name string) slog.Attr {
	return slog.String(KeyBucket, name)
}

// Key returns a slog.Attr for an object key in cloud storage
func Key(k string) slog.Attr {
	return slog.String(KeyKey, k)
}

// Region returns a slog.Attr for a cloud region
func Region(r string) slog.Attr {
	return slog.String(KeyRegion, r)
}

// Attempt returns a slog.Attr for a retry attempt number
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// MaxRetries returns a slog.Attr for the maximum retry attempts
func MaxRetries(n int) slog.Attr {
	return slog.Int(KeyMaxRetries, n)
}

// DiskBytes returns a slog.Attr for bytes occupied on the backing store
func DiskBytes(n int64) slog.Attr {
	return slog.Int64(KeyDiskBytes, n)
}

// CacheHit returns a slog.Attr for a cache hit indicator
func CacheHit(hit bool) slog.Attr {
	return slog.Bool(KeyCacheHit, hit)
}

// CacheSize returns a slog.Attr for the current cache size
func CacheSize(size int64) slog.Attr {
	return slog.Int64(KeyCacheSize, size)
}

// CacheCapacity returns a slog.Attr for the maximum cache capacity
func CacheCapacity(capacity int64) slog.Attr {
	return slog.Int64(KeyCacheCapacity, capacity)
}

// Evicted returns a slog.Attr for the number of entries evicted
func Evicted(n int) slog.Attr {
	return slog.Int(KeyEvicted, n)
}

// ProjectPath returns a slog.Attr for a project/XML file path
func ProjectPath(path string) slog.Attr {
	return slog.String(KeyProjectPath, path)
}

// Repaired returns a slog.Attr indicating whether a repair was applied while loading
func Repaired(repaired bool) slog.Attr {
	return slog.Bool(KeyRepaired, repaired)
}

// MissingBlock returns a slog.Attr for the identifier of a block missing during load
func MissingBlock(id string) slog.Attr {
	return slog.String(KeyMissingBlock, id)
}
