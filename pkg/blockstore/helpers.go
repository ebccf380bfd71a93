package blockstore

import "github.com/wavecore/blockseq/pkg/sample"

// ClampLen bounds length to what remains of total starting at offset,
// returning 0 for an out-of-range offset. Shared by every backend's
// ReadData/GetMinMaxRMS/ReadSummary implementations.
func ClampLen(offset, length, total int64) int64 {
	if offset < 0 || offset >= total {
		return 0
	}
	n := length
	if offset+n > total {
		n = total - offset
	}
	if n < 0 {
		return 0
	}
	return n
}

// ZeroFill writes n samples' worth of zero bytes into dst, used by silent
// and not-yet-decoded block reads.
func ZeroFill(dst sample.Buffer, n int64) {
	size := dst.Format.Size()
	end := int(n) * size
	if end > len(dst.Data) {
		end = len(dst.Data)
	}
	for i := 0; i < end; i++ {
		dst.Data[i] = 0
	}
}
