package sample

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Buffer is a decoded run of samples in a single format, stored as raw
// little-endian bytes. It is the unit exchanged between the block store
// and the sequence engine's edit operations.
type Buffer struct {
	Format Format
	Data   []byte
}

// Len returns the number of samples held in the buffer.
func (b Buffer) Len() int {
	size := b.Format.Size()
	if size == 0 {
		return 0
	}
	return len(b.Data) / size
}

// NewBuffer allocates a zeroed buffer for n samples of the given format.
func NewBuffer(format Format, n int) Buffer {
	return Buffer{Format: format, Data: make([]byte, n*format.Size())}
}

// Slice returns the sub-buffer covering samples [from, to).
func (b Buffer) Slice(from, to int) Buffer {
	size := b.Format.Size()
	return Buffer{Format: b.Format, Data: b.Data[from*size : to*size]}
}

// ToFloat64 decodes the buffer into canonical float64 samples in [-1, 1]
// (saturating formats may exceed that range transiently during synthesis).
func (b Buffer) ToFloat64() []float64 {
	n := b.Len()
	out := make([]float64, n)
	switch b.Format {
	case Int16:
		for i := 0; i < n; i++ {
			v := int16(binary.LittleEndian.Uint16(b.Data[i*2:]))
			out[i] = float64(v) / 32768.0
		}
	case Int24:
		for i := 0; i < n; i++ {
			v := decodeInt24(b.Data[i*4:])
			out[i] = float64(v) / 8388608.0
		}
	case Float32:
		for i := 0; i < n; i++ {
			bits := binary.LittleEndian.Uint32(b.Data[i*4:])
			out[i] = float64(math.Float32frombits(bits))
		}
	}
	return out
}

// FromFloat64 encodes canonical float64 samples into a new Buffer of the
// given format, saturating integer formats at their representable range.
func FromFloat64(format Format, samples []float64) Buffer {
	buf := NewBuffer(format, len(samples))
	switch format {
	case Int16:
		for i, v := range samples {
			binary.LittleEndian.PutUint16(buf.Data[i*2:], uint16(int16(clamp(v*32768.0, -32768, 32767))))
		}
	case Int24:
		for i, v := range samples {
			encodeInt24(buf.Data[i*4:], int32(clamp(v*8388608.0, -8388608, 8388607)))
		}
	case Float32:
		for i, v := range samples {
			binary.LittleEndian.PutUint32(buf.Data[i*4:], math.Float32bits(float32(v)))
		}
	}
	return buf
}

// Convert re-encodes a buffer from its current format to dst, returning a
// new Buffer. It round-trips through the canonical float64 representation,
// matching the precision behaviour documented for the sequence's format
// converter: narrowing conversions may lose precision but never overflow.
func Convert(dst Format, b Buffer) (Buffer, error) {
	if !dst.Valid() || !b.Format.Valid() {
		return Buffer{}, fmt.Errorf("sample: invalid format in conversion %s -> %s", b.Format, dst)
	}
	if dst == b.Format {
		out := make([]byte, len(b.Data))
		copy(out, b.Data)
		return Buffer{Format: dst, Data: out}, nil
	}
	return FromFloat64(dst, b.ToFloat64()), nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func decodeInt24(b []byte) int32 {
	v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	if v&0x800000 != 0 {
		v |= ^0xFFFFFF // sign-extend
	}
	return v
}

func encodeInt24(b []byte, v int32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = 0
}
