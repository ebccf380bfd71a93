// Package sample defines the sample formats recognised by the sequence
// engine and the primitives for converting between them.
package sample

import "fmt"

// Format identifies the in-memory representation of a single PCM sample.
type Format int

const (
	// Int16 is a signed 16-bit integer sample.
	Int16 Format = iota
	// Int24 is a signed 24-bit integer sample, stored in the low three
	// bytes of an int32.
	Int24
	// Float32 is an IEEE-754 single-precision float sample in [-1, 1].
	Float32
)

// String implements fmt.Stringer.
func (f Format) String() string {
	switch f {
	case Int16:
		return "int16"
	case Int24:
		return "int24"
	case Float32:
		return "float32"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// Size returns the number of bytes one sample occupies in this format.
func (f Format) Size() int {
	switch f {
	case Int16:
		return 2
	case Int24:
		return 4 // stored padded to 4 bytes, high byte unused
	case Float32:
		return 4
	default:
		return 0
	}
}

// Valid reports whether f is one of the recognised formats.
func (f Format) Valid() bool {
	switch f {
	case Int16, Int24, Float32:
		return true
	default:
		return false
	}
}

// ParseFormat maps a configuration string to a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "int16":
		return Int16, nil
	case "int24":
		return Int24, nil
	case "float32":
		return Float32, nil
	default:
		return 0, fmt.Errorf("sample: unrecognised format %q", s)
	}
}
