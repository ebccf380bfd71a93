package sequence

import "errors"

// ErrInconsistency is returned when an invariant would be violated by an
// edit before, during, or after building its candidate block list. The
// sequence is left unchanged; see the strong-guarantee discipline in
// commit.go.
var ErrInconsistency = errors.New("sequence: inconsistent block list")

// ErrIO is returned when the block store collaborator fails to create,
// read, or copy a block. Also left unchanged on the sequence.
var ErrIO = errors.New("sequence: block store I/O failure")

// ErrInvalidRange is returned when an offset/length argument falls outside
// [0, numSamples] or describes a negative-length range.
var ErrInvalidRange = errors.New("sequence: invalid sample range")

// ErrFormatMismatch is returned by Paste when the source sequence's sample
// format differs from the destination's.
var ErrFormatMismatch = errors.New("sequence: source format does not match destination")

// ErrOverflow is returned when an operation's resulting sample count would
// exceed the maximum representable SampleCount.
var ErrOverflow = errors.New("sequence: sample count overflow")
