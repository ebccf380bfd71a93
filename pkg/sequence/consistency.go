package sequence

import (
	"fmt"

	"github.com/wavecore/blockseq/pkg/blockstore"
)

// check verifies blocks[from:] satisfies I1-I3 (contiguity, no gaps/overlaps,
// no zero-length blocks) and that the running total reaches wantTotal,
// matching §4.6's C7 contract: the starting position is blocks[from].Start
// if that index exists, otherwise wantTotal is assumed to already account
// for blocks[:from] and the walk starts from there. from == 0 additionally
// requires blocks[0].Start == 0 (I1). It never mutates blocks or the
// sequence; every edit calls it against a candidate list before committing,
// per the strong-guarantee discipline in commit.go.
func check(blocks BlockList, maxSamples int64, from int, wantTotal int64) error {
	if from < 0 || from > len(blocks) {
		return fmt.Errorf("%w: check: from %d out of range [0, %d]", ErrInconsistency, from, len(blocks))
	}

	var pos int64
	if from < len(blocks) {
		pos = blocks[from].Start
	} else {
		pos = wantTotal
	}
	if from == 0 && len(blocks) > 0 && blocks[0].Start != 0 {
		return fmt.Errorf("%w: block 0 starts at %d, expected 0", ErrInconsistency, blocks[0].Start)
	}

	for i := from; i < len(blocks); i++ {
		b := blocks[i]
		if b.Handle == nil {
			return fmt.Errorf("%w: block %d has no file handle", ErrInconsistency, i)
		}
		if b.Len() <= 0 {
			return fmt.Errorf("%w: block %d has non-positive length %d", ErrInconsistency, i, b.Len())
		}
		if b.Start != pos {
			return fmt.Errorf("%w: block %d starts at %d, expected %d", ErrInconsistency, i, b.Start, pos)
		}
		isAlias := b.Handle.Kind() == blockstore.KindAlias || b.Handle.Kind() == blockstore.KindOnDemandAlias
		if b.Len() > maxSamples && !isAlias {
			return fmt.Errorf("%w: block %d has length %d exceeding max %d", ErrInconsistency, i, b.Len(), maxSamples)
		}
		pos += b.Len()
	}
	if pos != wantTotal {
		return fmt.Errorf("%w: total block length %d does not match sequence length %d", ErrInconsistency, pos, wantTotal)
	}
	return nil
}
