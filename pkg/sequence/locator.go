package sequence

import "sort"

// findBlock returns the index of the block containing sample position pos,
// using an interpolation search rather than a plain binary search: block
// starts are nearly evenly spaced (every block is close to maxSamples long
// except the last), so guessing a pivot proportional to pos/total lands
// within a handful of probes of the answer on any reasonably sized list,
// matching the original implementation's FindBlock.
//
// pos must be in [0, numSamples); callers checking an insertion point one
// past the end should use len(blocks) directly rather than calling this.
func findBlock(blocks BlockList, pos int64) int {
	n := len(blocks)
	if n == 0 {
		return -1
	}

	lo, hi := 0, n-1
	for lo <= hi {
		loStart, hiEnd := blocks[lo].Start, blocks[hi].End()
		if pos < loStart || pos >= hiEnd {
			break
		}

		span := hiEnd - loStart
		var guess int
		if span <= 0 {
			guess = lo
		} else {
			frac := float64(pos-loStart) / float64(span)
			guess = lo + int(frac*float64(hi-lo))
			if guess < lo {
				guess = lo
			} else if guess > hi {
				guess = hi
			}
		}

		b := blocks[guess]
		switch {
		case pos < b.Start:
			hi = guess - 1
		case pos >= b.End():
			lo = guess + 1
		default:
			return guess
		}
	}

	// Interpolation search degrades to a linear scan near malformed input;
	// fall back to a binary search over Start so callers never see -1 for
	// an in-range position.
	return sort.Search(n, func(i int) bool { return blocks[i].End() > pos }) % n
}

// insertionIndex returns the index at which a block starting at pos would
// be inserted to keep blocks ordered by Start. No edit in this package
// calls it; Append and InsertSilence find their splice points without it.
func insertionIndex(blocks BlockList, pos int64) int {
	return sort.Search(len(blocks), func(i int) bool { return blocks[i].Start >= pos })
}

// bestBlockSize estimates how many samples a new block starting at start
// should hold so that edits near start tend to produce blocks close to
// maxSamples long, without inspecting neighbouring blocks' exact sizes.
// Mirrors the original implementation's GetBestBlockSize: look at the
// block already covering start (if any) and aim to fill out to maxSamples.
func bestBlockSize(blocks BlockList, start, maxSamples int64) int64 {
	if len(blocks) == 0 {
		return maxSamples
	}
	idx := findBlock(blocks, start)
	if idx < 0 {
		return maxSamples
	}
	remaining := blocks[idx].End() - start
	if remaining <= 0 || remaining > maxSamples {
		return maxSamples
	}
	return remaining
}
