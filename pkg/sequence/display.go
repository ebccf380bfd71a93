package sequence

import (
	"context"
	"errors"

	"github.com/wavecore/blockseq/pkg/blockstore"
	"github.com/wavecore/blockseq/pkg/sample"
)

// WaveDisplay holds the result of GetWaveDisplay: one min/max/RMS triple
// per pixel column, and a parallel BlockStatus entry per column describing
// whether the underlying block's summary was available. A non-negative
// BlockStatus entry is always 0 (data present); a value of -1-blockIndex
// means the column's data came (at least partly) from an unavailable block
// and was filled with zeros for that portion.
type WaveDisplay struct {
	Min         []float32
	Max         []float32
	RMS         []float32
	BlockStatus []int
}

// GetWaveDisplay implements §4.5: for each pixel column p covering
// [where[p], where[p+1]), compute the min/max/RMS over that range by
// reading the coarsest summary tier that still resolves the column's
// samples-per-pixel, falling back to raw samples at high zoom. Reads never
// block on pending background decode (mayBlock=false throughout); a column
// that straddles an unavailable block is filled with zeros and flagged in
// BlockStatus rather than failing the whole query.
func (s *Sequence) GetWaveDisplay(ctx context.Context, where []int64) (WaveDisplay, error) {
	if len(where) < 2 {
		return WaveDisplay{}, nil
	}
	numPixels := len(where) - 1

	blocks, total := s.snapshot()
	out := WaveDisplay{
		Min:         make([]float32, numPixels),
		Max:         make([]float32, numPixels),
		RMS:         make([]float32, numPixels),
		BlockStatus: make([]int, numPixels),
	}
	if total == 0 || len(blocks) == 0 {
		return out, nil
	}

	s0 := clampRange(where[0], 0, total)
	s1 := clampRange(where[numPixels], 0, total)
	if s1 == s0 {
		s1 = clampRange(s0+1, 0, total)
	}

	for p := 0; p < numPixels; p++ {
		lo := clampRange(where[p], s0, s1)
		hi := clampRange(where[p+1], s0, s1)
		if hi <= lo {
			continue
		}
		samplesPerPixel := float64(where[p+1] - where[p])
		if samplesPerPixel <= 0 {
			samplesPerPixel = 1
		}
		divisor := blockstore.ChooseDivisor(samplesPerPixel)

		idx := findBlock(blocks, lo)
		pos := lo
		var acc sample.MinMaxRMS
		var accN int64
		unavailableBlock := -1

		for pos < hi && idx < len(blocks) {
			blk := blocks[idx]
			segEnd := blk.End()
			if segEnd > hi {
				segEnd = hi
			}
			segLen := segEnd - pos
			localOff := pos - blk.Start

			stat, n, ok, err := s.readSegmentStat(ctx, blk, localOff, segLen, divisor)
			if err != nil {
				return WaveDisplay{}, err
			}
			if !ok {
				unavailableBlock = idx
			} else if n > 0 {
				sp := sample.SummaryPoint{Min: stat.Min, Max: stat.Max, SumSq: float64(stat.RMS) * float64(stat.RMS) * float64(n)}
				acc = sample.MergePixel(acc, accN, sp, n)
				accN += n
			}

			pos = segEnd
			idx++
		}

		out.Min[p] = acc.Min
		out.Max[p] = acc.Max
		out.RMS[p] = acc.RMS
		if unavailableBlock >= 0 {
			out.BlockStatus[p] = -1 - unavailableBlock
		}
	}

	return out, nil
}

// readSegmentStat reads [localOff, localOff+length) of blk at the chosen
// divisor without blocking. ok is false (with a nil error) when the data or
// summary is not yet available; a non-nil error indicates a genuine I/O
// failure.
func (s *Sequence) readSegmentStat(ctx context.Context, blk BlockRef, localOff, length int64, divisor blockstore.Divisor) (sample.MinMaxRMS, int64, bool, error) {
	if divisor == blockstore.DivisorRaw {
		buf := sample.NewBuffer(s.format, int(length))
		n, err := s.store.ReadData(ctx, blk.Handle, buf, localOff, length, false)
		if errors.Is(err, blockstore.ErrDataUnavailable) {
			return sample.MinMaxRMS{}, 0, false, nil
		}
		if err != nil {
			return sample.MinMaxRMS{}, 0, false, err
		}
		return sample.Analyze(buf.Slice(0, int(n)).ToFloat64()), n, true, nil
	}

	points, err := s.store.ReadSummary(ctx, blk.Handle, int(divisor), localOff, length, false)
	if errors.Is(err, blockstore.ErrSummaryUnavailable) {
		return sample.MinMaxRMS{}, 0, false, nil
	}
	if err != nil {
		return sample.MinMaxRMS{}, 0, false, err
	}

	var acc sample.MinMaxRMS
	var accN int64
	remaining := length
	for _, pt := range points {
		cnt := int64(divisor)
		if cnt > remaining {
			cnt = remaining
		}
		if cnt <= 0 {
			break
		}
		acc = sample.MergePixel(acc, accN, pt, cnt)
		accN += cnt
		remaining -= cnt
	}
	return acc, accN, true, nil
}

func clampRange(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
