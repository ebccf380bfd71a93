package sample

import "math"

// MinMaxRMS is the per-range statistic the display query and the block
// store's summary tiers are built from.
type MinMaxRMS struct {
	Min float32
	Max float32
	RMS float32
}

// SummaryPoint is one stride's worth of precomputed statistics, stored at
// the 256-sample and 65536-sample tiers by the block store.
type SummaryPoint struct {
	Min   float32
	Max   float32
	SumSq float64 // sum of squares over the stride, for RMS reconstruction
}

// Analyze computes min/max/RMS over a float64 sample slice.
func Analyze(samples []float64) MinMaxRMS {
	if len(samples) == 0 {
		return MinMaxRMS{}
	}
	min, max := samples[0], samples[0]
	var sumSq float64
	for _, v := range samples {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sumSq += v * v
	}
	rms := math.Sqrt(sumSq / float64(len(samples)))
	return MinMaxRMS{Min: float32(min), Max: float32(max), RMS: float32(rms)}
}

// SummarizeStride splits samples into consecutive runs of stride length
// (the last run may be shorter) and returns one SummaryPoint per run.
func SummarizeStride(samples []float64, stride int) []SummaryPoint {
	if stride <= 0 {
		stride = 1
	}
	n := (len(samples) + stride - 1) / stride
	out := make([]SummaryPoint, n)
	for i := 0; i < n; i++ {
		start := i * stride
		end := start + stride
		if end > len(samples) {
			end = len(samples)
		}
		stat := Analyze(samples[start:end])
		out[i] = SummaryPoint{Min: stat.Min, Max: stat.Max, SumSq: float64(stat.RMS) * float64(stat.RMS) * float64(end-start)}
	}
	return out
}

// MergePixel folds the statistics of diff additional raw samples, drawn
// from a block's divisor-scaled summary, into an existing pixel column's
// accumulated statistics. It implements the cross-block pixel straddle
// merge described for the display query: a pixel whose range begins in a
// previously visited block is extended rather than overwritten.
func MergePixel(existing MinMaxRMS, existingN int64, addition SummaryPoint, addedSamples int64) MinMaxRMS {
	if addedSamples <= 0 {
		return existing
	}
	if existingN <= 0 {
		return MinMaxRMS{Min: addition.Min, Max: addition.Max, RMS: float32(math.Sqrt(addition.SumSq / float64(addedSamples)))}
	}
	min, max := existing.Min, existing.Max
	if addition.Min < min {
		min = addition.Min
	}
	if addition.Max > max {
		max = addition.Max
	}
	oldSumSq := float64(existing.RMS) * float64(existing.RMS) * float64(existingN)
	totalN := existingN + addedSamples
	rms := float32(math.Sqrt((oldSumSq + addition.SumSq) / float64(totalN)))
	return MinMaxRMS{Min: min, Max: max, RMS: rms}
}
