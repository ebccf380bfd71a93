package sample

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConvertRoundTripFloatToInt16(t *testing.T) {
	n := 1000
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = math.Sin(2 * math.Pi * float64(i) / 100)
	}
	src := FromFloat64(Float32, samples)

	int16Buf, err := Convert(Int16, src)
	require.NoError(t, err)
	require.Equal(t, n, int16Buf.Len())

	back, err := Convert(Float32, int16Buf)
	require.NoError(t, err)

	maxDev := 0.0
	backSamples := back.ToFloat64()
	for i, want := range samples {
		dev := math.Abs(want - backSamples[i])
		if dev > maxDev {
			maxDev = dev
		}
	}
	require.Less(t, maxDev, 1.0/32767+1e-6)
}

func TestConvertSameFormatCopies(t *testing.T) {
	src := FromFloat64(Int16, []float64{0.5, -0.5, 0})
	dst, err := Convert(Int16, src)
	require.NoError(t, err)
	require.Equal(t, src.Data, dst.Data)

	// mutating dst must not affect src
	dst.Data[0] = 0xFF
	require.NotEqual(t, src.Data[0], dst.Data[0])
}

func TestInt24RoundTrip(t *testing.T) {
	samples := []float64{0.9999, -0.9999, 0, 0.1, -0.1}
	buf := FromFloat64(Int24, samples)
	require.Equal(t, len(samples), buf.Len())

	back := buf.ToFloat64()
	for i, want := range samples {
		require.InDelta(t, want, back[i], 1.0/8388608+1e-6)
	}
}

func TestAnalyzeEmptyRange(t *testing.T) {
	stat := Analyze(nil)
	require.Equal(t, MinMaxRMS{}, stat)
}

func TestSummarizeStride(t *testing.T) {
	samples := make([]float64, 1000)
	for i := range samples {
		samples[i] = 1.0
	}
	points := SummarizeStride(samples, 256)
	require.Len(t, points, 4) // 1000/256 -> 4 strides, last partial
	for _, p := range points {
		require.InDelta(t, 1.0, p.Min, 1e-6)
		require.InDelta(t, 1.0, p.Max, 1e-6)
	}
}
