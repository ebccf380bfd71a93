package sample

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ReadWAV decodes a single-channel WAV stream into a Buffer at the format
// matching the file's bit depth (16-bit PCM -> Int16, 32-bit PCM -> Float32;
// other depths are widened to Int24). Multi-channel files are downmixed by
// taking the first channel, since the sequence engine is single-channel.
func ReadWAV(r io.Reader) (Buffer, int, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return Buffer{}, 0, fmt.Errorf("sample: read wav: %w", err)
		}
		rs = bytes.NewReader(data)
	}
	dec := wav.NewDecoder(rs)
	dec.ReadInfo()
	if !dec.IsValidFile() {
		return Buffer{}, 0, fmt.Errorf("sample: not a valid WAV stream")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Buffer{}, 0, fmt.Errorf("sample: decode wav: %w", err)
	}

	format := formatForBitDepth(dec.BitDepth)
	channels := int(dec.NumChans)
	if channels == 0 {
		channels = 1
	}
	n := len(buf.Data) / channels
	samples := make([]float64, n)
	switch format {
	case Int16:
		for i := 0; i < n; i++ {
			samples[i] = float64(buf.Data[i*channels]) / 32768.0
		}
	case Int24:
		for i := 0; i < n; i++ {
			samples[i] = float64(buf.Data[i*channels]) / 8388608.0
		}
	default:
		for i := 0; i < n; i++ {
			samples[i] = float64(buf.Data[i*channels]) / 2147483648.0
		}
	}

	return FromFloat64(format, samples), int(dec.SampleRate), nil
}

// WriteWAV encodes a single-channel Buffer as a mono PCM WAV stream at the
// given sample rate.
func WriteWAV(w io.WriteSeeker, b Buffer, sampleRate int) error {
	bitDepth := bitDepthFor(b.Format)
	enc := wav.NewEncoder(w, sampleRate, bitDepth, 1, 1)

	samples := b.ToFloat64()
	intData := make([]int, len(samples))
	scale := float64(int64(1) << (bitDepth - 1))
	for i, v := range samples {
		intData[i] = int(clamp(v*scale, -scale, scale-1))
	}

	buf := &audio.IntBuffer{
		Data:   intData,
		Format: &audio.Format{NumChannels: 1, SampleRate: sampleRate},
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("sample: write wav: %w", err)
	}
	return enc.Close()
}

func formatForBitDepth(depth uint16) Format {
	switch depth {
	case 16:
		return Int16
	case 24:
		return Int24
	case 32:
		return Float32
	default:
		return Int24
	}
}

func bitDepthFor(f Format) int {
	switch f {
	case Int16:
		return 16
	case Int24:
		return 24
	case Float32:
		return 32
	default:
		return 16
	}
}
