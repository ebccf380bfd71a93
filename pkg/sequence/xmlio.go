package sequence

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"

	"github.com/wavecore/blockseq/internal/logger"
	"github.com/wavecore/blockseq/internal/metrics"
	"github.com/wavecore/blockseq/pkg/blockstore"
	"github.com/wavecore/blockseq/pkg/sample"
)

// xmlSequence and xmlBlock mirror the persisted schema from §6: a
// <sequence> element carrying maxsamples/sampleformat/numsamples, with one
// <waveblock> child per block. The standard library's encoding/xml does
// the encoding and decoding; no third-party XML library appears
// anywhere in the reference pack, so there is no ecosystem precedent to
// follow instead (see DESIGN.md).
type xmlSequence struct {
	XMLName      xml.Name   `xml:"sequence"`
	MaxSamples   int64      `xml:"maxsamples,attr"`
	SampleFormat int        `xml:"sampleformat,attr"`
	NumSamples   int64      `xml:"numsamples,attr"`
	Blocks       []xmlBlock `xml:"waveblock"`
}

type xmlBlock struct {
	Start        int64  `xml:"start,attr"`
	Kind         int    `xml:"kind,attr"`
	ID           string `xml:"id,attr,omitempty"`
	Length       int64  `xml:"length,attr"`
	Format       int    `xml:"format,attr"`
	AliasPath    string `xml:"aliaspath,attr,omitempty"`
	AliasOffset  int64  `xml:"aliasoffset,attr,omitempty"`
	AliasChannel int    `xml:"aliaschannel,attr,omitempty"`
}

// WriteXML implements the writer half of §4.8/C8: serialise the current
// block list to the persisted schema, clamping any non-alias block whose
// reported length exceeds maxSamples (which should never happen for a
// consistent sequence, but the writer clamps and warns defensively rather
// than emitting a file later readers would have to repair).
func (s *Sequence) WriteXML(ctx context.Context, w io.Writer) error {
	blocks, total := s.snapshot()

	doc := xmlSequence{
		MaxSamples:   s.maxSamples,
		SampleFormat: int(s.format),
		NumSamples:   total,
		Blocks:       make([]xmlBlock, 0, len(blocks)),
	}

	for _, b := range blocks {
		h := b.Handle
		length := h.Length()
		isAlias := h.Kind() == blockstore.KindAlias || h.Kind() == blockstore.KindOnDemandAlias
		if length > s.maxSamples && !isAlias {
			logger.WarnCtx(ctx, "clamping oversized block on write", "sequence_id", s.id, "start", b.Start, "length", length, "max_samples", s.maxSamples)
			length = s.maxSamples
		}
		doc.Blocks = append(doc.Blocks, xmlBlock{
			Start:        b.Start,
			Kind:         int(h.Kind()),
			ID:           h.ID(),
			Length:       length,
			Format:       int(h.Format()),
			AliasPath:    h.AliasPath(),
			AliasOffset:  h.AliasOffset(),
			AliasChannel: h.AliasChannel(),
		})
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("%w: WriteXML: %v", ErrIO, err)
	}
	return nil
}

// ReadXML implements the reader half of §4.8/C8. Any block whose file
// fails to load is replaced with a silent block of its recorded length
// (capped to maxSamples) and ErrorOpening is set; stored start values that
// don't form a contiguous run are discarded and recomputed; numSamples is
// always recomputed from the block lengths actually loaded, with the
// stored value only used for a mismatch warning.
func (s *Sequence) ReadXML(ctx context.Context, r io.Reader) error {
	var doc xmlSequence
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return fmt.Errorf("%w: ReadXML: %v", ErrIO, err)
	}

	maxSamples := doc.MaxSamples
	if maxSamples < MinAllowedMaxSamples {
		maxSamples = MinAllowedMaxSamples
	}
	if maxSamples > MaxAllowedMaxSamples {
		maxSamples = MaxAllowedMaxSamples
	}
	format := sample.Format(doc.SampleFormat)
	if !format.Valid() {
		return fmt.Errorf("%w: ReadXML: invalid sampleformat %d", ErrInconsistency, doc.SampleFormat)
	}

	blocks := make(BlockList, 0, len(doc.Blocks))
	var errorOpening bool
	var pos int64
	startsMismatched := false

	for i, xb := range doc.Blocks {
		if xb.Start != pos {
			startsMismatched = true
		}
		length := xb.Length
		blockFormat := sample.Format(xb.Format)
		if !blockFormat.Valid() {
			blockFormat = format
		}

		h, err := reconstructHandle(xb, blockFormat)
		if err != nil {
			logger.WarnCtx(ctx, "dropping unreconstructable block", "sequence_id", s.id, "index", i, "error", err)
			h = s.store.NewSilentBlock(length, format)
			errorOpening = true
		} else if h.Kind() != blockstore.KindSilent {
			probeLen := h.Length()
			if probeLen > 1 {
				probeLen = 1
			}
			if probeLen > 0 {
				probe := sample.NewBuffer(format, int(probeLen))
				if _, err := s.store.ReadData(ctx, h, probe, 0, probeLen, true); err != nil {
					logger.WarnCtx(ctx, "repairing unreadable block with silence", "sequence_id", s.id, "index", i, "error", err)
					h = s.store.NewSilentBlock(length, format)
					errorOpening = true
				}
			}
		}

		if length > maxSamples && h.Kind() != blockstore.KindAlias && h.Kind() != blockstore.KindOnDemandAlias {
			length = maxSamples
			h.SetLength(length)
		}

		blocks = append(blocks, BlockRef{Start: pos, Handle: h})
		pos += length
	}

	if startsMismatched {
		logger.WarnCtx(ctx, "recomputing block starts on load", "sequence_id", s.id)
	}
	if pos != doc.NumSamples {
		logger.WarnCtx(ctx, "recomputed sample count disagrees with stored value", "sequence_id", s.id, "stored", doc.NumSamples, "computed", pos)
	}

	if err := check(blocks, maxSamples, 0, pos); err != nil {
		return fmt.Errorf("%w: ReadXML: repaired list still inconsistent: %v", ErrInconsistency, err)
	}

	s.mu.Lock()
	s.format = format
	s.maxSamples = maxSamples
	s.minSamples = maxSamples / 2
	s.blocks = blocks
	s.numSamples = pos
	s.errorOpening = errorOpening
	s.mu.Unlock()

	metrics.RecordBlockCount(s.metrics, s.id, len(blocks))
	return nil
}

func reconstructHandle(xb xmlBlock, format sample.Format) (*blockstore.Handle, error) {
	switch blockstore.Kind(xb.Kind) {
	case blockstore.KindSimple:
		return blockstore.NewSimpleHandle(xb.ID, xb.Length, format), nil
	case blockstore.KindSilent:
		return blockstore.NewSilentHandle(xb.Length, format), nil
	case blockstore.KindAlias:
		return blockstore.NewAliasHandle(xb.AliasPath, xb.AliasOffset, xb.Length, xb.AliasChannel, format, false), nil
	case blockstore.KindOnDemandAlias:
		return blockstore.NewAliasHandle(xb.AliasPath, xb.AliasOffset, xb.Length, xb.AliasChannel, format, true), nil
	case blockstore.KindOnDemandDecode:
		return blockstore.NewOnDemandDecodeHandle(xb.ID, xb.Length, format), nil
	default:
		return nil, fmt.Errorf("unrecognised block kind %d", xb.Kind)
	}
}
