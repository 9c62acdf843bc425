package taf

import (
	"fmt"
	"io"
	"math"

	"github.com/storytoy/taf/pkg/audio/codec/ogg"
)

// Extract re-emits the whole audio region as a standalone page stream:
// device header stripped, pages renumbered from 0, granule positions
// relative to the extraction start, end-of-stream flag on the last page.
// Each page is re-serialized with a fresh CRC. Returns the number of
// bytes written to w.
func (h *Handle) Extract(w io.Writer) (int64, error) {
	return h.extractRange(w, 0, math.MaxUint32)
}

// ExtractChapter is Extract restricted to one chapter: only the pages
// between the selected chapter mark and the next are included, and
// granule positions are rebased so the range starts at 0.
func (h *Handle) ExtractChapter(w io.Writer, chapter int) (int64, error) {
	marks := h.Header.ChapterPages
	if chapter < 0 || chapter >= len(marks) {
		return 0, fmt.Errorf("taf: chapter %d out of range, file has %d", chapter, len(marks))
	}

	start := marks[chapter]
	end := uint32(math.MaxUint32)
	if chapter+1 < len(marks) {
		end = marks[chapter+1]
	}
	return h.extractRange(w, start, end)
}

// extractRange copies pages with start <= sequence < end, renumbering
// and rebasing them. The page preceding the range supplies the granule
// base; the last page in the range receives the end-of-stream flag.
func (h *Handle) extractRange(w io.Writer, start, end uint32) (int64, error) {
	var (
		written int64
		base    uint64
		seq     uint32
		pending *ogg.Page
	)

	flush := func(p *ogg.Page, eos bool) error {
		p.HeaderType &^= ogg.FlagEOS
		if eos {
			p.HeaderType |= ogg.FlagEOS
		}
		p.GranulePos -= base
		p.Sequence = seq
		seq++
		n, err := w.Write(p.Encode())
		written += int64(n)
		return err
	}

	for page, err := range h.Pages() {
		if err != nil {
			return written, err
		}
		if page.Sequence < start {
			base = page.GranulePos
			continue
		}
		if page.Sequence >= end {
			break
		}
		if pending != nil {
			if err := flush(pending, false); err != nil {
				return written, err
			}
		}
		pending = page
	}

	if pending == nil {
		return written, fmt.Errorf("%w: no pages in selected range", ErrMalformedPage)
	}
	if err := flush(pending, true); err != nil {
		return written, err
	}
	return written, nil
}
