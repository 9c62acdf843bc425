package taf

import (
	"crypto/sha1"
	"crypto/subtle"
	"fmt"
	"io"
	"iter"

	"github.com/storytoy/taf/pkg/audio/codec/ogg"
)

// Handle is an opened, validated TAF file. The audio region's hash has
// already been verified when a Handle exists.
type Handle struct {
	// Header is the decoded device header.
	Header *Header

	r io.ReadSeeker
}

// Open parses and validates a TAF byte stream. It fails with
// ErrMalformedHeader when the header block is structurally invalid and
// with ErrHashMismatch when the SHA-1 recomputed over the audio region
// differs from the embedded digest or the region length disagrees with
// the header. The hash check always runs before any page is exposed.
func Open(r io.ReadSeeker) (*Handle, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	block := make([]byte, HeaderBlockSize)
	if _, err := io.ReadFull(r, block); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("%w: file shorter than header block", ErrMalformedHeader)
		}
		return nil, err
	}

	header, err := ParseHeaderBlock(block)
	if err != nil {
		return nil, err
	}

	sha := sha1.New()
	n, err := io.Copy(sha, io.LimitReader(r, int64(header.NumBytes)))
	if err != nil {
		return nil, err
	}
	if n != int64(header.NumBytes) {
		return nil, fmt.Errorf("%w: audio region is %d bytes, header claims %d", ErrHashMismatch, n, header.NumBytes)
	}
	var one [1]byte
	if extra, _ := r.Read(one[:]); extra != 0 {
		return nil, fmt.Errorf("%w: trailing data after audio region", ErrHashMismatch)
	}
	if subtle.ConstantTimeCompare(sha.Sum(nil), header.Hash) != 1 {
		return nil, fmt.Errorf("%w: embedded %x, computed %x", ErrHashMismatch, header.Hash, sha.Sum(nil))
	}

	return &Handle{Header: header, r: r}, nil
}

// Chapters returns the chapter table: ascending page sequence numbers,
// first entry 0.
func (h *Handle) Chapters() []uint32 {
	return append([]uint32(nil), h.Header.ChapterPages...)
}

// Pages returns a lazy sequential scan of the audio region. Page
// boundaries are discovered by parsing each page's own structure, never
// by arithmetic division: pages are variable-sized. Structural
// violations, sequence gaps and continuation-flagged pages yield
// ErrMalformedPage; after an error the sequence stops.
func (h *Handle) Pages() iter.Seq2[*ogg.Page, error] {
	return func(yield func(*ogg.Page, error) bool) {
		if _, err := h.r.Seek(HeaderBlockSize, io.SeekStart); err != nil {
			yield(nil, err)
			return
		}

		remaining := int64(h.Header.NumBytes)
		want := uint32(0)
		for remaining > 0 {
			page, size, err := readPage(h.r, remaining)
			if err != nil {
				yield(nil, err)
				return
			}
			if page.Sequence != want {
				yield(nil, fmt.Errorf("%w: page sequence %d, want %d", ErrMalformedPage, page.Sequence, want))
				return
			}
			if page.IsContinuation() {
				yield(nil, fmt.Errorf("%w: page %d carries a split packet", ErrMalformedPage, page.Sequence))
				return
			}
			remaining -= int64(size)
			want++
			if !yield(page, nil) {
				return
			}
		}
	}
}

// readPage reads exactly one page from r, bounded by the remaining
// length of the audio region.
func readPage(r io.Reader, remaining int64) (*ogg.Page, int, error) {
	if remaining < ogg.HeaderSize {
		return nil, 0, fmt.Errorf("%w: %d trailing bytes, too short for a page", ErrMalformedPage, remaining)
	}

	header := make([]byte, ogg.HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrMalformedPage, err)
	}

	rest := int(header[26])
	full := append(header, make([]byte, rest)...)
	if _, err := io.ReadFull(r, full[ogg.HeaderSize:]); err != nil {
		return nil, 0, fmt.Errorf("%w: truncated segment table: %v", ErrMalformedPage, err)
	}
	payload := 0
	for _, seg := range full[ogg.HeaderSize:] {
		payload += int(seg)
	}
	if int64(len(full)+payload) > remaining {
		return nil, 0, fmt.Errorf("%w: page overruns audio region", ErrMalformedPage)
	}
	full = append(full, make([]byte, payload)...)
	if _, err := io.ReadFull(r, full[ogg.HeaderSize+rest:]); err != nil {
		return nil, 0, fmt.Errorf("%w: truncated payload: %v", ErrMalformedPage, err)
	}

	page, size, err := ogg.ParsePage(full)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrMalformedPage, err)
	}
	return page, size, nil
}
