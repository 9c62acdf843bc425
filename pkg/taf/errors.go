package taf

import "errors"

var (
	// ErrMalformedHeader is returned when the header block of a file is
	// structurally invalid: bad length prefix, undecodable header
	// message, or fields that contradict the block layout.
	ErrMalformedHeader = errors.New("taf: malformed header")

	// ErrHashMismatch is returned when the SHA-1 recomputed over the
	// audio region does not equal the digest embedded in the header, or
	// when the region is shorter or longer than the header claims. The
	// file is treated as corrupt and no pages are exposed.
	ErrHashMismatch = errors.New("taf: content hash mismatch")

	// ErrHeaderOverflow is returned when the header fields alone exceed
	// the fixed header block; the header is never truncated to fit.
	ErrHeaderOverflow = errors.New("taf: header exceeds fixed block size")

	// ErrEncode is returned when pages cannot be produced: a packet too
	// large for an empty page, or a packet source failure.
	ErrEncode = errors.New("taf: encode failed")

	// ErrMalformedPage is returned when a page inside the audio region
	// is structurally invalid or out of sequence.
	ErrMalformedPage = errors.New("taf: malformed page")
)
