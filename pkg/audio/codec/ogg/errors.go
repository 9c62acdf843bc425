package ogg

import "errors"

var (
	// ErrInvalidPage is returned when a page is structurally malformed:
	// missing "OggS" capture pattern, unsupported version, or truncated
	// header, segment table or payload.
	ErrInvalidPage = errors.New("ogg: invalid page structure")

	// ErrBadCRC is returned when a page's CRC checksum does not match
	// the value computed over its bytes.
	ErrBadCRC = errors.New("ogg: page CRC mismatch")

	// ErrInvalidHeader is returned when an OpusHead or OpusTags packet
	// is malformed.
	ErrInvalidHeader = errors.New("ogg: invalid Opus header")
)
