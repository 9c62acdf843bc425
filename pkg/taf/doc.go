// Package taf implements the TAF audio container consumed by the
// storytoy playback device.
//
// A TAF file is a fixed 4096-byte header block followed by a contiguous
// run of Ogg-framed audio pages:
//
//	offset 0..4      big-endian uint32: length L of the header message
//	offset 4..4+L    protobuf header: SHA-1 hash, audio region length,
//	                 audio id, chapter page numbers, zero fill
//	offset 4+L..4096 zero padding
//	offset 4096..EOF audio pages, sequence numbers 0,1,2,...
//
// The header describes everything written after it: its hash field is
// the SHA-1 over the whole audio region and its chapter table lists the
// page sequence numbers where tracks begin. Because of that ordering
// dependency, Writer defers header emission until all pages exist, using
// one of two interchangeable strategies (spool or seek-and-patch) that
// produce byte-identical files.
//
// Reading is strict: Open validates the header block and recomputes the
// SHA-1 over the audio region before exposing a single page. A corrupted
// file fails with ErrHashMismatch and is never partially extracted.
package taf
