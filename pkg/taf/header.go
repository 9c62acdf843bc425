package taf

import (
	"encoding/binary"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

const (
	// HeaderBlockSize is the fixed size of the header block. Audio pages
	// start at this offset.
	HeaderBlockSize = 4096

	// HashSize is the size of the SHA-1 content digest.
	HashSize = 20

	// headerPrefixSize is the big-endian uint32 length prefix.
	headerPrefixSize = 4

	// maxHeaderMessage is the largest header message that fits the block.
	maxHeaderMessage = HeaderBlockSize - headerPrefixSize
)

// Header message field numbers. The device firmware decodes the header
// as a protobuf message with exactly these numbers.
const (
	fieldHash         = 1 // bytes, 20-byte SHA-1 over the audio region
	fieldNumBytes     = 2 // uint32, length of the audio region
	fieldAudioID      = 3 // uint32, content fingerprint (creation time)
	fieldChapterPages = 4 // repeated uint32, page numbers where tracks start
	fieldFill         = 5 // bytes, zero fill sizing the message toward the block
)

// Header is the device header of a TAF file. It is computed after all
// audio pages exist and written at offset 0, immutable once written.
type Header struct {
	// AudioID is a 32-bit content fingerprint, conventionally the unix
	// creation time. The device uses it to tell contents apart; it is
	// also the serial number stamped on every audio page.
	AudioID uint32

	// Hash is the SHA-1 digest over the entire audio-page region.
	Hash []byte

	// NumBytes is the byte length of the audio-page region (everything
	// after the header block).
	NumBytes uint32

	// ChapterPages lists the page sequence numbers at which chapters
	// begin, ascending, first entry always 0.
	ChapterPages []uint32
}

// MarshalBlock serializes the header into the full fixed-size block:
// length prefix, header message, zero padding to HeaderBlockSize. The
// fill field sizes the message toward the block end, so the prefix is
// 0xFFC for any realistic chapter count. Returns ErrHeaderOverflow when
// the fields alone cannot fit; the header is never truncated.
func (h *Header) MarshalBlock() ([]byte, error) {
	if len(h.Hash) != HashSize {
		return nil, fmt.Errorf("%w: hash is %d bytes, want %d", ErrHeaderOverflow, len(h.Hash), HashSize)
	}

	msg := protowire.AppendTag(nil, fieldHash, protowire.BytesType)
	msg = protowire.AppendBytes(msg, h.Hash)
	msg = protowire.AppendTag(msg, fieldNumBytes, protowire.VarintType)
	msg = protowire.AppendVarint(msg, uint64(h.NumBytes))
	msg = protowire.AppendTag(msg, fieldAudioID, protowire.VarintType)
	msg = protowire.AppendVarint(msg, uint64(h.AudioID))
	if len(h.ChapterPages) > 0 {
		var packed []byte
		for _, p := range h.ChapterPages {
			packed = protowire.AppendVarint(packed, uint64(p))
		}
		msg = protowire.AppendTag(msg, fieldChapterPages, protowire.BytesType)
		msg = protowire.AppendBytes(msg, packed)
	}

	if len(msg) > maxHeaderMessage {
		return nil, fmt.Errorf("%w: %d chapter entries need %d bytes, block allows %d",
			ErrHeaderOverflow, len(h.ChapterPages), len(msg), maxHeaderMessage)
	}

	// Grow the message toward the block end with the zero fill field.
	// The fill field costs 1 tag byte plus the length varint, so at a
	// varint width boundary an exact fit may not exist; the block is
	// zero padded past the message either way.
	if avail := maxHeaderMessage - len(msg); avail >= 2 {
		fill := avail - 2
		if protowire.SizeVarint(uint64(fill)) > 1 {
			fill = avail - 1 - protowire.SizeVarint(uint64(avail))
		}
		for len(msg)+1+protowire.SizeVarint(uint64(fill))+fill > maxHeaderMessage {
			fill--
		}
		msg = protowire.AppendTag(msg, fieldFill, protowire.BytesType)
		msg = protowire.AppendBytes(msg, make([]byte, fill))
	}

	block := make([]byte, HeaderBlockSize)
	binary.BigEndian.PutUint32(block[0:4], uint32(len(msg)))
	copy(block[headerPrefixSize:], msg)
	return block, nil
}

// ParseHeaderBlock decodes a header block read from offset 0 of a file.
// The input must be exactly HeaderBlockSize bytes. Unknown fields are
// skipped; the chapter list is accepted packed or unpacked.
func ParseHeaderBlock(block []byte) (*Header, error) {
	if len(block) != HeaderBlockSize {
		return nil, fmt.Errorf("%w: header block is %d bytes, want %d", ErrMalformedHeader, len(block), HeaderBlockSize)
	}

	msgLen := binary.BigEndian.Uint32(block[0:4])
	if int(msgLen) > maxHeaderMessage {
		return nil, fmt.Errorf("%w: message length %d exceeds block", ErrMalformedHeader, msgLen)
	}

	h := &Header{}
	msg := block[headerPrefixSize : headerPrefixSize+int(msgLen)]
	for len(msg) > 0 {
		num, typ, n := protowire.ConsumeTag(msg)
		if n < 0 {
			return nil, fmt.Errorf("%w: bad field tag", ErrMalformedHeader)
		}
		msg = msg[n:]

		switch {
		case num == fieldHash && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(msg)
			if n < 0 {
				return nil, fmt.Errorf("%w: bad hash field", ErrMalformedHeader)
			}
			h.Hash = append([]byte(nil), v...)
			msg = msg[n:]
		case num == fieldNumBytes && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(msg)
			if n < 0 {
				return nil, fmt.Errorf("%w: bad length field", ErrMalformedHeader)
			}
			h.NumBytes = uint32(v)
			msg = msg[n:]
		case num == fieldAudioID && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(msg)
			if n < 0 {
				return nil, fmt.Errorf("%w: bad audio id field", ErrMalformedHeader)
			}
			h.AudioID = uint32(v)
			msg = msg[n:]
		case num == fieldChapterPages && typ == protowire.BytesType:
			packed, n := protowire.ConsumeBytes(msg)
			if n < 0 {
				return nil, fmt.Errorf("%w: bad chapter field", ErrMalformedHeader)
			}
			msg = msg[n:]
			for len(packed) > 0 {
				v, n := protowire.ConsumeVarint(packed)
				if n < 0 {
					return nil, fmt.Errorf("%w: bad chapter entry", ErrMalformedHeader)
				}
				h.ChapterPages = append(h.ChapterPages, uint32(v))
				packed = packed[n:]
			}
		case num == fieldChapterPages && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(msg)
			if n < 0 {
				return nil, fmt.Errorf("%w: bad chapter entry", ErrMalformedHeader)
			}
			h.ChapterPages = append(h.ChapterPages, uint32(v))
			msg = msg[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, msg)
			if n < 0 {
				return nil, fmt.Errorf("%w: bad field %d", ErrMalformedHeader, num)
			}
			msg = msg[n:]
		}
	}

	if len(h.Hash) != HashSize {
		return nil, fmt.Errorf("%w: hash is %d bytes, want %d", ErrMalformedHeader, len(h.Hash), HashSize)
	}
	return h, nil
}
