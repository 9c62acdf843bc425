package ogg

import (
	"encoding/binary"
	"strings"
)

// Opus-in-Ogg header constants per RFC 7845.
const (
	opusHeadMagic = "OpusHead"
	opusTagsMagic = "OpusTags"

	// opusHeadSize is the size of an OpusHead packet with channel
	// mapping family 0 (mono/stereo, implicit order).
	opusHeadSize = 19

	opusHeadVersion = 1
)

// OpusHead is the identification header carried by the first packet of an
// Ogg Opus stream (RFC 7845 §5.1). Only channel mapping family 0 is
// modeled explicitly; the extended mapping table of other families is
// kept verbatim in Extra.
type OpusHead struct {
	// Version is the encapsulation version, must be 1.
	Version uint8

	// Channels is the output channel count.
	Channels uint8

	// PreSkip is the number of 48kHz samples to discard at decode start.
	PreSkip uint16

	// SampleRate is the original input sample rate. Informational only:
	// Opus always runs at 48kHz internally.
	SampleRate uint32

	// OutputGain is a gain to apply on output, in Q7.8 dB.
	OutputGain int16

	// MappingFamily selects the channel mapping. 0 means mono/stereo
	// with implicit order.
	MappingFamily uint8

	// Extra holds the channel mapping table for families other than 0.
	Extra []byte
}

// Encode serializes the OpusHead packet.
func (h *OpusHead) Encode() []byte {
	data := make([]byte, opusHeadSize+len(h.Extra))
	copy(data[0:8], opusHeadMagic)
	data[8] = h.Version
	data[9] = h.Channels
	binary.LittleEndian.PutUint16(data[10:12], h.PreSkip)
	binary.LittleEndian.PutUint32(data[12:16], h.SampleRate)
	binary.LittleEndian.PutUint16(data[16:18], uint16(h.OutputGain))
	data[18] = h.MappingFamily
	copy(data[19:], h.Extra)
	return data
}

// ParseOpusHead parses an OpusHead packet.
func ParseOpusHead(data []byte) (*OpusHead, error) {
	if len(data) < opusHeadSize {
		return nil, ErrInvalidHeader
	}
	if string(data[0:8]) != opusHeadMagic {
		return nil, ErrInvalidHeader
	}
	if data[8] != opusHeadVersion {
		return nil, ErrInvalidHeader
	}
	h := &OpusHead{
		Version:       data[8],
		Channels:      data[9],
		PreSkip:       binary.LittleEndian.Uint16(data[10:12]),
		SampleRate:    binary.LittleEndian.Uint32(data[12:16]),
		OutputGain:    int16(binary.LittleEndian.Uint16(data[16:18])),
		MappingFamily: data[18],
	}
	if h.Channels == 0 {
		return nil, ErrInvalidHeader
	}
	if len(data) > opusHeadSize {
		h.Extra = append([]byte(nil), data[opusHeadSize:]...)
	}
	return h, nil
}

// IsOpusHead reports whether the packet starts with the OpusHead magic.
func IsOpusHead(data []byte) bool {
	return len(data) >= 8 && string(data[0:8]) == opusHeadMagic
}

// IsOpusTags reports whether the packet starts with the OpusTags magic.
func IsOpusTags(data []byte) bool {
	return len(data) >= 8 && string(data[0:8]) == opusTagsMagic
}

// OpusTags is the comment header carried by the second packet of an Ogg
// Opus stream (RFC 7845 §5.2).
type OpusTags struct {
	// Vendor identifies the software that produced the stream.
	Vendor string

	// Comments are "NAME=value" user comment strings.
	Comments []string
}

// Encode serializes the OpusTags packet.
func (t *OpusTags) Encode() []byte {
	size := 8 + 4 + len(t.Vendor) + 4
	for _, c := range t.Comments {
		size += 4 + len(c)
	}

	data := make([]byte, 0, size)
	data = append(data, opusTagsMagic...)
	data = binary.LittleEndian.AppendUint32(data, uint32(len(t.Vendor)))
	data = append(data, t.Vendor...)
	data = binary.LittleEndian.AppendUint32(data, uint32(len(t.Comments)))
	for _, c := range t.Comments {
		data = binary.LittleEndian.AppendUint32(data, uint32(len(c)))
		data = append(data, c...)
	}
	return data
}

// ParseOpusTags parses an OpusTags packet.
func ParseOpusTags(data []byte) (*OpusTags, error) {
	if len(data) < 16 || string(data[0:8]) != opusTagsMagic {
		return nil, ErrInvalidHeader
	}

	offset := 8
	vendorLen := int(binary.LittleEndian.Uint32(data[offset : offset+4]))
	offset += 4
	if offset+vendorLen+4 > len(data) {
		return nil, ErrInvalidHeader
	}
	t := &OpusTags{Vendor: string(data[offset : offset+vendorLen])}
	offset += vendorLen

	count := int(binary.LittleEndian.Uint32(data[offset : offset+4]))
	offset += 4
	for i := 0; i < count; i++ {
		if offset+4 > len(data) {
			return nil, ErrInvalidHeader
		}
		n := int(binary.LittleEndian.Uint32(data[offset : offset+4]))
		offset += 4
		if offset+n > len(data) {
			return nil, ErrInvalidHeader
		}
		t.Comments = append(t.Comments, string(data[offset:offset+n]))
		offset += n
	}
	return t, nil
}

// Comment returns the value of the first comment with the given name
// (case-insensitive), or "" if absent.
func (t *OpusTags) Comment(name string) string {
	for _, c := range t.Comments {
		if k, v, ok := strings.Cut(c, "="); ok && strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}
