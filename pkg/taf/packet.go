package taf

import "io"

// Packet is one encoded audio packet destined for a container page.
// Packets are immutable once created; the muxer only reads them.
type Packet struct {
	// Data is the opaque encoded payload.
	Data []byte

	// Samples is the packet duration in the codec's native time unit
	// (48kHz sample ticks for Opus).
	Samples int64

	// Index is the 0-based ordinal of the packet within its stream.
	Index int
}

// PacketSource produces an ordered, finite stream of packets. It is the
// narrow interface behind which transcoding and file aggregation live;
// the container codec only ever consumes this.
type PacketSource interface {
	// NextPacket returns the next packet, or io.EOF after the last one.
	NextPacket() (*Packet, error)

	// ChapterBoundaries returns the ascending packet indices at which
	// chapters begin, as discovered so far. The slice may grow while
	// packets are being produced; callers re-consult it per packet.
	// Index 0 is implied and need not be listed.
	ChapterBoundaries() []int
}

// SliceSource is a PacketSource over an in-memory packet list, with a
// fixed set of chapter boundaries. It is primarily useful in tests and
// for re-muxing already-extracted packets.
type SliceSource struct {
	Packets    []*Packet
	Boundaries []int

	next int
}

// NewSliceSource builds a SliceSource from raw payloads, assigning
// indices in order and the given duration to every packet.
func NewSliceSource(payloads [][]byte, samplesEach int64, boundaries ...int) *SliceSource {
	packets := make([]*Packet, len(payloads))
	for i, data := range payloads {
		packets[i] = &Packet{Data: data, Samples: samplesEach, Index: i}
	}
	return &SliceSource{Packets: packets, Boundaries: boundaries}
}

// NextPacket implements PacketSource.
func (s *SliceSource) NextPacket() (*Packet, error) {
	if s.next >= len(s.Packets) {
		return nil, io.EOF
	}
	p := s.Packets[s.next]
	s.next++
	return p, nil
}

// ChapterBoundaries implements PacketSource.
func (s *SliceSource) ChapterBoundaries() []int {
	return s.Boundaries
}
