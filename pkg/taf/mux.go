package taf

import (
	"fmt"
	"iter"

	"github.com/storytoy/taf/pkg/audio/codec/ogg"
)

// DefaultPageSize is the page capacity used when none is configured.
// It matches the storage block size of the playback device.
const DefaultPageSize = 4096

// Muxer groups packets into container pages. Pages fill packet by packet
// until the next packet would exceed the capacity, then seal with the
// next sequence number and the cumulative granule position. Chapter
// boundaries force an early seal so every chapter starts on a page
// boundary the device can seek to.
//
// A Muxer serves exactly one output stream; it is not safe for
// concurrent use and cannot be reused after Finish.
type Muxer struct {
	serial   uint32
	capacity int

	seq         uint32
	granule     int64
	pageSamples int64
	segments    []byte
	payload     []byte
	chapters    []uint32
	finished    bool
}

// NewMuxer creates a Muxer stamping serial on every page. A capacity
// of 0 or less selects DefaultPageSize. The chapter table starts with
// the mandatory entry for page 0.
func NewMuxer(serial uint32, capacity int) *Muxer {
	if capacity <= 0 {
		capacity = DefaultPageSize
	}
	return &Muxer{
		serial:   serial,
		capacity: capacity,
		chapters: []uint32{0},
	}
}

// Add places a packet. If the packet does not fit the open page, the
// page is sealed and returned and the packet starts the next page; nil
// is returned while the open page still has room. A packet too large
// for an empty page fails with ErrEncode: packets are never split.
func (m *Muxer) Add(p *Packet) (*ogg.Page, error) {
	table := ogg.BuildSegmentTable(len(p.Data))

	if ogg.HeaderSize+len(table)+len(p.Data) > m.capacity || len(table) > ogg.MaxSegments {
		return nil, fmt.Errorf("%w: packet %d (%d bytes) exceeds page capacity %d",
			ErrEncode, p.Index, len(p.Data), m.capacity)
	}

	var sealed *ogg.Page
	if !m.fits(table, len(p.Data)) {
		sealed = m.seal(0)
	}

	m.segments = append(m.segments, table...)
	m.payload = append(m.payload, p.Data...)
	m.pageSamples += p.Samples
	return sealed, nil
}

// StartChapter records that the next page begins a new chapter. The open
// page, if any, is sealed and returned so the chapter starts on a fresh
// page boundary. Repeated boundaries at the same page collapse into one
// chapter mark.
func (m *Muxer) StartChapter() *ogg.Page {
	var sealed *ogg.Page
	if len(m.segments) > 0 {
		sealed = m.seal(0)
	}
	if m.chapters[len(m.chapters)-1] != m.seq {
		m.chapters = append(m.chapters, m.seq)
	}
	return sealed
}

// Finish seals the final page, which carries the end-of-stream flag and
// may be empty when no packets were added at all.
func (m *Muxer) Finish() *ogg.Page {
	m.finished = true
	return m.seal(ogg.FlagEOS)
}

// ChapterPages returns the chapter table built so far: ascending page
// sequence numbers, first entry always 0.
func (m *Muxer) ChapterPages() []uint32 {
	return append([]uint32(nil), m.chapters...)
}

// Granule returns the cumulative granule position over all sealed pages.
func (m *Muxer) Granule() int64 {
	return m.granule
}

func (m *Muxer) fits(table []byte, payloadLen int) bool {
	if len(m.segments)+len(table) > ogg.MaxSegments {
		return false
	}
	return ogg.HeaderSize+len(m.segments)+len(table)+len(m.payload)+payloadLen <= m.capacity
}

func (m *Muxer) seal(flags byte) *ogg.Page {
	m.granule += m.pageSamples
	page := &ogg.Page{
		HeaderType: flags,
		GranulePos: uint64(m.granule),
		Serial:     m.serial,
		Sequence:   m.seq,
		Segments:   m.segments,
		Payload:    m.payload,
	}
	m.seq++
	m.pageSamples = 0
	m.segments = nil
	m.payload = nil
	return page
}

// Mux drives m over a packet sequence, yielding finished pages lazily.
// A boundary at packet index i seals the open page before packet i is
// placed. The final page (end-of-stream flag) is yielded after the last
// packet; chapter marks are available from m afterwards.
func Mux(m *Muxer, packets iter.Seq2[*Packet, error], boundaries []int) iter.Seq2[*ogg.Page, error] {
	return func(yield func(*ogg.Page, error) bool) {
		next := 0
		for p, err := range packets {
			if err != nil {
				yield(nil, fmt.Errorf("%w: packet source: %w", ErrEncode, err))
				return
			}

			for next < len(boundaries) && boundaries[next] <= p.Index {
				if boundaries[next] == p.Index {
					if sealed := m.StartChapter(); sealed != nil {
						if !yield(sealed, nil) {
							return
						}
					}
				}
				next++
			}

			sealed, err := m.Add(p)
			if err != nil {
				yield(nil, err)
				return
			}
			if sealed != nil && !yield(sealed, nil) {
				return
			}
		}
		yield(m.Finish(), nil)
	}
}
