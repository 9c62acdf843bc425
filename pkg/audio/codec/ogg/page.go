package ogg

import (
	"encoding/binary"
)

// Page header type flags.
const (
	// FlagContinuation indicates the page starts with data from a packet
	// that began on the previous page.
	FlagContinuation = 0x01
	// FlagBOS indicates the first page of a logical stream.
	FlagBOS = 0x02
	// FlagEOS indicates the last page of a logical stream.
	FlagEOS = 0x04
)

const (
	// HeaderSize is the fixed portion of a page header, before the
	// segment table.
	HeaderSize = 27

	// MaxSegments is the maximum number of segment table entries per page.
	MaxSegments = 255

	capturePattern = "OggS"
)

// Page is a single Ogg page.
type Page struct {
	// Version is the stream structure version, always 0.
	Version byte

	// HeaderType holds the continuation/BOS/EOS flags.
	HeaderType byte

	// GranulePos is the cumulative time-position marker at the end of
	// this page. For Opus streams it counts 48kHz PCM samples.
	GranulePos uint64

	// Serial identifies the logical stream.
	Serial uint32

	// Sequence is the page sequence number within the stream.
	Sequence uint32

	// Segments is the segment table: each entry is a lacing value 0-255.
	Segments []byte

	// Payload is the concatenated packet data described by Segments.
	Payload []byte
}

// BuildSegmentTable returns the segment table for a single packet of the
// given length. Every 255 bytes of the packet occupy one full segment; the
// remainder goes into a final short segment. A length that is an exact
// multiple of 255 needs a terminating zero-length segment.
func BuildSegmentTable(packetLen int) []byte {
	full := packetLen / 255
	table := make([]byte, full+1)
	for i := 0; i < full; i++ {
		table[i] = 255
	}
	table[full] = byte(packetLen % 255)
	return table
}

// ParseSegmentTable returns the lengths of the complete packets described
// by a segment table. A trailing run of 255 values describes a packet that
// continues on the next page; its bytes are not included in the result.
func ParseSegmentTable(segments []byte) []int {
	var lengths []int
	current := 0
	for _, seg := range segments {
		current += int(seg)
		if seg < 255 {
			lengths = append(lengths, current)
			current = 0
		}
	}
	return lengths
}

// IsBOS reports whether this is a beginning-of-stream page.
func (p *Page) IsBOS() bool { return p.HeaderType&FlagBOS != 0 }

// IsEOS reports whether this is an end-of-stream page.
func (p *Page) IsEOS() bool { return p.HeaderType&FlagEOS != 0 }

// IsContinuation reports whether this page continues a packet from the
// previous page.
func (p *Page) IsContinuation() bool { return p.HeaderType&FlagContinuation != 0 }

// Size returns the serialized size of the page in bytes.
func (p *Page) Size() int {
	return HeaderSize + len(p.Segments) + len(p.Payload)
}

// Packets splits the payload into the complete packets described by the
// segment table. Bytes belonging to a packet that continues on the next
// page are not returned; see Tail.
func (p *Page) Packets() [][]byte {
	lengths := ParseSegmentTable(p.Segments)
	if len(lengths) == 0 {
		return nil
	}
	packets := make([][]byte, 0, len(lengths))
	offset := 0
	for _, n := range lengths {
		packets = append(packets, p.Payload[offset:offset+n])
		offset += n
	}
	return packets
}

// Tail returns the payload bytes of a packet left open at the end of the
// page (the last lacing value was 255), or nil if every packet on the
// page is complete.
func (p *Page) Tail() []byte {
	complete := 0
	for _, n := range ParseSegmentTable(p.Segments) {
		complete += n
	}
	if complete == len(p.Payload) {
		return nil
	}
	return p.Payload[complete:]
}

// Encode serializes the page with a freshly computed CRC.
func (p *Page) Encode() []byte {
	headerSize := HeaderSize + len(p.Segments)
	data := make([]byte, headerSize+len(p.Payload))

	copy(data[0:4], capturePattern)
	data[4] = p.Version
	data[5] = p.HeaderType
	binary.LittleEndian.PutUint64(data[6:14], p.GranulePos)
	binary.LittleEndian.PutUint32(data[14:18], p.Serial)
	binary.LittleEndian.PutUint32(data[18:22], p.Sequence)
	// CRC at 22:26 is computed over the page with the field zeroed.
	data[26] = byte(len(p.Segments))
	copy(data[27:], p.Segments)
	copy(data[headerSize:], p.Payload)

	binary.LittleEndian.PutUint32(data[22:26], crcUpdate(0, data))
	return data
}

// ParsePage parses one page from the start of data. It returns the page,
// the number of bytes consumed, and an error. ErrInvalidPage is returned
// on structural violations and ErrBadCRC when the stored checksum does
// not match the page bytes.
func ParsePage(data []byte) (*Page, int, error) {
	if len(data) < HeaderSize {
		return nil, 0, ErrInvalidPage
	}
	if string(data[0:4]) != capturePattern {
		return nil, 0, ErrInvalidPage
	}
	if data[4] != 0 {
		return nil, 0, ErrInvalidPage
	}

	numSegments := int(data[26])
	headerSize := HeaderSize + numSegments
	if len(data) < headerSize {
		return nil, 0, ErrInvalidPage
	}

	payloadSize := 0
	for _, seg := range data[27:headerSize] {
		payloadSize += int(seg)
	}
	total := headerSize + payloadSize
	if len(data) < total {
		return nil, 0, ErrInvalidPage
	}

	p := &Page{
		Version:    data[4],
		HeaderType: data[5],
		GranulePos: binary.LittleEndian.Uint64(data[6:14]),
		Serial:     binary.LittleEndian.Uint32(data[14:18]),
		Sequence:   binary.LittleEndian.Uint32(data[18:22]),
		Segments:   append([]byte(nil), data[27:headerSize]...),
		Payload:    append([]byte(nil), data[headerSize:total]...),
	}

	stored := binary.LittleEndian.Uint32(data[22:26])
	crc := crcUpdate(0, data[:22])
	crc = crcUpdate(crc, []byte{0, 0, 0, 0})
	crc = crcUpdate(crc, data[26:total])
	if crc != stored {
		return nil, 0, ErrBadCRC
	}

	return p, total, nil
}
