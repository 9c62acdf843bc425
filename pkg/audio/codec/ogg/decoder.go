package ogg

import (
	"bytes"
	"io"
)

// decoderBufferSize is the initial size of the Decoder's read buffer.
// Pages larger than the buffer grow it as needed (a page is at most
// 27 + 255 + 255*255 bytes).
const decoderBufferSize = 64 * 1024

// Decoder reads Ogg pages sequentially from a stream. It resynchronizes
// on the "OggS" capture pattern, so leading garbage or padding between
// pages is skipped.
type Decoder struct {
	r      io.Reader
	buf    []byte
	offset int
	length int
}

// NewDecoder creates a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r, buf: make([]byte, decoderBufferSize)}
}

// ReadPage returns the next page from the stream. It returns io.EOF when
// no further page can be found, and ErrBadCRC for a page whose checksum
// does not match.
func (d *Decoder) ReadPage() (*Page, error) {
	for {
		d.sync()

		if d.length-d.offset >= HeaderSize {
			page, consumed, err := ParsePage(d.buf[d.offset:d.length])
			if err == nil {
				d.offset += consumed
				return page, nil
			}
			if err == ErrBadCRC {
				d.offset += HeaderSize // skip past the bad header and resync
				return nil, err
			}
			// ErrInvalidPage with the capture pattern present means the
			// page is truncated in the buffer; fall through to read more.
		}

		if err := d.fill(); err != nil {
			return nil, err
		}
	}
}

// sync discards buffered bytes up to the next capture pattern.
func (d *Decoder) sync() {
	window := d.buf[d.offset:d.length]
	i := bytes.Index(window, []byte(capturePattern))
	switch {
	case i >= 0:
		d.offset += i
	case len(window) >= 3:
		// Keep the last 3 bytes: they may be a pattern prefix.
		d.offset = d.length - 3
	}
}

func (d *Decoder) fill() error {
	if d.offset > 0 {
		remaining := d.length - d.offset
		copy(d.buf, d.buf[d.offset:d.length])
		d.offset = 0
		d.length = remaining
	}
	if d.length == len(d.buf) {
		grown := make([]byte, len(d.buf)*2)
		copy(grown, d.buf[:d.length])
		d.buf = grown
	}

	n, err := d.r.Read(d.buf[d.length:])
	d.length += n
	if n > 0 {
		return nil
	}
	if err == nil {
		err = io.ErrNoProgress
	}
	return err
}

// PacketReader reassembles logical packets from a page stream, joining
// packets that span page boundaries. Header-type flags and granule
// positions are tracked per page; callers that need them should use
// Decoder directly.
type PacketReader struct {
	dec     *Decoder
	queue   [][]byte
	partial []byte
	open    bool
}

// NewPacketReader creates a PacketReader over r.
func NewPacketReader(r io.Reader) *PacketReader {
	return &PacketReader{dec: NewDecoder(r)}
}

// Next returns the next complete packet, or io.EOF at the end of the
// stream. A packet left open by the final page is discarded.
func (pr *PacketReader) Next() ([]byte, error) {
	for len(pr.queue) == 0 {
		page, err := pr.dec.ReadPage()
		if err != nil {
			return nil, err
		}

		packets := page.Packets()

		if page.IsContinuation() && pr.open {
			if len(packets) > 0 {
				packets[0] = append(pr.partial, packets[0]...)
				pr.partial = nil
				pr.open = false
			} else {
				// The whole page extends the open packet.
				pr.partial = append(pr.partial, page.Payload...)
				continue
			}
		} else if pr.open {
			// The stream dropped the continuation; discard the fragment.
			pr.partial = nil
			pr.open = false
		}

		if tail := page.Tail(); tail != nil {
			pr.partial = append(pr.partial, tail...)
			pr.open = true
		}

		pr.queue = packets
	}

	packet := pr.queue[0]
	pr.queue = pr.queue[1:]
	return packet, nil
}
