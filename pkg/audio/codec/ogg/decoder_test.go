package ogg

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func encodePages(t *testing.T, pages ...*Page) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, p := range pages {
		buf.Write(p.Encode())
	}
	return buf.Bytes()
}

func TestDecoderReadPage(t *testing.T) {
	stream := encodePages(t,
		&Page{Sequence: 0, Segments: []byte{1}, Payload: []byte{'a'}},
		&Page{Sequence: 1, Segments: []byte{1}, Payload: []byte{'b'}},
		&Page{Sequence: 2, HeaderType: FlagEOS, Segments: []byte{1}, Payload: []byte{'c'}},
	)

	dec := NewDecoder(bytes.NewReader(stream))
	for want := uint32(0); want < 3; want++ {
		page, err := dec.ReadPage()
		if err != nil {
			t.Fatalf("ReadPage() #%d error: %v", want, err)
		}
		if page.Sequence != want {
			t.Errorf("Sequence = %d, want %d", page.Sequence, want)
		}
	}
	if _, err := dec.ReadPage(); err != io.EOF {
		t.Errorf("ReadPage() at end = %v, want io.EOF", err)
	}
}

func TestDecoderResync(t *testing.T) {
	page := &Page{Segments: []byte{1}, Payload: []byte{'x'}}
	stream := append([]byte("garbage before the page"), page.Encode()...)

	dec := NewDecoder(bytes.NewReader(stream))
	got, err := dec.ReadPage()
	if err != nil {
		t.Fatalf("ReadPage() error: %v", err)
	}
	if !bytes.Equal(got.Payload, []byte{'x'}) {
		t.Errorf("Payload = %v, want [x]", got.Payload)
	}
}

func TestDecoderBadCRC(t *testing.T) {
	data := (&Page{Segments: []byte{1}, Payload: []byte{'x'}}).Encode()
	data[len(data)-1] ^= 0xFF

	dec := NewDecoder(bytes.NewReader(data))
	if _, err := dec.ReadPage(); !errors.Is(err, ErrBadCRC) {
		t.Errorf("ReadPage() = %v, want ErrBadCRC", err)
	}
}

func TestPacketReaderSpanningPacket(t *testing.T) {
	// One 300-byte packet split across two pages: 255 bytes on the
	// first, 45 on the second (continuation).
	packet := bytes.Repeat([]byte{7}, 300)
	stream := encodePages(t,
		&Page{Sequence: 0, Segments: []byte{255}, Payload: packet[:255]},
		&Page{
			Sequence:   1,
			HeaderType: FlagContinuation | FlagEOS,
			Segments:   []byte{45, 2},
			Payload:    append(append([]byte(nil), packet[255:]...), 8, 8),
		},
	)

	pr := NewPacketReader(bytes.NewReader(stream))

	got, err := pr.Next()
	if err != nil {
		t.Fatalf("Next() error: %v", err)
	}
	if !bytes.Equal(got, packet) {
		t.Errorf("first packet length = %d, want %d", len(got), len(packet))
	}

	got, err = pr.Next()
	if err != nil {
		t.Fatalf("Next() error: %v", err)
	}
	if !bytes.Equal(got, []byte{8, 8}) {
		t.Errorf("second packet = %v, want [8 8]", got)
	}

	if _, err := pr.Next(); err != io.EOF {
		t.Errorf("Next() at end = %v, want io.EOF", err)
	}
}

func TestPacketReaderMultiPacketPage(t *testing.T) {
	stream := encodePages(t, &Page{
		Segments: []byte{1, 2, 3},
		Payload:  []byte{1, 2, 2, 3, 3, 3},
	})
	pr := NewPacketReader(bytes.NewReader(stream))
	for i, want := range [][]byte{{1}, {2, 2}, {3, 3, 3}} {
		got, err := pr.Next()
		if err != nil {
			t.Fatalf("Next() #%d error: %v", i, err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("packet %d = %v, want %v", i, got, want)
		}
	}
}
