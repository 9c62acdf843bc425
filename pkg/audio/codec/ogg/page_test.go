package ogg

import (
	"bytes"
	"testing"
)

func TestBuildSegmentTable(t *testing.T) {
	tests := []struct {
		name      string
		packetLen int
		want      []byte
	}{
		{"empty", 0, []byte{0}},
		{"small", 100, []byte{100}},
		{"one full segment", 255, []byte{255, 0}},
		{"spanning", 300, []byte{255, 45}},
		{"two full segments", 510, []byte{255, 255, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildSegmentTable(tt.packetLen)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("BuildSegmentTable(%d) = %v, want %v", tt.packetLen, got, tt.want)
			}
		})
	}
}

func TestParseSegmentTable(t *testing.T) {
	tests := []struct {
		name     string
		segments []byte
		want     []int
	}{
		{"single", []byte{100}, []int{100}},
		{"two packets", []byte{100, 50}, []int{100, 50}},
		{"spanning segments", []byte{255, 45}, []int{300}},
		{"exact multiple", []byte{255, 0}, []int{255}},
		{"open tail", []byte{100, 255}, []int{100}},
		{"empty", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseSegmentTable(tt.segments)
			if len(got) != len(tt.want) {
				t.Fatalf("ParseSegmentTable(%v) = %v, want %v", tt.segments, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("length[%d] = %d, want %d", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestPageEncodeParse(t *testing.T) {
	payload := []byte("opus packet data")
	page := &Page{
		HeaderType: FlagEOS,
		GranulePos: 960,
		Serial:     0x1234_5678,
		Sequence:   7,
		Segments:   BuildSegmentTable(len(payload)),
		Payload:    payload,
	}

	data := page.Encode()
	if len(data) != page.Size() {
		t.Fatalf("Encode() length = %d, want Size() = %d", len(data), page.Size())
	}

	parsed, consumed, err := ParsePage(data)
	if err != nil {
		t.Fatalf("ParsePage() error: %v", err)
	}
	if consumed != len(data) {
		t.Errorf("consumed = %d, want %d", consumed, len(data))
	}
	if parsed.GranulePos != page.GranulePos {
		t.Errorf("GranulePos = %d, want %d", parsed.GranulePos, page.GranulePos)
	}
	if parsed.Serial != page.Serial {
		t.Errorf("Serial = %#x, want %#x", parsed.Serial, page.Serial)
	}
	if parsed.Sequence != page.Sequence {
		t.Errorf("Sequence = %d, want %d", parsed.Sequence, page.Sequence)
	}
	if !parsed.IsEOS() {
		t.Error("IsEOS() = false, want true")
	}
	if !bytes.Equal(parsed.Payload, payload) {
		t.Errorf("Payload = %q, want %q", parsed.Payload, payload)
	}
}

func TestPageEmptyEncodeParse(t *testing.T) {
	page := &Page{HeaderType: FlagEOS, Sequence: 0}
	data := page.Encode()
	if len(data) != HeaderSize {
		t.Fatalf("empty page size = %d, want %d", len(data), HeaderSize)
	}
	parsed, _, err := ParsePage(data)
	if err != nil {
		t.Fatalf("ParsePage() error: %v", err)
	}
	if len(parsed.Segments) != 0 || len(parsed.Payload) != 0 {
		t.Errorf("parsed %d segments / %d payload bytes, want 0/0", len(parsed.Segments), len(parsed.Payload))
	}
}

func TestParsePageErrors(t *testing.T) {
	good := (&Page{Segments: []byte{3}, Payload: []byte{1, 2, 3}}).Encode()

	t.Run("truncated header", func(t *testing.T) {
		if _, _, err := ParsePage(good[:10]); err != ErrInvalidPage {
			t.Errorf("err = %v, want ErrInvalidPage", err)
		}
	})

	t.Run("bad magic", func(t *testing.T) {
		bad := append([]byte(nil), good...)
		bad[0] = 'X'
		if _, _, err := ParsePage(bad); err != ErrInvalidPage {
			t.Errorf("err = %v, want ErrInvalidPage", err)
		}
	})

	t.Run("bad version", func(t *testing.T) {
		bad := append([]byte(nil), good...)
		bad[4] = 1
		if _, _, err := ParsePage(bad); err != ErrInvalidPage {
			t.Errorf("err = %v, want ErrInvalidPage", err)
		}
	})

	t.Run("flipped payload byte", func(t *testing.T) {
		bad := append([]byte(nil), good...)
		bad[len(bad)-1] ^= 0xFF
		if _, _, err := ParsePage(bad); err != ErrBadCRC {
			t.Errorf("err = %v, want ErrBadCRC", err)
		}
	})

	t.Run("truncated payload", func(t *testing.T) {
		if _, _, err := ParsePage(good[:len(good)-1]); err != ErrInvalidPage {
			t.Errorf("err = %v, want ErrInvalidPage", err)
		}
	})
}

func TestPageTail(t *testing.T) {
	page := &Page{
		Segments: []byte{3, 255},
		Payload:  append([]byte{1, 2, 3}, bytes.Repeat([]byte{9}, 255)...),
	}
	if got := len(page.Packets()); got != 1 {
		t.Fatalf("Packets() count = %d, want 1", got)
	}
	if got := len(page.Tail()); got != 255 {
		t.Errorf("Tail() length = %d, want 255", got)
	}

	closed := &Page{Segments: []byte{3}, Payload: []byte{1, 2, 3}}
	if closed.Tail() != nil {
		t.Error("Tail() != nil for a page with only complete packets")
	}
}
