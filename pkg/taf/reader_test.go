package taf

import (
	"bytes"
	"crypto/sha1"
	"encoding/binary"
	"errors"
	"testing"
)

func sha1Sum(data []byte) []byte {
	sum := sha1.Sum(data)
	return sum[:]
}

func writtenFile(t *testing.T, payloadCount int, boundaries ...int) []byte {
	t.Helper()
	var buf bytes.Buffer
	src := NewSliceSource(testPayloads(payloadCount, 200), 480, boundaries...)
	if _, err := Write(&buf, src, WithStrategy(StrategySpool), WithAudioID(99)); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	return buf.Bytes()
}

func TestOpenRejectsShortFile(t *testing.T) {
	_, err := Open(bytes.NewReader(make([]byte, 100)))
	if !errors.Is(err, ErrMalformedHeader) {
		t.Errorf("Open() = %v, want ErrMalformedHeader", err)
	}
}

func TestOpenRejectsBadLengthPrefix(t *testing.T) {
	data := writtenFile(t, 5)
	binary.BigEndian.PutUint32(data[0:4], HeaderBlockSize+1)
	if _, err := Open(bytes.NewReader(data)); !errors.Is(err, ErrMalformedHeader) {
		t.Errorf("Open() = %v, want ErrMalformedHeader", err)
	}
}

func TestOpenRejectsTruncatedRegion(t *testing.T) {
	data := writtenFile(t, 5)
	if _, err := Open(bytes.NewReader(data[:len(data)-10])); !errors.Is(err, ErrHashMismatch) {
		t.Errorf("Open() = %v, want ErrHashMismatch", err)
	}
}

func TestOpenRejectsTrailingData(t *testing.T) {
	data := writtenFile(t, 5)
	data = append(data, 0xDE, 0xAD)
	if _, err := Open(bytes.NewReader(data)); !errors.Is(err, ErrHashMismatch) {
		t.Errorf("Open() = %v, want ErrHashMismatch", err)
	}
}

func TestOpenRejectsTamperedHash(t *testing.T) {
	data := writtenFile(t, 5)
	// The hash field sits early in the header message; flipping any of
	// its bytes must fail verification even though the region is intact.
	data[10] ^= 0xFF
	if _, err := Open(bytes.NewReader(data)); !errors.Is(err, ErrHashMismatch) {
		t.Errorf("Open() = %v, want ErrHashMismatch", err)
	}
}

func TestPagesAreRescannable(t *testing.T) {
	data := writtenFile(t, 12)
	h, err := Open(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}

	count := func() int {
		n := 0
		for _, err := range h.Pages() {
			if err != nil {
				t.Fatalf("Pages() error: %v", err)
			}
			n++
		}
		return n
	}

	first := count()
	second := count()
	if first == 0 || first != second {
		t.Errorf("page counts differ across scans: %d then %d", first, second)
	}
}

func TestPagesRejectContinuationFlag(t *testing.T) {
	data := writtenFile(t, 5)

	// Rewrite the audio region so the second page carries the
	// continuation flag, recomputing its CRC and the file hash.
	h, err := Open(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	var pages [][]byte
	i := 0
	for page, err := range h.Pages() {
		if err != nil {
			t.Fatalf("Pages() error: %v", err)
		}
		if i == 1 {
			page.HeaderType |= 0x01
		}
		pages = append(pages, page.Encode())
		i++
	}
	if len(pages) < 2 {
		t.Skip("need at least two pages")
	}

	region := bytes.Join(pages, nil)
	rebuilt := rebuildFile(t, h.Header, region)

	h2, err := Open(bytes.NewReader(rebuilt))
	if err != nil {
		t.Fatalf("Open() of rebuilt file error: %v", err)
	}
	var got error
	for _, err := range h2.Pages() {
		if err != nil {
			got = err
			break
		}
	}
	if !errors.Is(got, ErrMalformedPage) {
		t.Errorf("Pages() = %v, want ErrMalformedPage", got)
	}
}

// rebuildFile assembles a fresh file from an existing header's identity
// fields and a replacement audio region, with a matching hash.
func rebuildFile(t *testing.T, old *Header, region []byte) []byte {
	t.Helper()
	header := &Header{
		AudioID:      old.AudioID,
		Hash:         sha1Sum(region),
		NumBytes:     uint32(len(region)),
		ChapterPages: old.ChapterPages,
	}
	block, err := header.MarshalBlock()
	if err != nil {
		t.Fatalf("MarshalBlock() error: %v", err)
	}
	return append(block, region...)
}
