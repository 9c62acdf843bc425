package taf

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/storytoy/taf/pkg/audio/codec/ogg"
)

// writeToFile writes src through the patch strategy on a real file and
// returns the resulting bytes.
func writeToFile(t *testing.T, src PacketSource, opts ...WriterOption) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out.taf")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	defer f.Close()

	if _, err := Write(f, src, opts...); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	return data
}

func testPayloads(n, size int) [][]byte {
	payloads := make([][]byte, n)
	for i := range payloads {
		payloads[i] = bytes.Repeat([]byte{byte(i + 1)}, size)
	}
	return payloads
}

func TestWriteProducesValidFile(t *testing.T) {
	src := NewSliceSource(testPayloads(20, 500), 960, 10)
	data := writeToFile(t, src, WithAudioID(0xCAFE))

	if len(data) < HeaderBlockSize {
		t.Fatalf("file is %d bytes, shorter than the header block", len(data))
	}

	h, err := Open(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if h.Header.AudioID != 0xCAFE {
		t.Errorf("AudioID = %#x, want 0xCAFE", h.Header.AudioID)
	}
	if int(h.Header.NumBytes) != len(data)-HeaderBlockSize {
		t.Errorf("NumBytes = %d, want %d", h.Header.NumBytes, len(data)-HeaderBlockSize)
	}

	var wantSeq uint32
	var lastGranule uint64
	for page, err := range h.Pages() {
		if err != nil {
			t.Fatalf("Pages() error: %v", err)
		}
		if page.Sequence != wantSeq {
			t.Errorf("Sequence = %d, want %d", page.Sequence, wantSeq)
		}
		if page.GranulePos < lastGranule {
			t.Errorf("granule %d decreased below %d", page.GranulePos, lastGranule)
		}
		if page.Serial != 0xCAFE {
			t.Errorf("Serial = %#x, want 0xCAFE", page.Serial)
		}
		wantSeq++
		lastGranule = page.GranulePos
	}
	if lastGranule != 20*960 {
		t.Errorf("final granule = %d, want %d", lastGranule, 20*960)
	}
}

func TestWriteStrategiesByteIdentical(t *testing.T) {
	opts := []WriterOption{WithAudioID(7), WithPageSize(512)}

	patched := writeToFile(t, NewSliceSource(testPayloads(30, 120), 480, 7, 19), opts...)

	var buf bytes.Buffer
	spoolOpts := append([]WriterOption{WithStrategy(StrategySpool)}, opts...)
	if _, err := Write(&buf, NewSliceSource(testPayloads(30, 120), 480, 7, 19), spoolOpts...); err != nil {
		t.Fatalf("Write(spool) error: %v", err)
	}

	if !bytes.Equal(patched, buf.Bytes()) {
		t.Error("patch and spool strategies produced different bytes")
	}
}

func TestWriteReturnsTotalBytes(t *testing.T) {
	var buf bytes.Buffer
	n, err := Write(&buf, NewSliceSource(testPayloads(5, 100), 480), WithStrategy(StrategySpool))
	if err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if n != int64(buf.Len()) {
		t.Errorf("Write() = %d bytes, sink holds %d", n, buf.Len())
	}
}

func TestWriteEmptyInput(t *testing.T) {
	var buf bytes.Buffer
	if _, err := Write(&buf, NewSliceSource(nil, 0), WithStrategy(StrategySpool)); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	h, err := Open(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if h.Header.NumBytes != ogg.HeaderSize {
		t.Errorf("NumBytes = %d, want %d (one empty final page)", h.Header.NumBytes, ogg.HeaderSize)
	}
	if chapters := h.Chapters(); len(chapters) != 1 || chapters[0] != 0 {
		t.Errorf("Chapters() = %v, want [0]", chapters)
	}

	pages := 0
	for page, err := range h.Pages() {
		if err != nil {
			t.Fatalf("Pages() error: %v", err)
		}
		pages++
		if !page.IsEOS() {
			t.Error("single page missing EOS flag")
		}
		if page.GranulePos != 0 {
			t.Errorf("GranulePos = %d, want 0", page.GranulePos)
		}
	}
	if pages != 1 {
		t.Errorf("page count = %d, want 1", pages)
	}
}

func TestWriteHashCoversEveryByte(t *testing.T) {
	var buf bytes.Buffer
	if _, err := Write(&buf, NewSliceSource(testPayloads(3, 40), 480, 2), WithStrategy(StrategySpool)); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	data := buf.Bytes()

	for offset := HeaderBlockSize; offset < len(data); offset++ {
		corrupt := append([]byte(nil), data...)
		corrupt[offset] ^= 0x01
		if _, err := Open(bytes.NewReader(corrupt)); !errors.Is(err, ErrHashMismatch) {
			t.Fatalf("Open() with byte %d flipped = %v, want ErrHashMismatch", offset, err)
		}
	}
}

func TestWritePacketSourceError(t *testing.T) {
	var buf bytes.Buffer
	src := &failingSource{after: 2}
	_, err := Write(&buf, src, WithStrategy(StrategySpool))
	if !errors.Is(err, ErrEncode) {
		t.Errorf("Write() = %v, want ErrEncode", err)
	}
}

type failingSource struct {
	after int
	sent  int
}

func (s *failingSource) NextPacket() (*Packet, error) {
	if s.sent >= s.after {
		return nil, errors.New("decoder blew up")
	}
	p := &Packet{Data: []byte{1, 2, 3}, Samples: 480, Index: s.sent}
	s.sent++
	return p, nil
}

func (s *failingSource) ChapterBoundaries() []int { return nil }

func TestWriterChapterAlignment(t *testing.T) {
	// Boundaries at 3 and 7, ten packets of 1KB with a 4096 page:
	// chapters must start on fresh pages, ascending, no repeats.
	src := NewSliceSource(testPayloads(10, 1000), 960, 3, 7)
	data := writeToFile(t, src)

	h, err := Open(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	marks := h.Chapters()
	if len(marks) != 3 || marks[0] != 0 {
		t.Fatalf("Chapters() = %v, want three entries starting at 0", marks)
	}
	for i := 1; i < len(marks); i++ {
		if marks[i] <= marks[i-1] {
			t.Errorf("chapter marks not strictly increasing: %v", marks)
		}
	}

	// Count packets per page to locate chapter starts: boundary packet
	// 3 must be the first packet on the page marks[1] points at.
	packetsSeen := 0
	for page, err := range h.Pages() {
		if err != nil {
			t.Fatalf("Pages() error: %v", err)
		}
		if page.Sequence == marks[1] && packetsSeen != 3 {
			t.Errorf("chapter 1 page starts at packet %d, want 3", packetsSeen)
		}
		if page.Sequence == marks[2] && packetsSeen != 7 {
			t.Errorf("chapter 2 page starts at packet %d, want 7", packetsSeen)
		}
		packetsSeen += len(page.Packets())
	}
}

func TestFinalizeRejectsOversizedAudioRegion(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, WithStrategy(StrategySpool))
	if err != nil {
		t.Fatalf("NewWriter() error: %v", err)
	}
	if err := w.Add(&Packet{Data: []byte{0x01}, Samples: 480}); err != nil {
		t.Fatalf("Add() error: %v", err)
	}

	// The header's length field is 32 bits; a region past 4GiB must
	// fail instead of silently truncating.
	w.pageBytes = math.MaxUint32

	if _, err := w.Finalize(); !errors.Is(err, ErrHeaderOverflow) {
		t.Errorf("Finalize() error = %v, want ErrHeaderOverflow", err)
	}
}
