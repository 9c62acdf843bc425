package taf

import (
	"crypto/sha1"
	"fmt"
	"hash"
	"io"
	"math"
	"time"
)

// Strategy selects how the Writer reconciles the header's dependency on
// content written after it. Both strategies produce byte-identical files.
type Strategy int

const (
	// StrategyAuto picks StrategyPatch when the sink seeks, otherwise
	// StrategySpool.
	StrategyAuto Strategy = iota

	// StrategySpool buffers all pages (memory, then a temporary file),
	// writes the finished header first and replays the pages after it.
	// Works on any sink.
	StrategySpool

	// StrategyPatch writes a zero placeholder header block, streams
	// pages directly to the sink, then seeks back to offset 0 and
	// overwrites the placeholder. Requires an io.WriteSeeker.
	StrategyPatch
)

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithAudioID sets the 32-bit content fingerprint. The default derives
// from the creation time.
func WithAudioID(id uint32) WriterOption {
	return func(w *Writer) { w.audioID = id }
}

// WithPageSize sets the page capacity in bytes. The default is
// DefaultPageSize.
func WithPageSize(n int) WriterOption {
	return func(w *Writer) { w.pageSize = n }
}

// WithStrategy forces a write strategy instead of StrategyAuto.
func WithStrategy(s Strategy) WriterOption {
	return func(w *Writer) { w.strategy = s }
}

// Writer produces a complete TAF byte stream on a sink. Pages are hashed
// in on-disk order as they are sealed; the header is assembled last and
// placed first according to the selected Strategy.
//
// A failed or abandoned write leaves an incomplete, invalid file on the
// sink. The Writer makes no atomicity guarantee; callers wanting one
// should write to a temporary path and rename after Finalize.
type Writer struct {
	mux  *Muxer
	sha  hash.Hash
	emit pageSink

	audioID  uint32
	pageSize int
	strategy Strategy

	pageBytes int64
	finished  bool
}

// pageSink is one of the two write disciplines behind the Writer.
type pageSink interface {
	// writePage receives each serialized page in on-disk order.
	writePage(data []byte) error
	// finish places the header block and flushes any buffered pages.
	finish(block []byte) error
}

// NewWriter creates a Writer emitting to w.
func NewWriter(w io.Writer, opts ...WriterOption) (*Writer, error) {
	tw := &Writer{
		sha:     sha1.New(),
		audioID: uint32(time.Now().Unix()),
	}
	for _, opt := range opts {
		opt(tw)
	}

	if tw.strategy == StrategyAuto {
		if _, ok := w.(io.WriteSeeker); ok {
			tw.strategy = StrategyPatch
		} else {
			tw.strategy = StrategySpool
		}
	}

	switch tw.strategy {
	case StrategySpool:
		tw.emit = &spoolSink{sink: w}
	case StrategyPatch:
		ws, ok := w.(io.WriteSeeker)
		if !ok {
			return nil, fmt.Errorf("taf: patch strategy needs a seekable sink, got %T", w)
		}
		// Placeholder header block; patched in Finalize.
		if _, err := ws.Write(make([]byte, HeaderBlockSize)); err != nil {
			return nil, err
		}
		tw.emit = &patchSink{sink: ws}
	default:
		return nil, fmt.Errorf("taf: unknown write strategy %d", tw.strategy)
	}

	tw.mux = NewMuxer(tw.audioID, tw.pageSize)
	return tw, nil
}

// AudioID returns the content fingerprint stamped on this file.
func (w *Writer) AudioID() uint32 { return w.audioID }

// Add places one packet, emitting a page when one seals.
func (w *Writer) Add(p *Packet) error {
	page, err := w.mux.Add(p)
	if err != nil {
		return err
	}
	if page != nil {
		return w.writePage(page.Encode())
	}
	return nil
}

// StartChapter marks the next page as a chapter start, sealing the open
// page if it has content.
func (w *Writer) StartChapter() error {
	if page := w.mux.StartChapter(); page != nil {
		return w.writePage(page.Encode())
	}
	return nil
}

// Finalize seals the final page, builds the header and completes the
// file. It returns the total number of bytes the finished file occupies
// (header block plus audio region).
func (w *Writer) Finalize() (int64, error) {
	if w.finished {
		return 0, fmt.Errorf("taf: writer already finalized")
	}
	w.finished = true

	if err := w.writePage(w.mux.Finish().Encode()); err != nil {
		return 0, err
	}
	if w.pageBytes > math.MaxUint32 {
		return 0, fmt.Errorf("%w: audio region is %d bytes, header length field holds 32 bits",
			ErrHeaderOverflow, w.pageBytes)
	}

	header := &Header{
		AudioID:      w.audioID,
		Hash:         w.sha.Sum(nil),
		NumBytes:     uint32(w.pageBytes),
		ChapterPages: w.mux.ChapterPages(),
	}
	block, err := header.MarshalBlock()
	if err != nil {
		return 0, err
	}
	if err := w.emit.finish(block); err != nil {
		return 0, err
	}
	return HeaderBlockSize + w.pageBytes, nil
}

func (w *Writer) writePage(data []byte) error {
	w.sha.Write(data)
	w.pageBytes += int64(len(data))
	return w.emit.writePage(data)
}

// Write converts an entire packet source into a TAF file on w, returning
// the total bytes written. Chapter boundaries are consulted before every
// packet, so sources that discover boundaries while producing packets
// are handled. Source failures surface as ErrEncode; sink I/O errors
// propagate unchanged.
func Write(w io.Writer, src PacketSource, opts ...WriterOption) (int64, error) {
	tw, err := NewWriter(w, opts...)
	if err != nil {
		return 0, err
	}

	next := 0
	for {
		p, err := src.NextPacket()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("%w: packet source: %w", ErrEncode, err)
		}

		boundaries := src.ChapterBoundaries()
		for next < len(boundaries) && boundaries[next] <= p.Index {
			if boundaries[next] == p.Index {
				if err := tw.StartChapter(); err != nil {
					return 0, err
				}
			}
			next++
		}

		if err := tw.Add(p); err != nil {
			return 0, err
		}
	}
	return tw.Finalize()
}

type spoolSink struct {
	sink  io.Writer
	spool spool
}

func (s *spoolSink) writePage(data []byte) error {
	_, err := s.spool.Write(data)
	return err
}

func (s *spoolSink) finish(block []byte) error {
	defer s.spool.Close()
	if _, err := s.sink.Write(block); err != nil {
		return err
	}
	_, err := s.spool.WriteTo(s.sink)
	return err
}

type patchSink struct {
	sink io.WriteSeeker
}

func (s *patchSink) writePage(data []byte) error {
	_, err := s.sink.Write(data)
	return err
}

func (s *patchSink) finish(block []byte) error {
	if _, err := s.sink.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, err := s.sink.Write(block); err != nil {
		return err
	}
	_, err := s.sink.Seek(0, io.SeekEnd)
	return err
}
