package transcode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/storytoy/taf/pkg/audio/codec/ogg"
	"github.com/storytoy/taf/pkg/audio/codec/opus"
	"github.com/storytoy/taf/pkg/taf"
)

var (
	// ErrNotOggOpus is returned when an input claimed to be Ogg Opus
	// has no valid identification header.
	ErrNotOggOpus = errors.New("transcode: not an Ogg Opus stream")

	// ErrUnsupportedAudio is returned when a stream's parameters are
	// outside what the playback device accepts (stereo 48kHz, CELT-only
	// packet configurations).
	ErrUnsupportedAudio = errors.New("transcode: unsupported audio parameters")
)

// Options configures the conversion of one input into packets.
type Options struct {
	// FFmpeg is the ffmpeg executable path. Defaults to "ffmpeg".
	FFmpeg string

	// Opusenc is the opusenc executable path. Defaults to "opusenc".
	Opusenc string

	// Bitrate is the opusenc bitrate in kbit/s. Defaults to 96.
	Bitrate int

	// CBR selects constant bitrate encoding; the default is VBR.
	CBR bool
}

func (o Options) withDefaults() Options {
	if o.FFmpeg == "" {
		o.FFmpeg = "ffmpeg"
	}
	if o.Opusenc == "" {
		o.Opusenc = "opusenc"
	}
	if o.Bitrate <= 0 {
		o.Bitrate = 96
	}
	return o
}

// Source is a closeable packet source. Close must be called to release
// the underlying file or subprocess pipeline.
type Source interface {
	taf.PacketSource
	io.Closer
}

// File opens one audio file as a packet source. Files ending in .opus
// are parsed directly; all other formats run through the external
// ffmpeg/opusenc pipeline.
func File(ctx context.Context, path string, opts Options) (Source, error) {
	if strings.EqualFold(filepath.Ext(path), ".opus") {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		return newOpusSource(f, f.Close), nil
	}

	pipe, err := encodePipeline(ctx, path, opts.withDefaults())
	if err != nil {
		return nil, err
	}
	return newOpusSource(pipe, pipe.Close), nil
}

// opusSource turns a raw Ogg Opus byte stream into packets. The ID and
// comment header packets are consumed for validation and skipped;
// every remaining packet must be a CELT-only configuration.
type opusSource struct {
	packets *ogg.PacketReader
	close   func() error
	index   int
	headOK  bool
}

func newOpusSource(r io.Reader, close func() error) *opusSource {
	return &opusSource{packets: ogg.NewPacketReader(r), close: close}
}

// NextPacket implements taf.PacketSource.
func (s *opusSource) NextPacket() (*taf.Packet, error) {
	for {
		data, err := s.packets.Next()
		if err == io.EOF {
			if !s.headOK {
				return nil, ErrNotOggOpus
			}
			return nil, io.EOF
		}
		if err != nil {
			return nil, err
		}

		if ogg.IsOpusHead(data) {
			head, err := ogg.ParseOpusHead(data)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrNotOggOpus, err)
			}
			if head.Channels != 2 {
				return nil, fmt.Errorf("%w: %d channels, device requires stereo", ErrUnsupportedAudio, head.Channels)
			}
			if head.SampleRate != 48000 {
				return nil, fmt.Errorf("%w: %dHz input, device requires 48kHz", ErrUnsupportedAudio, head.SampleRate)
			}
			s.headOK = true
			continue
		}
		if ogg.IsOpusTags(data) {
			continue
		}
		if !s.headOK {
			return nil, ErrNotOggOpus
		}
		if len(data) == 0 {
			continue
		}

		frame := opus.Frame(data)
		if frame.Mode() != opus.CELT {
			return nil, fmt.Errorf("%w: configuration %d is %s, device requires CELT-only (16-31)",
				ErrUnsupportedAudio, frame.Configuration(), frame.Mode())
		}
		samples := frame.PacketSamples()
		if samples == 0 {
			return nil, fmt.Errorf("%w: packet %d has no decodable frames", ErrUnsupportedAudio, s.index)
		}

		p := &taf.Packet{Data: data, Samples: int64(samples), Index: s.index}
		s.index++
		return p, nil
	}
}

// ChapterBoundaries implements taf.PacketSource. A single file is a
// single chapter.
func (s *opusSource) ChapterBoundaries() []int { return nil }

// Close implements io.Closer.
func (s *opusSource) Close() error {
	if s.close == nil {
		return nil
	}
	err := s.close()
	s.close = nil
	return err
}

// Files concatenates several inputs into one packet stream with a
// chapter boundary at the first packet of every file after the first.
// Boundaries are discovered as files open, so ChapterBoundaries grows
// while the stream is consumed.
func Files(ctx context.Context, paths []string, opts Options) (Source, error) {
	if len(paths) == 0 {
		return nil, errors.New("transcode: no input files")
	}
	return &multiSource{ctx: ctx, paths: paths, opts: opts}, nil
}

type multiSource struct {
	ctx   context.Context
	paths []string
	opts  Options

	current    Source
	opened     int
	index      int
	boundaries []int
}

// NextPacket implements taf.PacketSource.
func (m *multiSource) NextPacket() (*taf.Packet, error) {
	for {
		if err := m.ctx.Err(); err != nil {
			return nil, err
		}

		if m.current == nil {
			if m.opened >= len(m.paths) {
				return nil, io.EOF
			}
			src, err := File(m.ctx, m.paths[m.opened], m.opts)
			if err != nil {
				return nil, fmt.Errorf("transcode: %s: %w", m.paths[m.opened], err)
			}
			if m.opened > 0 {
				m.boundaries = append(m.boundaries, m.index)
			}
			m.current = src
			m.opened++
		}

		p, err := m.current.NextPacket()
		if err == io.EOF {
			closeErr := m.current.Close()
			m.current = nil
			if closeErr != nil {
				return nil, fmt.Errorf("transcode: %s: %w", m.paths[m.opened-1], closeErr)
			}
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("transcode: %s: %w", m.paths[m.opened-1], err)
		}

		p.Index = m.index
		m.index++
		return p, nil
	}
}

// ChapterBoundaries implements taf.PacketSource.
func (m *multiSource) ChapterBoundaries() []int {
	return append([]int(nil), m.boundaries...)
}

// Close implements io.Closer.
func (m *multiSource) Close() error {
	if m.current == nil {
		return nil
	}
	err := m.current.Close()
	m.current = nil
	return err
}
