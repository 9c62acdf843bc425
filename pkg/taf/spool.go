package taf

import (
	"bytes"
	"io"
	"os"
)

// spoolThreshold is the amount of page data held in memory before the
// spool spills to a temporary file.
const spoolThreshold = 32 << 20

// spool buffers the audio-page region during a two-pass write: in memory
// up to spoolThreshold, then in a temporary file. WriteTo replays the
// buffered bytes and Close releases the temporary file.
type spool struct {
	buf  bytes.Buffer
	file *os.File
}

func (s *spool) Write(p []byte) (int, error) {
	if s.file == nil {
		if s.buf.Len()+len(p) <= spoolThreshold {
			return s.buf.Write(p)
		}
		f, err := os.CreateTemp("", "taf-spool-*")
		if err != nil {
			return 0, err
		}
		if _, err := s.buf.WriteTo(f); err != nil {
			f.Close()
			os.Remove(f.Name())
			return 0, err
		}
		s.file = f
	}
	return s.file.Write(p)
}

func (s *spool) WriteTo(w io.Writer) (int64, error) {
	if s.file == nil {
		return s.buf.WriteTo(w)
	}
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	return io.Copy(w, s.file)
}

func (s *spool) Close() error {
	if s.file == nil {
		return nil
	}
	name := s.file.Name()
	err := s.file.Close()
	if rmErr := os.Remove(name); err == nil {
		err = rmErr
	}
	s.file = nil
	return err
}
