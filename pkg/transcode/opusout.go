package transcode

import (
	"bytes"
	"io"

	"github.com/storytoy/taf/pkg/audio/codec/ogg"
	"github.com/storytoy/taf/pkg/taf"
)

// WriteOpusFile extracts one chapter of h as a standards-compliant Ogg
// Opus file: a synthesized identification header and comment header
// followed by the chapter's audio pages renumbered from 2. Chapter -1
// selects the whole file. Returns the number of bytes written.
func WriteOpusFile(w io.Writer, h *taf.Handle, chapter int) (int64, error) {
	var audio bytes.Buffer
	var err error
	if chapter < 0 {
		_, err = h.Extract(&audio)
	} else {
		_, err = h.ExtractChapter(&audio, chapter)
	}
	if err != nil {
		return 0, err
	}

	// Serial must match the audio pages so players see one stream.
	firstPage, _, err := ogg.ParsePage(audio.Bytes())
	if err != nil {
		return 0, err
	}
	serial := firstPage.Serial

	head := &ogg.OpusHead{
		Version:    1,
		Channels:   2,
		SampleRate: 48000,
	}
	headPage := &ogg.Page{
		HeaderType: ogg.FlagBOS,
		Serial:     serial,
		Sequence:   0,
		Segments:   ogg.BuildSegmentTable(len(head.Encode())),
		Payload:    head.Encode(),
	}

	tags := &ogg.OpusTags{Vendor: "taf"}
	tagsData := tags.Encode()
	tagsPage := &ogg.Page{
		Serial:   serial,
		Sequence: 1,
		Segments: ogg.BuildSegmentTable(len(tagsData)),
		Payload:  tagsData,
	}

	var written int64
	for _, page := range []*ogg.Page{headPage, tagsPage} {
		n, err := w.Write(page.Encode())
		written += int64(n)
		if err != nil {
			return written, err
		}
	}

	// Renumber the audio pages after the two header pages.
	rest := audio.Bytes()
	for len(rest) > 0 {
		page, n, err := ogg.ParsePage(rest)
		if err != nil {
			return written, err
		}
		rest = rest[n:]
		page.Sequence += 2
		wn, err := w.Write(page.Encode())
		written += int64(wn)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}
