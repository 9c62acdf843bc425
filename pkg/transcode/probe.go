package transcode

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/go-audio/wav"
	mp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"

	"github.com/storytoy/taf/pkg/audio/codec/ogg"
)

// Info describes one input file before conversion. Duration is zero
// when the format carries no length information.
type Info struct {
	Path       string
	Duration   time.Duration
	SampleRate int
	Channels   int
	Title      string
	Artist     string
	Album      string
}

// Probe reads duration, stream parameters and tags from path without
// decoding audio. Tag errors are ignored: many otherwise valid files
// carry none.
func Probe(path string) (*Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info := &Info{Path: path}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		err = probeWAV(f, info)
	case ".mp3":
		err = probeMP3(f, info)
	case ".ogg":
		err = probeVorbis(f, info)
	case ".opus":
		err = probeOpus(f, info)
	}
	if err != nil {
		return nil, fmt.Errorf("transcode: probe %s: %w", path, err)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	if m, err := tag.ReadFrom(f); err == nil {
		info.Title = m.Title()
		info.Artist = m.Artist()
		info.Album = m.Album()
	}
	return info, nil
}

func probeWAV(f *os.File, info *Info) error {
	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return err
	}
	info.SampleRate = int(dec.SampleRate)
	info.Channels = int(dec.NumChans)
	d, err := dec.Duration()
	if err != nil {
		return err
	}
	info.Duration = d
	return nil
}

func probeMP3(f *os.File, info *Info) error {
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return err
	}
	info.SampleRate = dec.SampleRate()
	info.Channels = 2
	// Length is decoded PCM bytes: 2 channels of 16-bit samples.
	samples := dec.Length() / 4
	info.Duration = time.Duration(samples) * time.Second / time.Duration(dec.SampleRate())
	return nil
}

func probeVorbis(f *os.File, info *Info) error {
	length, format, err := oggvorbis.GetLength(f)
	if err != nil {
		return err
	}
	info.SampleRate = format.SampleRate
	info.Channels = format.Channels
	if format.SampleRate > 0 {
		info.Duration = time.Duration(length) * time.Second / time.Duration(format.SampleRate)
	}
	return nil
}

// probeOpus scans Ogg pages for the identification header and the
// final granule position. Opus granules always count 48kHz samples
// regardless of the original input rate.
func probeOpus(f *os.File, info *Info) error {
	dec := ogg.NewDecoder(f)
	var last uint64
	var preSkip uint16
	for {
		page, err := dec.ReadPage()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if packets := page.Packets(); len(packets) > 0 && ogg.IsOpusHead(packets[0]) {
			head, err := ogg.ParseOpusHead(packets[0])
			if err != nil {
				return err
			}
			info.Channels = int(head.Channels)
			info.SampleRate = int(head.SampleRate)
			preSkip = head.PreSkip
			continue
		}
		if page.GranulePos != ^uint64(0) {
			last = page.GranulePos
		}
	}
	if info.Channels == 0 {
		return ErrNotOggOpus
	}
	if last > uint64(preSkip) {
		info.Duration = time.Duration(last-uint64(preSkip)) * time.Second / 48000
	}
	return nil
}
