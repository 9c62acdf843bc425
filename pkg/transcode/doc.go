// Package transcode turns input audio files into the packet stream the
// container codec consumes, and wraps extracted page streams back into
// standard playable files.
//
// Inputs that are already Ogg Opus are parsed directly. Everything else
// is piped through external tools:
//
//	ffmpeg -i <file> -f wav -ar 48000 - | opusenc --bitrate N - -
//
// The resulting packets carry their duration in 48kHz sample ticks,
// derived from each packet's TOC byte. The playback device only accepts
// CELT-only Opus configurations (16-31); other configurations fail the
// conversion with a descriptive error.
package transcode
