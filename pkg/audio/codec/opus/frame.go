package opus

import (
	"slices"
	"time"
)

// Frame represents a raw Opus encoded frame.
type Frame []byte

// Duration returns the total duration of audio contained in this frame.
func (f Frame) Duration() time.Duration {
	if len(f) == 0 {
		return 0
	}
	toc := f.TOC()
	fd := toc.Configuration().FrameDuration()
	switch toc.FrameCode() {
	case OneFrame:
		return fd.Duration()
	case TwoEqualFrames:
		return fd.Duration() * 2
	case TwoDifferentFrames:
		return fd.Duration() * 2
	case ArbitraryFrames:
		if len(f) < 2 {
			return 0
		}
		frameCount := f[1] & 0b00111111
		return fd.Duration() * time.Duration(frameCount)
	}
	return 0
}

// TOC returns the TOC byte of this frame.
func (f Frame) TOC() TOC {
	if len(f) == 0 {
		return 0
	}
	return TOC(f[0])
}

// Clone returns a copy of the frame.
func (f Frame) Clone() Frame {
	return slices.Clone(f)
}

// IsStereo returns true if this frame contains stereo audio.
func (f Frame) IsStereo() bool {
	return f.TOC().IsStereo()
}

// Configuration returns the configuration of this frame.
func (f Frame) Configuration() Configuration {
	return f.TOC().Configuration()
}

// Mode returns the mode (SILK, CELT, or Hybrid) of this frame.
func (f Frame) Mode() ConfigurationMode {
	return f.Configuration().Mode()
}

// Bandwidth returns the bandwidth of this frame.
func (f Frame) Bandwidth() Bandwidth {
	return f.Configuration().Bandwidth()
}

// Samples returns the number of samples per encoded frame at the
// configuration's effective sample rate. For 48kHz granule accounting
// use PacketSamples.
func (f Frame) Samples() int {
	return f.Configuration().Samples()
}

// FrameCount returns the number of encoded frames in this packet,
// derived from the frame count code (and, for code 3, the frame count
// byte). Returns 0 for an empty or truncated packet.
func (f Frame) FrameCount() int {
	if len(f) == 0 {
		return 0
	}
	switch f.TOC().FrameCode() {
	case OneFrame:
		return 1
	case TwoEqualFrames, TwoDifferentFrames:
		return 2
	case ArbitraryFrames:
		if len(f) < 2 {
			return 0
		}
		_, _, count := ParseFrameCountByte(f[1])
		return int(count)
	}
	return 0
}

// PacketSamples returns the total number of 48kHz samples carried by
// this packet across all of its frames. Granule positions always count
// 48kHz samples regardless of the configuration's effective rate, so
// this uses the per-frame granule increment, not Samples.
func (f Frame) PacketSamples() int {
	return f.FrameCount() * f.Configuration().PageGranuleIncrement()
}
