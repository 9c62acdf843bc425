// Package audio provides audio codec utilities.
//
// This package serves as an umbrella for codec sub-packages:
//
//   - codec/ogg: Ogg page framing (RFC 3533) and the Opus stream
//     headers carried on it (RFC 7845)
//   - codec/opus: Opus packet TOC inspection (RFC 6716) for per-packet
//     sample accounting without decoding
//
// Example usage:
//
//	import (
//	    "github.com/storytoy/taf/pkg/audio/codec/ogg"
//	    "github.com/storytoy/taf/pkg/audio/codec/opus"
//	)
//
//	// Read packets off an Ogg stream
//	pr := ogg.NewPacketReader(r)
//	data, err := pr.Next()
//
//	// Count the samples a packet carries
//	samples := opus.Frame(data).PacketSamples()
package audio
