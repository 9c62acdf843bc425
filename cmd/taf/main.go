// Package main is the entry point for the taf CLI.
//
// Usage:
//
//	taf [flags] <command> [args]
//
// Commands:
//
//	convert - Encode audio files or a directory into a device audio file
//	extract - Unpack a device audio file into playable Ogg Opus
//	info    - Show and verify a device audio file's header
//	version - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/storytoy/taf/cmd/taf/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
