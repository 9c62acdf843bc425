package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/storytoy/taf/cmd/taf/internal/config"
)

var (
	// Global flags
	verbose bool

	// Global configuration (loaded at init time)
	globalConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "taf",
	Short: "Create, inspect and unpack toy-device audio files",
	Long: `taf - audio container tool for toy playback devices.

A device audio file packs Opus audio into fixed-framed pages behind a
4096-byte header carrying a SHA-1 checksum and a chapter index. This
tool converts ordinary audio into that container and back.

Commands:
  convert   Encode audio files or a directory into a device audio file
  extract   Unpack a device audio file into playable Ogg Opus
  info      Show and verify a device audio file's header
  version   Show version information

Converting requires ffmpeg and opusenc on PATH (or configured paths).
Defaults can be stored in the OS config directory:
  macOS:   ~/Library/Application Support/taf/config.yaml
  Linux:   ~/.config/taf/config.yaml
  Windows: %AppData%/taf/config.yaml

Examples:
  # One file, default output name
  taf convert audiobook.mp3

  # A directory becomes one file with a chapter per track
  taf convert ./album/ out.taf --bitrate 128

  # Unpack chapter 2 as a playable file
  taf extract out.taf --chapter 2

  # Verify and inspect
  taf info out.taf --output yaml`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// configLoadErr stores the error from config.Load() for deferred reporting.
var configLoadErr error

func initConfig() {
	if verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	cfg, err := config.Load()
	if err != nil {
		// Store error for deferred reporting. Commands that need config
		// will get a clear error via GetConfig(); this avoids failing
		// commands like 'taf version' when HOME is unset.
		configLoadErr = err
		return
	}
	globalConfig = cfg
}

// GetConfig returns the global configuration.
func GetConfig() (*config.Config, error) {
	if globalConfig == nil {
		if configLoadErr != nil {
			return nil, fmt.Errorf("config not available: %w", configLoadErr)
		}
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("config not available: %w", err)
		}
		globalConfig = cfg
	}
	return globalConfig, nil
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}
