package commands

import (
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/storytoy/taf/pkg/cli"
	"github.com/storytoy/taf/pkg/taf"
)

var infoFormat string

var infoCmd = &cobra.Command{
	Use:   "info <input>",
	Short: "Show and verify a device audio file's header",
	Long: `Verify a device audio file's checksum and show its header.

The whole audio region is hashed during open, so a success here means
the file is intact. The exit code is non-zero for a malformed or
corrupted file.

Examples:
  taf info 500304E0
  taf info out.taf --output yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	infoCmd.Flags().StringVarP(&infoFormat, "output", "o", "text", "output format (text, yaml, json)")
	rootCmd.AddCommand(infoCmd)
}

// fileInfo is the serializable report for one file.
type fileInfo struct {
	Path         string   `json:"path" yaml:"path"`
	AudioID      string   `json:"audio_id" yaml:"audio_id"`
	SHA1         string   `json:"sha1" yaml:"sha1"`
	AudioBytes   uint32   `json:"audio_bytes" yaml:"audio_bytes"`
	Pages        int      `json:"pages" yaml:"pages"`
	Chapters     int      `json:"chapters" yaml:"chapters"`
	ChapterPages []uint32 `json:"chapter_pages" yaml:"chapter_pages"`
	Duration     string   `json:"duration" yaml:"duration"`
}

func runInfo(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(infoFormat)
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	h, err := taf.Open(f)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	pages := 0
	var granule uint64
	for page, err := range h.Pages() {
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		pages++
		granule = page.GranulePos
	}
	// Granules count 48kHz samples.
	duration := time.Duration(granule) * time.Second / 48000

	info := &fileInfo{
		Path:         args[0],
		AudioID:      fmt.Sprintf("%08X", h.Header.AudioID),
		SHA1:         hex.EncodeToString(h.Header.Hash),
		AudioBytes:   h.Header.NumBytes,
		Pages:        pages,
		Chapters:     len(h.Chapters()),
		ChapterPages: h.Chapters(),
		Duration:     cli.FormatDuration(duration),
	}

	if format == cli.FormatText {
		fmt.Fprint(cmd.OutOrStdout(), renderInfo(info))
		return nil
	}
	return cli.Output(info, cli.OutputOptions{Format: format, Writer: cmd.OutOrStdout()})
}

func renderInfo(info *fileInfo) string {
	styles := cli.NewStyles(cli.DefaultTheme)
	return cli.Summary{
		Styles: styles,
		Title:  info.Path,
		Rows: []cli.Row{
			{Label: "audio id", Value: info.AudioID},
			{Label: "sha1", Value: info.SHA1},
			{Label: "audio bytes", Value: fmt.Sprintf("%d (%s)", info.AudioBytes, cli.FormatBytes(int64(info.AudioBytes)))},
			{Label: "pages", Value: fmt.Sprintf("%d", info.Pages)},
			{Label: "chapters", Value: fmt.Sprintf("%d %v", info.Chapters, info.ChapterPages)},
			{Label: "duration", Value: info.Duration},
		},
	}.Render()
}
