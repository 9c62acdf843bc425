package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/storytoy/taf/pkg/cli"
	"github.com/storytoy/taf/pkg/taf"
	"github.com/storytoy/taf/pkg/transcode"
)

var extractChapter int

var extractCmd = &cobra.Command{
	Use:   "extract <input> [output-dir]",
	Short: "Unpack a device audio file into playable Ogg Opus",
	Long: `Unpack a device audio file into standard Ogg Opus files.

With --chapter, only the selected chapter (counting from 0) is
extracted. Without it, a single-chapter file extracts whole and a
multi-chapter file splits into NN_<name>.ogg files.

The file's SHA-1 checksum is verified before anything is written.

Examples:
  taf extract 500304E0
  taf extract out.taf ./unpacked/
  taf extract out.taf --chapter 2`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().IntVar(&extractChapter, "chapter", -1, "extract only this chapter (0-based)")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	input := args[0]
	outDir := "."
	if len(args) > 1 {
		outDir = args[1]
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return err
		}
	}

	f, err := os.Open(input)
	if err != nil {
		return err
	}
	defer f.Close()

	h, err := taf.Open(f)
	if err != nil {
		if errors.Is(err, taf.ErrHashMismatch) {
			return fmt.Errorf("%s is corrupted: %w", input, err)
		}
		return err
	}

	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	chapters := h.Chapters()

	switch {
	case extractChapter >= 0:
		if extractChapter >= len(chapters) {
			return fmt.Errorf("chapter %d out of range, %s has %d", extractChapter, input, len(chapters))
		}
		return extractOne(h, extractChapter,
			filepath.Join(outDir, fmt.Sprintf("%02d_%s.ogg", extractChapter, base)))

	case len(chapters) > 1:
		for i := range chapters {
			name := filepath.Join(outDir, fmt.Sprintf("%02d_%s.ogg", i, base))
			if err := extractOne(h, i, name); err != nil {
				return err
			}
		}
		return nil

	default:
		return extractOne(h, -1, filepath.Join(outDir, base+".ogg"))
	}
}

// extractOne writes one chapter (or, with chapter -1, the whole file)
// as a playable Ogg Opus file at path.
func extractOne(h *taf.Handle, chapter int, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	n, err := transcode.WriteOpusFile(f, h, chapter)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return err
	}
	cli.PrintSuccess("%s (%s)", path, cli.FormatBytes(n))
	return nil
}
