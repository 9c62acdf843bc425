package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/storytoy/taf/pkg/audio/codec/ogg"
	"github.com/storytoy/taf/pkg/cli"
	"github.com/storytoy/taf/pkg/taf"
	"github.com/storytoy/taf/pkg/transcode"
)

// DefaultOutputName is the content file name toy devices look for.
const DefaultOutputName = "500304E0"

var (
	convertFFmpeg       string
	convertOpusenc      string
	convertBitrate      int
	convertCBR          bool
	convertTimestamp    string
	convertPageSize     int
	convertNameFromTags bool
	convertNoHeader     bool
	convertAppendName   bool
)

var convertCmd = &cobra.Command{
	Use:   "convert <input> [output]",
	Short: "Encode audio files into a device audio file",
	Long: `Encode an audio file, or a directory of audio files, into a device
audio file.

A directory becomes a single output with one chapter per file, in
natural filename order (2 before 10). Supported input formats:
mp3, aac, wav, ogg, webm, opus, flac, m4a.

Inputs that are not already Ogg Opus are decoded with ffmpeg and
encoded with opusenc, which must be installed.

Examples:
  taf convert audiobook.mp3
  taf convert ./album/ out.taf --bitrate 128 --cbr
  taf convert story.opus --timestamp 0x5E034B00
  taf convert ./album/ --name-from-tags
  taf convert story.mp3 story.ogg --no-header
  taf convert ./album/ ./content --append-device-name`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVar(&convertFFmpeg, "ffmpeg", "", "ffmpeg executable path")
	convertCmd.Flags().StringVar(&convertOpusenc, "opusenc", "", "opusenc executable path")
	convertCmd.Flags().IntVar(&convertBitrate, "bitrate", 0, "opus bitrate in kbit/s (default 96)")
	convertCmd.Flags().BoolVar(&convertCBR, "cbr", false, "constant bitrate encoding (default VBR)")
	convertCmd.Flags().StringVar(&convertTimestamp, "timestamp", "", "audio id, decimal or 0x-hex (default: current time)")
	convertCmd.Flags().IntVar(&convertPageSize, "page-size", 0, "maximum audio page size in bytes")
	convertCmd.Flags().BoolVar(&convertNameFromTags, "name-from-tags", false, "derive output name from audio tags")
	convertCmd.Flags().BoolVar(&convertNoHeader, "no-header", false, "write plain Ogg Opus without the device header")
	convertCmd.Flags().BoolVar(&convertAppendName, "append-device-name", false, "append _"+DefaultOutputName+" to the output path")
	rootCmd.AddCommand(convertCmd)
}

// convertOptions merges config file defaults and flags; flags win.
func convertOptions() (transcode.Options, int) {
	opts := transcode.Options{
		FFmpeg:  convertFFmpeg,
		Opusenc: convertOpusenc,
		Bitrate: convertBitrate,
		CBR:     convertCBR,
	}
	pageSize := convertPageSize

	if cfg, err := GetConfig(); err == nil {
		if opts.FFmpeg == "" {
			opts.FFmpeg = cfg.FFmpeg
		}
		if opts.Opusenc == "" {
			opts.Opusenc = cfg.Opusenc
		}
		if opts.Bitrate == 0 {
			opts.Bitrate = cfg.Bitrate
		}
		if !opts.CBR {
			opts.CBR = cfg.CBR
		}
		if pageSize == 0 {
			pageSize = cfg.PageSize
		}
	}
	return opts, pageSize
}

func runConvert(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	inputs, err := transcode.List(args[0])
	if err != nil {
		return err
	}

	opts, pageSize := convertOptions()

	needsPipeline := false
	for _, in := range inputs {
		if !strings.EqualFold(filepath.Ext(in), ".opus") {
			needsPipeline = true
			break
		}
	}
	if needsPipeline {
		if err := transcode.LookupTools(opts); err != nil {
			return err
		}
	}

	audioID, err := parseAudioID(convertTimestamp)
	if err != nil {
		return err
	}

	output := DefaultOutputName
	if len(args) > 1 {
		output = args[1]
	} else if convertNameFromTags {
		if name := nameFromTags(inputs[0]); name != "" {
			output = name + ".taf"
		}
	}
	if convertAppendName {
		output += "_" + DefaultOutputName
	}

	f, err := os.Create(output)
	if err != nil {
		return err
	}

	// An aborted conversion leaves an invalid file; discard it.
	total, err := writeOutput(ctx, f, inputs, opts, pageSize, audioID)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(output)
		return err
	}

	cli.PrintSuccess("%s: %d chapters, %s, audio id %08X",
		output, len(inputs), cli.FormatBytes(total), audioID)
	return nil
}

func writeOutput(ctx context.Context, f *os.File, inputs []string, opts transcode.Options, pageSize int, audioID uint32) (int64, error) {
	bar := progressbar.NewOptions(len(inputs),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("converting"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	defer bar.Finish()

	if convertNoHeader {
		return writePlainOpus(ctx, f, bar, inputs, opts, pageSize, audioID)
	}

	writerOpts := []taf.WriterOption{taf.WithAudioID(audioID)}
	if pageSize > 0 {
		writerOpts = append(writerOpts, taf.WithPageSize(pageSize))
	}
	w, err := taf.NewWriter(f, writerOpts...)
	if err != nil {
		return 0, err
	}

	for i, in := range inputs {
		describeInput(bar, in)
		if i > 0 {
			if err := w.StartChapter(); err != nil {
				return 0, err
			}
		}
		if err := convertOne(ctx, w.Add, in, opts); err != nil {
			return 0, fmt.Errorf("%s: %w", in, err)
		}
		bar.Add(1)
	}

	return w.Finalize()
}

// writePlainOpus emits an ordinary Ogg Opus file instead of the device
// container: synthesized identification and comment headers, then the
// muxed audio pages renumbered after them. No header block, no hash.
func writePlainOpus(ctx context.Context, f *os.File, bar *progressbar.ProgressBar, inputs []string, opts transcode.Options, pageSize int, audioID uint32) (int64, error) {
	var written int64
	emit := func(p *ogg.Page) error {
		p.Sequence += 2
		n, err := f.Write(p.Encode())
		written += int64(n)
		return err
	}

	head := &ogg.OpusHead{Version: 1, Channels: 2, SampleRate: 48000}
	headData := head.Encode()
	headPage := &ogg.Page{
		HeaderType: ogg.FlagBOS,
		Serial:     audioID,
		Segments:   ogg.BuildSegmentTable(len(headData)),
		Payload:    headData,
	}
	tagsData := (&ogg.OpusTags{Vendor: "taf"}).Encode()
	tagsPage := &ogg.Page{
		Serial:   audioID,
		Sequence: 1,
		Segments: ogg.BuildSegmentTable(len(tagsData)),
		Payload:  tagsData,
	}
	for _, page := range []*ogg.Page{headPage, tagsPage} {
		n, err := f.Write(page.Encode())
		written += int64(n)
		if err != nil {
			return written, err
		}
	}

	m := taf.NewMuxer(audioID, pageSize)
	for _, in := range inputs {
		describeInput(bar, in)
		add := func(p *taf.Packet) error {
			sealed, err := m.Add(p)
			if err != nil {
				return err
			}
			if sealed != nil {
				return emit(sealed)
			}
			return nil
		}
		if err := convertOne(ctx, add, in, opts); err != nil {
			return written, fmt.Errorf("%s: %w", in, err)
		}
		bar.Add(1)
	}
	if err := emit(m.Finish()); err != nil {
		return written, err
	}
	return written, nil
}

func describeInput(bar *progressbar.ProgressBar, in string) {
	label := in
	if info, err := transcode.Probe(in); err == nil && info.Title != "" {
		label = info.Title
	}
	bar.Describe(label)
}

func convertOne(ctx context.Context, add func(*taf.Packet) error, path string, opts transcode.Options) error {
	src, err := transcode.File(ctx, path, opts)
	if err != nil {
		return err
	}

	for {
		p, err := src.NextPacket()
		if err == io.EOF {
			break
		}
		if err != nil {
			src.Close()
			return err
		}
		if err := add(p); err != nil {
			src.Close()
			return err
		}
	}
	return src.Close()
}

// parseAudioID accepts a decimal or 0x-prefixed hex timestamp, or
// returns the current time when s is empty.
func parseAudioID(s string) (uint32, error) {
	if s == "" {
		return uint32(time.Now().Unix()), nil
	}
	id, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return uint32(id), nil
}

// nameFromTags derives an output base name from the first input's
// album or title tag.
func nameFromTags(path string) string {
	info, err := transcode.Probe(path)
	if err != nil {
		return ""
	}
	if info.Album != "" {
		return sanitizeName(info.Album)
	}
	if info.Title != "" {
		return sanitizeName(info.Title)
	}
	return ""
}

// sanitizeName removes path separators and other characters that are
// unsafe in file names.
func sanitizeName(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			out = append(out, '_')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}
