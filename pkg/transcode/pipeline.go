package transcode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
)

// encodePipeline runs `ffmpeg -i path -f wav -ar 48000 -` piped into
// `opusenc --bitrate N - -` and returns the Ogg Opus output stream.
// Closing the reader terminates both processes and reaps them.
func encodePipeline(ctx context.Context, path string, opts Options) (io.ReadCloser, error) {
	decode := exec.CommandContext(ctx, opts.FFmpeg,
		"-hide_banner", "-loglevel", "warning",
		"-i", path,
		"-f", "wav",
		"-ar", "48000",
		"-")

	rate := "--vbr"
	if opts.CBR {
		rate = "--hard-cbr"
	}
	encode := exec.CommandContext(ctx, opts.Opusenc,
		"--quiet",
		rate,
		"--bitrate", strconv.Itoa(opts.Bitrate),
		"-", "-")

	wav, err := decode.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("transcode: ffmpeg stdout: %w", err)
	}
	encode.Stdin = wav

	out, err := encode.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("transcode: opusenc stdout: %w", err)
	}

	slog.Debug("starting encode pipeline",
		"input", path,
		"ffmpeg", opts.FFmpeg,
		"opusenc", opts.Opusenc,
		"bitrate", opts.Bitrate,
		"cbr", opts.CBR)

	if err := decode.Start(); err != nil {
		return nil, fmt.Errorf("transcode: start %s: %w", opts.FFmpeg, err)
	}
	if err := encode.Start(); err != nil {
		_ = decode.Process.Kill()
		_ = decode.Wait()
		return nil, fmt.Errorf("transcode: start %s: %w", opts.Opusenc, err)
	}

	return &pipelineReader{out: out, decode: decode, encode: encode}, nil
}

// pipelineReader reads opusenc's stdout and reaps both processes on
// Close. A nonzero exit from either process surfaces as a Close error
// so a short but well-formed stream cannot pass silently.
type pipelineReader struct {
	out    io.ReadCloser
	decode *exec.Cmd
	encode *exec.Cmd
	done   bool
	err    error
}

func (p *pipelineReader) Read(b []byte) (int, error) {
	return p.out.Read(b)
}

func (p *pipelineReader) Close() error {
	if p.done {
		return p.err
	}
	p.done = true

	closeErr := p.out.Close()
	encodeErr := p.encode.Wait()
	decodeErr := p.decode.Wait()

	switch {
	case decodeErr != nil:
		p.err = fmt.Errorf("transcode: %s: %w", p.decode.Path, decodeErr)
	case encodeErr != nil:
		p.err = fmt.Errorf("transcode: %s: %w", p.encode.Path, encodeErr)
	default:
		p.err = closeErr
	}
	return p.err
}

// LookupTools verifies that the configured ffmpeg and opusenc binaries
// are present on PATH, returning one error naming every missing tool.
func LookupTools(opts Options) error {
	opts = opts.withDefaults()
	var errs []error
	if _, err := exec.LookPath(opts.FFmpeg); err != nil {
		errs = append(errs, fmt.Errorf("transcode: %w", err))
	}
	if _, err := exec.LookPath(opts.Opusenc); err != nil {
		errs = append(errs, fmt.Errorf("transcode: %w", err))
	}
	return errors.Join(errs...)
}
