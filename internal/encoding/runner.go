package encoding

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"github.com/google/shlex"

	"printlapse/internal/config"
	"printlapse/internal/logging"
)

// Job describes one encode: an ordered frame sequence in, a video file out.
type Job struct {
	// FramePattern is the printf-style input pattern, e.g. /dir/%05d.jpg.
	FramePattern string
	FrameRate    float64
	OutputPath   string
}

// Runner encodes a frame sequence into a video file. Implementations capture
// the encoder's diagnostic output and return it with any failure.
type Runner interface {
	Encode(ctx context.Context, job Job) error
}

// FFmpegRunner invokes the external ffmpeg binary.
type FFmpegRunner struct {
	binary    string
	extraArgs []string
	logLevel  string
	logger    *slog.Logger
}

var _ Runner = (*FFmpegRunner)(nil)

// NewFFmpegRunner builds a runner from configuration. Extra arguments from
// config are split with shell-style quoting. When verbose is set, ffmpeg runs
// at its info loglevel instead of fatal.
func NewFFmpegRunner(cfg *config.Config, verbose bool, logger *slog.Logger) (*FFmpegRunner, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	binary := cfg.Encode.FFmpegBinary
	if _, err := exec.LookPath(binary); err != nil {
		return nil, fmt.Errorf("ffmpeg binary %q not found in PATH: %w", binary, err)
	}

	var extraArgs []string
	if trimmed := strings.TrimSpace(cfg.Encode.ExtraArgs); trimmed != "" {
		args, err := shlex.Split(trimmed)
		if err != nil {
			return nil, fmt.Errorf("parse encode.extra_args: %w", err)
		}
		extraArgs = args
	}

	logLevel := "fatal"
	if verbose {
		logLevel = "info"
	}

	return &FFmpegRunner{
		binary:    binary,
		extraArgs: extraArgs,
		logLevel:  logLevel,
		logger:    logging.WithComponent(logger, "ffmpeg"),
	}, nil
}

// Encode runs ffmpeg over the job's frame sequence. On failure the combined
// process output is folded into the returned error.
func (r *FFmpegRunner) Encode(ctx context.Context, job Job) error {
	args := []string{
		"-y",
		"-loglevel", r.logLevel,
		"-framerate", strconv.FormatFloat(job.FrameRate, 'f', -1, 64),
		"-i", job.FramePattern,
		"-vcodec", "libx264",
		"-pix_fmt", "yuv420p",
		"-preset", "veryfast",
		"-crf", "18",
	}
	args = append(args, r.extraArgs...)
	args = append(args, job.OutputPath)

	cmd := exec.CommandContext(ctx, r.binary, args...)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	r.logger.Debug("running encoder",
		logging.String("command", r.binary+" "+strings.Join(args, " ")))

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg failed: %w: %s", err, tail(output.String(), 2048))
	}
	return nil
}

// tail returns at most n trailing bytes of s; ffmpeg puts the useful
// diagnostics at the end of its output.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
