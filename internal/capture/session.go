package capture

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"

	"printlapse/internal/logging"
	"printlapse/internal/printer"
	"printlapse/internal/textutil"
)

// frameExt is the extension the camera snapshot endpoint serves.
const frameExt = "jpg"

// Result describes one completed capture session. Ownership of FramesDir
// transfers with the value: whoever receives the Result is responsible for
// encoding and eventually removing the directory.
type Result struct {
	ID         string
	JobName    string
	FramesDir  string
	FrameCount int
	StartedAt  time.Time
	Elapsed    time.Duration
}

// FramePattern returns the printf-style pattern ffmpeg consumes for the
// session's frame files.
func (r Result) FramePattern() string {
	return filepath.Join(r.FramesDir, "%05d."+frameExt)
}

// Session drives one print job's capture loop.
type Session struct {
	monitor    printer.Monitor
	params     Params
	stagingDir string
	jobName    string
	logger     *slog.Logger

	// sleep is replaceable so session tests don't spend wall-clock time.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewSession prepares a capture session for the named job. Nothing touches
// the filesystem until Run.
func NewSession(monitor printer.Monitor, params Params, stagingDir, jobName string, logger *slog.Logger) *Session {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Session{
		monitor:    monitor,
		params:     params,
		stagingDir: stagingDir,
		jobName:    jobName,
		logger:     logging.WithComponent(logger, "capture"),
		sleep:      sleepCtx,
	}
}

// Run captures frames until the scheduler reports the job finished or a
// snapshot fetch fails. The returned Result is valid even when err is
// non-nil; frames captured before the failure stay on disk.
func (s *Session) Run(ctx context.Context) (Result, error) {
	result := Result{
		ID:        uuid.NewString(),
		JobName:   s.jobName,
		StartedAt: time.Now(),
	}

	dirName := fmt.Sprintf("%s_%s", textutil.SanitizeFileName(s.jobName), shortuuid.New())
	framesDir := filepath.Join(s.stagingDir, dirName)
	if err := os.MkdirAll(framesDir, 0o755); err != nil {
		return result, fmt.Errorf("create frames directory: %w", err)
	}
	result.FramesDir = framesDir

	logger := s.logger.With(
		logging.String(logging.FieldSessionID, result.ID),
		logging.String(logging.FieldJob, s.jobName),
	)
	s.logEstimate(ctx, logger, framesDir)

	frameNumber := 1
	lastDelay := 0.0
	for {
		img := s.monitor.Snapshot(ctx)
		if img == nil {
			// A lost frame ends the session; whatever was captured
			// proceeds to encoding.
			logger.Warn("snapshot failed, finishing capture",
				logging.Int(logging.FieldFrame, frameNumber))
			break
		}

		filename := filepath.Join(framesDir, fmt.Sprintf("%05d.%s", frameNumber, frameExt))
		if err := os.WriteFile(filename, img, 0o644); err != nil {
			result.FrameCount = frameNumber - 1
			result.Elapsed = time.Since(result.StartedAt)
			return result, fmt.Errorf("store frame %d: %w", frameNumber, err)
		}

		status := s.monitor.JobStatus(ctx)
		logger.Debug("frame stored",
			logging.Int(logging.FieldFrame, frameNumber),
			logging.Float64("progress", status.Progress()),
			logging.Float64("last_delay_seconds", lastDelay),
		)
		frameNumber++

		delay := ComputeDelay(status, s.params)
		if delay <= 0 {
			break
		}
		lastDelay = delay
		if err := s.sleep(ctx, time.Duration(delay*float64(time.Second))); err != nil {
			result.FrameCount = frameNumber - 1
			result.Elapsed = time.Since(result.StartedAt)
			return result, err
		}
	}

	result.FrameCount = frameNumber - 1
	result.Elapsed = time.Since(result.StartedAt)
	logger.Info("capture finished",
		logging.Int("frames", result.FrameCount),
		logging.String("capture_time", textutil.HMS(result.Elapsed)),
		logging.String("video_duration", textutil.HMSSeconds(float64(result.FrameCount)/s.params.FPS)),
	)
	return result, nil
}

// logEstimate reports the expected shape of the capture based on the
// printer's current total-time estimate. When the naive inter-frame delay
// would fall below MinDelay, the reported frame count and video duration are
// recomputed at MinDelay so the summary is self-consistent.
func (s *Session) logEstimate(ctx context.Context, logger *slog.Logger, framesDir string) {
	estTotal := s.monitor.JobStatus(ctx).TimeTotal
	estFrames := s.params.TargetDuration * s.params.FPS
	estDelay := 0.0
	estDuration := s.params.TargetDuration
	if estFrames > 0 {
		estDelay = estTotal / estFrames
	}
	if estDelay < s.params.MinDelay {
		estDelay = s.params.MinDelay
		estFrames = estTotal / s.params.MinDelay
		estDuration = estFrames / s.params.FPS
	}

	logger.Info("capture estimate",
		logging.String("print_time", textutil.HMSSeconds(estTotal)),
		logging.Int("frames", int(estFrames)),
		logging.String("video_duration", textutil.HMSSeconds(estDuration)),
		logging.String("frame_delay", textutil.HMSSeconds(estDelay)),
		logging.String("frames_dir", framesDir),
	)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
