package encoding

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"printlapse/internal/capture"
	"printlapse/internal/config"
	"printlapse/internal/fileutil"
	"printlapse/internal/history"
	"printlapse/internal/logging"
	"printlapse/internal/notifications"
	"printlapse/internal/textutil"
)

const videoExt = "mp4"

// Dispatcher accepts completed capture results and produces videos from them.
//
// In background mode (the default), Submit enqueues the result for a bounded
// worker pool and returns immediately, so the next capture session never
// waits on an in-flight encode. In foreground mode, Submit encodes inline.
type Dispatcher struct {
	runner   Runner
	store    *history.Store
	notifier notifications.Service
	logger   *slog.Logger

	videoDir     string
	frameRate    float64
	retainFrames bool
	foreground   bool

	jobs      chan capture.Result
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewDispatcher builds a dispatcher and, in background mode, starts its
// worker pool. Close must be called to drain in-flight encodes.
func NewDispatcher(cfg *config.Config, runner Runner, store *history.Store, notifier notifications.Service, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewNop()
	}

	d := &Dispatcher{
		runner:       runner,
		store:        store,
		notifier:     notifier,
		logger:       logging.WithComponent(logger, "encode"),
		videoDir:     cfg.Paths.VideoDir,
		frameRate:    cfg.Capture.FPS,
		retainFrames: cfg.Capture.RetainFrames,
		foreground:   cfg.Encode.Foreground,
	}

	if !d.foreground {
		workers := cfg.Encode.Workers
		d.jobs = make(chan capture.Result, workers*2)
		d.wg.Add(workers)
		for i := 0; i < workers; i++ {
			go d.worker()
		}
	}
	return d
}

// Submit hands a capture result over for encoding. Ownership of the frames
// directory transfers with the call.
func (d *Dispatcher) Submit(ctx context.Context, result capture.Result) {
	if d.foreground {
		d.encode(ctx, result)
		return
	}
	select {
	case d.jobs <- result:
	case <-ctx.Done():
		d.logger.Warn("encode submission abandoned on shutdown",
			logging.String(logging.FieldJob, result.JobName),
			logging.String("frames_dir", result.FramesDir),
		)
	}
}

// Close stops accepting work and waits for in-flight encodes to finish.
func (d *Dispatcher) Close() {
	if d.foreground {
		return
	}
	d.closeOnce.Do(func() {
		close(d.jobs)
	})
	d.wg.Wait()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	// Workers run to completion on their own context: an encode already
	// submitted should finish even while the daemon is shutting down.
	for result := range d.jobs {
		d.encode(context.Background(), result)
	}
}

func (d *Dispatcher) encode(ctx context.Context, result capture.Result) {
	logger := d.logger.With(
		logging.String(logging.FieldSessionID, result.ID),
		logging.String(logging.FieldJob, result.JobName),
	)

	outputPath := fileutil.NextAvailablePath(d.videoDir, textutil.SanitizeFileName(result.JobName), videoExt)
	logger.Info("encoding time-lapse",
		logging.String("output", outputPath),
		logging.Int("frames", result.FrameCount),
	)

	d.recordState(ctx, logger, func(c context.Context) error {
		return d.store.SetEncodeRunning(c, result.ID)
	})

	started := time.Now()
	err := d.runner.Encode(ctx, Job{
		FramePattern: result.FramePattern(),
		FrameRate:    d.frameRate,
		OutputPath:   outputPath,
	})
	if err != nil {
		// Frames stay on disk for manual recovery regardless of the
		// retain setting.
		logger.Error("encode failed, frames directory retained",
			logging.Error(err),
			logging.String("frames_dir", result.FramesDir),
		)
		d.recordState(ctx, logger, func(c context.Context) error {
			return d.store.SetEncodeFailed(c, result.ID, err.Error())
		})
		if notifyErr := d.notifier.NotifyEncodeFailed(ctx, result.JobName, result.FramesDir); notifyErr != nil {
			logger.Warn("encode failure notification not delivered", logging.Error(notifyErr))
		}
		return
	}

	logger.Info("video ready",
		logging.String("output", outputPath),
		logging.String("encode_time", textutil.HMS(time.Since(started))),
	)
	d.recordState(ctx, logger, func(c context.Context) error {
		return d.store.SetEncodeSucceeded(c, result.ID, outputPath)
	})
	if notifyErr := d.notifier.NotifyVideoReady(ctx, result.JobName, outputPath); notifyErr != nil {
		logger.Warn("video ready notification not delivered", logging.Error(notifyErr))
	}

	if d.retainFrames {
		logger.Debug("retaining frames directory", logging.String("frames_dir", result.FramesDir))
		return
	}
	if err := os.RemoveAll(result.FramesDir); err != nil {
		logger.Warn("failed to remove frames directory",
			logging.Error(err),
			logging.String("frames_dir", result.FramesDir),
		)
	}
}

func (d *Dispatcher) recordState(ctx context.Context, logger *slog.Logger, update func(context.Context) error) {
	if d.store == nil {
		return
	}
	if err := update(ctx); err != nil {
		logger.Warn("failed to update capture history", logging.Error(err))
	}
}
