package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"printlapse/internal/capture"
	"printlapse/internal/config"
	"printlapse/internal/encoding"
	"printlapse/internal/history"
	"printlapse/internal/logging"
	"printlapse/internal/notifications"
	"printlapse/internal/printer"
)

// errSinglePrintDone signals a clean exit after the one-shot capture.
var errSinglePrintDone = errors.New("single print complete")

// Manager owns the watch loop that turns prints into capture sessions.
type Manager struct {
	cfg        *config.Config
	monitor    printer.Monitor
	dispatcher *encoding.Dispatcher
	store      *history.Store
	notifier   notifications.Service
	logger     *slog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	done    chan struct{}

	// sleep is replaceable so manager tests don't spend wall-clock time.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewManager constructs a watch loop over the given printer monitor.
// The store may be nil, in which case captures are not recorded.
func NewManager(cfg *config.Config, monitor printer.Monitor, dispatcher *encoding.Dispatcher, store *history.Store, notifier notifications.Service, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewNop()
	}
	return &Manager{
		cfg:        cfg,
		monitor:    monitor,
		dispatcher: dispatcher,
		store:      store,
		notifier:   notifier,
		logger:     logging.WithComponent(logger, "workflow"),
		done:       make(chan struct{}),
		sleep:      sleepCtx,
	}
}

// Start begins watching in the background.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("workflow already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	go m.run(runCtx)
	return nil
}

// Stop terminates the watch loop and waits for it to exit. In-flight
// background encodes are not affected; close the dispatcher to drain those.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

// Done is closed when the watch loop exits on its own, which only happens
// in single-print mode.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()
	defer close(m.done)

	for ctx.Err() == nil {
		if err := m.waitOnline(ctx); err != nil {
			return
		}
		if err := m.watchJobs(ctx); err != nil {
			if errors.Is(err, errSinglePrintDone) {
				m.logger.Info("single print captured, exiting watch loop")
			}
			return
		}
	}
}

// waitOnline blocks until the printer answers its status endpoint.
func (m *Manager) waitOnline(ctx context.Context) error {
	interval := m.cfg.OnlinePollInterval()
	waiting := false
	for {
		if m.monitor.IsOnline(ctx) {
			if waiting {
				m.logger.Info("printer online", logging.String("host", m.cfg.Printer.Host))
			}
			return nil
		}
		if !waiting {
			m.logger.Info("waiting for printer", logging.String("host", m.cfg.Printer.Host))
			waiting = true
		}
		if err := m.sleep(ctx, interval); err != nil {
			return err
		}
	}
}

// watchJobs polls job status until the printer drops off the network
// (returning nil so the caller re-enters the online wait), the context is
// cancelled, or single-print mode finishes.
func (m *Manager) watchJobs(ctx context.Context) error {
	interval := m.cfg.JobPollInterval()
	for {
		status := m.monitor.JobStatus(ctx)
		switch status.State {
		case printer.StateTransportError:
			m.logger.Warn("printer unreachable, waiting for it to return",
				logging.Error(status.Err))
			return nil
		case printer.StatePrinting:
			dispatched := m.captureOne(ctx, status.Name)
			if dispatched && m.cfg.Workflow.SinglePrint {
				return errSinglePrintDone
			}
		}
		if err := m.sleep(ctx, interval); err != nil {
			return err
		}
	}
}

// captureOne runs a capture session for the named job and hands the result
// to the encode dispatcher. It reports whether anything was dispatched.
func (m *Manager) captureOne(ctx context.Context, jobName string) bool {
	m.logger.Info("print detected",
		logging.String(logging.FieldJob, jobName))
	if err := m.notifier.NotifyCaptureStarted(ctx, jobName); err != nil {
		m.logger.Warn("capture-started notification failed", logging.Error(err))
	}

	session := capture.NewSession(m.monitor, capture.ParamsFromConfig(m.cfg), m.cfg.Paths.StagingDir, jobName, m.logger)
	result, err := session.Run(ctx)
	if err != nil {
		m.logger.Error("capture session failed",
			logging.String(logging.FieldJob, jobName),
			logging.Error(err))
	}
	if result.FramesDir == "" {
		// The session never got as far as creating its directory.
		return false
	}
	if result.FrameCount == 0 {
		// Dispatch anyway; the encoder reports the empty frame set as a
		// failure and the directory is retained for inspection.
		m.logger.Warn("no frames captured",
			logging.String(logging.FieldJob, jobName))
	}

	if m.store != nil {
		rec := history.Record{
			ID:             result.ID,
			JobName:        result.JobName,
			FrameCount:     result.FrameCount,
			FramesDir:      result.FramesDir,
			StartedAt:      result.StartedAt,
			CaptureSeconds: result.Elapsed.Seconds(),
		}
		if err := m.store.RecordCapture(ctx, rec); err != nil {
			m.logger.Error("record capture in history failed", logging.Error(err))
		}
	}

	m.dispatcher.Submit(ctx, result)
	return true
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
