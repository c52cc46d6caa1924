package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"printlapse/internal/config"
	"printlapse/internal/encoding"
	"printlapse/internal/history"
	"printlapse/internal/logging"
	"printlapse/internal/workflow"
)

// Daemon coordinates the background services and enforces single-instance execution.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *history.Store
	workflow   *workflow.Manager
	dispatcher *encoding.Dispatcher

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// New constructs a daemon with initialized dependencies. The store may be
// nil; everything else is required.
func New(cfg *config.Config, store *history.Store, logger *slog.Logger, wf *workflow.Manager, dispatcher *encoding.Dispatcher) (*Daemon, error) {
	if cfg == nil || logger == nil || wf == nil || dispatcher == nil {
		return nil, errors.New("daemon requires config, logger, workflow manager, and dispatcher")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "printlapse.lock")
	return &Daemon{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		workflow:   wf,
		dispatcher: dispatcher,
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}, nil
}

// LockPath returns the path of the single-instance lock file.
func (d *Daemon) LockPath() string {
	return d.lockPath
}

// Start acquires the instance lock and launches the watch loop.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another printlapse instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.workflow.Start(runCtx); err != nil {
		_ = d.lock.Unlock()
		cancel()
		return fmt.Errorf("start workflow: %w", err)
	}
	d.cancel = cancel

	d.running.Store(true)
	d.logger.Info("printlapse daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Done is closed when the watch loop exits on its own (single-print mode).
func (d *Daemon) Done() <-chan struct{} {
	return d.workflow.Done()
}

// Stop halts the watch loop, drains queued encodes, and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.workflow.Stop()
	d.dispatcher.Close()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release instance lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("printlapse daemon stopped")
}

// Close stops the daemon and releases the history store.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}
