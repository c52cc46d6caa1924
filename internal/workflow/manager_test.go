package workflow

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"printlapse/internal/config"
	"printlapse/internal/encoding"
	"printlapse/internal/history"
	"printlapse/internal/printer"
	"printlapse/internal/testsupport"
)

// scriptedMonitor replays a canned status sequence, holding the final entry
// once the script runs out. Snapshots repeat the same frame until the
// configured count is exhausted.
type scriptedMonitor struct {
	mu        sync.Mutex
	online    bool
	statuses  []printer.JobStatus
	statusIdx int
	snapshots int
}

func (m *scriptedMonitor) IsOnline(context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

func (m *scriptedMonitor) setOnline(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.online = v
}

func (m *scriptedMonitor) JobStatus(context.Context) printer.JobStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.statuses) == 0 {
		return printer.JobStatus{State: printer.StateNoJob}
	}
	idx := m.statusIdx
	if idx >= len(m.statuses) {
		idx = len(m.statuses) - 1
	}
	m.statusIdx++
	return m.statuses[idx]
}

func (m *scriptedMonitor) Snapshot(context.Context) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snapshots <= 0 {
		return nil
	}
	m.snapshots--
	return []byte{0xff, 0xd8}
}

type stubRunner struct {
	mu   sync.Mutex
	jobs []encoding.Job
	err  error
}

func (r *stubRunner) Encode(ctx context.Context, job encoding.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, job)
	return r.err
}

func (r *stubRunner) recorded() []encoding.Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]encoding.Job(nil), r.jobs...)
}

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Capture.MinDelay = 0.001
	cfg.Encode.Foreground = true
	return cfg
}

func newTestManager(t *testing.T, cfg *config.Config, monitor printer.Monitor, runner encoding.Runner, store *history.Store) (*Manager, *encoding.Dispatcher) {
	t.Helper()
	dispatcher := encoding.NewDispatcher(cfg, runner, store, nil, nil)
	t.Cleanup(dispatcher.Close)
	mgr := NewManager(cfg, monitor, dispatcher, store, nil, nil)
	mgr.sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	return mgr, dispatcher
}

func waitDone(t *testing.T, mgr *Manager) {
	t.Helper()
	select {
	case <-mgr.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("watch loop did not finish in time")
	}
}

func TestManagerSinglePrintEndToEnd(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Workflow.SinglePrint = true

	monitor := &scriptedMonitor{
		online:    true,
		snapshots: 8,
		statuses: []printer.JobStatus{
			{State: printer.StatePrinting, Name: "benchy", TimeTotal: 60},
			{State: printer.StatePrinting, Name: "benchy", TimeTotal: 60},
			{State: printer.StatePrinting, Name: "benchy", TimeElapsed: 30, TimeTotal: 60},
			{State: printer.StatePostPrint, Name: "benchy", TimeElapsed: 60, TimeTotal: 60},
		},
	}
	runner := &stubRunner{}
	store := testsupport.NewHistoryStore(t)
	mgr, _ := newTestManager(t, cfg, monitor, runner, store)

	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitDone(t, mgr)
	mgr.Stop()

	jobs := runner.recorded()
	if len(jobs) != 1 {
		t.Fatalf("encoded %d jobs, want 1", len(jobs))
	}

	records, err := store.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("history has %d records, want 1", len(records))
	}
	rec := records[0]
	if rec.JobName != "benchy" {
		t.Errorf("job name = %q, want benchy", rec.JobName)
	}
	if rec.EncodeStatus != history.EncodeSucceeded {
		t.Errorf("encode status = %q, want %q", rec.EncodeStatus, history.EncodeSucceeded)
	}
	if rec.FrameCount == 0 {
		t.Error("expected captured frames in history record")
	}
	// Foreground encode succeeded, so the frames directory is gone.
	if _, statErr := os.Stat(rec.FramesDir); !os.IsNotExist(statErr) {
		t.Errorf("frames dir still present after successful encode: %v", statErr)
	}
}

func TestManagerWaitsForPrinterOnline(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Workflow.SinglePrint = true

	monitor := &scriptedMonitor{
		online:    false,
		snapshots: 4,
		statuses: []printer.JobStatus{
			{State: printer.StatePrinting, Name: "vase", TimeTotal: 60},
			{State: printer.StatePostPrint, Name: "vase", TimeTotal: 60},
		},
	}
	runner := &stubRunner{}
	mgr, _ := newTestManager(t, cfg, monitor, runner, nil)

	// Instead of spinning, the online wait flips the fake after a few polls.
	var polls int
	mgr.sleep = func(ctx context.Context, _ time.Duration) error {
		polls++
		if polls >= 3 {
			monitor.setOnline(true)
		}
		return ctx.Err()
	}

	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitDone(t, mgr)
	mgr.Stop()

	if polls < 3 {
		t.Errorf("expected at least 3 poll sleeps before going online, got %d", polls)
	}
	if len(runner.recorded()) != 1 {
		t.Fatalf("encoded %d jobs, want 1", len(runner.recorded()))
	}
}

func TestManagerDispatchesEmptySession(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Workflow.SinglePrint = true

	monitor := &scriptedMonitor{
		online:    true,
		snapshots: 0, // first snapshot fails immediately
		statuses: []printer.JobStatus{
			{State: printer.StatePrinting, Name: "benchy", TimeTotal: 60},
		},
	}
	runner := &stubRunner{err: errors.New("no input frames")}
	store := testsupport.NewHistoryStore(t)
	mgr, _ := newTestManager(t, cfg, monitor, runner, store)

	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	// An empty session is still handed to the encoder, so single-print
	// mode finishes.
	waitDone(t, mgr)
	mgr.Stop()

	if len(runner.recorded()) != 1 {
		t.Fatalf("encoded %d jobs, want 1", len(runner.recorded()))
	}
	records, err := store.Recent(context.Background(), 1)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("history has %d records, want 1", len(records))
	}
	if records[0].FrameCount != 0 {
		t.Errorf("frame count = %d, want 0", records[0].FrameCount)
	}
	if records[0].EncodeStatus != history.EncodeFailed {
		t.Errorf("encode status = %q, want %q", records[0].EncodeStatus, history.EncodeFailed)
	}
	// Failed encodes retain the frames directory for inspection.
	if _, statErr := os.Stat(records[0].FramesDir); statErr != nil {
		t.Errorf("frames dir gone after failed encode: %v", statErr)
	}
}

func TestManagerStopCancelsPromptly(t *testing.T) {
	cfg := newTestConfig(t)
	monitor := &scriptedMonitor{online: true}
	runner := &stubRunner{}
	mgr, _ := newTestManager(t, cfg, monitor, runner, nil)
	// Idle polling must block on the context rather than busy-loop.
	mgr.sleep = sleepCtx
	cfg.Workflow.JobPollInterval = 1

	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	stopped := make(chan struct{})
	go func() {
		mgr.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return in time")
	}
}

func TestManagerStartTwiceFails(t *testing.T) {
	cfg := newTestConfig(t)
	mgr, _ := newTestManager(t, cfg, &scriptedMonitor{online: true}, &stubRunner{}, nil)
	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer mgr.Stop()
	if err := mgr.Start(context.Background()); err == nil {
		t.Fatal("second Start should fail")
	}
}
