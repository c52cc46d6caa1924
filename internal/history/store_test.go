package history_test

import (
	"context"
	"testing"
	"time"

	"printlapse/internal/history"
	"printlapse/internal/testsupport"
)

func TestRecordRoundTrip(t *testing.T) {
	store := testsupport.NewHistoryStore(t)
	ctx := context.Background()

	rec := history.Record{
		ID:             "abc-123",
		JobName:        "benchy",
		FrameCount:     600,
		FramesDir:      "/tmp/benchy_x",
		StartedAt:      time.Now().Add(-time.Hour),
		CaptureSeconds: 3600,
	}
	if err := store.RecordCapture(ctx, rec); err != nil {
		t.Fatalf("RecordCapture: %v", err)
	}

	got, err := store.Get(ctx, "abc-123")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.JobName != "benchy" || got.FrameCount != 600 {
		t.Fatalf("unexpected record: %+v", got)
	}
	if got.EncodeStatus != history.EncodePending {
		t.Fatalf("expected pending encode, got %q", got.EncodeStatus)
	}
}

func TestEncodeLifecycle(t *testing.T) {
	store := testsupport.NewHistoryStore(t)
	ctx := context.Background()

	rec := history.Record{ID: "s1", JobName: "vase", FramesDir: "/tmp/v", StartedAt: time.Now()}
	if err := store.RecordCapture(ctx, rec); err != nil {
		t.Fatal(err)
	}

	if err := store.SetEncodeRunning(ctx, "s1"); err != nil {
		t.Fatal(err)
	}
	if err := store.SetEncodeSucceeded(ctx, "s1", "/videos/vase.mp4"); err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if got.EncodeStatus != history.EncodeSucceeded {
		t.Fatalf("unexpected status %q", got.EncodeStatus)
	}
	if got.VideoPath != "/videos/vase.mp4" {
		t.Fatalf("unexpected video path %q", got.VideoPath)
	}
}

func TestEncodeFailureKeepsMessage(t *testing.T) {
	store := testsupport.NewHistoryStore(t)
	ctx := context.Background()

	if err := store.RecordCapture(ctx, history.Record{ID: "s2", JobName: "gears", FramesDir: "/tmp/g", StartedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}
	if err := store.SetEncodeFailed(ctx, "s2", "ffmpeg exit status 1"); err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(ctx, "s2")
	if err != nil {
		t.Fatal(err)
	}
	if got.EncodeStatus != history.EncodeFailed {
		t.Fatalf("unexpected status %q", got.EncodeStatus)
	}
	if got.EncodeError != "ffmpeg exit status 1" {
		t.Fatalf("unexpected error message %q", got.EncodeError)
	}
}

func TestRecentOrdersNewestFirst(t *testing.T) {
	store := testsupport.NewHistoryStore(t)
	ctx := context.Background()

	base := time.Now().Add(-3 * time.Hour)
	for i, id := range []string{"old", "mid", "new"} {
		rec := history.Record{
			ID:        id,
			JobName:   id,
			FramesDir: "/tmp/" + id,
			StartedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if err := store.RecordCapture(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	records, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ID != "new" || records[1].ID != "mid" {
		t.Fatalf("unexpected order: %s, %s", records[0].ID, records[1].ID)
	}
}

func TestUpdateMissingRecordFails(t *testing.T) {
	store := testsupport.NewHistoryStore(t)
	if err := store.SetEncodeRunning(context.Background(), "nope"); err == nil {
		t.Fatal("expected error for unknown id")
	}
}
