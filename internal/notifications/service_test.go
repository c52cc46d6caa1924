package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"printlapse/internal/config"
	"printlapse/internal/notifications"
)

type recorded struct {
	title   string
	tags    string
	body    string
	methods string
}

func newRecordingServer(t *testing.T, sink *[]recorded) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*sink = append(*sink, recorded{
			title:   r.Header.Get("Title"),
			tags:    r.Header.Get("Tags"),
			body:    string(body),
			methods: r.Method,
		})
	}))
}

func serviceFor(topic string) notifications.Service {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = topic
	return notifications.NewService(&cfg)
}

func TestNoopWhenTopicUnset(t *testing.T) {
	svc := serviceFor("")
	if err := svc.NotifyVideoReady(context.Background(), "benchy", "/v/benchy.mp4"); err != nil {
		t.Fatalf("noop service returned error: %v", err)
	}
}

func TestVideoReadyIncludesPath(t *testing.T) {
	var sink []recorded
	srv := newRecordingServer(t, &sink)
	defer srv.Close()

	svc := serviceFor(srv.URL)
	if err := svc.NotifyVideoReady(context.Background(), "benchy", "/videos/benchy.mp4"); err != nil {
		t.Fatalf("NotifyVideoReady: %v", err)
	}
	if len(sink) != 1 {
		t.Fatalf("expected 1 request, got %d", len(sink))
	}
	got := sink[0]
	if got.methods != http.MethodPost {
		t.Fatalf("unexpected method %q", got.methods)
	}
	if !strings.Contains(got.body, "/videos/benchy.mp4") {
		t.Fatalf("video path missing from body %q", got.body)
	}
	if !strings.Contains(got.tags, "encode") {
		t.Fatalf("unexpected tags %q", got.tags)
	}
}

func TestEncodeFailedMentionsFramesDir(t *testing.T) {
	var sink []recorded
	srv := newRecordingServer(t, &sink)
	defer srv.Close()

	svc := serviceFor(srv.URL)
	if err := svc.NotifyEncodeFailed(context.Background(), "benchy", "/tmp/frames"); err != nil {
		t.Fatalf("NotifyEncodeFailed: %v", err)
	}
	if len(sink) != 1 || !strings.Contains(sink[0].body, "/tmp/frames") {
		t.Fatalf("frames dir missing: %+v", sink)
	}
}

func TestServerErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic unknown", http.StatusNotFound)
	}))
	defer srv.Close()

	svc := serviceFor(srv.URL)
	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error from 404 response")
	}
}

func TestDisabledCategorySkipsSend(t *testing.T) {
	var sink []recorded
	srv := newRecordingServer(t, &sink)
	defer srv.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	cfg.Notifications.Capture = false
	svc := notifications.NewService(&cfg)

	if err := svc.NotifyCaptureStarted(context.Background(), "benchy"); err != nil {
		t.Fatalf("NotifyCaptureStarted: %v", err)
	}
	if len(sink) != 0 {
		t.Fatalf("expected no requests for disabled category, got %d", len(sink))
	}
}
