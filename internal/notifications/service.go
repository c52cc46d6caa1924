package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"printlapse/internal/config"
)

const userAgent = "printlapse/0.1.0"

// Service defines the notification surface exposed to the daemon.
type Service interface {
	NotifyCaptureStarted(ctx context.Context, jobName string) error
	NotifyVideoReady(ctx context.Context, jobName, videoPath string) error
	NotifyEncodeFailed(ctx context.Context, jobName, framesDir string) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		capture:  cfg.Notifications.Capture,
		encoding: cfg.Notifications.Encoding,
		errors:   cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	capture  bool
	encoding bool
	errors   bool
}

func (n *ntfyService) NotifyCaptureStarted(ctx context.Context, jobName string) error {
	if !n.capture {
		return nil
	}
	data := payload{
		title:   "printlapse - Capture Started",
		message: fmt.Sprintf("Recording time-lapse for: %s", strings.TrimSpace(jobName)),
		tags:    []string{"printlapse", "capture", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyVideoReady(ctx context.Context, jobName, videoPath string) error {
	if !n.encoding {
		return nil
	}
	jobName = strings.TrimSpace(jobName)
	message := fmt.Sprintf("Time-lapse ready: %s", jobName)
	if videoPath = strings.TrimSpace(videoPath); videoPath != "" {
		message = fmt.Sprintf("%s\nFile: %s", message, videoPath)
	}
	data := payload{
		title:    "printlapse - Video Ready",
		message:  message,
		tags:     []string{"printlapse", "encode", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyEncodeFailed(ctx context.Context, jobName, framesDir string) error {
	if !n.encoding {
		return nil
	}
	data := payload{
		title: "printlapse - Encode Failed",
		message: fmt.Sprintf("Encode failed for: %s\nFrames retained at: %s",
			strings.TrimSpace(jobName), strings.TrimSpace(framesDir)),
		tags:     []string{"printlapse", "encode", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "printlapse - Error",
		message:  builder.String(),
		tags:     []string{"printlapse", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:   "printlapse - Test",
		message: "Notifications are configured correctly",
		tags:    []string{"printlapse", "test"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

// NewNop returns a Service that ignores every event.
func NewNop() Service { return noopService{} }

func (noopService) NotifyCaptureStarted(context.Context, string) error       { return nil }
func (noopService) NotifyVideoReady(context.Context, string, string) error   { return nil }
func (noopService) NotifyEncodeFailed(context.Context, string, string) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error         { return nil }
func (noopService) TestNotification(context.Context) error                   { return nil }
