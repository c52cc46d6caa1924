// Package printer talks to an Ultimaker-class printer over its local HTTP
// APIs: the firmware status API on the status port and the camera snapshot
// endpoint on the camera port.
//
// The client never returns transport errors from polling methods. IsOnline
// reports false, JobStatus returns a StateTransportError snapshot, and
// Snapshot returns nil bytes; the daemon is designed to run unattended and
// treats network failures as ordinary states.
package printer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"printlapse/internal/config"
	"printlapse/internal/logging"
)

// Monitor is the capability surface the capture workflow consumes.
type Monitor interface {
	IsOnline(ctx context.Context) bool
	JobStatus(ctx context.Context) JobStatus
	Snapshot(ctx context.Context) []byte
}

// Client implements Monitor against a real printer.
type Client struct {
	statusBase string
	cameraBase string
	online     *http.Client
	status     *http.Client
	camera     *http.Client
	logger     *slog.Logger
}

var _ Monitor = (*Client)(nil)

// NewClient builds a printer client from configuration.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Client{
		statusBase: fmt.Sprintf("http://%s:%d", cfg.Printer.Host, cfg.Printer.StatusPort),
		cameraBase: fmt.Sprintf("http://%s:%d", cfg.Printer.Host, cfg.Printer.CameraPort),
		online:     &http.Client{Timeout: cfg.OnlineTimeout()},
		status:     &http.Client{Timeout: cfg.StatusTimeout()},
		camera:     &http.Client{Timeout: cfg.SnapshotTimeout()},
		logger:     logging.WithComponent(logger, "printer"),
	}
}

// IsOnline probes the printer status endpoint with a short timeout.
func (c *Client) IsOnline(ctx context.Context) bool {
	body, err := c.get(ctx, c.online, c.statusBase+"/api/v1/printer/status")
	if err != nil {
		c.logger.Debug("online probe failed", logging.Error(err))
		return false
	}
	var state any
	if err := json.Unmarshal(body, &state); err != nil {
		c.logger.Debug("online probe returned malformed body", logging.Error(err))
		return false
	}
	return true
}

// JobStatus polls the current print job. Failures come back as a
// StateTransportError snapshot, a 404 as StateNoJob.
func (c *Client) JobStatus(ctx context.Context) JobStatus {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.statusBase+"/api/v1/print_job", nil)
	if err != nil {
		return TransportError(err)
	}
	resp, err := c.status.Do(req)
	if err != nil {
		c.logger.Debug("job status poll failed", logging.Error(err))
		return TransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// The firmware answers 404 while no print job is running.
		return JobStatus{State: StateNoJob}
	}

	var payload jobPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.logger.Debug("job status body malformed", logging.Error(err))
		return TransportError(fmt.Errorf("decode print_job response: %w", err))
	}
	return statusFromPayload(payload)
}

// Snapshot fetches one camera frame, returning nil on any failure.
func (c *Client) Snapshot(ctx context.Context) []byte {
	body, err := c.get(ctx, c.camera, c.cameraBase+"/?action=snapshot")
	if err != nil {
		c.logger.Debug("snapshot fetch failed", logging.Error(err))
		return nil
	}
	if len(body) == 0 {
		return nil
	}
	return body
}

func (c *Client) get(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: unexpected status %s", url, resp.Status)
	}
	return io.ReadAll(resp.Body)
}
