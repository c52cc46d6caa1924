package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Printer contains the address and timeouts for the printer's local HTTP APIs.
type Printer struct {
	Host            string `toml:"host"`
	StatusPort      int    `toml:"status_port"`
	CameraPort      int    `toml:"camera_port"`
	OnlineTimeout   int    `toml:"online_timeout"`
	StatusTimeout   int    `toml:"status_timeout"`
	SnapshotTimeout int    `toml:"snapshot_timeout"`
}

// Capture contains the adaptive frame scheduling parameters.
type Capture struct {
	// TargetDuration is the desired length of the finished video in seconds.
	TargetDuration float64 `toml:"target_duration"`
	// FPS is the frame rate of the finished video.
	FPS float64 `toml:"fps"`
	// MinDelay is the floor on the inter-frame delay in seconds.
	MinDelay float64 `toml:"min_delay"`
	// FastWindow is the trailing window of remaining print time, in seconds,
	// during which frames are captured at MinDelay.
	FastWindow float64 `toml:"fast_window"`
	// RetainFrames keeps the frames directory after a successful encode.
	RetainFrames bool `toml:"retain_frames"`
}

// Encode contains ffmpeg invocation settings.
type Encode struct {
	FFmpegBinary string `toml:"ffmpeg_binary"`
	// ExtraArgs are additional ffmpeg arguments inserted before the output
	// path, parsed with shell-style quoting.
	ExtraArgs  string `toml:"extra_args"`
	Workers    int    `toml:"workers"`
	Foreground bool   `toml:"foreground"`
}

// Paths contains directory configuration.
type Paths struct {
	VideoDir   string `toml:"video_dir"`
	StagingDir string `toml:"staging_dir"`
	LogDir     string `toml:"log_dir"`
}

// Workflow contains daemon timing and lifecycle settings.
type Workflow struct {
	OnlinePollInterval int  `toml:"online_poll_interval"`
	JobPollInterval    int  `toml:"job_poll_interval"`
	SinglePrint        bool `toml:"single_print"`
	MinFreeDiskMiB     int  `toml:"min_free_disk_mib"`
}

// Notifications contains ntfy push notification settings.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Capture        bool   `toml:"capture"`
	Encoding       bool   `toml:"encoding"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for printlapse.
//
// Configuration sections by subsystem:
//   - Printer: HTTP status/camera endpoints and timeouts
//   - Capture: adaptive frame scheduling parameters
//   - Encode: ffmpeg binary, arguments, and worker pool sizing
//   - Paths: video output, frame staging, and log directories
//   - Workflow: polling intervals and single-print mode
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Printer       Printer       `toml:"printer"`
	Capture       Capture       `toml:"capture"`
	Encode        Encode        `toml:"encode"`
	Paths         Paths         `toml:"paths"`
	Workflow      Workflow      `toml:"workflow"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/printlapse/config.toml")
}

// SampleConfig returns the embedded sample configuration file contents.
func SampleConfig() string {
	return sampleConfig
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("printlapse.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
// VideoDir is created on a best-effort basis so the daemon can start when
// external storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.VideoDir) != "" {
		_ = os.MkdirAll(c.Paths.VideoDir, 0o755)
	}
	return nil
}

// StatusTimeout returns the printer status request timeout as a duration.
func (c *Config) StatusTimeout() time.Duration {
	return secondsOrDefault(c.Printer.StatusTimeout, defaultStatusTimeout)
}

// OnlineTimeout returns the online probe timeout as a duration.
func (c *Config) OnlineTimeout() time.Duration {
	return secondsOrDefault(c.Printer.OnlineTimeout, defaultOnlineTimeout)
}

// SnapshotTimeout returns the camera snapshot request timeout as a duration.
func (c *Config) SnapshotTimeout() time.Duration {
	return secondsOrDefault(c.Printer.SnapshotTimeout, defaultSnapshotTimeout)
}

// OnlinePollInterval returns the interval between printer online probes.
func (c *Config) OnlinePollInterval() time.Duration {
	return secondsOrDefault(c.Workflow.OnlinePollInterval, defaultOnlinePollInterval)
}

// JobPollInterval returns the interval between job status polls while idle.
func (c *Config) JobPollInterval() time.Duration {
	return secondsOrDefault(c.Workflow.JobPollInterval, defaultJobPollInterval)
}

func secondsOrDefault(value, fallback int) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
