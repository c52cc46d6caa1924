package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePrinter(); err != nil {
		return err
	}
	if err := c.validateCapture(); err != nil {
		return err
	}
	if err := c.validateEncode(); err != nil {
		return err
	}
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePrinter() error {
	if c.Printer.Host == "" {
		return errors.New("printer.host must be set")
	}
	if c.Printer.StatusPort < 1 || c.Printer.StatusPort > 65535 {
		return fmt.Errorf("printer.status_port %d out of range", c.Printer.StatusPort)
	}
	if c.Printer.CameraPort < 1 || c.Printer.CameraPort > 65535 {
		return fmt.Errorf("printer.camera_port %d out of range", c.Printer.CameraPort)
	}
	return nil
}

func (c *Config) validateCapture() error {
	if c.Capture.TargetDuration <= 0 {
		return errors.New("capture.target_duration must be positive")
	}
	if c.Capture.FPS <= 0 {
		return errors.New("capture.fps must be positive")
	}
	if c.Capture.MinDelay <= 0 {
		return errors.New("capture.min_delay must be positive")
	}
	if c.Capture.FastWindow < 0 {
		return errors.New("capture.fast_window must not be negative")
	}
	return nil
}

func (c *Config) validateEncode() error {
	if c.Encode.Workers < 1 {
		return errors.New("encode.workers must be at least 1")
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.VideoDir == "" {
		return errors.New("paths.video_dir must be set")
	}
	if c.Paths.StagingDir == "" {
		return errors.New("paths.staging_dir must be set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
