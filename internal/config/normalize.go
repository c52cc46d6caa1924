package config

import (
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePrinter()
	c.normalizeEncode()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.VideoDir, err = expandPath(c.Paths.VideoDir); err != nil {
		return err
	}
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}
	return nil
}

func (c *Config) normalizePrinter() {
	if host := os.Getenv("PRINTLAPSE_PRINTER_HOST"); host != "" && c.Printer.Host == defaultPrinterHost {
		c.Printer.Host = host
	}
	c.Printer.Host = strings.TrimSpace(c.Printer.Host)
	if c.Printer.StatusPort <= 0 {
		c.Printer.StatusPort = defaultStatusPort
	}
	if c.Printer.CameraPort <= 0 {
		c.Printer.CameraPort = defaultCameraPort
	}
}

func (c *Config) normalizeEncode() {
	c.Encode.FFmpegBinary = strings.TrimSpace(c.Encode.FFmpegBinary)
	if c.Encode.FFmpegBinary == "" {
		c.Encode.FFmpegBinary = defaultFFmpegBinary
	}
	if c.Encode.Workers <= 0 {
		c.Encode.Workers = defaultEncodeWorkers
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
