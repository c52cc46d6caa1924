package encoding_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"printlapse/internal/encoding"
	"printlapse/internal/testsupport"
)

// stubFFmpeg writes an executable script under a temp dir, prepends it to
// PATH, and points the config at it.
func stubFFmpeg(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs are not portable to windows")
	}
	binDir := t.TempDir()
	path := filepath.Join(binDir, "ffmpeg")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	return path
}

func TestNewFFmpegRunnerRejectsMissingBinary(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Encode.FFmpegBinary = "printlapse-missing-encoder"
	if _, err := encoding.NewFFmpegRunner(cfg, false, nil); err == nil {
		t.Fatal("expected error for missing binary")
	}
}

func TestNewFFmpegRunnerRejectsBadExtraArgs(t *testing.T) {
	stubFFmpeg(t, "exit 0")
	cfg := testsupport.NewConfig(t)
	cfg.Encode.ExtraArgs = `-metadata title="unterminated`
	if _, err := encoding.NewFFmpegRunner(cfg, false, nil); err == nil {
		t.Fatal("expected error for unterminated quote in extra args")
	}
}

func TestFFmpegRunnerEncodeSuccess(t *testing.T) {
	stubFFmpeg(t, "exit 0")
	cfg := testsupport.NewConfig(t)
	runner, err := encoding.NewFFmpegRunner(cfg, false, nil)
	if err != nil {
		t.Fatal(err)
	}

	err = runner.Encode(context.Background(), encoding.Job{
		FramePattern: "/tmp/frames/%05d.jpg",
		FrameRate:    30,
		OutputPath:   filepath.Join(t.TempDir(), "out.mp4"),
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
}

func TestFFmpegRunnerEncodeFailureIncludesOutput(t *testing.T) {
	stubFFmpeg(t, `echo "No such file or directory" >&2; exit 1`)
	cfg := testsupport.NewConfig(t)
	runner, err := encoding.NewFFmpegRunner(cfg, false, nil)
	if err != nil {
		t.Fatal(err)
	}

	err = runner.Encode(context.Background(), encoding.Job{
		FramePattern: "/tmp/frames/%05d.jpg",
		FrameRate:    30,
		OutputPath:   filepath.Join(t.TempDir(), "out.mp4"),
	})
	if err == nil {
		t.Fatal("expected encode failure")
	}
	if !strings.Contains(err.Error(), "No such file or directory") {
		t.Fatalf("encoder diagnostics missing from error: %v", err)
	}
}
