package preflight

import (
	"os"
	"path/filepath"
	"testing"

	"printlapse/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFFmpeg_Missing(t *testing.T) {
	result := CheckFFmpeg("definitely-not-a-real-encoder-binary")
	if result.Passed {
		t.Fatal("expected failure for missing binary")
	}
}

func TestCheckFFmpeg_Unconfigured(t *testing.T) {
	result := CheckFFmpeg("")
	if result.Passed {
		t.Fatal("expected failure for empty binary")
	}
}

func TestCheckFreeDisk(t *testing.T) {
	result := CheckFreeDisk(t.TempDir(), 1)
	if !result.Passed {
		t.Fatalf("expected pass for 1 MiB requirement, got: %s", result.Detail)
	}

	result = CheckFreeDisk(t.TempDir(), 1<<40)
	if result.Passed {
		t.Fatal("expected failure for absurd disk requirement")
	}
}

func TestRunAll(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	results := RunAll(cfg)
	if len(results) == 0 {
		t.Fatal("expected at least one check result")
	}
	for _, r := range results {
		if r.Name == "FFmpeg" {
			continue // depends on the host having ffmpeg installed
		}
		if !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
}

func TestFailed(t *testing.T) {
	results := []Result{
		{Name: "a", Passed: true},
		{Name: "b", Passed: false, Detail: "broken"},
	}
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "b" {
		t.Fatalf("unexpected failed set: %+v", failed)
	}
}
