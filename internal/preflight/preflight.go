package preflight

import (
	"printlapse/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all preflight checks for the given config.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckFFmpeg(cfg.Encode.FFmpegBinary),
		CheckDirectoryAccess("Video directory", cfg.Paths.VideoDir),
		CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}

	if cfg.Workflow.MinFreeDiskMiB > 0 {
		results = append(results, CheckFreeDisk(cfg.Paths.StagingDir, int64(cfg.Workflow.MinFreeDiskMiB)))
	}

	return results
}

// Failed returns the subset of results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
