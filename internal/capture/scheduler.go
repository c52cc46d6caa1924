// Package capture contains the adaptive frame scheduler and the capture
// session loop that together turn a print of unknown duration into an evenly
// sampled frame sequence.
package capture

import (
	"printlapse/internal/config"
	"printlapse/internal/printer"
)

// Params are the fixed per-run scheduling parameters.
type Params struct {
	// TargetDuration is the desired finished video length in seconds.
	TargetDuration float64
	// FPS is the finished video frame rate.
	FPS float64
	// MinDelay is the floor on the inter-frame delay in seconds.
	MinDelay float64
	// FastWindow is the trailing remaining-time window, in seconds, captured
	// at MinDelay.
	FastWindow float64
}

// ParamsFromConfig extracts scheduling parameters from application config.
func ParamsFromConfig(cfg *config.Config) Params {
	return Params{
		TargetDuration: cfg.Capture.TargetDuration,
		FPS:            cfg.Capture.FPS,
		MinDelay:       cfg.Capture.MinDelay,
		FastWindow:     cfg.Capture.FastWindow,
	}
}

// ComputeDelay returns the seconds to wait before capturing the next frame.
//
// A zero or negative return means the session is finished: the job is no
// longer printing, or so little print time remains that waiting any useful
// amount would overshoot the end.
//
// While printing, the nominal delay spreads the frames needed for the target
// video evenly across the printer's current total-time estimate. The estimate
// is re-read on every call, so revised estimates shift the schedule instead of
// invalidating it. Inside FastWindow of the end, frames are captured at
// MinDelay; just outside it, delays long enough to overshoot into the window
// are shrunk so at least one more frame lands before the dense tail begins.
func ComputeDelay(status printer.JobStatus, p Params) float64 {
	if !status.Printing() {
		return 0
	}

	remaining := status.TimeRemaining()
	if remaining <= p.FastWindow {
		// Covers the no-estimate sentinel (-1) as well: with nothing to
		// schedule against, sample densely rather than stall.
		return p.MinDelay
	}

	delay := status.TimeTotal / (p.FPS * p.TargetDuration)
	if delay < p.MinDelay {
		delay = p.MinDelay
	}
	if delay >= remaining+p.MinDelay {
		// May go non-positive when remaining < MinDelay; callers treat
		// that as finished.
		delay = remaining - p.MinDelay
	}
	return delay
}
