// Package textutil provides small text formatting helpers shared across the CLI
// and daemon log output.
package textutil

import (
	"fmt"
	"time"
)

// HMS renders a duration as a compact clock string, dropping leading units that
// are zero: "04s", "02:04s", "01:02:04s", "01:01:02:04s" (days included only
// when non-zero).
func HMS(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d.Seconds())
	days := total / (24 * 60 * 60)
	total %= 24 * 60 * 60
	hours := total / (60 * 60)
	total %= 60 * 60
	mins := total / 60
	secs := total % 60

	switch {
	case days != 0:
		return fmt.Sprintf("%02d:%02d:%02d:%02ds", days, hours, mins, secs)
	case hours != 0:
		return fmt.Sprintf("%02d:%02d:%02ds", hours, mins, secs)
	case mins != 0:
		return fmt.Sprintf("%02d:%02ds", mins, secs)
	default:
		return fmt.Sprintf("%02ds", secs)
	}
}

// HMSSeconds is HMS for a raw seconds value, as reported by the printer API.
func HMSSeconds(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	return HMS(time.Duration(seconds * float64(time.Second)))
}
