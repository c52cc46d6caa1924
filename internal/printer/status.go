package printer

import "strings"

// State is the lifecycle phase reported for a print job. Transport failures
// and missing jobs are states of their own so callers can switch exhaustively
// instead of comparing raw firmware strings.
type State int

const (
	// StateUnknown covers firmware states this tool has no use for
	// (paused, resuming, and whatever future firmware adds).
	StateUnknown State = iota
	// StateTransportError marks a failed status poll; Err carries the cause.
	StateTransportError
	// StateNoJob means the printer answered but reports no active print.
	StateNoJob
	StatePrePrint
	StatePrinting
	// StatePostPrint covers both the firmware post_print and wait_cleanup
	// phases.
	StatePostPrint
)

func (s State) String() string {
	switch s {
	case StateTransportError:
		return "transport_error"
	case StateNoJob:
		return "no_job"
	case StatePrePrint:
		return "pre_print"
	case StatePrinting:
		return "printing"
	case StatePostPrint:
		return "post_print"
	default:
		return "unknown"
	}
}

// JobStatus is an immutable snapshot of a print job taken from one status
// poll. Zero time fields mean the printer did not report them.
type JobStatus struct {
	State       State
	Name        string
	TimeElapsed float64
	TimeTotal   float64
	// Err is set only for StateTransportError.
	Err error
}

// Printing reports whether the job is actively printing.
func (j JobStatus) Printing() bool { return j.State == StatePrinting }

// Failed reports whether the snapshot represents a failed or unknown poll.
func (j JobStatus) Failed() bool {
	return j.State == StateTransportError || j.State == StateUnknown
}

// TimeRemaining returns the printer's estimate of remaining print seconds,
// or -1 when no total estimate is available.
func (j JobStatus) TimeRemaining() float64 {
	if j.TimeTotal == 0 {
		return -1
	}
	return j.TimeTotal - j.TimeElapsed
}

// Progress returns completion as a fraction in [0,1], or 0 when no total
// estimate is available.
func (j JobStatus) Progress() float64 {
	if j.TimeTotal == 0 {
		return 0
	}
	return j.TimeElapsed / j.TimeTotal
}

// jobPayload mirrors the firmware's print_job response body.
type jobPayload struct {
	State       string  `json:"state"`
	Name        string  `json:"name"`
	TimeElapsed float64 `json:"time_elapsed"`
	TimeTotal   float64 `json:"time_total"`
}

func statusFromPayload(p jobPayload) JobStatus {
	status := JobStatus{
		Name:        p.Name,
		TimeElapsed: p.TimeElapsed,
		TimeTotal:   p.TimeTotal,
	}
	switch strings.ToLower(strings.TrimSpace(p.State)) {
	case "printing":
		status.State = StatePrinting
	case "pre_print":
		status.State = StatePrePrint
	case "post_print", "wait_cleanup":
		status.State = StatePostPrint
	default:
		status.State = StateUnknown
	}
	return status
}

// TransportError wraps a failed poll into a JobStatus value.
func TransportError(err error) JobStatus {
	return JobStatus{State: StateTransportError, Err: err}
}
