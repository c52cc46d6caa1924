// Package workflow runs the printer watch loop.
//
// The Manager waits for the printer to come online, polls job status
// until a print starts, captures a time-lapse session for it, records
// the session in history, and hands the frames to the encode
// dispatcher. It then waits for the next print, or exits after a single
// capture in single-print mode.
//
// Transport errors while polling are logged and retried; the loop only
// stops when its context is cancelled or, in single-print mode, after
// the first capture has been dispatched.
package workflow
