package history

import "time"

// EncodeStatus is the encode lifecycle of a capture record.
type EncodeStatus string

const (
	EncodePending   EncodeStatus = "pending"
	EncodeRunning   EncodeStatus = "encoding"
	EncodeSucceeded EncodeStatus = "succeeded"
	EncodeFailed    EncodeStatus = "failed"
)

// Record is one capture session and its encode outcome.
type Record struct {
	ID             string
	JobName        string
	FrameCount     int
	FramesDir      string
	VideoPath      string
	EncodeStatus   EncodeStatus
	EncodeError    string
	StartedAt      time.Time
	CaptureSeconds float64
	UpdatedAt      time.Time
}
