// Package encoding turns captured frame sequences into time-lapse videos.
//
// The FFmpegRunner wraps the external ffmpeg process; the Dispatcher owns
// everything after a capture session hands off its Result: picking a
// collision-free output name, running the encode (inline or on a bounded
// worker pool), recording the outcome in history, cleaning up the frames
// directory on success, and retaining it for manual recovery on failure.
//
// Ownership of a frames directory transfers to the Dispatcher with the
// Result value; capture code must not touch the directory after Submit.
package encoding
