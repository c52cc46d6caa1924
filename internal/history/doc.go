// Package history persists completed capture sessions in SQLite.
//
// Each record tracks one print's capture and its encode outcome: frame count,
// frames directory, the output video path, and timings. The database lives in
// the configured log directory and is an operational record, not a work
// queue; the daemon only ever inserts and updates, the CLI only reads.
//
// Schema changes bump schemaVersion in store.go; users clear the database to
// adopt the new schema.
package history
