package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"printlapse/internal/config"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Store manages capture history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database in the log directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "history.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// RecordCapture inserts a finished capture session awaiting encode.
func (s *Store) RecordCapture(ctx context.Context, rec Record) error {
	if rec.EncodeStatus == "" {
		rec.EncodeStatus = EncodePending
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO captures (
            id, job_name, frame_count, frames_dir, video_path,
            encode_status, encode_error, started_at, capture_seconds, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.JobName,
		rec.FrameCount,
		rec.FramesDir,
		nullableString(rec.VideoPath),
		string(rec.EncodeStatus),
		nullableString(rec.EncodeError),
		rec.StartedAt.UTC().Format(time.RFC3339Nano),
		rec.CaptureSeconds,
		now,
	)
	if err != nil {
		return fmt.Errorf("insert capture: %w", err)
	}
	return nil
}

// SetEncodeRunning marks the record as being encoded.
func (s *Store) SetEncodeRunning(ctx context.Context, id string) error {
	return s.updateEncode(ctx, id, EncodeRunning, "", "")
}

// SetEncodeSucceeded records the output video path for a finished encode.
func (s *Store) SetEncodeSucceeded(ctx context.Context, id, videoPath string) error {
	return s.updateEncode(ctx, id, EncodeSucceeded, videoPath, "")
}

// SetEncodeFailed records an encode failure with its diagnostic message.
func (s *Store) SetEncodeFailed(ctx context.Context, id, message string) error {
	return s.updateEncode(ctx, id, EncodeFailed, "", message)
}

func (s *Store) updateEncode(ctx context.Context, id string, status EncodeStatus, videoPath, message string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx,
		`UPDATE captures SET encode_status = ?, video_path = COALESCE(?, video_path),
            encode_error = ?, updated_at = ? WHERE id = ?`,
		string(status),
		nullableString(videoPath),
		nullableString(message),
		now,
		id,
	)
	if err != nil {
		return fmt.Errorf("update capture %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("capture %s not found", id)
	}
	return nil
}

// Recent returns up to limit capture records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, job_name, frame_count, frames_dir, video_path,
            encode_status, encode_error, started_at, capture_seconds, updated_at
         FROM captures ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query captures: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Get returns a single capture record by id.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, job_name, frame_count, frames_dir, video_path,
            encode_status, encode_error, started_at, capture_seconds, updated_at
         FROM captures WHERE id = ?`, id)
	return scanRecord(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	var videoPath, encodeError sql.NullString
	var status, startedAt, updatedAt string
	err := row.Scan(
		&rec.ID,
		&rec.JobName,
		&rec.FrameCount,
		&rec.FramesDir,
		&videoPath,
		&status,
		&encodeError,
		&startedAt,
		&rec.CaptureSeconds,
		&updatedAt,
	)
	if err != nil {
		return Record{}, fmt.Errorf("scan capture: %w", err)
	}
	rec.VideoPath = videoPath.String
	rec.EncodeError = encodeError.String
	rec.EncodeStatus = EncodeStatus(status)
	if rec.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return Record{}, fmt.Errorf("parse started_at: %w", err)
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return Record{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return rec, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
