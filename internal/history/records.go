package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/huandu/go-sqlbuilder"
)

// ErrNotFound is returned when no record matches an upload ID.
var ErrNotFound = errors.New("history: record not found")

const maxErrorLength = 2000

var recordColumns = []string{
	"id",
	"upload_id",
	"file_path",
	"file_size",
	"title",
	"status",
	"video_id",
	"bytes_confirmed",
	"attempts",
	"error",
	"started_at",
	"finished_at",
}

// Begin inserts a record in the uploading state.
func (s *Store) Begin(ctx context.Context, entry Entry) (*Record, error) {
	entry.UploadID = strings.TrimSpace(entry.UploadID)
	if entry.UploadID == "" {
		return nil, errors.New("history: upload id required")
	}
	if strings.TrimSpace(entry.FilePath) == "" {
		return nil, errors.New("history: file path required")
	}
	started := s.now().UTC()

	ib := sqlbuilder.InsertInto("uploads").
		Cols("upload_id", "file_path", "file_size", "title", "status", "started_at").
		Values(entry.UploadID, entry.FilePath, entry.FileSize, entry.Title, string(StatusUploading), formatTime(started))
	query, args := ib.BuildWithFlavor(sqlbuilder.SQLite)

	res, err := s.exec(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("insert upload record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("read upload record id: %w", err)
	}
	return &Record{
		ID:        id,
		UploadID:  entry.UploadID,
		FilePath:  entry.FilePath,
		FileSize:  entry.FileSize,
		Title:     entry.Title,
		Status:    StatusUploading,
		StartedAt: started,
	}, nil
}

// Complete marks the record as finished with the created video ID.
func (s *Store) Complete(ctx context.Context, uploadID, videoID string, bytesConfirmed int64, attempts int) error {
	return s.Finish(ctx, uploadID, Outcome{
		Status:         StatusCompleted,
		VideoID:        videoID,
		BytesConfirmed: bytesConfirmed,
		Attempts:       attempts,
	})
}

// Fail marks the record as failed or rejected and stores the error text.
func (s *Store) Fail(ctx context.Context, uploadID string, status Status, bytesConfirmed int64, attempts int, cause error) error {
	if status != StatusFailed && status != StatusRejected {
		return fmt.Errorf("history: %q is not a failure status", status)
	}
	return s.Finish(ctx, uploadID, Outcome{
		Status:         status,
		BytesConfirmed: bytesConfirmed,
		Attempts:       attempts,
		Err:            cause,
	})
}

// Finish writes a terminal outcome onto the record.
func (s *Store) Finish(ctx context.Context, uploadID string, outcome Outcome) error {
	if !outcome.Status.IsTerminal() {
		return fmt.Errorf("history: %q is not a terminal status", outcome.Status)
	}
	message := ""
	if outcome.Err != nil {
		message = truncate(outcome.Err.Error(), maxErrorLength)
	}

	ub := sqlbuilder.Update("uploads")
	ub.Set(
		ub.Assign("status", string(outcome.Status)),
		ub.Assign("video_id", outcome.VideoID),
		ub.Assign("bytes_confirmed", outcome.BytesConfirmed),
		ub.Assign("attempts", outcome.Attempts),
		ub.Assign("error", message),
		ub.Assign("finished_at", formatTime(s.now())),
	)
	ub.Where(ub.Equal("upload_id", strings.TrimSpace(uploadID)))
	query, args := ub.BuildWithFlavor(sqlbuilder.SQLite)

	res, err := s.exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update upload record: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, uploadID)
	}
	return nil
}

// Get returns the record for uploadID.
func (s *Store) Get(ctx context.Context, uploadID string) (*Record, error) {
	sb := sqlbuilder.Select(recordColumns...).From("uploads")
	sb.Where(sb.Equal("upload_id", strings.TrimSpace(uploadID)))
	sb.Limit(1)
	query, args := sb.BuildWithFlavor(sqlbuilder.SQLite)

	record, err := scanRecord(s.db.QueryRowContext(ctx, query, args...))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("%w: %s", ErrNotFound, uploadID)
	case err != nil:
		return nil, err
	}
	return record, nil
}

// Recent returns up to limit records, newest first. A limit <= 0 returns all.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	sb := sqlbuilder.Select(recordColumns...).From("uploads")
	sb.OrderBy("id").Desc()
	if limit > 0 {
		sb.Limit(limit)
	}
	query, args := sb.BuildWithFlavor(sqlbuilder.SQLite)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query upload records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate upload records: %w", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		record   Record
		status   string
		started  string
		finished string
	)
	err := row.Scan(
		&record.ID,
		&record.UploadID,
		&record.FilePath,
		&record.FileSize,
		&record.Title,
		&status,
		&record.VideoID,
		&record.BytesConfirmed,
		&record.Attempts,
		&record.Error,
		&started,
		&finished,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan upload record: %w", err)
	}
	parsed, ok := ParseStatus(status)
	if !ok {
		return nil, fmt.Errorf("scan upload record: unknown status %q", status)
	}
	record.Status = parsed
	if record.StartedAt, err = parseTime(started); err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	if record.FinishedAt, err = parseTime(finished); err != nil {
		return nil, fmt.Errorf("parse finished_at: %w", err)
	}
	return &record, nil
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit]) + "..."
}
