package history

import (
	"path/filepath"
	"time"
)

// Status is the lifecycle state of a recorded upload.
type Status string

const (
	StatusUploading Status = "uploading"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	// StatusRejected marks uploads that never reached the network because
	// input or setup checks failed.
	StatusRejected Status = "rejected"
)

var statusSet = map[Status]struct{}{
	StatusUploading: {},
	StatusCompleted: {},
	StatusFailed:    {},
	StatusRejected:  {},
}

// ParseStatus converts a stored value into a Status.
func ParseStatus(value string) (Status, bool) {
	status := Status(value)
	_, ok := statusSet[status]
	return status, ok
}

// IsTerminal reports whether the status ends a record's lifecycle.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusRejected
}

// Entry describes an upload that is about to start.
type Entry struct {
	UploadID string
	FilePath string
	FileSize int64
	Title    string
}

// Record is one row of the uploads table.
type Record struct {
	ID             int64
	UploadID       string
	FilePath       string
	FileSize       int64
	Title          string
	Status         Status
	VideoID        string
	BytesConfirmed int64
	Attempts       int
	Error          string
	StartedAt      time.Time
	FinishedAt     time.Time
}

// FileName returns the base name of the uploaded file.
func (r Record) FileName() string {
	return filepath.Base(r.FilePath)
}

// Duration is the wall time between start and finish, or zero while the
// record is still open.
func (r Record) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Outcome captures how an upload ended.
type Outcome struct {
	Status         Status
	VideoID        string
	BytesConfirmed int64
	Attempts       int
	Err            error
}
