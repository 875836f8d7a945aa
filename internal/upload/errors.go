package upload

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrFatal marks a failure that retrying the same request cannot fix.
	ErrFatal = errors.New("fatal transport error")
	// ErrProtocol marks a server response that breaks the resumable contract.
	ErrProtocol = errors.New("protocol violation")
	// ErrRetriesExhausted marks an upload that hit its retry limit at one offset.
	ErrRetriesExhausted = errors.New("retries exhausted")
	// ErrCanceled marks an upload stopped by its context.
	ErrCanceled = errors.New("upload canceled")
	// ErrNoProgress is reported when the server acknowledges a chunk without
	// moving the confirmed offset. It is retriable.
	ErrNoProgress = errors.New("server accepted no new bytes")
)

// Error is the terminal failure of an upload. Kind is one of the sentinel
// errors above; Err is the last underlying cause.
type Error struct {
	Kind     error
	Offset   int64
	Total    int64
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Kind != nil {
		b.WriteString(e.Kind.Error())
	} else {
		b.WriteString("upload failed")
	}
	fmt.Fprintf(&b, " at offset %d/%d", e.Offset, e.Total)
	if e.Attempts > 0 {
		fmt.Fprintf(&b, " after %d attempts", e.Attempts)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind marker and the underlying cause.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// StatusError carries a non-success HTTP status from the upload endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("http %d", e.StatusCode)
	}
	const limit = 200
	if len(body) > limit {
		body = body[:limit] + "..."
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, body)
}

// ProtocolError describes a response that violates the session contract,
// such as an offset that moved backward.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return "protocol: " + e.Reason
}

// Is lets errors.Is(err, ErrProtocol) match a bare ProtocolError.
func (e *ProtocolError) Is(target error) bool {
	return target == ErrProtocol
}
