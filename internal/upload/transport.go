package upload

import (
	"context"
	"io"
)

// ResultKind tags the successful arms of a chunk exchange. Failures are
// reported through the error returned next to the Result.
type ResultKind int

const (
	// KindIncomplete means the session is still open and the server reports
	// Accepted bytes as durably stored.
	KindIncomplete ResultKind = iota + 1
	// KindComplete means the server finalized the upload and created Resource.
	KindComplete
)

func (k ResultKind) String() string {
	switch k {
	case KindIncomplete:
		return "incomplete"
	case KindComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Resource describes the remote object created by a finished upload.
type Resource struct {
	ID string
	// Body is the raw terminal response for callers that need server-echoed
	// metadata.
	Body []byte
}

// Result is the outcome of one exchange with the upload session.
type Result struct {
	Kind     ResultKind
	Accepted int64
	Resource *Resource
}

// Incomplete reports that the server now holds accepted bytes.
func Incomplete(accepted int64) Result {
	return Result{Kind: KindIncomplete, Accepted: accepted}
}

// Complete reports the terminal success of the session.
func Complete(resource *Resource) Result {
	return Result{Kind: KindComplete, Resource: resource}
}

// Transport sends chunks to an already initiated upload session. It is the
// only component that performs network I/O. Send blocks for the duration of
// one request and must not retain body after it returns.
type Transport interface {
	Send(ctx context.Context, chunk Chunk, body io.Reader, total int64) (Result, error)
}

// StatusQuerier is implemented by transports that can ask the session how
// many bytes it holds without sending data. The Uploader uses it after a
// backoff sleep to pick up bytes an interrupted request still delivered.
type StatusQuerier interface {
	Status(ctx context.Context, total int64) (Result, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, chunk Chunk, body io.Reader, total int64) (Result, error)

// Send calls f.
func (f TransportFunc) Send(ctx context.Context, chunk Chunk, body io.Reader, total int64) (Result, error) {
	return f(ctx, chunk, body, total)
}

// ProgressSink observes confirmed progress. Calls are monotonically
// non-decreasing in transferred and the last call of a successful upload has
// transferred == total.
type ProgressSink interface {
	Progress(transferred, total int64)
}

// ProgressFunc adapts a function to ProgressSink.
type ProgressFunc func(transferred, total int64)

// Progress calls f.
func (f ProgressFunc) Progress(transferred, total int64) {
	f(transferred, total)
}

type nopProgress struct{}

func (nopProgress) Progress(int64, int64) {}
