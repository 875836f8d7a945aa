package batch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"tubecast/internal/logging"
	"tubecast/internal/publish"
	"tubecast/internal/services"
)

// LockFileName is created inside the folder while a batch runs and removed
// when it finishes.
const LockFileName = ".tubecast.lock"

// Publisher publishes a single video.
type Publisher interface {
	Publish(ctx context.Context, req publish.Request) (*publish.Result, error)
}

// Options controls a batch run.
type Options struct {
	Patterns []string
	// Template is copied for every file; its Path is replaced.
	Template publish.Request
	// OnStart is called before each file is published.
	OnStart func(index, total int, path string)
	// OnDone is called after each file with its outcome.
	OnDone func(index, total int, outcome Outcome)
}

// Outcome is the result of one file in a batch.
type Outcome struct {
	Path   string
	Result *publish.Result
	Err    error
}

// Succeeded reports whether the file was published.
func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

// Summary counts outcomes.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Bytes     int64
}

// Summarize tallies outcomes.
func Summarize(outcomes []Outcome) Summary {
	s := Summary{Total: len(outcomes)}
	for _, o := range outcomes {
		if o.Succeeded() {
			s.Succeeded++
			if o.Result != nil {
				s.Bytes += o.Result.Size
			}
			continue
		}
		s.Failed++
	}
	return s
}

// Runner publishes folders.
type Runner struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewRunner returns a Runner publishing through p.
func NewRunner(p Publisher, logger *slog.Logger) *Runner {
	return &Runner{publisher: p, logger: logging.NewComponentLogger(logger, "batch")}
}

// Run publishes every discovered file in folder sequentially. It returns an
// outcome per file attempted; the error is non-nil only when the batch could not
// start or ctx was canceled.
func (r *Runner) Run(ctx context.Context, folder string, opts Options) ([]Outcome, error) {
	files, err := Discover(folder, opts.Patterns)
	if err != nil {
		return nil, err
	}

	lock := flock.New(filepath.Join(filepath.Clean(folder), LockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("batch: acquire folder lock: %w", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "batch", "acquire folder lock",
			"another tubecast batch is already uploading "+folder, nil)
	}
	defer func() {
		// Removed while still held so no other batch can lock the stale inode.
		if err := os.Remove(lock.Path()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			r.logger.Debug("batch lock file not removed", logging.Error(err))
		}
		if err := lock.Unlock(); err != nil {
			r.logger.Warn("batch lock release failed", logging.Error(err))
		}
	}()

	started := time.Now()
	r.logger.Info("batch started",
		logging.String(logging.FieldEventType, "batch_start"),
		logging.String("folder", folder),
		logging.Int("files", len(files)),
	)

	outcomes := make([]Outcome, 0, len(files))
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			r.logger.Warn("batch canceled",
				logging.String(logging.FieldEventType, "batch_canceled"),
				logging.Int("remaining", len(files)-i),
			)
			return outcomes, err
		}
		if opts.OnStart != nil {
			opts.OnStart(i+1, len(files), path)
		}
		req := opts.Template
		req.Path = path
		result, err := r.publisher.Publish(ctx, req)
		outcome := Outcome{Path: path, Result: result, Err: err}
		outcomes = append(outcomes, outcome)
		if opts.OnDone != nil {
			opts.OnDone(i+1, len(files), outcome)
		}
		if err != nil && errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return outcomes, ctx.Err()
		}
	}

	summary := Summarize(outcomes)
	r.logger.Info("batch completed",
		logging.String(logging.FieldEventType, "batch_complete"),
		logging.Int("succeeded", summary.Succeeded),
		logging.Int("failed", summary.Failed),
		logging.Int64("bytes", summary.Bytes),
		logging.Duration("elapsed", time.Since(started)),
	)
	return outcomes, nil
}
