package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"tubecast/internal/logging"
)

// Spec is the immutable description of one upload request.
type Spec struct {
	Size       int64
	ChunkSize  int64
	MaxRetries int
	BaseDelay  time.Duration
	// MaxDelay clamps a single backoff sleep; zero leaves it unbounded.
	MaxDelay time.Duration
}

// Validate reports whether the spec can drive an upload.
func (s Spec) Validate() error {
	switch {
	case s.Size < 0:
		return fmt.Errorf("upload spec: negative size %d", s.Size)
	case s.ChunkSize <= 0:
		return fmt.Errorf("upload spec: chunk size must be positive, got %d", s.ChunkSize)
	case s.MaxRetries < 0:
		return fmt.Errorf("upload spec: negative max retries %d", s.MaxRetries)
	case s.BaseDelay < 0 || s.MaxDelay < 0:
		return errors.New("upload spec: backoff delays must not be negative")
	}
	return nil
}

// State is a step of the upload state machine.
type State int

const (
	StateIdle State = iota
	StateSending
	StateAdvancing
	StateBackingOff
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateAdvancing:
		return "advancing"
	case StateBackingOff:
		return "backing_off"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event is delivered to observers on every state transition.
type Event struct {
	State   State
	Offset  int64
	Total   int64
	Attempt int
	Chunk   Chunk
	Delay   time.Duration
	Err     error
}

// Uploader drives resumable uploads against a Transport.
type Uploader struct {
	transport  Transport
	classifier Classifier
	sleeper    Sleeper
	random     func() float64
	progress   ProgressSink
	observer   func(Event)
	logger     *slog.Logger
}

// Option customizes an Uploader.
type Option func(*Uploader)

// WithClassifier overrides the default status-code classifier.
func WithClassifier(c Classifier) Option {
	return func(u *Uploader) {
		u.classifier = c
	}
}

// WithSleeper overrides how backoff sleeps are performed (useful for tests).
func WithSleeper(sleeper Sleeper) Option {
	return func(u *Uploader) {
		if sleeper != nil {
			u.sleeper = sleeper
		}
	}
}

// WithRandom overrides the jitter source; fn must return values in [0,1).
func WithRandom(fn func() float64) Option {
	return func(u *Uploader) {
		u.random = fn
	}
}

// WithProgress registers the progress sink.
func WithProgress(sink ProgressSink) Option {
	return func(u *Uploader) {
		if sink != nil {
			u.progress = sink
		}
	}
}

// WithObserver registers a callback receiving every state transition.
func WithObserver(fn func(Event)) Option {
	return func(u *Uploader) {
		u.observer = fn
	}
}

// WithLogger sets the logger used for retry and completion messages.
func WithLogger(logger *slog.Logger) Option {
	return func(u *Uploader) {
		u.logger = logger
	}
}

// New constructs an Uploader for the supplied transport.
func New(transport Transport, opts ...Option) *Uploader {
	u := &Uploader{
		transport:  transport,
		classifier: NewClassifier(),
		sleeper:    sleepContext,
		progress:   nopProgress{},
	}
	for _, opt := range opts {
		opt(u)
	}
	u.logger = logging.NewComponentLogger(u.logger, "upload")
	return u
}

type session struct {
	spec      Spec
	planner   Planner
	backoff   Backoff
	confirmed int64
	attempt   int
	state     State
	chunk     Chunk
}

// Upload sends src to the transport's session and returns the created
// resource. src must expose at least spec.Size bytes. The call blocks until
// the upload completes, fails permanently, or ctx is done.
func (u *Uploader) Upload(ctx context.Context, src io.ReaderAt, spec Spec) (*Resource, error) {
	if u == nil || u.transport == nil {
		return nil, errors.New("upload: transport required")
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if src == nil && spec.Size > 0 {
		return nil, errors.New("upload: source required")
	}
	planner, err := NewPlanner(spec.Size, spec.ChunkSize)
	if err != nil {
		return nil, err
	}
	s := &session{
		spec:    spec,
		planner: planner,
		backoff: Backoff{Base: spec.BaseDelay, Max: spec.MaxDelay, Rand: u.random},
		state:   StateIdle,
	}
	logger := logging.WithContext(ctx, u.logger)
	logger.Debug("upload starting",
		logging.Int64("size", spec.Size),
		logging.Int64("chunk_size", spec.ChunkSize),
		logging.Int64("chunks", planner.Count()),
		logging.Int("max_retries", spec.MaxRetries),
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, u.fail(s, ErrCanceled, err)
		}
		chunk, err := s.planner.At(s.confirmed)
		if err != nil {
			return nil, u.fail(s, ErrProtocol, err)
		}
		s.chunk = chunk
		u.transition(s, StateSending, Event{Chunk: chunk})

		var body io.Reader = eofReader{}
		if chunk.Len() > 0 {
			body = io.NewSectionReader(src, chunk.Start, chunk.Len())
		}
		result, sendErr := u.transport.Send(ctx, chunk, body, spec.Size)

		var resource *Resource
		var done bool
		if sendErr != nil {
			resource, done, err = u.recover(ctx, s, logger, sendErr)
		} else {
			resource, done, err = u.apply(ctx, s, logger, result)
		}
		if done {
			return resource, err
		}
	}
}

// apply moves the session forward for a successful exchange.
func (u *Uploader) apply(ctx context.Context, s *session, logger *slog.Logger, result Result) (*Resource, bool, error) {
	switch result.Kind {
	case KindComplete:
		if result.Resource == nil || result.Resource.ID == "" {
			return nil, true, u.fail(s, ErrProtocol, &ProtocolError{Reason: "terminal response without resource id"})
		}
		s.confirmed = s.spec.Size
		u.progress.Progress(s.spec.Size, s.spec.Size)
		u.transition(s, StateCompleted, Event{})
		logger.Info("upload completed",
			logging.String("resource_id", result.Resource.ID),
			logging.Int64("size", s.spec.Size),
		)
		return result.Resource, true, nil
	case KindIncomplete:
		switch {
		case result.Accepted < s.confirmed:
			return nil, true, u.fail(s, ErrProtocol, &ProtocolError{
				Reason: fmt.Sprintf("confirmed offset moved backward from %d to %d", s.confirmed, result.Accepted),
			})
		case result.Accepted > s.spec.Size:
			return nil, true, u.fail(s, ErrProtocol, &ProtocolError{
				Reason: fmt.Sprintf("server reports %d bytes for a %d byte upload", result.Accepted, s.spec.Size),
			})
		case result.Accepted == s.confirmed:
			return u.recover(ctx, s, logger, fmt.Errorf("chunk %s: %w", s.chunk, ErrNoProgress))
		}
		u.advance(s, result.Accepted)
		return nil, false, nil
	default:
		return nil, true, u.fail(s, ErrProtocol, &ProtocolError{
			Reason: fmt.Sprintf("unknown transport result kind %d", result.Kind),
		})
	}
}

func (u *Uploader) advance(s *session, accepted int64) {
	s.confirmed = accepted
	s.attempt = 0
	u.transition(s, StateAdvancing, Event{})
	u.progress.Progress(s.confirmed, s.spec.Size)
}

// recover classifies a failed exchange and either sleeps before the next send
// or ends the upload.
func (u *Uploader) recover(ctx context.Context, s *session, logger *slog.Logger, cause error) (*Resource, bool, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, true, u.fail(s, ErrCanceled, ctxErr)
	}
	if u.classifier.Classify(cause) == Fatal {
		kind := ErrFatal
		if errors.Is(cause, ErrProtocol) {
			kind = ErrProtocol
		}
		return nil, true, u.failAttempt(s, kind, cause, s.attempt+1)
	}

	next := s.attempt + 1
	if next > s.spec.MaxRetries {
		return nil, true, u.failAttempt(s, ErrRetriesExhausted, cause, next)
	}
	s.attempt = next

	delay := s.backoff.Delay(s.attempt)
	u.transition(s, StateBackingOff, Event{Delay: delay, Err: cause})
	logging.WarnWithContext(logger, "upload chunk failed; retrying", "upload_retry",
		logging.Int("attempt", s.attempt),
		logging.Int("max_retries", s.spec.MaxRetries),
		logging.Int64(logging.FieldBytesConfirmed, s.confirmed),
		logging.Duration("delay", delay),
		logging.Error(cause),
		logging.String(logging.FieldErrorHint, "transient network or server failure"),
		logging.String(logging.FieldImpact, "upload paused until the retry"),
	)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, true, u.fail(s, ErrCanceled, ctxErr)
	}
	if err := u.sleeper(ctx, delay); err != nil {
		return nil, true, u.fail(s, ErrCanceled, err)
	}
	return u.resync(ctx, s, logger)
}

// resync asks a StatusQuerier how many bytes survived the failed request.
func (u *Uploader) resync(ctx context.Context, s *session, logger *slog.Logger) (*Resource, bool, error) {
	querier, ok := u.transport.(StatusQuerier)
	if !ok {
		return nil, false, nil
	}
	result, err := querier.Status(ctx, s.spec.Size)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, true, u.fail(s, ErrCanceled, ctxErr)
		}
		logger.Debug("upload status query failed", logging.Error(err))
		return nil, false, nil
	}
	switch result.Kind {
	case KindComplete:
		return u.apply(ctx, s, logger, result)
	case KindIncomplete:
		if result.Accepted < s.confirmed || result.Accepted > s.spec.Size {
			return u.apply(ctx, s, logger, result)
		}
		if result.Accepted > s.confirmed {
			logger.Debug("upload status resynced offset",
				logging.Int64("from", s.confirmed),
				logging.Int64("to", result.Accepted),
			)
			u.advance(s, result.Accepted)
		}
	}
	return nil, false, nil
}

func (u *Uploader) fail(s *session, kind error, cause error) error {
	return u.failAttempt(s, kind, cause, s.attempt)
}

func (u *Uploader) failAttempt(s *session, kind error, cause error, attempts int) error {
	err := &Error{
		Kind:     kind,
		Offset:   s.confirmed,
		Total:    s.spec.Size,
		Attempts: attempts,
		Err:      cause,
	}
	u.transition(s, StateFailed, Event{Err: err})
	return err
}

func (u *Uploader) transition(s *session, next State, evt Event) {
	s.state = next
	if u.observer == nil {
		return
	}
	evt.State = next
	evt.Offset = s.confirmed
	evt.Total = s.spec.Size
	evt.Attempt = s.attempt
	if evt.Chunk == (Chunk{}) {
		evt.Chunk = s.chunk
	}
	u.observer(evt)
}

type eofReader struct{}

func (eofReader) Read([]byte) (int, error) { return 0, io.EOF }
