package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"tubecast/internal/config"
	"tubecast/internal/fileutil"
	"tubecast/internal/history"
	"tubecast/internal/logging"
	"tubecast/internal/metadata"
	"tubecast/internal/preflight"
	"tubecast/internal/services"
	"tubecast/internal/services/youtube"
	"tubecast/internal/upload"
)

// ProgressFactory returns the sink receiving progress for one file.
type ProgressFactory func(path, title string, size int64) upload.ProgressSink

// Options wires a Publisher.
type Options struct {
	Config   *config.Config
	Platform Platform
	Resolver *metadata.Resolver
	// History records every attempt when set.
	History  *history.Store
	Progress ProgressFactory
	Logger   *slog.Logger
	// UploadOptions are appended to the uploader defaults.
	UploadOptions []upload.Option
}

// Request describes one video to publish.
type Request struct {
	Path      string
	Overrides metadata.Overrides
	UseAI     bool
	Hint      string
	Thumbnail string
	// CreatePlaylist creates the named playlist when it does not exist.
	CreatePlaylist bool
}

// Result is the outcome of a publish.
type Result struct {
	UploadID string
	Path     string
	Size     int64
	Metadata metadata.Metadata
	VideoID  string
	Attempts int
	Elapsed  time.Duration
	Warnings []string
}

// URL is the short watch link for the published video.
func (r *Result) URL() string {
	if r == nil || r.VideoID == "" {
		return ""
	}
	return youtube.WatchURL(r.VideoID)
}

// Publisher publishes videos one at a time.
type Publisher struct {
	cfg           *config.Config
	platform      Platform
	resolver      *metadata.Resolver
	history       *history.Store
	progress      ProgressFactory
	logger        *slog.Logger
	uploadOptions []upload.Option
	now           func() time.Time
}

// New validates opts and returns a Publisher.
func New(opts Options) (*Publisher, error) {
	if opts.Config == nil {
		return nil, errors.New("publish: config required")
	}
	if opts.Platform == nil {
		return nil, errors.New("publish: platform required")
	}
	logger := logging.NewComponentLogger(opts.Logger, "publish")
	resolver := opts.Resolver
	if resolver == nil {
		resolver = metadata.NewResolver(nil, opts.Logger)
	}
	return &Publisher{
		cfg:           opts.Config,
		platform:      opts.Platform,
		resolver:      resolver,
		history:       opts.History,
		progress:      opts.Progress,
		logger:        logger,
		uploadOptions: opts.UploadOptions,
		now:           time.Now,
	}, nil
}

// Publish uploads req.Path. The returned Result is non-nil even on error and
// carries whatever was known when the pipeline stopped.
func (p *Publisher) Publish(ctx context.Context, req Request) (*Result, error) {
	started := p.now()
	path := filepath.Clean(req.Path)
	result := &Result{UploadID: uuid.NewString(), Path: path}
	ctx = services.WithFile(services.WithUploadID(ctx, result.UploadID), path)
	logger := logging.WithContext(ctx, p.logger)
	defer func() {
		result.Elapsed = p.now().Sub(started)
	}()

	logger.Info("publish started", logging.String(logging.FieldEventType, "publish_start"))

	check := preflight.CheckVideoFile(path)
	if !check.Passed {
		err := services.Wrap(services.ErrValidation, "publish", "check video file", check.Detail, nil)
		p.recordEarlyFailure(ctx, logger, result, err)
		return result, err
	}

	meta, err := p.resolver.Resolve(ctx, metadata.Request{
		Path:      path,
		Overrides: req.Overrides,
		UseAI:     req.UseAI,
		Hint:      req.Hint,
	})
	if err != nil {
		p.recordEarlyFailure(ctx, logger, result, err)
		return result, err
	}
	result.Metadata = meta

	file, err := os.Open(path)
	if err != nil {
		err = services.Wrap(services.ErrValidation, "publish", "open video", path, err)
		p.recordEarlyFailure(ctx, logger, result, err)
		return result, err
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		err = services.Wrap(services.ErrValidation, "publish", "stat video", path, err)
		p.recordEarlyFailure(ctx, logger, result, err)
		return result, err
	}
	result.Size = info.Size()

	p.begin(ctx, logger, result)

	insert := p.insertRequest(meta)
	transport, err := p.platform.StartUpload(ctx, insert, result.Size, fileutil.VideoContentType(path))
	if err != nil {
		p.finish(ctx, logger, result, 0, err)
		return result, err
	}

	var confirmed int64
	opts := []upload.Option{
		upload.WithClassifier(upload.NewClassifier(p.cfg.Upload.RetriableStatusCodes...)),
		upload.WithLogger(p.logger),
		upload.WithObserver(func(evt upload.Event) {
			switch evt.State {
			case upload.StateSending:
				result.Attempts++
			case upload.StateAdvancing, upload.StateCompleted:
				confirmed = max(confirmed, evt.Offset)
			}
		}),
	}
	if p.progress != nil {
		opts = append(opts, upload.WithProgress(p.progress(path, meta.Title, result.Size)))
	}
	opts = append(opts, p.uploadOptions...)

	uploader := upload.New(transport, opts...)
	resource, err := uploader.Upload(ctx, file, upload.Spec{
		Size:       result.Size,
		ChunkSize:  p.cfg.ChunkSizeBytes(),
		MaxRetries: p.cfg.Upload.MaxRetries,
		BaseDelay:  p.cfg.BackoffBase(),
		MaxDelay:   p.cfg.BackoffMax(),
	})
	if err != nil {
		var uploadErr *upload.Error
		if errors.As(err, &uploadErr) {
			confirmed = uploadErr.Offset
		}
		p.finish(ctx, logger, result, confirmed, err)
		return result, err
	}
	result.VideoID = resource.ID
	p.finish(ctx, logger, result, result.Size, nil)

	p.postUpload(ctx, logger, req, result)

	logger.Info("publish completed",
		logging.String(logging.FieldEventType, "publish_complete"),
		logging.String("video_id", result.VideoID),
		logging.String("url", result.URL()),
		logging.Int("attempts", result.Attempts),
		logging.Duration("elapsed", p.now().Sub(started)),
		logging.Int("warnings", len(result.Warnings)),
	)
	return result, nil
}

func (p *Publisher) insertRequest(meta metadata.Metadata) youtube.InsertRequest {
	privacy := meta.Privacy
	if privacy == "" {
		privacy = p.cfg.Defaults.Privacy
	}
	category := meta.CategoryID
	if category == "" {
		category = p.cfg.Defaults.Category
	}
	return youtube.InsertRequest{
		Title:                  meta.Title,
		Description:            meta.Description,
		Tags:                   meta.Tags,
		CategoryID:             category,
		Privacy:                privacy,
		MadeForKids:            p.cfg.Defaults.MadeForKids,
		ContainsSyntheticMedia: p.cfg.Defaults.ContainsSyntheticMedia,
	}
}

// postUpload applies the thumbnail and playlist. Failures become warnings.
func (p *Publisher) postUpload(ctx context.Context, logger *slog.Logger, req Request, result *Result) {
	if thumb := strings.TrimSpace(req.Thumbnail); thumb != "" {
		if err := p.platform.SetThumbnail(ctx, result.VideoID, thumb); err != nil {
			p.warn(logger, result, "thumbnail not applied", "publish_thumbnail_failed", err,
				"custom thumbnails require a verified channel")
		} else {
			logger.Info("thumbnail applied", logging.String("thumbnail", thumb))
		}
	}

	playlist := result.Metadata.Playlist
	if playlist == "" {
		return
	}
	playlistID, err := p.platform.ResolvePlaylist(ctx, playlist, p.cfg.Defaults.Privacy, req.CreatePlaylist)
	if err != nil {
		p.warn(logger, result, "playlist not resolved", "publish_playlist_failed", err,
			"check the playlist name or pass --create-playlist")
		return
	}
	if err := p.platform.AddToPlaylist(ctx, playlistID, result.VideoID); err != nil {
		p.warn(logger, result, "video not added to playlist", "publish_playlist_failed", err,
			"add the video from YouTube Studio")
		return
	}
	logger.Info("video added to playlist", logging.String("playlist_id", playlistID))
}

func (p *Publisher) warn(logger *slog.Logger, result *Result, msg, eventType string, err error, hint string) {
	result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %v", msg, err))
	logging.WarnWithContext(logger, msg, eventType,
		logging.Error(err),
		logging.String(logging.FieldErrorHint, hint),
		logging.String(logging.FieldImpact, "the video is uploaded without this setting"),
	)
}

func (p *Publisher) begin(ctx context.Context, logger *slog.Logger, result *Result) {
	if p.history == nil {
		return
	}
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	_, err := p.history.Begin(writeCtx, history.Entry{
		UploadID: result.UploadID,
		FilePath: result.Path,
		FileSize: result.Size,
		Title:    result.Metadata.Title,
	})
	if err != nil {
		logging.WarnWithContext(logger, "history record not created", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "this upload will be missing from `tubecast history`"),
		)
	}
}

// finish closes the history row. History writes ignore cancellation of ctx
// so an interrupted upload still records its outcome.
func (p *Publisher) finish(ctx context.Context, logger *slog.Logger, result *Result, confirmed int64, cause error) {
	if cause != nil {
		p.logFailure(logger, result, cause)
	}
	if p.history == nil {
		return
	}
	outcome := history.Outcome{
		Status:         history.StatusCompleted,
		VideoID:        result.VideoID,
		BytesConfirmed: confirmed,
		Attempts:       result.Attempts,
	}
	if cause != nil {
		outcome.Status = services.FailureStatus(cause)
		outcome.Err = cause
	}
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := p.history.Finish(writeCtx, result.UploadID, outcome); err != nil {
		logging.WarnWithContext(logger, "history record not finalized", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "`tubecast history` may show this upload as in progress"),
		)
	}
}

// recordEarlyFailure logs and records a failure that happened before the
// upload row would normally be created.
func (p *Publisher) recordEarlyFailure(ctx context.Context, logger *slog.Logger, result *Result, cause error) {
	p.begin(ctx, logger, result)
	p.finish(ctx, logger, result, 0, cause)
}

func (p *Publisher) logFailure(logger *slog.Logger, result *Result, cause error) {
	attrs := []logging.Attr{
		logging.String("resolved_status", string(services.FailureStatus(cause))),
		logging.Int("attempts", result.Attempts),
		logging.Alert("publish_failure"),
		logging.Error(cause),
	}
	if errors.Is(cause, upload.ErrCanceled) || errors.Is(cause, context.Canceled) {
		logging.WarnWithContext(logger, "publish canceled", "publish_canceled", attrs...)
		return
	}
	logging.ErrorWithContext(logger, "publish failed", "publish_failure",
		append(attrs, logging.String(logging.FieldErrorHint, failureHint(cause)))...)
}

func failureHint(err error) string {
	switch {
	case errors.Is(err, services.ErrAuthorization):
		return "run `tubecast setup` to authorize again"
	case errors.Is(err, services.ErrConfiguration):
		return "check the config with `tubecast config validate`"
	case errors.Is(err, services.ErrValidation):
		return "fix the file or metadata and retry"
	case errors.Is(err, upload.ErrRetriesExhausted):
		return "the network or YouTube kept failing; retry later"
	default:
		return "check logs for details"
	}
}
