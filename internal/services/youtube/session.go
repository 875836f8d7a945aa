package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go"

	"tubecast/internal/logging"
	"tubecast/internal/services"
	"tubecast/internal/upload"
)

const (
	sessionInitAttempts = 5
	sessionInitDelay    = time.Second
	sessionInitMaxDelay = 30 * time.Second
)

// InsertRequest is the metadata sent when a resumable session opens.
type InsertRequest struct {
	Title                  string
	Description            string
	Tags                   []string
	CategoryID             string
	Privacy                string
	MadeForKids            bool
	ContainsSyntheticMedia bool
}

func (r InsertRequest) body() map[string]any {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return map[string]any{
		"snippet": map[string]any{
			"title":       r.Title,
			"description": r.Description,
			"tags":        tags,
			"categoryId":  r.CategoryID,
		},
		"status": map[string]any{
			"privacyStatus":           r.Privacy,
			"selfDeclaredMadeForKids": r.MadeForKids,
			"containsSyntheticMedia":  r.ContainsSyntheticMedia,
		},
	}
}

// StartUpload opens a resumable upload session for a size byte video.
// Initiation failures the upload classifier deems retriable are retried
// with exponential backoff.
func (c *Client) StartUpload(ctx context.Context, req InsertRequest, size int64, contentType string) (*ResumableSession, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, services.Wrap(services.ErrValidation, "youtube", "start upload", "title required", nil)
	}
	if size < 0 {
		return nil, services.Wrap(services.ErrValidation, "youtube", "start upload", "negative size", nil)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	logger := logging.WithContext(ctx, c.logger)
	endpoint := c.uploadBase + "/videos?" + url.Values{
		"uploadType": {"resumable"},
		"part":       {"snippet,status"},
	}.Encode()

	var location string
	err := retry.Do(
		func() error {
			var initErr error
			location, initErr = c.initiate(ctx, endpoint, req, size, contentType)
			return initErr
		},
		retry.Context(ctx),
		retry.Attempts(sessionInitAttempts),
		retry.Delay(c.initDelay),
		retry.MaxDelay(sessionInitMaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return retry.IsRecoverable(err) && c.classifier.Classify(err) == upload.Retriable
		}),
		retry.OnRetry(func(n uint, err error) {
			logging.WarnWithContext(logger, "upload session initiation failed; retrying", "session_retry",
				logging.Int("attempt", int(n)+1),
				logging.Error(err),
				logging.String(logging.FieldImpact, "upload starts after the retry"),
			)
		}),
	)
	if err != nil {
		marker := services.ErrExternal
		var statusErr *upload.StatusError
		if errors.As(err, &statusErr) {
			marker = markerFor(statusErr.StatusCode)
		} else if c.classifier.Classify(err) == upload.Retriable {
			marker = services.ErrTransient
		}
		return nil, services.Wrap(marker, "youtube", "start upload", "", err)
	}
	logger.Debug("upload session opened", logging.Int64("size", size))
	return newResumableSession(location, c.uploads, c.logger), nil
}

func (c *Client) initiate(ctx context.Context, endpoint string, req InsertRequest, size int64, contentType string) (string, error) {
	payload, err := jsonBody(req.body())
	if err != nil {
		return "", retry.Unrecoverable(err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return "", retry.Unrecoverable(fmt.Errorf("build session request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json; charset=utf-8")
	httpReq.Header.Set("X-Upload-Content-Length", strconv.FormatInt(size, 10))
	httpReq.Header.Set("X-Upload-Content-Type", contentType)

	resp, err := c.uploads.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &upload.StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	location := strings.TrimSpace(resp.Header.Get("Location"))
	if location == "" {
		return "", retry.Unrecoverable(&upload.ProtocolError{Reason: "session response without Location header"})
	}
	return location, nil
}

// ResumeSession attaches to an existing session URI.
func (c *Client) ResumeSession(uri string) *ResumableSession {
	return newResumableSession(uri, c.uploads, c.logger)
}

func newResumableSession(uri string, client *http.Client, logger *slog.Logger) *ResumableSession {
	return &ResumableSession{
		uri:    uri,
		client: client,
		logger: logger,
	}
}

func jsonBody(value any) (io.Reader, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode session metadata: %w", err)
	}
	return bytes.NewReader(data), nil
}
