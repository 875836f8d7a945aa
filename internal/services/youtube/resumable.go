package youtube

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"tubecast/internal/httprange"
	"tubecast/internal/logging"
	"tubecast/internal/upload"
)

// ResumableSession is an open resumable upload session. It implements
// upload.Transport and upload.StatusQuerier.
type ResumableSession struct {
	uri    string
	client *http.Client
	logger *slog.Logger
}

var (
	_ upload.Transport     = (*ResumableSession)(nil)
	_ upload.StatusQuerier = (*ResumableSession)(nil)
)

// URI returns the session URI issued by the server.
func (s *ResumableSession) URI() string { return s.uri }

// Send PUTs the bytes of chunk and reports how much of the upload the server
// now holds.
func (s *ResumableSession) Send(ctx context.Context, chunk upload.Chunk, body io.Reader, total int64) (upload.Result, error) {
	contentRange := httprange.ForChunk(chunk.Start, chunk.End, total)
	if contentRange.Length() == 0 {
		body = http.NoBody
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.uri, body)
	if err != nil {
		return upload.Result{}, &upload.ProtocolError{Reason: "build chunk request: " + err.Error()}
	}
	req.ContentLength = contentRange.Length()
	req.Header.Set("Content-Range", contentRange.String())
	s.logger.Debug("sending chunk",
		logging.String("content_range", contentRange.String()),
		logging.Int64("bytes", contentRange.Length()),
		logging.Bool("final", contentRange.IsLastByte()),
	)
	return s.exchange(req)
}

// Status asks the server how many bytes it has stored.
func (s *ResumableSession) Status(ctx context.Context, total int64) (upload.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.uri, http.NoBody)
	if err != nil {
		return upload.Result{}, &upload.ProtocolError{Reason: "build status request: " + err.Error()}
	}
	req.ContentLength = 0
	req.Header.Set("Content-Range", httprange.ContentRange{Size: total, Empty: true}.String())
	return s.exchange(req)
}

func (s *ResumableSession) exchange(req *http.Request) (upload.Result, error) {
	resp, err := s.client.Do(req)
	if err != nil {
		return upload.Result{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusPermanentRedirect:
		_, _ = io.Copy(io.Discard, resp.Body)
		next, _, parseErr := httprange.ParsePersisted(resp.Header.Get("Range"))
		if parseErr != nil {
			return upload.Result{}, &upload.ProtocolError{Reason: parseErr.Error()}
		}
		return upload.Incomplete(next), nil
	case http.StatusOK, http.StatusCreated:
		data, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return upload.Result{}, readErr
		}
		var video struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(data, &video); err != nil {
			return upload.Result{}, &upload.ProtocolError{Reason: "decode upload response: " + err.Error()}
		}
		return upload.Complete(&upload.Resource{ID: video.ID, Body: data}), nil
	default:
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return upload.Result{}, &upload.StatusError{StatusCode: resp.StatusCode, Body: string(data)}
	}
}
