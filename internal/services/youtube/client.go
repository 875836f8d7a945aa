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
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/patrickmn/go-cache"
	"golang.org/x/oauth2"

	"tubecast/internal/fileutil"
	"tubecast/internal/logging"
	"tubecast/internal/services"
	"tubecast/internal/upload"
)

const (
	defaultAPIBaseURL    = "https://www.googleapis.com/youtube/v3"
	defaultUploadBaseURL = "https://www.googleapis.com/upload/youtube/v3"
	playlistCacheTTL     = 10 * time.Minute
	maxErrorBody         = 1 << 16
)

// ErrVideoNotFound is returned when a video ID matches nothing the user can
// see.
var ErrVideoNotFound = errors.New("video not found")

// Options configure a Client.
type Options struct {
	APIBaseURL    string
	UploadBaseURL string
	TokenSource   oauth2.TokenSource
	// HTTPClient supplies the base transport. Nil uses http.DefaultTransport.
	HTTPClient *http.Client
	// RetryMax bounds retries of read and metadata calls.
	RetryMax int
	// RequestTimeout bounds one upload chunk request. Zero means no limit.
	RequestTimeout time.Duration
	// RetriableStatusCodes feed the classifier used for session initiation.
	RetriableStatusCodes []int
	Logger               *slog.Logger
}

// Client calls the YouTube Data API on behalf of the authorized user.
type Client struct {
	apiBase    string
	uploadBase string
	api        *retryablehttp.Client
	uploads    *http.Client
	classifier upload.Classifier
	playlists  *cache.Cache
	logger     *slog.Logger
	initDelay  time.Duration
}

// NewClient builds a Client. TokenSource is required.
func NewClient(opts Options) (*Client, error) {
	if opts.TokenSource == nil {
		return nil, errors.New("youtube client: token source required")
	}
	base := http.DefaultTransport
	if opts.HTTPClient != nil && opts.HTTPClient.Transport != nil {
		base = opts.HTTPClient.Transport
	}
	authed := &oauth2.Transport{Source: opts.TokenSource, Base: base}
	logger := logging.NewComponentLogger(opts.Logger, "youtube")

	api := retryablehttp.NewClient()
	api.HTTPClient = &http.Client{Transport: authed, Timeout: 60 * time.Second}
	api.Logger = retryLogger{logger: logger}
	api.RetryMax = opts.RetryMax
	if api.RetryMax <= 0 {
		api.RetryMax = 3
	}
	api.RetryWaitMin = 500 * time.Millisecond
	api.RetryWaitMax = 8 * time.Second
	api.CheckRetry = retryPolicy

	return &Client{
		apiBase:    trimBase(opts.APIBaseURL, defaultAPIBaseURL),
		uploadBase: trimBase(opts.UploadBaseURL, defaultUploadBaseURL),
		api:        api,
		uploads:    newUploadHTTPClient(authed, opts.RequestTimeout),
		classifier: upload.NewClassifier(opts.RetriableStatusCodes...),
		playlists:  cache.New(playlistCacheTTL, 2*playlistCacheTTL),
		logger:     logger,
		initDelay:  sessionInitDelay,
	}, nil
}

// newUploadHTTPClient leaves 308 responses to the session logic; they carry
// upload progress, not a redirect.
func newUploadHTTPClient(transport http.RoundTripper, timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// retryPolicy keeps retryablehttp's defaults for idempotent methods. A POST
// that got any response may have been committed and is not replayed.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if err == nil && resp != nil && resp.Request != nil && !idempotent(resp.Request.Method) {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete, http.MethodOptions:
		return true
	}
	return false
}

func trimBase(value, fallback string) string {
	value = strings.TrimRight(strings.TrimSpace(value), "/")
	if value == "" {
		return fallback
	}
	return value
}

// retryLogger routes retryablehttp's error messages to slog at warn level and
// everything else to debug so request chatter stays out of the info log.
type retryLogger struct {
	logger *slog.Logger
}

func (l retryLogger) Error(msg string, keysAndValues ...any) {
	l.logger.Warn("api "+msg, keysAndValues...)
}
func (l retryLogger) Info(msg string, keysAndValues ...any)  { l.logger.Debug("api "+msg, keysAndValues...) }
func (l retryLogger) Debug(msg string, keysAndValues ...any) { l.logger.Debug("api "+msg, keysAndValues...) }
func (l retryLogger) Warn(msg string, keysAndValues ...any)  { l.logger.Debug("api "+msg, keysAndValues...) }

// APIError is a non-success response from the Data API.
type APIError struct {
	StatusCode int
	Reason     string
	Message    string
}

func (e *APIError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Reason != "" {
		return fmt.Sprintf("youtube api %d (%s): %s", e.StatusCode, e.Reason, msg)
	}
	return fmt.Sprintf("youtube api %d: %s", e.StatusCode, msg)
}

func decodeAPIError(resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var payload struct {
		Error struct {
			Message string `json:"message"`
			Errors  []struct {
				Reason string `json:"reason"`
			} `json:"errors"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error.Message != "" {
		apiErr.Message = payload.Error.Message
		if len(payload.Error.Errors) > 0 {
			apiErr.Reason = payload.Error.Errors[0].Reason
		}
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}

// markerFor maps an API status to the service error marker used for
// reporting.
func markerFor(status int) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return services.ErrAuthorization
	case status == http.StatusNotFound:
		return services.ErrNotFound
	case status == http.StatusBadRequest:
		return services.ErrValidation
	case status == http.StatusTooManyRequests || status >= 500:
		return services.ErrTransient
	default:
		return services.ErrExternal
	}
}

func (c *Client) apiURL(path string, query url.Values) string {
	u := c.apiBase + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// doJSON sends body (if any) as JSON and decodes a 2xx response into out.
func (c *Client) doJSON(ctx context.Context, method, endpoint, operation string, body, out any) error {
	var raw any
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", operation, err)
		}
		raw = data
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, endpoint, raw)
	if err != nil {
		return fmt.Errorf("build %s request: %w", operation, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}
	return c.do(req, operation, out)
}

func (c *Client) do(req *retryablehttp.Request, operation string, out any) error {
	resp, err := c.api.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "youtube", operation, "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := decodeAPIError(resp)
		return services.Wrap(markerFor(resp.StatusCode), "youtube", operation, "", apiErr)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrExternal, "youtube", operation, "decode response", err)
	}
	return nil
}

// Channel returns the authorized user's channel.
func (c *Client) Channel(ctx context.Context) (*Channel, error) {
	query := url.Values{"part": {"snippet,contentDetails"}, "mine": {"true"}}
	var resp listResponse[Channel]
	if err := c.doJSON(ctx, http.MethodGet, c.apiURL("/channels", query), "get channel", nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "youtube", "get channel", "account has no channel", nil)
	}
	return &resp.Items[0], nil
}

// ListUploads returns up to limit of the user's uploaded videos, newest
// first.
func (c *Client) ListUploads(ctx context.Context, limit int) ([]PlaylistItem, error) {
	channel, err := c.Channel(ctx)
	if err != nil {
		return nil, err
	}
	uploadsID := channel.ContentDetails.RelatedPlaylists.Uploads
	if uploadsID == "" {
		return nil, nil
	}
	return Collect(ctx, limit, func(ctx context.Context, token string, pageSize int) (Page[PlaylistItem], error) {
		query := url.Values{
			"part":       {"snippet,status"},
			"playlistId": {uploadsID},
			"maxResults": {fmt.Sprint(pageSize)},
		}
		if token != "" {
			query.Set("pageToken", token)
		}
		var resp listResponse[PlaylistItem]
		err := c.doJSON(ctx, http.MethodGet, c.apiURL("/playlistItems", query), "list uploads", nil, &resp)
		return Page[PlaylistItem]{Items: resp.Items, NextPageToken: resp.NextPageToken}, err
	})
}

// ListPlaylists returns up to limit of the user's playlists.
func (c *Client) ListPlaylists(ctx context.Context, limit int) ([]Playlist, error) {
	return Collect(ctx, limit, func(ctx context.Context, token string, pageSize int) (Page[Playlist], error) {
		query := url.Values{
			"part":       {"snippet,status,contentDetails"},
			"mine":       {"true"},
			"maxResults": {fmt.Sprint(pageSize)},
		}
		if token != "" {
			query.Set("pageToken", token)
		}
		var resp listResponse[Playlist]
		err := c.doJSON(ctx, http.MethodGet, c.apiURL("/playlists", query), "list playlists", nil, &resp)
		return Page[Playlist]{Items: resp.Items, NextPageToken: resp.NextPageToken}, err
	})
}

// GetVideo fetches full details for one video.
func (c *Client) GetVideo(ctx context.Context, videoID string) (*Video, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return nil, services.Wrap(services.ErrValidation, "youtube", "get video", "video id required", nil)
	}
	query := url.Values{
		"part": {"snippet,status,statistics,contentDetails"},
		"id":   {videoID},
	}
	var resp listResponse[Video]
	if err := c.doJSON(ctx, http.MethodGet, c.apiURL("/videos", query), "get video", nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "youtube", "get video", videoID, ErrVideoNotFound)
	}
	return &resp.Items[0], nil
}

// VideoUpdate lists the fields to change. Nil or empty fields keep their
// current value; a non-nil empty Tags slice clears the tags.
type VideoUpdate struct {
	Title       string
	Description string
	Tags        []string
	CategoryID  string
	Privacy     string
}

// Empty reports whether the update changes nothing.
func (u VideoUpdate) Empty() bool {
	return u.Title == "" && u.Description == "" && u.Tags == nil && u.CategoryID == "" && u.Privacy == ""
}

// UpdateVideo applies update on top of the video's current snippet and
// status.
func (c *Client) UpdateVideo(ctx context.Context, videoID string, update VideoUpdate) (*Video, error) {
	if update.Empty() {
		return nil, services.Wrap(services.ErrValidation, "youtube", "update video", "nothing to update", nil)
	}
	current, err := c.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}

	snippet := current.Snippet
	if update.Title != "" {
		snippet.Title = update.Title
	}
	if update.Description != "" {
		snippet.Description = update.Description
	}
	if update.Tags != nil {
		snippet.Tags = update.Tags
	}
	if update.CategoryID != "" {
		snippet.CategoryID = update.CategoryID
	}
	body := map[string]any{
		"id": current.ID,
		"snippet": map[string]any{
			"title":       snippet.Title,
			"description": snippet.Description,
			"tags":        snippet.Tags,
			"categoryId":  snippet.CategoryID,
		},
	}
	parts := "snippet"
	if update.Privacy != "" {
		body["status"] = map[string]any{
			"privacyStatus":           update.Privacy,
			"selfDeclaredMadeForKids": current.Status.SelfDeclaredMadeForKids,
			"containsSyntheticMedia":  current.Status.ContainsSyntheticMedia,
		}
		parts = "snippet,status"
	}

	var updated Video
	endpoint := c.apiURL("/videos", url.Values{"part": {parts}})
	if err := c.doJSON(ctx, http.MethodPut, endpoint, "update video", body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// SetThumbnail uploads a JPEG or PNG image as the video's custom thumbnail.
func (c *Client) SetThumbnail(ctx context.Context, videoID, imagePath string) error {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return services.Wrap(services.ErrValidation, "youtube", "set thumbnail", "read image", err)
	}
	contentType, ok := fileutil.ImageContentType(data, "image/jpeg", "image/png")
	if !ok {
		return services.Wrap(services.ErrValidation, "youtube", "set thumbnail", fmt.Sprintf("unsupported image type %s", contentType), nil)
	}
	endpoint := c.uploadBase + "/thumbnails/set?" + url.Values{"videoId": {videoID}}.Encode()
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build set thumbnail request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = int64(len(data))
	return c.do(req, "set thumbnail", nil)
}

// CreatePlaylist creates a playlist and caches its ID by title.
func (c *Client) CreatePlaylist(ctx context.Context, title, description, privacy string) (*Playlist, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, services.Wrap(services.ErrValidation, "youtube", "create playlist", "title required", nil)
	}
	if privacy == "" {
		privacy = PrivacyPrivate
	}
	body := map[string]any{
		"snippet": map[string]string{"title": title, "description": description},
		"status":  map[string]string{"privacyStatus": privacy},
	}
	var created Playlist
	endpoint := c.apiURL("/playlists", url.Values{"part": {"snippet,status"}})
	if err := c.doJSON(ctx, http.MethodPost, endpoint, "create playlist", body, &created); err != nil {
		return nil, err
	}
	c.playlists.SetDefault(playlistKey(title), created.ID)
	c.logger.Info("playlist created",
		logging.String("playlist_id", created.ID),
		logging.String("title", title),
	)
	return &created, nil
}

// AddToPlaylist appends a video to a playlist.
func (c *Client) AddToPlaylist(ctx context.Context, playlistID, videoID string) error {
	body := map[string]any{
		"snippet": map[string]any{
			"playlistId": playlistID,
			"resourceId": ResourceID{Kind: "youtube#video", VideoID: videoID},
		},
	}
	endpoint := c.apiURL("/playlistItems", url.Values{"part": {"snippet"}})
	return c.doJSON(ctx, http.MethodPost, endpoint, "add to playlist", body, nil)
}

// ResolvePlaylist maps a playlist title or ID to an ID. Unknown titles are
// created with privacy when create is set. Lookups are cached for the life
// of the client.
func (c *Client) ResolvePlaylist(ctx context.Context, nameOrID, privacy string, create bool) (string, error) {
	nameOrID = strings.TrimSpace(nameOrID)
	if nameOrID == "" {
		return "", services.Wrap(services.ErrValidation, "youtube", "resolve playlist", "playlist required", nil)
	}
	key := playlistKey(nameOrID)
	if cached, ok := c.playlists.Get(key); ok {
		return cached.(string), nil
	}

	playlists, err := c.ListPlaylists(ctx, 0)
	if err != nil {
		return "", err
	}
	for _, p := range playlists {
		c.playlists.SetDefault(playlistKey(p.Snippet.Title), p.ID)
		c.playlists.SetDefault(playlistKey(p.ID), p.ID)
	}
	if cached, ok := c.playlists.Get(key); ok {
		return cached.(string), nil
	}
	if !create {
		return "", services.Wrap(services.ErrNotFound, "youtube", "resolve playlist", fmt.Sprintf("no playlist named %q", nameOrID), nil)
	}
	created, err := c.CreatePlaylist(ctx, nameOrID, "", privacy)
	if err != nil {
		return "", err
	}
	return created.ID, nil
}

func playlistKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
