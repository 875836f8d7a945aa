package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tubecast/internal/config"
)

const userAgent = "TubeCast/1.0"

// Service defines the notification surface used by the upload commands.
type Service interface {
	NotifyUploadCompleted(ctx context.Context, title, url string) error
	NotifyUploadFailed(ctx context.Context, file string, err error) error
	NotifyBatchCompleted(ctx context.Context, succeeded, failed int, duration time.Duration) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := cfg.NotifyTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:  topic,
		client:    &http.Client{Timeout: timeout},
		onSuccess: cfg.Notifications.NotifyOnSuccess,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint  string
	client    *http.Client
	onSuccess bool
}

func (n *ntfyService) NotifyUploadCompleted(ctx context.Context, title, url string) error {
	if !n.onSuccess {
		return nil
	}
	message := fmt.Sprintf("Uploaded: %s", strings.TrimSpace(title))
	if url = strings.TrimSpace(url); url != "" {
		message = fmt.Sprintf("%s\n%s", message, url)
	}
	return n.send(ctx, payload{
		title:   "TubeCast - Upload Complete",
		message: message,
		tags:    []string{"tubecast", "upload", "completed"},
	})
}

func (n *ntfyService) NotifyUploadFailed(ctx context.Context, file string, err error) error {
	var builder strings.Builder
	builder.WriteString("Upload failed")
	if file = strings.TrimSpace(file); file != "" {
		builder.WriteString(" for ")
		builder.WriteString(file)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}
	return n.send(ctx, payload{
		title:    "TubeCast - Upload Failed",
		message:  builder.String(),
		tags:     []string{"tubecast", "upload", "error"},
		priority: "high",
	})
}

func (n *ntfyService) NotifyBatchCompleted(ctx context.Context, succeeded, failed int, duration time.Duration) error {
	if failed == 0 && !n.onSuccess {
		return nil
	}
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}

	title := "TubeCast - Batch Complete"
	message := fmt.Sprintf("Batch complete: %d uploaded in %s", succeeded, duration)
	priority := ""
	if failed > 0 {
		title = "TubeCast - Batch Complete (with errors)"
		message = fmt.Sprintf("Batch complete: %d uploaded, %d failed in %s", succeeded, failed, duration)
		priority = "high"
	}
	return n.send(ctx, payload{
		title:    title,
		message:  message,
		tags:     []string{"tubecast", "batch", "completed"},
		priority: priority,
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "TubeCast - Test",
		message:  "Notification system test",
		tags:     []string{"tubecast", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyUploadCompleted(context.Context, string, string) error         { return nil }
func (noopService) NotifyUploadFailed(context.Context, string, error) error             { return nil }
func (noopService) NotifyBatchCompleted(context.Context, int, int, time.Duration) error { return nil }
func (noopService) TestNotification(context.Context) error                              { return nil }
