package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"tubecast/internal/config"
	"tubecast/internal/services"
)

func completionHandler(t *testing.T, content string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"choices": []any{
				map[string]any{
					"finish_reason": "stop",
					"message":       map[string]any{"content": content},
				},
			},
		}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}
}

func newTestClient(url string, opts ...Option) *Client {
	opts = append([]Option{WithRetryBackoff(0, 0)}, opts...)
	return NewClient(Config{APIKey: "test", BaseURL: url, Model: "demo-model", Title: "TubeCast", Referer: "https://example.test"}, opts...)
}

func TestClientHealthCheck(t *testing.T) {
	var gotAuth, gotTitle, gotReferer string
	var gotBody chatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotTitle = r.Header.Get("X-Title")
		gotReferer = r.Header.Get("HTTP-Referer")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		completionHandler(t, `{"ok":true}`)(w, r)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
	if gotAuth != "Bearer test" {
		t.Fatalf("unexpected authorization header %q", gotAuth)
	}
	if gotTitle != "TubeCast" || gotReferer != "https://example.test" {
		t.Fatalf("unexpected attribution headers title=%q referer=%q", gotTitle, gotReferer)
	}
	if gotBody.Model != "demo-model" || gotBody.ResponseFormat["type"] != "json_object" {
		t.Fatalf("unexpected request body %+v", gotBody)
	}
}

func TestClientHealthCheckUnexpectedResponse(t *testing.T) {
	server := httptest.NewServer(completionHandler(t, `{"ok":false}`))
	defer server.Close()

	err := newTestClient(server.URL).HealthCheck(context.Background())
	if err == nil || !errors.Is(err, services.ErrExternal) {
		t.Fatalf("expected external error, got %v", err)
	}
}

func TestClientRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{})
	if client.Configured() {
		t.Fatal("client without key should not report configured")
	}
	_, err := client.CompleteJSON(context.Background(), "system", "user")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestClientRequiresPrompts(t *testing.T) {
	_, err := newTestClient("http://127.0.0.1:0").CompleteText(context.Background(), " ", "user")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestClientDefaults(t *testing.T) {
	client := NewClient(Config{APIKey: "k"})
	if client.cfg.BaseURL != DefaultBaseURL {
		t.Fatalf("unexpected base url %q", client.cfg.BaseURL)
	}
	if client.Model() != DefaultModel {
		t.Fatalf("unexpected model %q", client.Model())
	}
	if client.httpClient.Timeout != defaultHTTPTimeout {
		t.Fatalf("unexpected timeout %s", client.httpClient.Timeout)
	}
}

func TestConfigFrom(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.APIKey = "from-config"
	cfg.LLM.TimeoutSeconds = 7
	got := ConfigFrom(&cfg)
	if got.APIKey != "from-config" || got.TimeoutSeconds != 7 || got.BaseURL != cfg.LLM.BaseURL {
		t.Fatalf("unexpected llm config %+v", got)
	}
	if (ConfigFrom(nil) != Config{}) {
		t.Fatal("expected zero config for nil input")
	}
}

func TestCompleteTextOmitsResponseFormat(t *testing.T) {
	var raw map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Errorf("decode request: %v", err)
		}
		completionHandler(t, "plain words")(w, r)
	}))
	defer server.Close()

	got, err := newTestClient(server.URL).CompleteText(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("CompleteText returned error: %v", err)
	}
	if got != "plain words" {
		t.Fatalf("unexpected content %q", got)
	}
	if _, ok := raw["response_format"]; ok {
		t.Fatalf("text completion should not request json: %v", raw)
	}
}

func TestClientToolCallArguments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"choices": []any{
				map[string]any{
					"finish_reason": "tool_calls",
					"message": map[string]any{
						"content": "",
						"tool_calls": []any{
							map[string]any{
								"type": "function",
								"function": map[string]any{
									"name":      "metadata",
									"arguments": `{"ok":true}`,
								},
							},
						},
					},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	if err := newTestClient(server.URL).HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientDeltaAndLegacyText(t *testing.T) {
	for name, choice := range map[string]map[string]any{
		"delta": {"delta": map[string]any{"content": `{"ok":true}`}},
		"text":  {"text": `{"ok":true}`},
	} {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{choice}})
			}))
			defer server.Close()
			if err := newTestClient(server.URL).HealthCheck(context.Background()); err != nil {
				t.Fatalf("HealthCheck returned error: %v", err)
			}
		})
	}
}

func TestClientEmptyContentHasSnippet(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		completionHandler(t, "")(w, r)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, WithRetryMaxAttempts(2)).CompleteJSON(context.Background(), "system", "user")
	if err == nil {
		t.Fatal("expected completion to fail")
	}
	if !strings.Contains(err.Error(), "empty content") || !strings.Contains(err.Error(), "response_snippet=") {
		t.Fatalf("expected empty-content error to include snippet, got %v", err)
	}
	if !strings.Contains(err.Error(), "failed after 2 attempts") {
		t.Fatalf("expected attempt count in error, got %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", calls.Load())
	}
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestClientRetriesOnHTTP503ThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":"overloaded"}`))
			return
		}
		completionHandler(t, `{"ok":true}`)(w, r)
	}))
	defer server.Close()

	if err := newTestClient(server.URL, WithRetryMaxAttempts(5)).HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
}

func TestClientDoesNotRetryUnauthorized(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"bad key"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, WithRetryMaxAttempts(5)).CompleteJSON(context.Background(), "system", "user")
	if !errors.Is(err, services.ErrAuthorization) {
		t.Fatalf("expected authorization error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single call, got %d", calls.Load())
	}
}

func TestClientAPIErrorPayloadIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"error":{"message":"model not available"}}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, WithRetryMaxAttempts(3)).CompleteJSON(context.Background(), "system", "user")
	if err == nil || !strings.Contains(err.Error(), "model not available") {
		t.Fatalf("expected api error message, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single call, got %d", calls.Load())
	}
}

func TestRetryDelay(t *testing.T) {
	client := NewClient(Config{APIKey: "k"}, WithRetryBackoff(time.Second, 5*time.Second))
	tests := []struct {
		name    string
		attempt int
		err     error
		want    time.Duration
	}{
		{name: "first", attempt: 1, err: errors.New("x"), want: time.Second},
		{name: "second", attempt: 2, err: errors.New("x"), want: 2 * time.Second},
		{name: "capped", attempt: 4, err: errors.New("x"), want: 5 * time.Second},
		{name: "retry after", attempt: 1, err: &httpStatusError{StatusCode: 429, RetryAfter: 3 * time.Second}, want: 3 * time.Second},
		{name: "retry after capped", attempt: 1, err: &httpStatusError{StatusCode: 429, RetryAfter: time.Minute}, want: 5 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := client.retryDelay(tt.attempt, tt.err); got != tt.want {
				t.Fatalf("retryDelay(%d) = %s, want %s", tt.attempt, got, tt.want)
			}
		})
	}
}

func TestIsRetriable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{err: &httpStatusError{StatusCode: 408}, want: true},
		{err: &httpStatusError{StatusCode: 429}, want: true},
		{err: &httpStatusError{StatusCode: 502}, want: true},
		{err: &httpStatusError{StatusCode: 400}, want: false},
		{err: &emptyContentError{}, want: true},
		{err: context.Canceled, want: false},
		{err: errors.New("boom"), want: false},
	}
	for _, tt := range tests {
		if got := isRetriable(tt.err); got != tt.want {
			t.Fatalf("isRetriable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestParseRetryAfter(t *testing.T) {
	if d, ok := parseRetryAfter("2"); !ok || d != 2*time.Second {
		t.Fatalf("unexpected seconds parse %s %v", d, ok)
	}
	if _, ok := parseRetryAfter("-1"); ok {
		t.Fatal("negative value should be rejected")
	}
	if _, ok := parseRetryAfter("soon"); ok {
		t.Fatal("garbage should be rejected")
	}
	future := time.Now().Add(time.Hour).UTC().Format(http.TimeFormat)
	if d, ok := parseRetryAfter(future); !ok || d <= 0 {
		t.Fatalf("unexpected date parse %s %v", d, ok)
	}
}
