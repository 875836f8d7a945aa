package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"tubecast/internal/config"
	"tubecast/internal/testsupport"
)

func TestLogsCommandShowsFilteredTail(t *testing.T) {
	env := setupCLITestEnv(t)
	path := env.cfg.LogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	content := "INFO batch_start\nWARN thumbnail rejected\nINFO upload complete video_id=a\nINFO upload complete video_id=b\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, err := runCLI(t, []string{"logs", "-n", "2"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if strings.TrimSpace(out) != "INFO upload complete video_id=a\nINFO upload complete video_id=b" {
		t.Fatalf("unexpected tail %q", out)
	}

	out, _, err = runCLI(t, []string{"logs", "--grep", "warn"}, env.configPath)
	if err != nil {
		t.Fatalf("logs --grep: %v", err)
	}
	if strings.TrimSpace(out) != "WARN thumbnail rejected" {
		t.Fatalf("unexpected filtered output %q", out)
	}
}

func TestLogsCommandReportsEmptyLog(t *testing.T) {
	env := setupCLITestEnv(t)
	_ = os.Remove(env.cfg.LogPath())

	out, _, err := runCLI(t, []string{"logs"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "No log entries")
}

type ntfyRecorder struct {
	mu     sync.Mutex
	titles []string
	bodies []string
}

func (r *ntfyRecorder) messages() ([]string, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.titles...), append([]string(nil), r.bodies...)
}

func withNtfy(t *testing.T, env *cliTestEnv) *ntfyRecorder {
	t.Helper()
	rec := &ntfyRecorder{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rec.mu.Lock()
		rec.titles = append(rec.titles, r.Header.Get("Title"))
		rec.bodies = append(rec.bodies, string(body))
		rec.mu.Unlock()
	}))
	t.Cleanup(server.Close)

	env.cfg.Notifications.NtfyTopic = server.URL + "/tubecast"
	env.cfg.Notifications.NotifyOnSuccess = true
	if err := config.Save(env.configPath, env.cfg); err != nil {
		t.Fatalf("save config: %v", err)
	}
	return rec
}

func TestUploadSendsNotification(t *testing.T) {
	env := setupCLITestEnv(t)
	rec := withNtfy(t, env)
	video := filepath.Join(env.baseDir, "beach_day.mp4")
	testsupport.WriteFile(t, video, 1<<20)

	if out, _, err := runCLI(t, []string{"upload", video}, env.configPath); err != nil {
		t.Fatalf("upload: %v\n%s", err, out)
	}
	titles, bodies := rec.messages()
	if len(titles) != 1 || titles[0] != "TubeCast - Upload Complete" {
		t.Fatalf("unexpected notifications %v", titles)
	}
	requireContains(t, bodies[0], "Uploaded: Beach Day")
	requireContains(t, bodies[0], "https://youtu.be/vid-s1")
}

func TestTestNotifyCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"test-notify"}, env.configPath)
	if err != nil {
		t.Fatalf("test-notify without topic: %v", err)
	}
	requireContains(t, out, "No ntfy topic configured")

	rec := withNtfy(t, env)
	out, _, err = runCLI(t, []string{"test-notify"}, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Test notification sent")
	if titles, _ := rec.messages(); len(titles) != 1 || titles[0] != "TubeCast - Test" {
		t.Fatalf("unexpected notifications %v", titles)
	}
}
