package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"tubecast/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("TUBECAST_LLM_API_KEY", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if want := filepath.Join(tempHome, ".config", "tubecast", "config.toml"); resolved != want {
		t.Fatalf("resolved path = %q, want %q", resolved, want)
	}
	wantState := filepath.Join(tempHome, ".local", "share", "tubecast")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Paths.ClientSecretPath != filepath.Join(wantState, "client_secret.json") {
		t.Fatalf("unexpected client secret path: %q", cfg.Paths.ClientSecretPath)
	}
	if cfg.Paths.TokenPath != filepath.Join(wantState, "token.json") {
		t.Fatalf("unexpected token path: %q", cfg.Paths.TokenPath)
	}
	if cfg.LogPath() != filepath.Join(wantState, "tubecast.log") {
		t.Fatalf("unexpected log path: %q", cfg.LogPath())
	}
	if cfg.Upload.MaxRetries != 10 {
		t.Fatalf("expected 10 retries by default, got %d", cfg.Upload.MaxRetries)
	}
	if cfg.ChunkSizeBytes() != 8<<20 {
		t.Fatalf("unexpected chunk size: %d", cfg.ChunkSizeBytes())
	}
	if got := cfg.Upload.RetriableStatusCodes; len(got) != 4 || got[0] != 500 || got[3] != 504 {
		t.Fatalf("unexpected retriable codes: %v", got)
	}
	if cfg.Defaults.Privacy != "private" {
		t.Fatalf("unexpected privacy default: %q", cfg.Defaults.Privacy)
	}
	if cfg.LLM.APIKey != "" {
		t.Fatalf("expected empty LLM key, got %q", cfg.LLM.APIKey)
	}
}

func TestLoadUsesEnvLLMKey(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TUBECAST_LLM_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "gemini-key")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LLM.APIKey != "gemini-key" {
		t.Fatalf("expected key from env, got %q", cfg.LLM.APIKey)
	}
}

func TestLoadEnvLLMKeyPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		tubecast string
		gemini   string
		want     string
	}{
		{"tubecast wins", "tc-key", "gemini-key", "tc-key"},
		{"blank falls through", "   ", "gemini-key", "gemini-key"},
		{"both blank", "", " ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HOME", t.TempDir())
			t.Setenv("TUBECAST_LLM_API_KEY", tt.tubecast)
			t.Setenv("GEMINI_API_KEY", tt.gemini)

			cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
			if err != nil {
				t.Fatalf("Load returned error: %v", err)
			}
			if cfg.LLM.APIKey != tt.want {
				t.Fatalf("APIKey = %q, want %q", cfg.LLM.APIKey, tt.want)
			}
		})
	}
}

func TestLoadCustomFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	path := filepath.Join(dir, "tubecast.toml")
	content := `
[paths]
state_dir = "` + filepath.ToSlash(filepath.Join(dir, "state")) + `"

[defaults]
privacy = "Unlisted"
category = "27"

[upload]
chunk_size_mib = 16
max_retries = 3
retriable_status_codes = [503, 500, 503]

[batch]
patterns = ["*.mp4", " ", "*.mp4", "**/*.mov"]

[logging]
format = "JSON"
level = "warning"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("unexpected resolution: %q %v", resolved, exists)
	}
	if cfg.Defaults.Privacy != "unlisted" || cfg.Defaults.Category != "27" {
		t.Fatalf("unexpected defaults: %+v", cfg.Defaults)
	}
	if cfg.ChunkSizeBytes() != 16<<20 || cfg.Upload.MaxRetries != 3 {
		t.Fatalf("unexpected upload settings: %+v", cfg.Upload)
	}
	if got := cfg.Upload.RetriableStatusCodes; len(got) != 2 || got[0] != 500 || got[1] != 503 {
		t.Fatalf("expected sorted unique codes, got %v", got)
	}
	if got := cfg.Batch.Patterns; len(got) != 2 || got[1] != "**/*.mov" {
		t.Fatalf("unexpected patterns: %v", got)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "warn" {
		t.Fatalf("unexpected logging: %+v", cfg.Logging)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"privacy", func(c *config.Config) { c.Defaults.Privacy = "secret" }, "defaults.privacy"},
		{"category", func(c *config.Config) { c.Defaults.Category = "music" }, "defaults.category"},
		{"chunk size", func(c *config.Config) { c.Upload.ChunkSizeMiB = -1 }, "upload.chunk_size_mib"},
		{"retries", func(c *config.Config) { c.Upload.MaxRetries = -2 }, "upload.max_retries"},
		{"status code", func(c *config.Config) { c.Upload.RetriableStatusCodes = []int{200} }, "upload.retriable_status_codes"},
		{"backoff clamp", func(c *config.Config) { c.Upload.BackoffBaseMS = 500; c.Upload.BackoffMaxMS = 100 }, "upload.backoff_max_ms"},
		{"log level", func(c *config.Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"api url", func(c *config.Config) { c.YouTube.APIBaseURL = "not a url" }, "youtube.api_base_url"},
		{"ntfy topic", func(c *config.Config) { c.Notifications.NtfyTopic = "my-topic" }, "notifications.ntfy_topic"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Paths.StateDir = t.TempDir()
			cfg.Paths.ClientSecretPath = filepath.Join(cfg.Paths.StateDir, "secret.json")
			cfg.Paths.TokenPath = filepath.Join(cfg.Paths.StateDir, "token.json")
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %q", tc.want, err.Error())
			}
		})
	}
}

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.StateDir = t.TempDir()
	cfg.Paths.ClientSecretPath = filepath.Join(cfg.Paths.StateDir, "secret.json")
	cfg.Paths.TokenPath = filepath.Join(cfg.Paths.StateDir, "token.json")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")

	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(dir, "state")
	cfg.Defaults.Privacy = "public"
	cfg.LLM.APIKey = "saved-key"
	if err := config.Save(path, &cfg); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat saved config: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600 permissions, got %v", info.Mode().Perm())
	}

	loaded, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load saved config: %v", err)
	}
	if !exists {
		t.Fatal("expected saved config to exist")
	}
	if loaded.Defaults.Privacy != "public" || loaded.LLM.APIKey != "saved-key" {
		t.Fatalf("unexpected round trip: %+v %+v", loaded.Defaults, loaded.LLM)
	}
	if loaded.Paths.StateDir != cfg.Paths.StateDir {
		t.Fatalf("state dir = %q, want %q", loaded.Paths.StateDir, cfg.Paths.StateDir)
	}
}

func TestSampleConfigParses(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var parsed config.Config
	if err := toml.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("sample config should be valid TOML: %v", err)
	}
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
}

func TestRedactedMasksKeyWithoutMutating(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.APIKey = "abcd-efgh-ijkl"

	redacted := cfg.Redacted()
	if redacted.LLM.APIKey != "abcd****" {
		t.Fatalf("unexpected masked key %q", redacted.LLM.APIKey)
	}
	redacted.Batch.Patterns[0] = "changed"
	if cfg.LLM.APIKey != "abcd-efgh-ijkl" || cfg.Batch.Patterns[0] == "changed" {
		t.Fatal("Redacted must not alias the original")
	}

	cfg.LLM.APIKey = "short"
	if got := cfg.Redacted().LLM.APIKey; got != "****" {
		t.Fatalf("short keys should be fully masked, got %q", got)
	}
}
