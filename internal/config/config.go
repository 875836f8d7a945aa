package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains local state locations.
type Paths struct {
	StateDir         string `toml:"state_dir"`
	ClientSecretPath string `toml:"client_secret_path"`
	TokenPath        string `toml:"token_path"`
}

// YouTube contains endpoints and OAuth behaviour for the YouTube Data API.
type YouTube struct {
	APIBaseURL         string `toml:"api_base_url" validate:"required,url"`
	UploadBaseURL      string `toml:"upload_base_url" validate:"required,url"`
	AuthTimeoutSeconds int    `toml:"auth_timeout_seconds" validate:"gte=0"`
}

// Defaults are applied to every upload unless a flag overrides them.
type Defaults struct {
	Privacy                string `toml:"privacy" validate:"oneof=private unlisted public"`
	Category               string `toml:"category" validate:"numeric"`
	MadeForKids            bool   `toml:"made_for_kids"`
	ContainsSyntheticMedia bool   `toml:"contains_synthetic_media"`
	AIEnabled              bool   `toml:"ai_enabled"`
}

// Upload tunes the resumable upload engine.
type Upload struct {
	ChunkSizeMiB          int   `toml:"chunk_size_mib" validate:"gte=1,lte=1024"`
	MaxRetries            int   `toml:"max_retries" validate:"gte=0,lte=100"`
	BackoffBaseMS         int   `toml:"backoff_base_ms" validate:"gte=0"`
	BackoffMaxMS          int   `toml:"backoff_max_ms" validate:"gte=0"`
	RetriableStatusCodes  []int `toml:"retriable_status_codes" validate:"dive,gte=400,lte=599"`
	RequestTimeoutSeconds int   `toml:"request_timeout_seconds" validate:"gte=0"`
}

// Batch controls folder discovery.
type Batch struct {
	Patterns []string `toml:"patterns" validate:"min=1,dive,required"`
}

// LLM contains the OpenAI-compatible endpoint used for metadata generation.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url" validate:"omitempty,url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds" validate:"gte=0"`
}

// Notifications configures ntfy push messages for finished uploads.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic" validate:"omitempty,url"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds" validate:"gte=0"`
	NotifyOnSuccess       bool   `toml:"notify_on_success"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format" validate:"oneof=console json"`
	Level  string `toml:"level" validate:"oneof=debug info warn error"`
}

// Config encapsulates all configuration values for TubeCast.
//
// Configuration sections:
//   - Paths: state directory, OAuth client secret, cached token
//   - YouTube: API endpoints and auth timeout
//   - Defaults: per-video defaults (privacy, category, AI)
//   - Upload: chunking, retries, backoff
//   - Batch: file patterns for folder uploads
//   - LLM: metadata generation endpoint
//   - Notifications: optional ntfy topic
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	YouTube       YouTube       `toml:"youtube"`
	Defaults      Defaults      `toml:"defaults"`
	Upload        Upload        `toml:"upload"`
	Batch         Batch         `toml:"batch"`
	LLM           LLM           `toml:"llm"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. The string result is the resolved path and the
// bool reports whether a file existed there.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state directory.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Paths.StateDir, 0o700); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.StateDir, err)
	}
	return nil
}

// LogPath is the file receiving structured logs.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.StateDir, "tubecast.log")
}

// HistoryPath is the SQLite database of upload attempts.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// ChunkSizeBytes converts the configured chunk size to bytes.
func (c *Config) ChunkSizeBytes() int64 {
	return int64(c.Upload.ChunkSizeMiB) << 20
}

// BackoffBase returns the backoff unit.
func (c *Config) BackoffBase() time.Duration {
	return time.Duration(c.Upload.BackoffBaseMS) * time.Millisecond
}

// BackoffMax returns the per-sleep clamp; zero means unbounded.
func (c *Config) BackoffMax() time.Duration {
	return time.Duration(c.Upload.BackoffMaxMS) * time.Millisecond
}

// RequestTimeout bounds a single chunk request; zero means no limit.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Upload.RequestTimeoutSeconds) * time.Second
}

// NotifyTimeout is the per-request timeout for ntfy.
func (c *Config) NotifyTimeout() time.Duration {
	return time.Duration(c.Notifications.RequestTimeoutSeconds) * time.Second
}

// AuthTimeout bounds the interactive OAuth consent flow.
func (c *Config) AuthTimeout() time.Duration {
	return time.Duration(c.YouTube.AuthTimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
