package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeYouTube()
	c.normalizeDefaults()
	c.normalizeUpload()
	c.normalizeBatch()
	c.normalizeLLM()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ClientSecretPath) == "" {
		c.Paths.ClientSecretPath = filepath.Join(c.Paths.StateDir, defaultClientSecretName)
	}
	if c.Paths.ClientSecretPath, err = expandPath(strings.TrimSpace(c.Paths.ClientSecretPath)); err != nil {
		return fmt.Errorf("paths.client_secret_path: %w", err)
	}
	if strings.TrimSpace(c.Paths.TokenPath) == "" {
		c.Paths.TokenPath = filepath.Join(c.Paths.StateDir, defaultTokenName)
	}
	if c.Paths.TokenPath, err = expandPath(strings.TrimSpace(c.Paths.TokenPath)); err != nil {
		return fmt.Errorf("paths.token_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeYouTube() {
	c.YouTube.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.YouTube.APIBaseURL), "/")
	if c.YouTube.APIBaseURL == "" {
		c.YouTube.APIBaseURL = defaultAPIBaseURL
	}
	c.YouTube.UploadBaseURL = strings.TrimRight(strings.TrimSpace(c.YouTube.UploadBaseURL), "/")
	if c.YouTube.UploadBaseURL == "" {
		c.YouTube.UploadBaseURL = defaultUploadBaseURL
	}
	if c.YouTube.AuthTimeoutSeconds <= 0 {
		c.YouTube.AuthTimeoutSeconds = defaultAuthTimeoutSeconds
	}
}

func (c *Config) normalizeDefaults() {
	c.Defaults.Privacy = strings.ToLower(strings.TrimSpace(c.Defaults.Privacy))
	if c.Defaults.Privacy == "" {
		c.Defaults.Privacy = defaultPrivacy
	}
	c.Defaults.Category = strings.TrimSpace(c.Defaults.Category)
	if c.Defaults.Category == "" {
		c.Defaults.Category = defaultCategory
	}
}

func (c *Config) normalizeUpload() {
	if c.Upload.ChunkSizeMiB == 0 {
		c.Upload.ChunkSizeMiB = defaultChunkSizeMiB
	}
	if len(c.Upload.RetriableStatusCodes) == 0 {
		c.Upload.RetriableStatusCodes = append([]int(nil), defaultRetriableStatusCodes...)
		return
	}
	codes := slices.Clone(c.Upload.RetriableStatusCodes)
	slices.Sort(codes)
	c.Upload.RetriableStatusCodes = slices.Compact(codes)
}

func (c *Config) normalizeBatch() {
	patterns := make([]string, 0, len(c.Batch.Patterns))
	seen := make(map[string]struct{}, len(c.Batch.Patterns))
	for _, pattern := range c.Batch.Patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		if _, exists := seen[pattern]; exists {
			continue
		}
		seen[pattern] = struct{}{}
		patterns = append(patterns, pattern)
	}
	if len(patterns) == 0 {
		patterns = append(patterns, defaultBatchPatterns...)
	}
	c.Batch.Patterns = patterns
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = firstEnv("TUBECAST_LLM_API_KEY", "GEMINI_API_KEY")
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	if c.LLM.Referer == "" {
		c.LLM.Referer = defaultLLMReferer
	}
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.Title == "" {
		c.LLM.Title = defaultLLMTitle
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	switch c.Logging.Level {
	case "":
		c.Logging.Level = defaultLogLevel
	case "warning":
		c.Logging.Level = "warn"
	}
}

// firstEnv returns the first named variable that holds a non-blank value.
func firstEnv(names ...string) string {
	for _, name := range names {
		if value := strings.TrimSpace(os.Getenv(name)); value != "" {
			return value
		}
	}
	return ""
}
