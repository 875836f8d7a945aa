package testsupport

import (
	"path/filepath"
	"testing"

	"tubecast/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config whose state lives in a per-test temp directory.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.ClientSecretPath = filepath.Join(base, "state", "client_secret.json")
	cfgVal.Paths.TokenPath = filepath.Join(base, "state", "token.json")
	cfgVal.LLM.APIKey = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithLLMKey sets the LLM API key on the test config.
func WithLLMKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.LLM.APIKey = key
	}
}

// WithYouTubeURLs points the API and upload endpoints at a test server.
func WithYouTubeURLs(apiBase, uploadBase string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.YouTube.APIBaseURL = apiBase
		b.cfg.YouTube.UploadBaseURL = uploadBase
	}
}

// WithChunkSizeMiB overrides the upload chunk size.
func WithChunkSizeMiB(size int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Upload.ChunkSizeMiB = size
	}
}

// WithClientSecret writes a desktop OAuth client secret file for the config.
func WithClientSecret() ConfigOption {
	return func(b *configBuilder) {
		WriteClientSecret(b.t, b.cfg.Paths.ClientSecretPath)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}

// WithToken writes a long-lived OAuth token for the config.
func WithToken() ConfigOption {
	return func(b *configBuilder) {
		WriteToken(b.t, b.cfg.Paths.TokenPath)
	}
}
