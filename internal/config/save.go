package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/pelletier/go-toml/v2"

	"tubecast/internal/fileutil"
)

// Save writes cfg to path atomically. A sibling lock file serializes
// concurrent writers such as two setup runs.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("save config: nil config")
	}
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(expanded)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	lock := flock.New(expanded + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock config: %w", err)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	data, err := Encode(cfg)
	if err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(expanded, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Encode renders cfg as indented TOML.
func Encode(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	encoder.SetIndentTables(true)
	if err := encoder.Encode(cfg); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// Redacted returns a copy of cfg with secrets masked for display.
func (c Config) Redacted() Config {
	if key := c.LLM.APIKey; key != "" {
		masked := "****"
		if len(key) > 8 {
			masked = key[:4] + "****"
		}
		c.LLM.APIKey = masked
	}
	c.Batch.Patterns = append([]string(nil), c.Batch.Patterns...)
	c.Upload.RetriableStatusCodes = append([]int(nil), c.Upload.RetriableStatusCodes...)
	return c
}
