package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"tubecast/internal/config"
	"tubecast/internal/history"
	"tubecast/internal/logging"
	"tubecast/internal/metadata"
	"tubecast/internal/services/llm"
	"tubecast/internal/services/youtube"
)

type commandContext struct {
	configFlag *string
	verbose    *bool

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string, verbose *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		verbose:    verbose,
	}
}

func (c *commandContext) configFlagValue() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, exists, err := config.Load(c.configFlagValue())
		if err != nil {
			c.configErr = fmt.Errorf("load config: %w", err)
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = fmt.Errorf("ensure directories: %w", err)
			return
		}
		c.config = cfg
		c.configPath = path
		c.configExists = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) verboseEnabled() bool {
	return c.verbose != nil && *c.verbose
}

// ensureLogger builds the process logger once. The run ID ties every line of
// one invocation together in the log file.
func (c *commandContext) ensureLogger(stderr io.Writer) (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg, uuid.NewString(), c.verboseEnabled(), stderr)
		if err != nil {
			c.loggerErr = fmt.Errorf("init logging: %w", err)
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// youtubeClient loads the stored OAuth token and returns an API client.
func (c *commandContext) youtubeClient(ctx context.Context, cmd *cobra.Command) (*youtube.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	oauthCfg, err := youtube.LoadOAuthConfig(cfg.Paths.ClientSecretPath)
	if err != nil {
		return nil, fmt.Errorf("%w (run `tubecast setup --client-secret <file>`)", err)
	}
	source, err := youtube.TokenSource(ctx, oauthCfg, youtube.NewFileTokenStore(cfg.Paths.TokenPath), logger)
	if err != nil {
		return nil, err
	}
	return youtube.NewClient(youtube.Options{
		APIBaseURL:           cfg.YouTube.APIBaseURL,
		UploadBaseURL:        cfg.YouTube.UploadBaseURL,
		TokenSource:          source,
		RequestTimeout:       cfg.RequestTimeout(),
		RetriableStatusCodes: cfg.Upload.RetriableStatusCodes,
		Logger:               logger,
	})
}

func (c *commandContext) openHistory() (*history.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := history.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open upload history: %w", err)
	}
	return store, nil
}

// metadataResolver returns a resolver backed by the LLM when useAI is set and
// a key is configured. The bool reports whether AI generation is available.
func (c *commandContext) metadataResolver(cfg *config.Config, logger *slog.Logger, useAI bool) (*metadata.Resolver, bool) {
	if !useAI {
		return metadata.NewResolver(nil, logger), false
	}
	client := llm.NewClient(llm.ConfigFrom(cfg), llm.WithLogger(logger))
	if !client.Configured() {
		return metadata.NewResolver(nil, logger), false
	}
	return metadata.NewResolver(client, logger), true
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
