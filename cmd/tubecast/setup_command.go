package main

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"tubecast/internal/config"
	"tubecast/internal/fileutil"
	"tubecast/internal/services/youtube"
)

type setupOptions struct {
	clientSecret string
	llmAPIKey    string
	privacy      string
	category     string
	skipAuth     bool
	noBrowser    bool
}

func newSetupCommand(ctx *commandContext) *cobra.Command {
	var opts setupOptions

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Store credentials, write defaults and authorize your YouTube account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetup(cmd, ctx, opts)
		},
	}

	cmd.Flags().StringVar(&opts.clientSecret, "client-secret", "", "Path to the OAuth client secret JSON downloaded from Google Cloud")
	cmd.Flags().StringVar(&opts.llmAPIKey, "llm-api-key", "", "API key for AI metadata generation")
	cmd.Flags().StringVar(&opts.privacy, "privacy", "", "Default privacy: private, unlisted or public")
	cmd.Flags().StringVar(&opts.category, "category", "", "Default YouTube category ID")
	cmd.Flags().BoolVar(&opts.skipAuth, "skip-auth", false, "Save settings without running the browser authorization")
	cmd.Flags().BoolVar(&opts.noBrowser, "no-browser", false, "Print the authorization URL without opening a browser")
	return cmd
}

func runSetup(cmd *cobra.Command, ctx *commandContext, opts setupOptions) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	if src := strings.TrimSpace(opts.clientSecret); src != "" {
		if err := installClientSecret(src, cfg.Paths.ClientSecretPath); err != nil {
			return err
		}
		fmt.Fprintln(out, renderNotice(statusOK, "Client secret saved to "+cfg.Paths.ClientSecretPath, colorize))
	}

	updated := *cfg
	if key := strings.TrimSpace(opts.llmAPIKey); key != "" {
		updated.LLM.APIKey = key
	}
	if p := strings.ToLower(strings.TrimSpace(opts.privacy)); p != "" {
		updated.Defaults.Privacy = p
	}
	if c := strings.TrimSpace(opts.category); c != "" {
		updated.Defaults.Category = c
	}
	if err := updated.Validate(); err != nil {
		return err
	}
	if err := config.Save(ctx.configPath, &updated); err != nil {
		return err
	}
	*cfg = updated
	fmt.Fprintln(out, renderNotice(statusOK, "Configuration saved to "+ctx.configPath, colorize))

	if opts.skipAuth {
		fmt.Fprintln(out, "Skipping authorization; run `tubecast setup` again to connect your account.")
		return nil
	}

	logger, err := ctx.ensureLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	oauthCfg, err := youtube.LoadOAuthConfig(cfg.Paths.ClientSecretPath)
	if err != nil {
		return fmt.Errorf("%w (pass --client-secret <file>)", err)
	}
	authOpts := youtube.AuthorizeOptions{
		Out:     out,
		Timeout: cfg.AuthTimeout(),
		Logger:  logger,
	}
	if !opts.noBrowser {
		authOpts.OpenBrowser = openBrowser
	}
	if _, err := youtube.Authorize(cmd.Context(), oauthCfg, youtube.NewFileTokenStore(cfg.Paths.TokenPath), authOpts); err != nil {
		return err
	}

	client, err := ctx.youtubeClient(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	channel, err := client.Channel(cmd.Context())
	if err != nil {
		fmt.Fprintln(out, renderNotice(statusWarn, fmt.Sprintf("Authorized, but the channel lookup failed: %v", err), colorize))
		return nil
	}
	fmt.Fprintln(out, renderNotice(statusOK, fmt.Sprintf("Authorized as %s (%s)", channel.Snippet.Title, channel.ID), colorize))
	return nil
}

// installClientSecret validates src as a desktop OAuth client and copies it
// into the state directory.
func installClientSecret(src, dst string) error {
	expanded, err := config.ExpandPath(src)
	if err != nil {
		return fmt.Errorf("resolve client secret path: %w", err)
	}
	if _, err := youtube.LoadOAuthConfig(expanded); err != nil {
		return err
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return fmt.Errorf("read client secret: %w", err)
	}
	if err := fileutil.WriteFileAtomic(dst, data, 0o600); err != nil {
		return fmt.Errorf("install client secret: %w", err)
	}
	return nil
}

func openBrowser(url string) error {
	var name string
	var args []string
	switch runtime.GOOS {
	case "darwin":
		name = "open"
	case "windows":
		name = "rundll32"
		args = []string{"url.dll,FileProtocolHandler"}
	default:
		name = "xdg-open"
	}
	return exec.Command(name, append(args, url)...).Start()
}
