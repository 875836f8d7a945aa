package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"tubecast/internal/config"
	"tubecast/internal/logging"
	"tubecast/internal/metadata"
	"tubecast/internal/publish"
	"tubecast/internal/textutil"
)

// uploadFlags are shared by upload and batch.
type uploadFlags struct {
	title          string
	description    string
	tags           string
	privacy        string
	category       string
	ai             bool
	hint           string
	thumbnail      string
	playlist       string
	createPlaylist bool
	chunkSize      string
}

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var flags uploadFlags

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload one video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(cmd, ctx, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.title, "title", "t", "", "Video title (default: derived from the filename)")
	cmd.Flags().StringVarP(&flags.description, "description", "d", "", "Video description")
	cmd.Flags().StringVar(&flags.tags, "tags", "", "Comma-separated tags")
	cmd.Flags().StringVarP(&flags.privacy, "privacy", "p", "", "Privacy: private, unlisted or public")
	cmd.Flags().StringVarP(&flags.category, "category", "c", "", "YouTube category ID")
	addSharedUploadFlags(cmd, &flags)
	cmd.Flags().StringVar(&flags.thumbnail, "thumbnail", "", "JPEG or PNG thumbnail to apply after upload")
	return cmd
}

func addSharedUploadFlags(cmd *cobra.Command, flags *uploadFlags) {
	cmd.Flags().BoolVar(&flags.ai, "ai", false, "Generate missing metadata with the configured LLM")
	cmd.Flags().StringVar(&flags.hint, "context", "", "Extra context for AI metadata generation")
	cmd.Flags().StringVar(&flags.playlist, "playlist", "", "Playlist name or ID to add the video to")
	cmd.Flags().BoolVar(&flags.createPlaylist, "create-playlist", false, "Create the playlist when it does not exist")
	cmd.Flags().StringVar(&flags.chunkSize, "chunk-size", "", "Upload chunk size, e.g. 8MiB (multiple of 1MiB)")
}

func runUpload(cmd *cobra.Command, ctx *commandContext, path string, flags uploadFlags) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	expanded, err := config.ExpandPath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	req, err := buildPublishRequest(cmd, cfg, flags)
	if err != nil {
		return err
	}
	req.Path = expanded
	runCfg, err := withChunkSize(cfg, flags.chunkSize)
	if err != nil {
		return err
	}

	publisher, closeFn, aiAvailable, err := newPublisher(cmd, ctx, runCfg, req.UseAI)
	if err != nil {
		return err
	}
	defer closeFn()
	if req.UseAI && !aiAvailable {
		fmt.Fprintln(out, renderNotice(statusWarn, "AI metadata skipped: no LLM API key configured", colorize))
		req.UseAI = false
	}

	result, err := publisher.Publish(cmd.Context(), req)
	ctx.notifier(cmd).uploadDone(cmd.Context(), expanded, result, err)
	if err != nil {
		return fmt.Errorf("upload %s: %w", filepath.Base(expanded), err)
	}
	printPublishResult(out, result, colorize)
	return nil
}

// buildPublishRequest maps flags to a publish request. Only flags the user set
// become overrides.
func buildPublishRequest(cmd *cobra.Command, cfg *config.Config, flags uploadFlags) (publish.Request, error) {
	privacy := strings.ToLower(strings.TrimSpace(flags.privacy))
	if privacy != "" && !validPrivacy(privacy) {
		return publish.Request{}, fmt.Errorf("invalid privacy %q (want private, unlisted or public)", flags.privacy)
	}
	useAI := cfg.Defaults.AIEnabled
	if cmd.Flags().Changed("ai") {
		useAI = flags.ai
	}
	req := publish.Request{
		Overrides: metadata.Overrides{
			Title:       strings.TrimSpace(flags.title),
			Description: flags.description,
			Privacy:     privacy,
			CategoryID:  strings.TrimSpace(flags.category),
			Playlist:    strings.TrimSpace(flags.playlist),
		},
		UseAI:          useAI,
		Hint:           strings.TrimSpace(flags.hint),
		Thumbnail:      strings.TrimSpace(flags.thumbnail),
		CreatePlaylist: flags.createPlaylist,
	}
	if tags := textutil.SplitList(flags.tags); len(tags) > 0 {
		req.Overrides.Tags = tags
	}
	return req, nil
}

func validPrivacy(value string) bool {
	switch value {
	case "private", "unlisted", "public":
		return true
	default:
		return false
	}
}

// withChunkSize returns cfg with the chunk size replaced by a human-readable
// size such as "16MiB" or "32m".
func withChunkSize(cfg *config.Config, value string) (*config.Config, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return cfg, nil
	}
	mib, err := parseChunkSize(value)
	if err != nil {
		return nil, err
	}
	copied := *cfg
	copied.Upload.ChunkSizeMiB = mib
	return &copied, nil
}

func parseChunkSize(value string) (int, error) {
	bytes, err := units.RAMInBytes(value)
	if err != nil {
		return 0, fmt.Errorf("invalid chunk size %q: %w", value, err)
	}
	if bytes <= 0 || bytes%units.MiB != 0 {
		return 0, fmt.Errorf("invalid chunk size %q: must be a positive multiple of 1MiB", value)
	}
	mib := bytes / units.MiB
	if mib > 1024 {
		return 0, fmt.Errorf("invalid chunk size %q: at most 1GiB", value)
	}
	return int(mib), nil
}

// newPublisher wires the YouTube client, history store and resolver. The close
// function releases the history store.
func newPublisher(cmd *cobra.Command, ctx *commandContext, cfg *config.Config, useAI bool) (*publish.Publisher, func(), bool, error) {
	logger, err := ctx.ensureLogger(cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, false, err
	}
	client, err := ctx.youtubeClient(cmd.Context(), cmd)
	if err != nil {
		return nil, nil, false, err
	}
	store, err := ctx.openHistory()
	if err != nil {
		return nil, nil, false, err
	}
	closeFn := func() {
		if err := store.Close(); err != nil {
			logger.Warn("history close failed", logging.Error(err))
		}
	}
	resolver, aiAvailable := ctx.metadataResolver(cfg, logger, useAI)
	publisher, err := publish.New(publish.Options{
		Config:   cfg,
		Platform: publish.YouTube(client),
		Resolver: resolver,
		History:  store,
		Progress: newProgressFactory(cmd.OutOrStdout(), logger),
		Logger:   logger,
	})
	if err != nil {
		closeFn()
		return nil, nil, false, err
	}
	return publisher, closeFn, aiAvailable, nil
}

func printPublishResult(out io.Writer, result *publish.Result, colorize bool) {
	fmt.Fprintln(out, renderNotice(statusOK, fmt.Sprintf("Uploaded %s (%s) in %s",
		filepath.Base(result.Path), humanize.IBytes(uint64(result.Size)), result.Elapsed.Round(time.Second)), colorize))
	fmt.Fprintf(out, "  Title:    %s\n", result.Metadata.Title)
	fmt.Fprintf(out, "  Video ID: %s\n", result.VideoID)
	fmt.Fprintf(out, "  URL:      %s\n", result.URL())
	if result.Attempts > 0 {
		fmt.Fprintf(out, "  Requests: %d\n", result.Attempts)
	}
	for _, warning := range result.Warnings {
		fmt.Fprintln(out, renderNotice(statusWarn, warning, colorize))
	}
}

var errUploadsFailed = errors.New("one or more uploads failed")
