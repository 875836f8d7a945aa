package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"tubecast/internal/batch"
	"tubecast/internal/config"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var flags uploadFlags
	var patterns []string

	cmd := &cobra.Command{
		Use:   "batch <folder>",
		Short: "Upload every video in a folder, one after another",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, ctx, args[0], patterns, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.privacy, "privacy", "p", "", "Privacy for every video: private, unlisted or public")
	cmd.Flags().StringVarP(&flags.category, "category", "c", "", "YouTube category ID for every video")
	cmd.Flags().StringVar(&flags.tags, "tags", "", "Comma-separated tags added to every video")
	cmd.Flags().StringSliceVar(&patterns, "pattern", nil, "File pattern relative to the folder, e.g. '**/*.mp4' (repeatable; default from config)")
	addSharedUploadFlags(cmd, &flags)
	return cmd
}

func runBatch(cmd *cobra.Command, ctx *commandContext, folder string, patterns []string, flags uploadFlags) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	expanded, err := config.ExpandPath(folder)
	if err != nil {
		return fmt.Errorf("resolve folder: %w", err)
	}
	if len(patterns) == 0 {
		patterns = cfg.Batch.Patterns
	}
	template, err := buildPublishRequest(cmd, cfg, flags)
	if err != nil {
		return err
	}
	runCfg, err := withChunkSize(cfg, flags.chunkSize)
	if err != nil {
		return err
	}

	files, err := batch.Discover(expanded, patterns)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintf(out, "No videos matching %s in %s\n", strings.Join(patterns, ", "), expanded)
		return nil
	}

	publisher, closeFn, aiAvailable, err := newPublisher(cmd, ctx, runCfg, template.UseAI)
	if err != nil {
		return err
	}
	defer closeFn()
	if template.UseAI && !aiAvailable {
		fmt.Fprintln(out, renderNotice(statusWarn, "AI metadata skipped: no LLM API key configured", colorize))
		template.UseAI = false
	}

	logger, err := ctx.ensureLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	notify := ctx.notifier(cmd)
	started := time.Now()
	runner := batch.NewRunner(publisher, logger)
	outcomes, runErr := runner.Run(cmd.Context(), expanded, batch.Options{
		Patterns: patterns,
		Template: template,
		OnStart: func(index, total int, path string) {
			fmt.Fprintf(out, "[%d/%d] %s\n", index, total, filepath.Base(path))
		},
		OnDone: func(index, total int, outcome batch.Outcome) {
			if outcome.Err != nil {
				notify.uploadDone(cmd.Context(), outcome.Path, nil, outcome.Err)
				fmt.Fprintln(out, renderNotice(statusError, outcome.Err.Error(), colorize))
				return
			}
			fmt.Fprintln(out, renderNotice(statusOK, outcome.Result.URL(), colorize))
			for _, warning := range outcome.Result.Warnings {
				fmt.Fprintln(out, renderNotice(statusWarn, warning, colorize))
			}
		},
	})

	summary := batch.Summarize(outcomes)
	if len(outcomes) > 0 {
		printBatchSummary(out, outcomes)
		notify.batchDone(cmd.Context(), summary.Succeeded, summary.Failed, time.Since(started))
	}
	if runErr != nil {
		return runErr
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%w: %d of %d", errUploadsFailed, summary.Failed, summary.Total)
	}
	return nil
}

func printBatchSummary(out io.Writer, outcomes []batch.Outcome) {
	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		status := "uploaded"
		detail := ""
		if o.Result != nil {
			detail = o.Result.URL()
		}
		if o.Err != nil {
			status = "failed"
			detail = o.Err.Error()
		}
		size := ""
		if o.Result != nil && o.Result.Size > 0 {
			size = humanize.IBytes(uint64(o.Result.Size))
		}
		rows = append(rows, []string{filepath.Base(o.Path), status, size, detail})
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable([]column{col("File"), col("Status"), numCol("Size"), wideCol("Result")}, rows))

	summary := batch.Summarize(outcomes)
	fmt.Fprintf(out, "%d uploaded, %d failed, %s sent\n",
		summary.Succeeded, summary.Failed, humanize.IBytes(uint64(summary.Bytes)))
}
