package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"tubecast/internal/logging"
	"tubecast/internal/notifications"
	"tubecast/internal/publish"
)

const notifyTimeout = 15 * time.Second

// notifier wraps the ntfy service so delivery failures only reach the log.
type notifier struct {
	service notifications.Service
	logger  *slog.Logger
}

func (c *commandContext) notifier(cmd *cobra.Command) notifier {
	cfg, _ := c.ensureConfig()
	logger, err := c.ensureLogger(cmd.ErrOrStderr())
	if err != nil || logger == nil {
		logger = logging.NewNop()
	}
	return notifier{service: notifications.NewService(cfg), logger: logger}
}

// notifyContext detaches from cancellation so a failure caused by Ctrl-C is
// still reported.
func notifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(parent), notifyTimeout)
}

func (n notifier) uploadDone(ctx context.Context, path string, result *publish.Result, err error) {
	ctx, cancel := notifyContext(ctx)
	defer cancel()
	if err != nil {
		n.report(n.service.NotifyUploadFailed(ctx, filepath.Base(path), err))
		return
	}
	if result != nil {
		n.report(n.service.NotifyUploadCompleted(ctx, result.Metadata.Title, result.URL()))
	}
}

func (n notifier) batchDone(ctx context.Context, succeeded, failed int, elapsed time.Duration) {
	ctx, cancel := notifyContext(ctx)
	defer cancel()
	n.report(n.service.NotifyBatchCompleted(ctx, succeeded, failed, elapsed))
}

func (n notifier) report(err error) {
	if err != nil {
		logging.WarnWithContext(n.logger, "notification failed", "notify_failed", logging.Error(err))
	}
}

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test ntfy notification",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			if cfg.Notifications.NtfyTopic == "" {
				fmt.Fprintln(out, renderNotice(statusWarn, "No ntfy topic configured (set notifications.ntfy_topic)", colorize))
				return nil
			}
			if err := notifications.NewService(cfg).TestNotification(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(out, renderNotice(statusOK, "Test notification sent to "+cfg.Notifications.NtfyTopic, colorize))
			return nil
		},
	}
}
