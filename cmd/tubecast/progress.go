package main

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"

	"tubecast/internal/logging"
	"tubecast/internal/publish"
	"tubecast/internal/upload"
)

// newProgressFactory draws a progress bar on terminals and prints sampled
// percentage lines everywhere else.
func newProgressFactory(out io.Writer, logger *slog.Logger) publish.ProgressFactory {
	if isTerminal(out) {
		return func(path, title string, size int64) upload.ProgressSink {
			return newBarSink(out, title, size)
		}
	}
	return func(path, title string, size int64) upload.ProgressSink {
		return newLineSink(out, logger, filepath.Base(path))
	}
}

func newBarSink(out io.Writer, title string, size int64) upload.ProgressSink {
	bar := progressbar.NewOptions64(size,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(title),
		progressbar.OptionShowBytes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(out)
		}),
	)
	return upload.ProgressFunc(func(sent, total int64) {
		_ = bar.Set64(sent)
	})
}

func newLineSink(out io.Writer, logger *slog.Logger, name string) upload.ProgressSink {
	sampler := logging.NewProgressSampler(5)
	return upload.ProgressFunc(func(sent, total int64) {
		percent := 100.0
		if total > 0 {
			percent = float64(sent) / float64(total) * 100
		}
		if !sampler.ShouldLog(percent, name) {
			return
		}
		fmt.Fprintf(out, "  %s: %3.0f%% (%s / %s)\n", name, percent,
			humanize.IBytes(uint64(sent)), humanize.IBytes(uint64(total)))
		if logger != nil {
			attrs := append(logging.UploadAttrs("", name), logging.ProgressAttrs(sent, total)...)
			logger.Debug("upload progress", logging.Args(attrs...)...)
		}
	})
}
