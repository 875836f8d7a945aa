package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tubecast/internal/config"
)

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	// Path is the log file; records are appended. Empty disables file output.
	Path string
	// Writer receives records in Format when set, in addition to Path.
	Writer io.Writer
	// Console mirrors records in the console format at ConsoleLevel
	// (Level when empty). Used for --verbose.
	Console      io.Writer
	ConsoleLevel string
	// RunID is stamped on every record when set.
	RunID       string
	Development bool
}

// New constructs a slog logger using the provided options. With no outputs
// configured the logger discards everything.
func New(opts Options) (*slog.Logger, error) {
	level := parseLevel(opts.Level)
	levelVar := new(slog.LevelVar)
	levelVar.Set(level)
	addSource := opts.Development || level <= slog.LevelDebug

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "console"
	}
	if format != "console" && format != "json" {
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	writers := make([]io.Writer, 0, 2)
	if opts.Writer != nil {
		writers = append(writers, opts.Writer)
	}
	if strings.TrimSpace(opts.Path) != "" {
		file, err := openLogFile(opts.Path)
		if err != nil {
			return nil, err
		}
		writers = append(writers, file)
	}

	handlers := make([]slog.Handler, 0, 2)
	if len(writers) > 0 {
		out := io.MultiWriter(writers...)
		if format == "json" {
			handlers = append(handlers, newJSONHandler(out, levelVar, addSource))
		} else {
			handlers = append(handlers, newPrettyHandler(out, levelVar, addSource))
		}
	}
	if opts.Console != nil {
		consoleLevel := new(slog.LevelVar)
		consoleLevel.Set(level)
		if strings.TrimSpace(opts.ConsoleLevel) != "" {
			consoleLevel.Set(parseLevel(opts.ConsoleLevel))
		}
		handlers = append(handlers, newPrettyHandler(opts.Console, consoleLevel, false))
	}

	handler := newFanoutHandler(handlers...)
	if opts.RunID != "" {
		handler = newRunIDHandler(handler, opts.RunID)
	}
	return slog.New(handler), nil
}

// NewFromConfig creates the CLI logger: the configured format is written to
// the state directory log file, and verbose mirrors debug output to console.
func NewFromConfig(cfg *config.Config, runID string, verbose bool, console io.Writer) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{Level: "info", Format: "console", Console: console, RunID: runID})
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure log directory: %w", err)
	}
	opts := Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Path:   cfg.LogPath(),
		RunID:  runID,
	}
	if verbose && console != nil {
		opts.Level = "debug"
		opts.Console = console
		opts.ConsoleLevel = "debug"
	}
	return New(opts)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %q: %w", path, err)
	}
	return file, nil
}

func newJSONHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	opts := slog.HandlerOptions{
		Level:     lvl,
		AddSource: addSource,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.TimeKey:
				attr.Key = "ts"
				if attr.Value.Kind() == slog.KindTime {
					attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(time.RFC3339Nano))
				}
			case slog.LevelKey:
				attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
			case slog.SourceKey:
				if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
					attr.Value = slog.StringValue(fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
				}
			}
			return attr
		},
	}
	return slog.NewJSONHandler(w, &opts)
}
