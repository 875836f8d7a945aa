// Package logging assembles structured slog loggers and formatting helpers used
// across TubeCast.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing (a log file under the state directory, optionally mirrored to
// stderr), and exposes context-aware helpers so pipeline code automatically
// tags log lines with upload IDs, source files, and correlation IDs. The
// package also provides a no-op logger for tests and wiring code that cannot
// fail.
package logging
