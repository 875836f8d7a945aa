package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tubecast/internal/config"
	"tubecast/internal/logging"
	"tubecast/internal/services"
)

func TestNewFromConfigWritesStateDirLog(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.StateDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg, "run-1", false, nil)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello file")

	content, err := os.ReadFile(cfg.LogPath())
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "hello file") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestNewFromConfigVerboseMirrorsDebug(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.StateDir = t.TempDir()
	var console bytes.Buffer

	logger, err := logging.NewFromConfig(&cfg, "run-2", true, &console)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Debug("debug detail")

	if !strings.Contains(console.String(), "debug detail") {
		t.Fatalf("expected debug line on console, got %q", console.String())
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Path: logPath})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("message without caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-debug.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", Path: logPath})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("message with caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestConsoleLoggerSummarizesInfoFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.NewComponentLogger(logger, "upload").Info("upload completed",
		logging.String(logging.FieldFile, "/videos/holiday.mp4"),
		logging.Int64(logging.FieldBytesTotal, 3<<20),
		logging.String("video_id", "abc123"),
	)

	out := buf.String()
	for _, want := range []string{"INFO [upload] holiday.mp4 - upload completed", "video_id: abc123", "3.0 MiB"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
}

func TestJSONLoggerStampsRunID(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Writer: &buf, RunID: "run-xyz"})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("json message", logging.String("k", "v"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode json record: %v (%q)", err, buf.String())
	}
	if record[logging.FieldRunID] != "run-xyz" {
		t.Fatalf("expected run id, got %v", record)
	}
	if record["level"] != "info" || record["ts"] == nil {
		t.Fatalf("unexpected envelope: %v", record)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected unsupported format error")
	}
}

func TestNewInvalidLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "invalid", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("expected info level filtering, got %q", buf.String())
	}
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithUploadID(ctx, "up-1")
	ctx = services.WithFile(ctx, "/videos/a.mp4")
	ctx = services.WithRequestID(ctx, "req-xyz")

	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WithContext(ctx, logger).Info("contextual log")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode json record: %v", err)
	}
	want := map[string]string{
		logging.FieldUploadID:      "up-1",
		logging.FieldFile:          "/videos/a.mp4",
		logging.FieldCorrelationID: "req-xyz",
	}
	for key, value := range want {
		if record[key] != value {
			t.Fatalf("field %s = %v, want %s", key, record[key], value)
		}
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "retrying", "upload_retry", logging.Error(errors.New("reset")))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode json record: %v", err)
	}
	for _, key := range []string{logging.FieldEventType, logging.FieldErrorHint, logging.FieldImpact} {
		if _, ok := record[key]; !ok {
			t.Fatalf("expected %s in %v", key, record)
		}
	}
	if record[logging.FieldEventType] != "upload_retry" {
		t.Fatalf("unexpected event type: %v", record[logging.FieldEventType])
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), 8) {
		t.Fatal("nop logger should not be enabled")
	}
	logging.WarnWithContext(nil, "ignored", "none")
}

func TestProgressAttrs(t *testing.T) {
	attrs := logging.ProgressAttrs(1<<20, 3<<20)
	if len(attrs) != 3 {
		t.Fatalf("expected 3 attrs, got %v", attrs)
	}
	if attrs[0].Key != logging.FieldBytesConfirmed || attrs[0].Value.Int64() != 1<<20 {
		t.Fatalf("unexpected confirmed attr %v", attrs[0])
	}
	if attrs[2].Key != logging.FieldProgressPercent || attrs[2].Value.Float64() != 33.3 {
		t.Fatalf("unexpected percent attr %v", attrs[2])
	}
	if got := logging.ProgressAttrs(0, 0); len(got) != 2 {
		t.Fatalf("unknown total should omit percent, got %v", got)
	}
}

func TestUploadAttrsSkipsEmpty(t *testing.T) {
	if got := logging.UploadAttrs("", ""); len(got) != 0 {
		t.Fatalf("expected no attrs, got %v", got)
	}
	got := logging.UploadAttrs("u-1", "clip.mp4")
	if len(got) != 2 || got[0].Value.String() != "u-1" || got[1].Key != logging.FieldFile {
		t.Fatalf("unexpected attrs %v", got)
	}
}
