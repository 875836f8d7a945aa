package history_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"tubecast/internal/history"
	"tubecast/internal/testsupport"
)

func TestOpenAppliesMigrations(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)

	if got, want := store.Path(), filepath.Join(cfg.Paths.StateDir, "history.db"); got != want {
		t.Fatalf("Path = %q, want %q", got, want)
	}

	ctx := context.Background()
	record, err := store.Begin(ctx, history.Entry{
		UploadID: "u-1",
		FilePath: "/videos/holiday.mp4",
		FileSize: 1024,
		Title:    "Holiday",
	})
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if record.ID == 0 || record.Status != history.StatusUploading {
		t.Fatalf("unexpected record: %#v", record)
	}

	fetched, err := store.Get(ctx, "u-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if fetched.Title != "Holiday" || fetched.FileName() != "holiday.mp4" || fetched.FileSize != 1024 {
		t.Fatalf("unexpected fetched record: %#v", fetched)
	}
	if !fetched.FinishedAt.IsZero() || fetched.Duration() != 0 {
		t.Fatalf("open record should have no finish time: %#v", fetched)
	}
}

func TestReopenKeepsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	store, err := history.OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath failed: %v", err)
	}
	if _, err := store.Begin(context.Background(), history.Entry{UploadID: "keep", FilePath: "a.mp4"}); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := history.OpenPath(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()
	if _, err := reopened.Get(context.Background(), "keep"); err != nil {
		t.Fatalf("record lost after reopen: %v", err)
	}
}

func TestCompleteAndFail(t *testing.T) {
	store := testsupport.MustOpenHistory(t, testsupport.NewConfig(t))
	ctx := context.Background()

	testsupport.BeginUpload(t, store, "ok", "/videos/ok.mp4")
	testsupport.BeginUpload(t, store, "bad", "/videos/bad.mp4")

	if err := store.Complete(ctx, "ok", "vid123", 2048, 1); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	cause := errors.New(strings.Repeat("x", 2500))
	if err := store.Fail(ctx, "bad", history.StatusFailed, 512, 11, cause); err != nil {
		t.Fatalf("Fail failed: %v", err)
	}

	ok, err := store.Get(ctx, "ok")
	if err != nil {
		t.Fatalf("Get ok: %v", err)
	}
	if ok.Status != history.StatusCompleted || ok.VideoID != "vid123" || ok.BytesConfirmed != 2048 {
		t.Fatalf("unexpected completed record: %#v", ok)
	}
	if ok.FinishedAt.IsZero() {
		t.Fatal("expected finished_at to be set")
	}

	bad, err := store.Get(ctx, "bad")
	if err != nil {
		t.Fatalf("Get bad: %v", err)
	}
	if bad.Status != history.StatusFailed || bad.Attempts != 11 || bad.BytesConfirmed != 512 {
		t.Fatalf("unexpected failed record: %#v", bad)
	}
	if !strings.HasSuffix(bad.Error, "...") || len(bad.Error) != 2003 {
		t.Fatalf("expected truncated error, got %d chars", len(bad.Error))
	}
}

func TestFailRejectsNonFailureStatus(t *testing.T) {
	store := testsupport.MustOpenHistory(t, testsupport.NewConfig(t))
	testsupport.BeginUpload(t, store, "u", "/videos/u.mp4")
	if err := store.Fail(context.Background(), "u", history.StatusCompleted, 0, 0, nil); err == nil {
		t.Fatal("expected error for completed status")
	}
	if err := store.Finish(context.Background(), "u", history.Outcome{Status: history.StatusUploading}); err == nil {
		t.Fatal("expected error for non-terminal status")
	}
}

func TestFinishUnknownUpload(t *testing.T) {
	store := testsupport.MustOpenHistory(t, testsupport.NewConfig(t))
	err := store.Complete(context.Background(), "missing", "vid", 0, 0)
	if !errors.Is(err, history.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, history.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from Get, got %v", err)
	}
}

func TestBeginValidatesEntry(t *testing.T) {
	store := testsupport.MustOpenHistory(t, testsupport.NewConfig(t))
	ctx := context.Background()
	if _, err := store.Begin(ctx, history.Entry{FilePath: "a.mp4"}); err == nil {
		t.Fatal("expected error for missing upload id")
	}
	if _, err := store.Begin(ctx, history.Entry{UploadID: "x"}); err == nil {
		t.Fatal("expected error for missing file path")
	}
	testsupport.BeginUpload(t, store, "dup", "a.mp4")
	if _, err := store.Begin(ctx, history.Entry{UploadID: "dup", FilePath: "b.mp4"}); err == nil {
		t.Fatal("expected duplicate upload id to fail")
	}
}

func TestRecentNewestFirst(t *testing.T) {
	store := testsupport.MustOpenHistory(t, testsupport.NewConfig(t))
	for i := range 5 {
		testsupport.BeginUpload(t, store, fmt.Sprintf("u-%d", i), fmt.Sprintf("/videos/%d.mp4", i))
	}

	records, err := store.Recent(context.Background(), 3)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	var ids []string
	for _, r := range records {
		ids = append(ids, r.UploadID)
	}
	if strings.Join(ids, ",") != "u-4,u-3,u-2" {
		t.Fatalf("unexpected order: %v", ids)
	}

	all, err := store.Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("Recent(0) failed: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("expected 5 records, got %d", len(all))
	}
}

func TestParseStatus(t *testing.T) {
	for _, value := range []string{"uploading", "completed", "failed", "rejected"} {
		if _, ok := history.ParseStatus(value); !ok {
			t.Fatalf("ParseStatus(%q) not recognized", value)
		}
	}
	if _, ok := history.ParseStatus("pending"); ok {
		t.Fatal("unexpected status accepted")
	}
	if history.StatusUploading.IsTerminal() || !history.StatusRejected.IsTerminal() {
		t.Fatal("unexpected terminal classification")
	}
}
