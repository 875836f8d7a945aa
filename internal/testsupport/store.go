package testsupport

import (
	"context"
	"testing"

	"tubecast/internal/config"
	"tubecast/internal/history"
)

// MustOpenHistory opens a history.Store for tests and registers cleanup.
func MustOpenHistory(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// BeginUpload inserts an uploading record for tests.
func BeginUpload(t testing.TB, store *history.Store, uploadID, path string) *history.Record {
	t.Helper()

	record, err := store.Begin(context.Background(), history.Entry{UploadID: uploadID, FilePath: path})
	if err != nil {
		t.Fatalf("store.Begin: %v", err)
	}
	return record
}
