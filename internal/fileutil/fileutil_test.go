package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "token.json")

	if err := WriteFileAtomic(path, []byte("first"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(path, []byte("second"), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second" {
		t.Fatalf("content mismatch: got %q", got)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("mode mismatch: got %o, want 600", info.Mode().Perm())
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected temp files to be cleaned up, found %d entries", len(entries))
	}
}

func TestSupportedVideo(t *testing.T) {
	tests := map[string]bool{
		"clip.mp4":       true,
		"CLIP.MOV":       true,
		"dir/movie.mkv":  true,
		"notes.txt":      false,
		"archive.tar.gz": false,
		"noext":          false,
	}
	for path, want := range tests {
		if got := SupportedVideo(path); got != want {
			t.Errorf("SupportedVideo(%q) = %v, want %v", path, got, want)
		}
	}
	for _, ext := range VideoExtensions() {
		if !SupportedVideo("x" + ext) {
			t.Errorf("listed extension %s is not supported", ext)
		}
	}
}

func TestVideoContentTypeFallsBackToExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.mov")
	if err := os.WriteFile(path, []byte("not really a video"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := VideoContentType(path); got != "video/quicktime" {
		t.Fatalf("VideoContentType = %q", got)
	}

	unknown := filepath.Join(dir, "clip.bin")
	if err := os.WriteFile(unknown, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := VideoContentType(unknown); got != "application/octet-stream" {
		t.Fatalf("VideoContentType unknown = %q", got)
	}
}

func TestImageContentType(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	if ct, ok := ImageContentType(png, "image/jpeg", "image/png"); !ok || ct != "image/png" {
		t.Fatalf("ImageContentType(png) = %q, %v", ct, ok)
	}
	if _, ok := ImageContentType([]byte("GIF89a......"), "image/jpeg", "image/png"); ok {
		t.Fatal("gif should not be accepted")
	}
}
