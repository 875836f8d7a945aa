package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"tubecast/internal/config"
	"tubecast/internal/testsupport"
)

// fakeYouTube serves the Data API and resumable upload endpoints the CLI
// touches. Each upload session is keyed by a counter.
type fakeYouTube struct {
	t       *testing.T
	server  *httptest.Server
	mu      sync.Mutex
	inserts []map[string]any
	bodies  map[string]*bytes.Buffer
	sizes   map[string]int64
	added   []string
	updates []map[string]any
	failPut int
}

func newFakeYouTube(t *testing.T) *fakeYouTube {
	t.Helper()
	f := &fakeYouTube{t: t, bodies: map[string]*bytes.Buffer{}, sizes: map[string]int64{}}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload/videos", f.startSession)
	mux.HandleFunc("PUT /upload/session/{id}", f.putChunk)
	mux.HandleFunc("GET /youtube/v3/channels", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"items": []any{map[string]any{
			"id":             "chan-1",
			"snippet":        map[string]any{"title": "Test Channel"},
			"contentDetails": map[string]any{"relatedPlaylists": map[string]any{"uploads": "UU1"}},
		}}})
	})
	mux.HandleFunc("GET /youtube/v3/playlistItems", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"items": []any{
			map[string]any{
				"id": "item-1",
				"snippet": map[string]any{
					"title":       "Beach Day",
					"publishedAt": "2026-01-02T12:00:00Z",
					"resourceId":  map[string]any{"kind": "youtube#video", "videoId": "vid-a"},
				},
				"status": map[string]any{"privacyStatus": "unlisted"},
			},
			map[string]any{
				"id": "item-2",
				"snippet": map[string]any{
					"title":      "Mountain Hike",
					"resourceId": map[string]any{"kind": "youtube#video", "videoId": "vid-b"},
				},
				"status": map[string]any{"privacyStatus": "public"},
			},
		}})
	})
	mux.HandleFunc("POST /youtube/v3/playlistItems", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Snippet struct {
				PlaylistID string `json:"playlistId"`
				ResourceID struct {
					VideoID string `json:"videoId"`
				} `json:"resourceId"`
			} `json:"snippet"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode playlist item: %v", err)
		}
		f.mu.Lock()
		f.added = append(f.added, body.Snippet.PlaylistID+"/"+body.Snippet.ResourceID.VideoID)
		f.mu.Unlock()
		writeJSON(w, map[string]any{"id": "pli-1"})
	})
	mux.HandleFunc("GET /youtube/v3/playlists", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"items": []any{map[string]any{
			"id":             "PL-trips",
			"snippet":        map[string]any{"title": "Trips"},
			"status":         map[string]any{"privacyStatus": "private"},
			"contentDetails": map[string]any{"itemCount": 7},
		}}})
	})
	mux.HandleFunc("GET /youtube/v3/videos", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		if id != "vid-a" {
			writeJSON(w, map[string]any{"items": []any{}})
			return
		}
		writeJSON(w, map[string]any{"items": []any{testVideo(id, "Beach Day")}})
	})
	mux.HandleFunc("PUT /youtube/v3/videos", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode update: %v", err)
		}
		f.mu.Lock()
		f.updates = append(f.updates, body)
		f.mu.Unlock()
		snippet, _ := body["snippet"].(map[string]any)
		title, _ := snippet["title"].(string)
		writeJSON(w, testVideo(fmt.Sprint(body["id"]), title))
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func testVideo(id, title string) map[string]any {
	return map[string]any{
		"id": id,
		"snippet": map[string]any{
			"title":       title,
			"description": "Sun and sand",
			"tags":        []string{"beach"},
			"categoryId":  "22",
		},
		"status":         map[string]any{"privacyStatus": "unlisted", "uploadStatus": "processed"},
		"statistics":     map[string]any{"viewCount": "12345", "likeCount": "67"},
		"contentDetails": map[string]any{"duration": "PT4M13S"},
	}
}

func (f *fakeYouTube) startSession(w http.ResponseWriter, r *http.Request) {
	var meta map[string]any
	if err := json.NewDecoder(r.Body).Decode(&meta); err != nil {
		f.t.Errorf("decode metadata: %v", err)
	}
	var size int64
	fmt.Sscanf(r.Header.Get("X-Upload-Content-Length"), "%d", &size)
	f.mu.Lock()
	f.inserts = append(f.inserts, meta)
	id := fmt.Sprintf("s%d", len(f.inserts))
	f.bodies[id] = &bytes.Buffer{}
	f.sizes[id] = size
	f.mu.Unlock()
	w.Header().Set("Location", f.server.URL+"/upload/session/"+id)
	w.WriteHeader(http.StatusOK)
}

func (f *fakeYouTube) putChunk(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPut > 0 {
		w.WriteHeader(f.failPut)
		return
	}
	buf := f.bodies[id]
	buf.Write(body)
	if int64(buf.Len()) >= f.sizes[id] {
		writeJSON(w, map[string]any{"id": "vid-" + id})
		return
	}
	w.Header().Set("Range", fmt.Sprintf("bytes=0-%d", buf.Len()-1))
	w.WriteHeader(http.StatusPermanentRedirect)
}

func (f *fakeYouTube) received(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if buf, ok := f.bodies[id]; ok {
		return buf.Len()
	}
	return 0
}

func writeJSON(w http.ResponseWriter, value any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(value)
}

type cliTestEnv struct {
	cfg        *config.Config
	youtube    *fakeYouTube
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("TUBECAST_LLM_API_KEY", "")
	yt := newFakeYouTube(t)
	cfg := testsupport.NewConfig(t,
		testsupport.WithClientSecret(),
		testsupport.WithToken(),
		testsupport.WithYouTubeURLs(yt.server.URL+"/youtube/v3", yt.server.URL+"/upload"),
		testsupport.WithChunkSizeMiB(1),
	)
	cfg.Upload.MaxRetries = 1
	cfg.Upload.BackoffBaseMS = 1
	cfg.Upload.BackoffMaxMS = 1
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	configPath := filepath.Join(base, "config.toml")
	if err := config.Save(configPath, cfg); err != nil {
		t.Fatalf("save config: %v", err)
	}
	return &cliTestEnv{cfg: cfg, youtube: yt, configPath: configPath, baseDir: base}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
