package metadata

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"tubecast/internal/logging"
	"tubecast/internal/services/llm"
)

type stubGenerator struct {
	meta  llm.Metadata
	err   error
	calls int
	hint  string
	name  string
}

func (g *stubGenerator) GenerateMetadata(_ context.Context, filename, hint string) (llm.Metadata, error) {
	g.calls++
	g.name = filename
	g.hint = hint
	return g.meta, g.err
}

func TestResolveFilenameOnly(t *testing.T) {
	r := NewResolver(nil, logging.NewNop())
	video := filepath.Join(t.TempDir(), "my_first_vlog.mp4")

	m, err := r.Resolve(context.Background(), Request{Path: video})
	if err != nil {
		t.Fatal(err)
	}
	if m.Title != "My First Vlog" || m.Description != "" || m.Tags != nil {
		t.Fatalf("unexpected metadata %+v", m)
	}
	if m.Source.Title != SourceFilename {
		t.Fatalf("title source = %q", m.Source.Title)
	}
}

func TestResolvePrecedence(t *testing.T) {
	video := filepath.Join(t.TempDir(), "clip.mp4")
	writeSidecar(t, video, `{"title":"Sidecar title","description":"Sidecar description","tags":["sidecar"],"privacy":"unlisted"}`)
	gen := &stubGenerator{meta: llm.Metadata{Title: "AI title", Description: "AI description"}}
	r := NewResolver(gen, nil)

	m, err := r.Resolve(context.Background(), Request{
		Path:      video,
		UseAI:     true,
		Hint:      "a cooking show",
		Overrides: Overrides{Title: "Flag title", Privacy: "private"},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := Sources{Title: SourceFlag, Description: SourceAI, Tags: SourceSidecar}
	if m.Source != want {
		t.Fatalf("sources = %+v, want %+v", m.Source, want)
	}
	if m.Title != "Flag title" || m.Description != "AI description" || !reflect.DeepEqual(m.Tags, []string{"sidecar"}) {
		t.Fatalf("unexpected metadata %+v", m)
	}
	if m.Privacy != "private" {
		t.Fatalf("flag privacy should win, got %q", m.Privacy)
	}
	if gen.name != "clip.mp4" || gen.hint != "a cooking show" {
		t.Fatalf("generator saw name=%q hint=%q", gen.name, gen.hint)
	}
}

func TestResolveAIFailureFallsBack(t *testing.T) {
	video := filepath.Join(t.TempDir(), "holiday.mp4")
	gen := &stubGenerator{err: errors.New("quota exceeded")}
	r := NewResolver(gen, logging.NewNop())

	m, err := r.Resolve(context.Background(), Request{Path: video, UseAI: true})
	if err != nil {
		t.Fatalf("AI failure must not fail resolution: %v", err)
	}
	if gen.calls != 1 {
		t.Fatalf("expected one generator call, got %d", gen.calls)
	}
	if m.Title != "Holiday" || m.Source.Title != SourceFilename {
		t.Fatalf("unexpected fallback metadata %+v", m)
	}
}

func TestResolveSkipsAIWhenNotRequested(t *testing.T) {
	gen := &stubGenerator{meta: llm.Metadata{Title: "AI"}}
	r := NewResolver(gen, nil)

	if _, err := r.Resolve(context.Background(), Request{Path: "/tmp/x.mp4"}); err != nil {
		t.Fatal(err)
	}
	if gen.calls != 0 {
		t.Fatalf("generator should not be called, got %d calls", gen.calls)
	}
}

func TestResolveSkipsAIWhenFlagsCoverEverything(t *testing.T) {
	gen := &stubGenerator{meta: llm.Metadata{Title: "AI"}}
	r := NewResolver(gen, nil)

	m, err := r.Resolve(context.Background(), Request{
		Path:      "/tmp/x.mp4",
		UseAI:     true,
		Overrides: Overrides{Title: "T", Description: "D", Tags: []string{"a"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if gen.calls != 0 {
		t.Fatalf("generator should not be called, got %d calls", gen.calls)
	}
	if m.Title != "T" {
		t.Fatalf("title = %q", m.Title)
	}
}

func TestResolveAIWithoutGenerator(t *testing.T) {
	r := NewResolver(nil, logging.NewNop())
	m, err := r.Resolve(context.Background(), Request{Path: "/tmp/talk.mp4", UseAI: true})
	if err != nil {
		t.Fatal(err)
	}
	if m.Title != "Talk" {
		t.Fatalf("title = %q", m.Title)
	}
}

func TestResolveMalformedSidecarFails(t *testing.T) {
	video := filepath.Join(t.TempDir(), "clip.mp4")
	writeSidecar(t, video, `not json`)
	r := NewResolver(nil, nil)

	if _, err := r.Resolve(context.Background(), Request{Path: video}); err == nil {
		t.Fatal("expected error for malformed sidecar")
	}
}

func TestResolveNormalizesGeneratedValues(t *testing.T) {
	gen := &stubGenerator{meta: llm.Metadata{Title: "<AI> title", Tags: []string{"x", "X"}}}
	r := NewResolver(gen, nil)

	m, err := r.Resolve(context.Background(), Request{Path: "/tmp/x.mp4", UseAI: true})
	if err != nil {
		t.Fatal(err)
	}
	if m.Title != "AI title" || len(m.Tags) != 1 {
		t.Fatalf("unexpected metadata %+v", m)
	}
	if m.Source.Description != SourceNone {
		t.Fatalf("empty ai description should leave source unset, got %q", m.Source.Description)
	}
}
