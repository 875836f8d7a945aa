package metadata

import (
	"context"
	"log/slog"
	"path/filepath"

	"tubecast/internal/logging"
	"tubecast/internal/services/llm"
)

// Generator proposes metadata from a file name and an optional hint.
type Generator interface {
	GenerateMetadata(ctx context.Context, filename, hint string) (llm.Metadata, error)
}

// Request describes one resolution.
type Request struct {
	Path      string
	Overrides Overrides
	// UseAI asks for generated metadata; it is ignored without a Generator.
	UseAI bool
	// Hint is passed to the generator as extra context about the video.
	Hint string
}

// Resolver merges the metadata sources for a video.
type Resolver struct {
	generator Generator
	logger    *slog.Logger
}

// NewResolver builds a resolver. A nil generator disables AI metadata.
func NewResolver(generator Generator, logger *slog.Logger) *Resolver {
	return &Resolver{
		generator: generator,
		logger:    logging.NewComponentLogger(logger, "metadata"),
	}
}

// Resolve returns normalized metadata for req.Path. Only an unreadable
// sidecar fails resolution; generator errors fall back to the other sources.
func (r *Resolver) Resolve(ctx context.Context, req Request) (Metadata, error) {
	logger := logging.WithContext(ctx, r.logger)
	candidates := make([]Metadata, 0, 4)
	candidates = append(candidates, fromOverrides(req.Overrides))

	if req.UseAI && !overridesComplete(req.Overrides) {
		if generated, ok := r.generate(ctx, logger, req); ok {
			candidates = append(candidates, generated)
		}
	}

	sidecar, found, err := FromSidecar(req.Path)
	if err != nil {
		return Metadata{}, err
	}
	if found {
		candidates = append(candidates, sidecar)
	}
	candidates = append(candidates, FromFilename(req.Path))

	resolved := Normalize(merge(candidates))
	if resolved.Title == "" {
		resolved.Title = filepath.Base(req.Path)
		resolved.Source.Title = SourceFilename
	}

	attrs := logging.DecisionAttrs("metadata_source", string(resolved.Source.Title), "highest precedence source with a title")
	attrs = append(attrs,
		logging.String("title", resolved.Title),
		logging.String("description_source", string(resolved.Source.Description)),
		logging.String("tags_source", string(resolved.Source.Tags)),
		logging.Int("tags", len(resolved.Tags)),
	)
	logger.Info("metadata resolved", logging.Args(attrs...)...)
	return resolved, nil
}

func (r *Resolver) generate(ctx context.Context, logger *slog.Logger, req Request) (Metadata, bool) {
	if r.generator == nil {
		logging.WarnWithContext(logger, "ai metadata requested but no llm is configured", "metadata_ai_unavailable",
			logging.String(logging.FieldErrorHint, "set llm.api_key or GEMINI_API_KEY"),
			logging.String(logging.FieldImpact, "metadata falls back to sidecar and file name"),
		)
		return Metadata{}, false
	}
	generated, err := r.generator.GenerateMetadata(ctx, filepath.Base(req.Path), req.Hint)
	if err != nil {
		if ctx.Err() != nil {
			return Metadata{}, false
		}
		logging.WarnWithContext(logger, "ai metadata generation failed", "metadata_ai_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the llm key and quota with `tubecast status`"),
			logging.String(logging.FieldImpact, "metadata falls back to sidecar and file name"),
		)
		return Metadata{}, false
	}
	m := Metadata{Title: generated.Title, Description: generated.Description, Tags: generated.Tags}
	m.Source = Sources{Title: SourceAI, Description: SourceAI, Tags: SourceAI}
	if m.Description == "" {
		m.Source.Description = SourceNone
	}
	if len(m.Tags) == 0 {
		m.Source.Tags = SourceNone
	}
	return m, true
}

func fromOverrides(o Overrides) Metadata {
	m := Metadata{
		Title:       o.Title,
		Description: o.Description,
		Tags:        o.Tags,
		Privacy:     o.Privacy,
		CategoryID:  o.CategoryID,
		Playlist:    o.Playlist,
	}
	if o.Title != "" {
		m.Source.Title = SourceFlag
	}
	if o.Description != "" {
		m.Source.Description = SourceFlag
	}
	if len(o.Tags) > 0 {
		m.Source.Tags = SourceFlag
	}
	return m
}

func overridesComplete(o Overrides) bool {
	return o.Title != "" && o.Description != "" && len(o.Tags) > 0
}

// merge takes each field from the first candidate that sets it.
func merge(candidates []Metadata) Metadata {
	var out Metadata
	for _, c := range candidates {
		if out.Title == "" && c.Title != "" {
			out.Title, out.Source.Title = c.Title, c.Source.Title
		}
		if out.Description == "" && c.Description != "" {
			out.Description, out.Source.Description = c.Description, c.Source.Description
		}
		if len(out.Tags) == 0 && len(c.Tags) > 0 {
			out.Tags, out.Source.Tags = c.Tags, c.Source.Tags
		}
		if out.Privacy == "" {
			out.Privacy = c.Privacy
		}
		if out.CategoryID == "" {
			out.CategoryID = c.CategoryID
		}
		if out.Playlist == "" {
			out.Playlist = c.Playlist
		}
	}
	return out
}
