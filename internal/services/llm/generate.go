package llm

import (
	"context"
	"fmt"
	"strings"

	"tubecast/internal/services"
)

const (
	// MaxGeneratedTags caps the tags kept from a generation response.
	MaxGeneratedTags = 15
	// MaxDescriptionChars is YouTube's description limit.
	MaxDescriptionChars = 5000

	tagsDescriptionExcerpt = 500
)

// Metadata is the title, description and tag set proposed by the model.
type Metadata struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// GenerateMetadata proposes metadata for a video from its file name and an
// optional free-text hint about the content.
func (c *Client) GenerateMetadata(ctx context.Context, filename, hint string) (Metadata, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return Metadata{}, services.Wrap(services.ErrValidation, "llm", "generate metadata", "file name required", nil)
	}
	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Video filename: %s\n", filename)
	if hint = strings.TrimSpace(hint); hint != "" {
		fmt.Fprintf(&prompt, "Additional context: %s\n", hint)
	}

	content, err := c.CompleteJSON(ctx, metadataSystemPrompt, prompt.String())
	if err != nil {
		return Metadata{}, err
	}
	var parsed Metadata
	if err := DecodeLLMJSON(content, &parsed); err != nil {
		return Metadata{}, services.Wrap(services.ErrExternal, "llm", "generate metadata", "parse payload", err)
	}
	parsed.Title = strings.TrimSpace(parsed.Title)
	parsed.Description = strings.TrimSpace(parsed.Description)
	parsed.Tags = cleanTags(parsed.Tags)
	if parsed.Title == "" {
		return Metadata{}, services.Wrap(services.ErrExternal, "llm", "generate metadata", "response has no title", nil)
	}
	return parsed, nil
}

// GenerateTags proposes up to MaxGeneratedTags tags for a title and description.
func (c *Client) GenerateTags(ctx context.Context, title, description string) ([]string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, services.Wrap(services.ErrValidation, "llm", "generate tags", "title required", nil)
	}
	excerpt := strings.TrimSpace(description)
	if runes := []rune(excerpt); len(runes) > tagsDescriptionExcerpt {
		excerpt = string(runes[:tagsDescriptionExcerpt])
	}
	prompt := fmt.Sprintf("Title: %s\nDescription excerpt: %s", title, excerpt)

	content, err := c.CompleteJSON(ctx, tagsSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}
	tags, err := decodeTags(content)
	if err != nil {
		return nil, services.Wrap(services.ErrExternal, "llm", "generate tags", "parse payload", err)
	}
	return tags, nil
}

// EnhanceDescription rewrites a description for search and engagement. An
// empty model reply leaves the original description in place.
func (c *Client) EnhanceDescription(ctx context.Context, title, description string) (string, error) {
	description = strings.TrimSpace(description)
	prompt := fmt.Sprintf("Title: %s\nCurrent description: %s", strings.TrimSpace(title), description)

	content, err := c.CompleteText(ctx, descriptionSystemPrompt, prompt)
	if err != nil {
		return description, err
	}
	enhanced := stripCodeFence(content)
	if enhanced == "" {
		return description, nil
	}
	if runes := []rune(enhanced); len(runes) > MaxDescriptionChars {
		enhanced = strings.TrimSpace(string(runes[:MaxDescriptionChars]))
	}
	return enhanced, nil
}

// decodeTags accepts either {"tags": [...]} or a bare array.
func decodeTags(content string) ([]string, error) {
	var wrapped struct {
		Tags []string `json:"tags"`
	}
	if err := DecodeLLMJSON(content, &wrapped); err == nil && len(wrapped.Tags) > 0 {
		return cleanTags(wrapped.Tags), nil
	}
	var bare []string
	if err := DecodeLLMJSON(content, &bare); err != nil {
		return nil, err
	}
	return cleanTags(bare), nil
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, min(len(tags), MaxGeneratedTags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
		if len(out) == MaxGeneratedTags {
			break
		}
	}
	return out
}
