package metadata

import (
	"strings"

	"tubecast/internal/textutil"
)

// YouTube field limits.
const (
	MaxTitleRunes       = 100
	MaxDescriptionRunes = 5000
	MaxTagsBudget       = 500
)

// Source names where a field value came from.
type Source string

const (
	SourceNone     Source = ""
	SourceFlag     Source = "flag"
	SourceAI       Source = "ai"
	SourceSidecar  Source = "sidecar"
	SourceFilename Source = "filename"
)

// Sources records the winning source for each field.
type Sources struct {
	Title       Source
	Description Source
	Tags        Source
}

// Metadata is the resolved per-video metadata.
type Metadata struct {
	Title       string
	Description string
	Tags        []string
	// Privacy, CategoryID and Playlist are only set when a sidecar or flag
	// supplied them; callers fall back to config defaults.
	Privacy    string
	CategoryID string
	Playlist   string
	Source     Sources
}

// Overrides are values given explicitly on the command line. Empty fields are
// unset.
type Overrides struct {
	Title       string
	Description string
	Tags        []string
	Privacy     string
	CategoryID  string
	Playlist    string
}

// FromFilename returns metadata carrying only a title derived from path.
func FromFilename(path string) Metadata {
	title := textutil.TitleFromFilename(path)
	if title == "" {
		return Metadata{}
	}
	return Metadata{Title: title, Source: Sources{Title: SourceFilename}}
}

// Normalize clamps m to YouTube's limits: titles lose angle brackets and are
// cut to MaxTitleRunes, descriptions to MaxDescriptionRunes, and tags are
// deduplicated and dropped once the combined tag length would exceed
// MaxTagsBudget.
func Normalize(m Metadata) Metadata {
	m.Title = textutil.SanitizeTitle(m.Title, MaxTitleRunes)
	m.Description = textutil.SanitizeDescription(m.Description, MaxDescriptionRunes)
	m.Tags = normalizeTags(m.Tags)
	m.Privacy = strings.ToLower(strings.TrimSpace(m.Privacy))
	m.CategoryID = strings.TrimSpace(m.CategoryID)
	m.Playlist = strings.TrimSpace(m.Playlist)
	return m
}

func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	used := 0
	for _, tag := range tags {
		tag = strings.Join(strings.Fields(strings.NewReplacer("<", "", ">", "", ",", " ").Replace(tag)), " ")
		tag = strings.TrimPrefix(tag, "#")
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if _, ok := seen[key]; ok {
			continue
		}
		cost := tagCost(tag)
		if len(out) > 0 {
			cost++
		}
		if used+cost > MaxTagsBudget {
			continue
		}
		seen[key] = struct{}{}
		used += cost
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// tagCost counts a tag the way YouTube does: tags containing spaces are
// quoted, which adds two characters.
func tagCost(tag string) int {
	n := len([]rune(tag))
	if strings.Contains(tag, " ") {
		n += 2
	}
	return n
}

// TagsLength reports the budget consumed by tags, separators included.
func TagsLength(tags []string) int {
	total := 0
	for i, tag := range tags {
		if i > 0 {
			total++
		}
		total += tagCost(tag)
	}
	return total
}
