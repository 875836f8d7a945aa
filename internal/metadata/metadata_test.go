package metadata

import (
	"reflect"
	"strings"
	"testing"
)

func TestFromFilename(t *testing.T) {
	m := FromFilename("/videos/summer_trip-2024.mp4")
	if m.Title != "Summer Trip 2024" || m.Source.Title != SourceFilename {
		t.Fatalf("unexpected metadata %+v", m)
	}
	if got := FromFilename(""); got.Title != "" || got.Source.Title != SourceNone {
		t.Fatalf("expected empty metadata, got %+v", got)
	}
}

func TestNormalizeTitleAndDescription(t *testing.T) {
	m := Normalize(Metadata{
		Title:       "  <Best>   clip " + strings.Repeat("x", 200),
		Description: "hello <world>\n" + strings.Repeat("d", 6000),
		Privacy:     " Public ",
	})
	if strings.ContainsAny(m.Title, "<>") || strings.ContainsAny(m.Description, "<>") {
		t.Fatalf("angle brackets survived: %q / %q", m.Title, m.Description[:20])
	}
	if n := len([]rune(m.Title)); n != MaxTitleRunes {
		t.Fatalf("title has %d runes", n)
	}
	if !strings.HasPrefix(m.Title, "Best clip ") {
		t.Fatalf("unexpected title prefix %q", m.Title[:12])
	}
	if n := len([]rune(m.Description)); n != MaxDescriptionRunes {
		t.Fatalf("description has %d runes", n)
	}
	if m.Privacy != "public" {
		t.Fatalf("privacy = %q", m.Privacy)
	}
}

func TestNormalizeTags(t *testing.T) {
	m := Normalize(Metadata{Tags: []string{" go ", "#golang", "Go", "", "<b>", "a,b"}})
	want := []string{"go", "golang", "b", "a b"}
	if !reflect.DeepEqual(m.Tags, want) {
		t.Fatalf("tags = %q, want %q", m.Tags, want)
	}
}

func TestNormalizeTagsBudget(t *testing.T) {
	tags := make([]string, 0, 60)
	for i := range 60 {
		tags = append(tags, strings.Repeat(string(rune('a'+i%26)), 9)+string(rune('A'+i/26)))
	}
	m := Normalize(Metadata{Tags: tags})
	if got := TagsLength(m.Tags); got > MaxTagsBudget {
		t.Fatalf("tags use %d characters, budget %d", got, MaxTagsBudget)
	}
	// 10-char tags plus a separator: 45 tags cost 494.
	if len(m.Tags) != 45 {
		t.Fatalf("expected 45 tags to fit, got %d", len(m.Tags))
	}
}

func TestTagsLengthQuotesSpaces(t *testing.T) {
	if got := TagsLength([]string{"one two", "three"}); got != 7+2+1+5 {
		t.Fatalf("TagsLength = %d", got)
	}
}
