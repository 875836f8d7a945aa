package metadata

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"tubecast/internal/services"
	"tubecast/internal/textutil"
)

// SidecarPath returns the JSON file consulted for videoPath.
func SidecarPath(videoPath string) string {
	return strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + ".json"
}

type sidecarFile struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Tags        sidecarTags `json:"tags"`
	Privacy     string      `json:"privacy"`
	Category    string      `json:"category"`
	Playlist    string      `json:"playlist"`
}

// sidecarTags accepts either a JSON list or a comma separated string.
type sidecarTags []string

func (t *sidecarTags) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*t = list
		return nil
	}
	var joined string
	if err := json.Unmarshal(data, &joined); err != nil {
		return errors.New("tags must be a list or a comma separated string")
	}
	*t = textutil.SplitList(joined)
	return nil
}

// FromSidecar loads <video>.json. The bool result is false when no sidecar
// exists; a sidecar that cannot be parsed is a validation error.
func FromSidecar(videoPath string) (Metadata, bool, error) {
	path := SidecarPath(videoPath)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Metadata{}, false, nil
		}
		return Metadata{}, false, services.Wrap(services.ErrValidation, "metadata", "read sidecar", path, err)
	}
	var file sidecarFile
	if err := json.Unmarshal(data, &file); err != nil {
		return Metadata{}, false, services.Wrap(services.ErrValidation, "metadata", "parse sidecar", path, err)
	}
	m := Metadata{
		Title:       strings.TrimSpace(file.Title),
		Description: strings.TrimSpace(file.Description),
		Tags:        []string(file.Tags),
		Privacy:     file.Privacy,
		CategoryID:  file.Category,
		Playlist:    file.Playlist,
	}
	if m.Title != "" {
		m.Source.Title = SourceSidecar
	}
	if m.Description != "" {
		m.Source.Description = SourceSidecar
	}
	if len(m.Tags) > 0 {
		m.Source.Tags = SourceSidecar
	}
	return m, true, nil
}
