package batch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"tubecast/internal/fileutil"
	"tubecast/internal/services"
)

// Discover returns the supported video files under folder matching any of
// patterns, sorted by path. Patterns use doublestar syntax relative to folder.
func Discover(folder string, patterns []string) ([]string, error) {
	folder = filepath.Clean(folder)
	info, err := os.Stat(folder)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "batch", "stat folder", folder, err)
	}
	if !info.IsDir() {
		return nil, services.Wrap(services.ErrValidation, "batch", "stat folder", folder+" is not a directory", nil)
	}
	if len(patterns) == 0 {
		return nil, services.Wrap(services.ErrValidation, "batch", "discover", "no file patterns configured", nil)
	}

	fsys := os.DirFS(folder)
	seen := make(map[string]struct{})
	var files []string
	for _, pattern := range patterns {
		pattern = strings.TrimPrefix(filepath.ToSlash(strings.TrimSpace(pattern)), "./")
		if pattern == "" {
			continue
		}
		if !doublestar.ValidatePattern(pattern) {
			return nil, services.Wrap(services.ErrValidation, "batch", "discover", fmt.Sprintf("invalid pattern %q", pattern), nil)
		}
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("batch: glob %q: %w", pattern, err)
		}
		for _, match := range matches {
			if _, ok := seen[match]; ok {
				continue
			}
			seen[match] = struct{}{}
			if hidden(match) || !fileutil.SupportedVideo(match) {
				continue
			}
			entry, err := fs.Stat(fsys, match)
			if err != nil || !entry.Mode().IsRegular() {
				continue
			}
			files = append(files, filepath.Join(folder, filepath.FromSlash(match)))
		}
	}
	sort.Strings(files)
	return files, nil
}

func hidden(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
