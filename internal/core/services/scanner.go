package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/leaflib/curator-cli/internal/extractors"
)

// listArticleFiles returns the absolute paths of processable files in
// the library directory: supported extensions only, skip-listed names
// excluded. Non-recursive; the library is a flat folder of articles.
func listArticleFiles(dir string, skip map[string]bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading library directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if skip[name] || !extractors.Supported(name) {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}
	return paths, nil
}

// fileFormat returns the lowercased extension without the dot.
func fileFormat(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return ""
	}
	return strings.ToLower(ext[1:])
}
