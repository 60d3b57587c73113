package bootstrap

import (
	"os"
	"path/filepath"
	"strings"

	"remote-transcriber/internal/dispatch"
	"remote-transcriber/internal/domain"
)

// GetArtifactCategories returns the expected output categories and marks which
// are already present on local disk. inputDir may be empty; known directories
// from the current session are checked as well.
func (a *App) GetArtifactCategories(inputDir string) []domain.ArtifactCategoryOption {
	categories := domain.ResultCategories()
	markPresentArtifacts(categories, a.resolveKnownArtifactDirs(inputDir))
	return categories
}

// resolveKnownArtifactDirs collects candidate transcript directories in
// precedence order, deduplicated.
func (a *App) resolveKnownArtifactDirs(inputDir string) []string {
	seen := map[string]struct{}{}
	var result []string
	add := func(path string) {
		p := strings.TrimSpace(path)
		if p == "" {
			return
		}
		clean := filepath.Clean(p)
		if clean == "." {
			return
		}
		if _, ok := seen[clean]; ok {
			return
		}
		seen[clean] = struct{}{}
		result = append(result, clean)
	}

	if strings.TrimSpace(inputDir) != "" {
		add(filepath.Join(strings.TrimSpace(inputDir), dispatch.TranscriptsDirName))
	}

	a.mu.Lock()
	storedInputDir := a.inputDir
	a.mu.Unlock()
	if storedInputDir != "" {
		add(filepath.Join(storedInputDir, dispatch.TranscriptsDirName))
	}

	if dir := a.Jobs.Current().ArtifactDir; dir != "" {
		add(dir)
	}

	return result
}

// markPresentArtifacts stamps Present and LocalPath using the same marker
// matching the retriever applies when verifying a result bundle.
func markPresentArtifacts(categories []domain.ArtifactCategoryOption, dirs []string) {
	for i := range categories {
		for _, dir := range dirs {
			path, found := findArtifactInDir(dir, categories[i].Marker)
			if !found {
				continue
			}
			categories[i].Present = true
			categories[i].LocalPath = path
			break
		}
	}
}

// findArtifactInDir returns the first file whose name contains the marker.
func findArtifactInDir(dir, marker string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.Contains(entry.Name(), marker) {
			return filepath.Join(dir, entry.Name()), true
		}
	}
	return "", false
}
