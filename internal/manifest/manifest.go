package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Manifest is an ordered list of file paths handed to the converter.
type Manifest struct {
	// Name labels the manifest (group name, or "master").
	Name  string
	Paths []string
}

// Rules describe which files a collection pass picks up.
type Rules struct {
	Extensions []string
	Excludes   []string
	Recursive  bool
}

// Collect walks dir and returns the selected file paths, sorted and
// deduplicated. Extensions match case-insensitively; exclude patterns match
// against base names with filepath.Match semantics.
func Collect(dir string, rules Rules) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat source: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source %q is not a directory", dir)
	}

	extSet := make(map[string]struct{}, len(rules.Extensions))
	for _, ext := range rules.Extensions {
		extSet[strings.ToLower(ext)] = struct{}{}
	}

	seen := map[string]struct{}{}
	var selected []string
	walkErr := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if path != dir && !rules.Recursive {
				return filepath.SkipDir
			}
			return nil
		}
		name := entry.Name()
		if _, ok := extSet[strings.ToLower(filepath.Ext(name))]; !ok {
			return nil
		}
		excluded, err := matchesAny(rules.Excludes, name)
		if err != nil {
			return err
		}
		if excluded {
			return nil
		}
		if _, ok := seen[path]; ok {
			return nil
		}
		seen[path] = struct{}{}
		selected = append(selected, path)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walk source: %w", walkErr)
	}

	sort.Strings(selected)
	return selected, nil
}

// New builds a manifest from paths, enforcing the manifest invariant: sorted
// order, no duplicates, no empty entries.
func New(name string, paths []string) (*Manifest, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("manifest name required")
	}
	seen := make(map[string]struct{}, len(paths))
	cleaned := make([]string, 0, len(paths))
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		if _, ok := seen[path]; ok {
			continue
		}
		seen[path] = struct{}{}
		cleaned = append(cleaned, path)
	}
	sort.Strings(cleaned)
	return &Manifest{Name: name, Paths: cleaned}, nil
}

// Empty reports whether the manifest selects no files.
func (m *Manifest) Empty() bool {
	return m == nil || len(m.Paths) == 0
}

func matchesAny(patterns []string, name string) (bool, error) {
	for _, pattern := range patterns {
		ok, err := filepath.Match(pattern, name)
		if err != nil {
			return false, fmt.Errorf("exclude pattern %q: %w", pattern, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
