package harness

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// NoScenariosError is returned when a directory holds no scenario matching
// the filter.
type NoScenariosError struct {
	Dir    string
	Filter string
}

// Error implements the error interface.
func (e *NoScenariosError) Error() string {
	if e.Filter != "" {
		return fmt.Sprintf("no scenarios matching %q found in %s", e.Filter, e.Dir)
	}
	return fmt.Sprintf("no scenarios found in %s", e.Dir)
}

// FindScenarios returns the .yaml and .yml files under dir, sorted. A file
// path is returned as is.
func FindScenarios(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{dir}, nil
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Golden snapshots and other fixtures live next to scenarios.
			if path != dir && d.Name() == "golden" {
				return filepath.SkipDir
			}
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// FilterScenarios keeps the paths whose base name without extension matches
// the glob pattern. An empty pattern keeps everything.
func FilterScenarios(paths []string, pattern string) ([]string, error) {
	if pattern == "" {
		return paths, nil
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid filter %q: %w", pattern, err)
	}

	var out []string
	for _, p := range paths {
		base := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		if ok, _ := filepath.Match(pattern, base); ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// DiscoverScenarios finds, filters and loads scenarios.
func DiscoverScenarios(dir, pattern string) ([]*Scenario, []string, error) {
	paths, err := FindScenarios(dir)
	if err != nil {
		return nil, nil, err
	}
	paths, err = FilterScenarios(paths, pattern)
	if err != nil {
		return nil, nil, err
	}
	if len(paths) == 0 {
		return nil, nil, &NoScenariosError{Dir: dir, Filter: pattern}
	}

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", p, err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, paths, nil
}
