package content

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultPatterns match Markdown and MDX article files.
var DefaultPatterns = []string{"*.md", "*.mdx"}

// Source is one raw article file. Path is its identity; Rel is the
// slash-separated path relative to the content root.
type Source struct {
	Path string
	Rel  string
	Data []byte
}

// Discover reads every file under root whose base name matches one of
// patterns, sorted by Rel. Files and directories whose names start with
// "_" or "." are skipped. A missing root is fatal; unreadable files are
// returned as diagnostics.
func Discover(root string, patterns []string) ([]Source, []Diagnostic, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", ErrContentRootMissing, root, err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("%w: %s is not a directory", ErrContentRootMissing, root)
	}

	var sources []Source
	var diags []Diagnostic
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			diags = append(diags, Diagnostic{Path: path, Kind: KindRead, Err: fmt.Errorf("scanning %s: %w", path, err)})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path != root && hidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !matches(d.Name(), patterns) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			diags = append(diags, Diagnostic{Path: path, Kind: KindRead, Err: fmt.Errorf("reading %s: %w", path, err)})
			return nil
		}
		sources = append(sources, Source{Path: path, Rel: filepath.ToSlash(rel), Data: data})
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrContentRootMissing, err)
	}

	sort.Slice(sources, func(i, j int) bool { return sources[i].Rel < sources[j].Rel })
	return sources, diags, nil
}

func hidden(name string) bool {
	return strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")
}

func matches(name string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, name); ok {
			return true
		}
	}
	return false
}
