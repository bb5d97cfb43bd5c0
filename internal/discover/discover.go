// Package discover finds candidate and search files under a root directory.
package discover

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"
	"golang.org/x/text/cases"
)

// Options controls how Files matches patterns.
type Options struct {
	// Recursive matches patterns at any depth instead of direct children only.
	Recursive bool
	// Exclude drops files whose base name, without extension, ends with
	// any of these suffixes.
	Exclude []string
	// Gitignore skips paths matched by root/.gitignore.
	Gitignore bool
}

// Files returns the files under root whose names end with one of patterns.
// Patterns are glob suffixes: ".js" matches any name ending in .js and
// bracket classes such as "[!x].js" are honored. Results are grouped by
// pattern, each group in directory walk order. A missing root yields no
// files and no error.
func Files(root string, patterns []string, opts Options) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, nil
	}

	var gi *ignore.GitIgnore
	if opts.Gitignore {
		gi = loadGitignore(root)
	}

	fsys := os.DirFS(root)
	var results []string

	for _, p := range patterns {
		glob := "*" + p
		if opts.Recursive {
			glob = "**/*" + p
		}
		if !doublestar.ValidatePattern(glob) {
			return nil, fmt.Errorf("pattern %q: %w", p, doublestar.ErrBadPattern)
		}

		err := doublestar.GlobWalk(fsys, glob, func(path string, d fs.DirEntry) error {
			if d.IsDir() || isHidden(path) {
				return nil
			}
			if gi != nil && gi.MatchesPath(path) {
				return nil
			}
			if excluded(d.Name(), opts.Exclude) {
				return nil
			}
			results = append(results, filepath.Join(root, filepath.FromSlash(path)))
			return nil
		})
		if err != nil {
			if errors.Is(err, doublestar.ErrBadPattern) {
				return nil, fmt.Errorf("pattern %q: %w", p, err)
			}
			return nil, fmt.Errorf("matching %q under %s: %w", p, root, err)
		}
	}

	return results, nil
}

// Names returns the base name of each path, sorted case-insensitively.
// Equal keys keep their input order and duplicates are preserved.
func Names(paths []string) []string {
	type keyed struct {
		name string
		key  string
	}

	fold := cases.Fold()
	entries := make([]keyed, len(paths))
	for i, p := range paths {
		name := filepath.Base(p)
		entries[i] = keyed{name: name, key: fold.String(name)}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].key < entries[j].key
	})

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.name
	}
	return names
}

// Duplicates returns the names that occur more than once, in first-seen order.
func Duplicates(names []string) []string {
	counts := make(map[string]int, len(names))
	var dups []string
	for _, n := range names {
		counts[n]++
		if counts[n] == 2 {
			dups = append(dups, n)
		}
	}
	return dups
}

// excluded reports whether name's stem ends with one of suffixes.
func excluded(name string, suffixes []string) bool {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	for _, s := range suffixes {
		if s != "" && strings.HasSuffix(stem, s) {
			return true
		}
	}
	return false
}

// isHidden reports whether any element of a slash-separated path starts with a dot.
func isHidden(path string) bool {
	for _, part := range strings.Split(path, "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}
