package watch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// IgnoreSet decides which paths are left out of a snapshot. Entries are
// interpreted by shape:
//
//	target        plain name, matches any path component with that name
//	src/gen       path fragment, matches those whole components anywhere in the path
//	*.log, !keep  gitignore pattern
type IgnoreSet struct {
	names     map[string]struct{}
	fragments []string
	patterns  *ignore.GitIgnore
}

// NewIgnoreSet builds a set from entries.
func NewIgnoreSet(entries []string) *IgnoreSet {
	set, lines := splitEntries(entries)
	if len(lines) > 0 {
		set.patterns = ignore.CompileIgnoreLines(lines...)
	}
	return set
}

// NewIgnoreSetWithFile builds a set from entries plus the patterns in a
// .gitignore style file. A missing file is not an error.
func NewIgnoreSetWithFile(entries []string, path string) (*IgnoreSet, error) {
	set, lines := splitEntries(entries)

	_, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if len(lines) > 0 {
			set.patterns = ignore.CompileIgnoreLines(lines...)
		}
		return set, nil
	case err != nil:
		return nil, fmt.Errorf("stat ignore file %q: %w", path, err)
	}

	patterns, err := ignore.CompileIgnoreFileAndLines(path, lines...)
	if err != nil {
		return nil, fmt.Errorf("compile ignore file %q: %w", path, err)
	}
	set.patterns = patterns
	return set, nil
}

func splitEntries(entries []string) (*IgnoreSet, []string) {
	set := &IgnoreSet{names: make(map[string]struct{})}
	var lines []string
	for _, raw := range entries {
		entry := strings.TrimSpace(raw)
		switch {
		case entry == "":
		case strings.ContainsAny(entry, "*?[!"):
			lines = append(lines, entry)
		case strings.ContainsAny(entry, `/\`):
			set.fragments = append(set.fragments, filepath.FromSlash(strings.Trim(entry, `/\`)))
		default:
			set.names[entry] = struct{}{}
		}
	}
	return set, lines
}

// Match reports whether the entry called name, at rel (relative to the
// watched root), is ignored.
func (s *IgnoreSet) Match(rel, name string, isDir bool) bool {
	if s == nil {
		return false
	}
	if _, ok := s.names[name]; ok {
		return true
	}
	for _, fragment := range s.fragments {
		if containsComponents(rel, fragment) {
			return true
		}
	}
	if s.patterns != nil {
		if s.patterns.MatchesPath(rel) {
			return true
		}
		if isDir && s.patterns.MatchesPath(rel+"/") {
			return true
		}
	}
	return false
}

// containsComponents reports whether fragment appears in path as a run of
// whole path components.
func containsComponents(path, fragment string) bool {
	const sep = string(filepath.Separator)
	return strings.Contains(sep+path+sep, sep+fragment+sep)
}
