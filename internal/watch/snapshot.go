package watch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
	"unicode/utf8"
)

// ErrInvalidName is returned when a file name is not valid UTF-8.
var ErrInvalidName = errors.New("file name is not valid UTF-8")

// Snapshot maps every watched file path to its last modification time.
type Snapshot map[string]time.Time

// TakeSnapshot walks root and records the modification time of every file
// not matched by ignore. Any read, metadata or name error aborts the whole
// walk; no partial snapshot is returned.
func TakeSnapshot(root string, ignore *IgnoreSet) (Snapshot, error) {
	snap := make(Snapshot)

	stack := []string{root}
	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("read directory %q: %w", dir, err)
		}

		for _, entry := range entries {
			name := entry.Name()
			path := filepath.Join(dir, name)
			if !utf8.ValidString(name) {
				return nil, fmt.Errorf("%q: %w", path, ErrInvalidName)
			}

			rel, err := filepath.Rel(root, path)
			if err != nil {
				rel = path
			}
			if ignore.Match(rel, name, entry.IsDir()) {
				continue
			}

			if entry.IsDir() {
				stack = append(stack, path)
				continue
			}

			info, err := entry.Info()
			if err != nil {
				return nil, fmt.Errorf("read metadata %q: %w", path, err)
			}
			snap[path] = info.ModTime()
		}
	}

	return snap, nil
}

// FirstChange returns the first path, in sorted order, whose modification
// time in s differs from prev. Paths missing from prev count as changed;
// paths missing from s are not reported.
func (s Snapshot) FirstChange(prev Snapshot) (string, bool) {
	paths := make([]string, 0, len(s))
	for path := range s {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		before, ok := prev[path]
		if !ok || !before.Equal(s[path]) {
			return path, true
		}
	}
	return "", false
}
