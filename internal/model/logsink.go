package model

import (
	"bytes"
	"strings"
	"sync"
)

// LogSink is the ordered, append-only list of log lines shared by the watch
// loop, the build output drains and the interface.
//
// Entries are never mutated or removed, so readers may keep the slice
// returned by Lines without holding the lock.
type LogSink struct {
	mu           sync.RWMutex
	lines        []string
	jumpToLatest bool

	// partial holds an unterminated line written through Write.
	partial bytes.Buffer
}

// NewLogSink returns an empty sink.
func NewLogSink() *LogSink {
	return &LogSink{}
}

// Append adds a line and requests that the viewer jump to it.
func (s *LogSink) Append(line string) {
	s.mu.Lock()
	s.lines = append(s.lines, line)
	s.jumpToLatest = true
	s.mu.Unlock()
}

// AppendLines appends every line of text, dropping a single trailing newline.
func (s *LogSink) AppendLines(text string) {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return
	}
	for _, line := range strings.Split(text, "\n") {
		s.Append(strings.TrimSuffix(line, "\r"))
	}
}

// Lines returns the entries appended so far.
func (s *LogSink) Lines() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lines[:len(s.lines):len(s.lines)]
}

// Len returns the number of entries.
func (s *LogSink) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lines)
}

// TakeJumpToLatest reports whether a line was appended since the last call
// and clears the flag.
func (s *LogSink) TakeJumpToLatest() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	jump := s.jumpToLatest
	s.jumpToLatest = false
	return jump
}

// Write implements io.Writer. Complete lines are appended as entries; a
// trailing partial line is held until its newline arrives or Flush is called.
func (s *LogSink) Write(p []byte) (int, error) {
	total := len(p)
	var complete []string

	s.mu.Lock()
	for len(p) > 0 {
		idx := bytes.IndexByte(p, '\n')
		if idx == -1 {
			s.partial.Write(p)
			break
		}
		s.partial.Write(p[:idx])
		complete = append(complete, strings.TrimSuffix(s.partial.String(), "\r"))
		s.partial.Reset()
		p = p[idx+1:]
	}
	s.mu.Unlock()

	for _, line := range complete {
		s.Append(line)
	}
	return total, nil
}

// Flush appends any partial line held by Write.
func (s *LogSink) Flush() {
	s.mu.Lock()
	if s.partial.Len() == 0 {
		s.mu.Unlock()
		return
	}
	line := s.partial.String()
	s.partial.Reset()
	s.mu.Unlock()

	s.Append(line)
}
