package build

import (
	"path/filepath"
	"runtime"
	"strings"
)

// Shell defines how a command string is handed to a shell, so the build
// command can itself be an arbitrary script.
type Shell interface {
	Name() string
	Args(script string) []string
}

// PosixShell implements Shell for sh-compatible shells.
type PosixShell struct {
	Path string
}

func (s *PosixShell) Name() string {
	return s.Path
}

func (s *PosixShell) Args(script string) []string {
	return []string{"-c", script}
}

// CmdShell implements Shell for the Windows command interpreter.
type CmdShell struct{}

func (s *CmdShell) Name() string {
	return "cmd"
}

func (s *CmdShell) Args(script string) []string {
	return []string{"/C", script}
}

// DetectShell returns the shell for the configured name, defaulting to sh
// (cmd on Windows).
func DetectShell(name string) Shell {
	name = strings.TrimSpace(name)
	base := strings.TrimSuffix(strings.ToLower(filepath.Base(name)), ".exe")
	if base == "cmd" || (name == "" && runtime.GOOS == "windows") {
		return &CmdShell{}
	}
	if name == "" {
		name = "sh"
	}
	return &PosixShell{Path: name}
}
