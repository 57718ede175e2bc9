// Package config loads ammo settings from an optional YAML file and the
// command line.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileName is looked up in the watched root when no --config path is given.
const FileName = ".ammo.yaml"

// Config is the complete set of user settings.
type Config struct {
	Root       string          `yaml:"root"`
	Interval   int             `yaml:"interval"` // seconds between polls
	Ignore     []string        `yaml:"ignore"`
	Gitignore  bool            `yaml:"gitignore"`
	Shell      string          `yaml:"shell"`
	ForceColor bool            `yaml:"force_color"`
	LogFile    string          `yaml:"log_file"`
	Build      BuildConfig     `yaml:"build"`
	Secondary  SecondaryConfig `yaml:"secondary"`
}

// BuildConfig is the primary build/run step.
type BuildConfig struct {
	Command string `yaml:"command"`
}

// SecondaryConfig is the auxiliary step run before the primary build when
// the changed path contains Marker.
type SecondaryConfig struct {
	Command string `yaml:"command"`
	Marker  string `yaml:"marker"`
}

// DefaultIgnore lists the well-known non-source paths skipped by default.
var DefaultIgnore = []string{".git", ".gitignore", "target", "node_modules"}

// Default returns the settings used when neither file nor flags override them.
func Default() Config {
	return Config{
		Root:       ".",
		Interval:   2,
		Ignore:     append([]string(nil), DefaultIgnore...),
		Shell:      "sh",
		ForceColor: true,
		LogFile:    filepath.Join(os.TempDir(), "ammo.log"),
		Build: BuildConfig{
			Command: "go run .",
		},
		Secondary: SecondaryConfig{
			Marker: "web" + string(filepath.Separator),
		},
	}
}

// PollInterval returns Interval as a duration.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.Interval) * time.Second
}

// Validate checks the settings the engine cannot run without.
func (c Config) Validate() error {
	var missing []string
	if c.Interval == 0 {
		missing = append(missing, "interval")
	}
	if strings.TrimSpace(c.Build.Command) == "" {
		missing = append(missing, "build.command")
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}
	if c.Interval < 0 {
		return fmt.Errorf("interval must be positive, got %d", c.Interval)
	}
	return nil
}

// MissingFieldsError reports required configuration that was never set.
type MissingFieldsError struct {
	Component string
	Fields    []string
}

func (e *MissingFieldsError) Error() string {
	if e.Component == "" {
		return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Fields, ", "))
	}
	return fmt.Sprintf("can't build %s without: %s", e.Component, strings.Join(e.Fields, ", "))
}
