package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Load reads the YAML file at path on top of Default. An empty path means
// FileName inside root, which may be absent. It returns the resolved file
// path, or "" when no file was read.
func Load(path, root string) (Config, string, error) {
	cfg := Default()
	if root != "" {
		cfg.Root = root
	}

	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = filepath.Join(cfg.Root, FileName)
	}

	resolved, err := filepath.Abs(path)
	if err != nil {
		return cfg, "", fmt.Errorf("resolve config path %q: %w", path, err)
	}

	blob, err := os.ReadFile(resolved)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, "", nil
		}
		return cfg, resolved, fmt.Errorf("read config file %q: %w", resolved, err)
	}

	if err := yaml.Unmarshal(blob, &cfg); err != nil {
		return cfg, resolved, fmt.Errorf("parse config YAML %q: %w", resolved, err)
	}
	if root != "" {
		cfg.Root = root
	}
	return cfg, resolved, nil
}

// Flags are the command-line overrides for Config.
type Flags struct {
	fs *pflag.FlagSet

	configPath *string
	root       *string
	interval   *int
	ignore     *[]string
	gitignore  *bool
	shell      *string
	build      *string
	secondary  *string
	marker     *string
	logFile    *string
	noColor    *bool
}

// RegisterFlags defines the configuration flags on fs.
func RegisterFlags(fs *pflag.FlagSet) *Flags {
	def := Default()
	return &Flags{
		fs:         fs,
		configPath: fs.StringP("config", "c", "", "Read settings from this YAML file (default: <root>/"+FileName+")"),
		root:       fs.StringP("root", "r", "", "Project root to watch (default: current directory)"),
		interval:   fs.IntP("interval", "i", def.Interval, "Seconds between polls of the project tree"),
		ignore:     fs.StringSliceP("ignore", "x", def.Ignore, "Names, path fragments or gitignore patterns to skip"),
		gitignore:  fs.Bool("gitignore", def.Gitignore, "Also skip paths matched by <root>/.gitignore"),
		shell:      fs.String("shell", def.Shell, "Shell used to run the build commands"),
		build:      fs.StringP("build", "b", def.Build.Command, "Primary build/run command"),
		secondary:  fs.StringP("secondary", "s", def.Secondary.Command, "Secondary build command (e.g. web assets)"),
		marker:     fs.StringP("marker", "m", def.Secondary.Marker, "Changed paths containing this trigger the secondary build"),
		logFile:    fs.String("log-file", def.LogFile, "Write diagnostic logs to this file (empty disables)"),
		noColor:    fs.Bool("no-color", false, "Do not ask build commands to force coloured output"),
	}
}

// ConfigPath returns the --config value.
func (f *Flags) ConfigPath() string { return *f.configPath }

// Root returns the --root value.
func (f *Flags) Root() string { return *f.root }

// Apply copies every flag the user set explicitly onto cfg.
func (f *Flags) Apply(cfg *Config) {
	changed := func(name string) bool {
		fl := f.fs.Lookup(name)
		return fl != nil && fl.Changed
	}

	if changed("interval") {
		cfg.Interval = *f.interval
	}
	if changed("ignore") {
		cfg.Ignore = *f.ignore
	}
	if changed("gitignore") {
		cfg.Gitignore = *f.gitignore
	}
	if changed("shell") {
		cfg.Shell = *f.shell
	}
	if changed("build") {
		cfg.Build.Command = *f.build
	}
	if changed("secondary") {
		cfg.Secondary.Command = *f.secondary
	}
	if changed("marker") {
		cfg.Secondary.Marker = *f.marker
	}
	if changed("log-file") {
		cfg.LogFile = *f.logFile
	}
	if changed("no-color") && *f.noColor {
		cfg.ForceColor = false
	}
}
