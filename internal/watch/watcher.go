// Package watch polls a project tree and triggers a rebuild when a file
// changes.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ammo/internal/config"
	"ammo/internal/model"
)

// Builder starts a rebuild of the project.
type Builder interface {
	TryBuild(ctx context.Context, needSecondary bool) error
}

// Config holds everything a Watcher needs. Interval, Builder and Sink are
// required.
type Config struct {
	Root     string
	Interval time.Duration
	// Ignore defaults to config.DefaultIgnore.
	Ignore *IgnoreSet
	// SecondaryMarker flags changed paths that need the secondary build.
	// Empty disables the secondary build.
	SecondaryMarker string
	Builder         Builder
	Sink            *model.LogSink
	Logger          *slog.Logger
}

// Watcher compares successive snapshots of Root on a fixed interval.
type Watcher struct {
	root     string
	interval time.Duration
	ignore   *IgnoreSet
	marker   string
	builder  Builder
	sink     *model.LogSink
	log      *slog.Logger

	prev Snapshot
}

// New validates cfg and returns a Watcher. Every missing required field is
// listed in the returned *config.MissingFieldsError.
func New(cfg Config) (*Watcher, error) {
	var missing []string
	if cfg.Interval <= 0 {
		missing = append(missing, "interval")
	}
	if cfg.Builder == nil {
		missing = append(missing, "builder")
	}
	if cfg.Sink == nil {
		missing = append(missing, "sink")
	}
	if len(missing) > 0 {
		return nil, &config.MissingFieldsError{Component: "watcher", Fields: missing}
	}

	if cfg.Root == "" {
		cfg.Root = "."
	}
	if cfg.Ignore == nil {
		cfg.Ignore = NewIgnoreSet(config.DefaultIgnore)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Watcher{
		root:     cfg.Root,
		interval: cfg.Interval,
		ignore:   cfg.Ignore,
		marker:   cfg.SecondaryMarker,
		builder:  cfg.Builder,
		sink:     cfg.Sink,
		log:      cfg.Logger.With("component", "watcher"),
	}, nil
}

// Run takes an initial snapshot and then polls until ctx is cancelled. A
// snapshot failure stops watching and is returned; a failed build is only
// reported. Cancellation returns nil.
func (w *Watcher) Run(ctx context.Context) error {
	w.log.Info("watcher started", "operation", "run", "root", w.root, "interval", w.interval)

	initial, err := TakeSnapshot(w.root, w.ignore)
	if err != nil {
		return w.fail(err)
	}
	w.prev = initial
	w.sink.Status(model.StatusInfo, "watching %s (%d files, every %s)", w.root, len(initial), w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("watcher stopped", "operation", "run")
			return nil
		case <-ticker.C:
			if err := w.poll(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return w.fail(err)
			}
		}
	}
}

// poll runs one compare cycle: at most one build per tick, and the previous
// snapshot is always replaced.
func (w *Watcher) poll(ctx context.Context) error {
	current, err := TakeSnapshot(w.root, w.ignore)
	if err != nil {
		return err
	}
	w.log.Debug("snapshot taken", "operation", "snapshot", "files", len(current))
	defer func() { w.prev = current }()

	path, changed := current.FirstChange(w.prev)
	if !changed {
		return nil
	}

	needSecondary := w.NeedsSecondary(path)
	w.log.Info("file change detected",
		"operation", "detect_change",
		"path", path,
		"need_secondary", needSecondary,
	)
	w.sink.Status(model.StatusChange, "updated: %s", path)

	if err := w.builder.TryBuild(ctx, needSecondary); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		w.log.Warn("build attempt failed", "operation", "build", "path", path, "error", err)
		w.sink.Status(model.StatusFailed, "%v", err)
	}
	return nil
}

// NeedsSecondary reports whether a change to path requires the secondary
// build step.
func (w *Watcher) NeedsSecondary(path string) bool {
	return w.marker != "" && strings.Contains(path, w.marker)
}

func (w *Watcher) fail(err error) error {
	w.log.Error("watcher stopped", "operation", "snapshot", "error", err)
	w.sink.Status(model.StatusFailed, "watcher stopped: %v", err)
	return fmt.Errorf("watch %s: %w", w.root, err)
}
