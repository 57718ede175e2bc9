package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"ammo/internal/build"
	"ammo/internal/config"
	"ammo/internal/logging"
	"ammo/internal/model"
	"ammo/internal/tui"
	"ammo/internal/watch"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"github.com/tcnksm/go-latest"
	"golang.org/x/sync/errgroup"
)

func checkUpdate(currentVer string) {
	githubTag := &latest.GithubTag{
		Owner:      "ammo-dev",
		Repository: "ammo",
	}

	res, err := latest.Check(githubTag, currentVer)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not check for updates: %v\n", err)
		return
	}

	if res.Outdated {
		fmt.Printf("\n✨ A new version is available: %s (you have %s)\n", res.Current, currentVer)
		fmt.Println("👉 Download it from https://github.com/ammo-dev/ammo/releases")
	} else {
		fmt.Printf("✅ You are using the latest version: %s\n", currentVer)
	}
}

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ammo [options]\n\n")
		fmt.Fprintf(os.Stderr, "ammo watches a project tree, rebuilds it whenever a file changes and\n")
		fmt.Fprintf(os.Stderr, "shows the build output in a scrollable log viewer.\n")
		fmt.Fprintf(os.Stderr, "Settings are read from %s in the project root when present.\n\n", config.FileName)
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  ammo                                # go run . on every change\n")
		fmt.Fprintf(os.Stderr, "  ammo -b 'cargo run' -x target       # rebuild a Rust project\n")
		fmt.Fprintf(os.Stderr, "  ammo -s 'npm run build' -m web/     # also rebuild web assets\n")
	}

	flags := config.RegisterFlags(pflag.CommandLine)
	verboseFlag := pflag.BoolP("verbose", "v", false, "Include debug records in the log file")
	versionFlag := pflag.BoolP("version", "V", false, "Print version information")
	updateFlag := pflag.BoolP("update", "u", false, "Check for the latest version")
	helpFlag := pflag.BoolP("help", "h", false, "Show this help message")
	pflag.Parse()

	if *helpFlag {
		pflag.Usage()
		return
	}

	if *versionFlag {
		fmt.Printf("ammo version %s\n", model.Version)
		return
	}

	if *updateFlag {
		checkUpdate(model.Version)
		return
	}

	cfg, source, err := config.Load(flags.ConfigPath(), flags.Root())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	flags.Apply(&cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if *verboseFlag {
		level = slog.LevelDebug
	}
	logger, closer, err := logging.Setup(cfg.LogFile, level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()
	if source != "" {
		logger.Info("configuration loaded", "path", source)
	}

	if err := run(cfg, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		closer.Close()
		os.Exit(1)
	}
}

// run wires the engine to the viewer. The watch loop runs beside the
// interface; it stops when the interface exits, and a watcher failure is
// shown in the log without closing the interface.
func run(cfg config.Config, logger *slog.Logger) error {
	sink := model.NewLogSink()

	ignore := watch.NewIgnoreSet(cfg.Ignore)
	if cfg.Gitignore {
		var err error
		ignore, err = watch.NewIgnoreSetWithFile(cfg.Ignore, filepath.Join(cfg.Root, ".gitignore"))
		if err != nil {
			return err
		}
	}

	builds, err := build.NewManager(build.Options{
		Dir:   cfg.Root,
		Shell: build.DetectShell(cfg.Shell),
		Commands: build.Commands{
			Primary:   cfg.Build.Command,
			Secondary: cfg.Secondary.Command,
		},
		ForceColor: cfg.ForceColor,
		Sink:       sink,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	watcher, err := watch.New(watch.Config{
		Root:            cfg.Root,
		Interval:        cfg.PollInterval(),
		Ignore:          ignore,
		SecondaryMarker: cfg.Secondary.Marker,
		Builder:         builds,
		Sink:            sink,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return watcher.Run(gctx)
	})

	m := tui.InitialModel(sink, builds, logger)
	p := tea.NewProgram(&m, tea.WithAltScreen())
	final, runErr := p.Run()

	cancel()
	watchErr := g.Wait()

	// A build started between the quit key and cancel would outlive us.
	if err := builds.Kill(); err != nil {
		logger.Error("stop build on exit", "operation", "shutdown", "error", err)
	}

	if runErr != nil {
		return fmt.Errorf("run interface: %w", runErr)
	}
	if fm, ok := final.(tui.AppModel); ok && fm.KillErr != nil {
		return fmt.Errorf("stop build: %w", fm.KillErr)
	}
	if watchErr != nil && !errors.Is(watchErr, context.Canceled) {
		return watchErr
	}
	return nil
}
