// Package build runs the project's build commands and keeps at most one
// build process alive.
package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"ammo/internal/config"
	"ammo/internal/model"

	"github.com/google/uuid"
)

var (
	// ErrBuildFailed wraps a failure to spawn the secondary or primary command.
	ErrBuildFailed = errors.New("build failed")
	// ErrKillFailed wraps a failure to terminate the previous build process.
	ErrKillFailed = errors.New("failed to kill previous build")
	// ErrBuildInterrupted is returned by a build attempt stopped by Kill.
	ErrBuildInterrupted = errors.New("build interrupted")
)

// waitDelay bounds how long Wait keeps reading output after a command is
// killed.
const waitDelay = 2 * time.Second

// Phase is the coarse state of the build pipeline, readable without
// waiting for an in-flight build attempt.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseSecondary
	PhaseRunning
	PhaseExited
)

func (p Phase) String() string {
	switch p {
	case PhaseSecondary:
		return "building"
	case PhaseRunning:
		return "running"
	case PhaseExited:
		return "exited"
	default:
		return "idle"
	}
}

// Commands are the shell command strings to run.
type Commands struct {
	Primary   string
	Secondary string
}

// Options configure a Manager. Commands.Primary and Sink are required.
type Options struct {
	Dir        string
	Shell      Shell
	Commands   Commands
	ForceColor bool
	Sink       *model.LogSink
	Logger     *slog.Logger
}

// Process is a handle to one spawned primary build.
type Process struct {
	ID        string
	Command   string
	StartedAt time.Time

	cmd     *exec.Cmd
	done    chan struct{}
	exitErr error
	killed  atomic.Bool
}

// PID returns the operating system process id.
func (p *Process) PID() int {
	return p.cmd.Process.Pid
}

// Done is closed once the process has exited and been reaped.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// ExitErr returns the result of waiting on the process. Only valid after
// Done is closed.
func (p *Process) ExitErr() error {
	return p.exitErr
}

// Manager owns the current build process. Starting a build always kills
// the previous one first.
type Manager struct {
	dir        string
	shell      Shell
	commands   Commands
	forceColor bool
	sink       *model.LogSink
	log        *slog.Logger

	killProc func(*os.Process) error

	mu      sync.Mutex
	current *Process
	phase   atomic.Int32

	attemptMu sync.Mutex
	attempt   *attempt
}

// attempt is one in-flight TryBuild. Kill cancels it without waiting for
// the handle lock, which the attempt holds while the secondary build runs.
type attempt struct {
	cancel context.CancelCauseFunc
}

// NewManager validates opts and returns a Manager with no build running.
func NewManager(opts Options) (*Manager, error) {
	var missing []string
	if opts.Commands.Primary == "" {
		missing = append(missing, "primary command")
	}
	if opts.Sink == nil {
		missing = append(missing, "sink")
	}
	if len(missing) > 0 {
		return nil, &config.MissingFieldsError{Component: "build manager", Fields: missing}
	}

	if opts.Shell == nil {
		opts.Shell = DetectShell("")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Manager{
		dir:        opts.Dir,
		shell:      opts.Shell,
		commands:   opts.Commands,
		forceColor: opts.ForceColor,
		sink:       opts.Sink,
		log:        opts.Logger.With("component", "build"),
		killProc:   killProcessGroup,
	}, nil
}

// TryBuild kills the current build, runs the secondary command to
// completion when needSecondary is set, then spawns the primary command and
// returns without waiting for it. Its output streams into the sink. An
// attempt stopped by Kill returns ErrBuildInterrupted and spawns nothing.
func (m *Manager) TryBuild(ctx context.Context, needSecondary bool) error {
	ctx, a := m.beginAttempt(ctx)
	defer m.endAttempt(a)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.killLocked(); err != nil {
		m.log.Error("kill previous build", "operation", "kill", "error", err)
		return err
	}

	if needSecondary && m.commands.Secondary != "" {
		m.phase.Store(int32(PhaseSecondary))
		if err := m.runSecondary(ctx); err != nil {
			m.phase.Store(int32(PhaseIdle))
			return err
		}
	}
	if ctx.Err() != nil {
		m.phase.Store(int32(PhaseIdle))
		return context.Cause(ctx)
	}

	p, err := m.spawn()
	if err != nil {
		m.phase.Store(int32(PhaseIdle))
		return err
	}
	m.current = p
	m.phase.Store(int32(PhaseRunning))
	return nil
}

// Kill stops a build attempt in progress and terminates the current build,
// if any.
func (m *Manager) Kill() error {
	m.attemptMu.Lock()
	if m.attempt != nil {
		m.attempt.cancel(ErrBuildInterrupted)
	}
	m.attemptMu.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.killLocked()
}

// Current returns the live build handle, or nil.
func (m *Manager) Current() *Process {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *Manager) beginAttempt(ctx context.Context) (context.Context, *attempt) {
	ctx, cancel := context.WithCancelCause(ctx)
	a := &attempt{cancel: cancel}

	m.attemptMu.Lock()
	m.attempt = a
	m.attemptMu.Unlock()
	return ctx, a
}

func (m *Manager) endAttempt(a *attempt) {
	m.attemptMu.Lock()
	if m.attempt == a {
		m.attempt = nil
	}
	m.attemptMu.Unlock()
	a.cancel(nil)
}

// Phase reports the state of the build pipeline.
func (m *Manager) Phase() Phase {
	return Phase(m.phase.Load())
}

// killLocked kills the recorded process. A process that already exited
// counts as killed. On any other failure the handle stays recorded as live.
func (m *Manager) killLocked() error {
	p := m.current
	if p == nil {
		return nil
	}

	p.killed.Store(true)
	if err := m.killProc(p.cmd.Process); err != nil && !errors.Is(err, os.ErrProcessDone) {
		p.killed.Store(false)
		return fmt.Errorf("%w (pid %d): %w", ErrKillFailed, p.PID(), err)
	}

	m.log.Info("build killed", "operation", "kill", "build_id", p.ID, "pid", p.PID())
	m.current = nil
	return nil
}

func (m *Manager) runSecondary(ctx context.Context) error {
	m.sink.Status(model.StatusBuild, "secondary build: %s", m.commands.Secondary)

	cmd := m.command(ctx, m.commands.Secondary)
	out, err := cmd.Output()
	m.sink.AppendLines(string(out))
	if ctx.Err() != nil {
		m.log.Info("secondary build stopped", "operation", "secondary", "error", context.Cause(ctx))
		return context.Cause(ctx)
	}

	var exitErr *exec.ExitError
	switch {
	case errors.As(err, &exitErr):
		m.sink.AppendLines(string(exitErr.Stderr))
		m.log.Warn("secondary build exited", "operation", "secondary", "error", err)
		m.sink.Status(model.StatusStopped, "secondary build exited: %v", err)
	case err != nil:
		return fmt.Errorf("%w: secondary command %q: %w", ErrBuildFailed, m.commands.Secondary, err)
	}
	return nil
}

func (m *Manager) spawn() (*Process, error) {
	m.sink.Status(model.StatusBuild, "build starting: %s", m.commands.Primary)

	cmd := m.command(context.Background(), m.commands.Primary)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdout pipe: %w", ErrBuildFailed, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stderr pipe: %w", ErrBuildFailed, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: command %q: %w", ErrBuildFailed, m.commands.Primary, err)
	}

	p := &Process{
		ID:        uuid.NewString()[:8],
		Command:   m.commands.Primary,
		StartedAt: time.Now(),
		cmd:       cmd,
		done:      make(chan struct{}),
	}
	log := m.log.With("build_id", p.ID, "pid", p.PID())

	var drains sync.WaitGroup
	drains.Add(2)
	go func() {
		defer drains.Done()
		drain(stdout, m.sink, log, "stdout")
	}()
	go func() {
		defer drains.Done()
		drain(stderr, m.sink, log, "stderr")
	}()
	go m.reap(p, &drains, log)

	log.Info("build spawned", "operation", "spawn", "command", p.Command)
	return p, nil
}

// reap waits for both drains to reach end of stream, then collects the exit
// status. Wait must not run before the pipes are fully read.
func (m *Manager) reap(p *Process, drains *sync.WaitGroup, log *slog.Logger) {
	drains.Wait()
	p.exitErr = p.cmd.Wait()
	close(p.done)

	m.mu.Lock()
	if m.current == p {
		m.phase.Store(int32(PhaseExited))
	}
	m.mu.Unlock()

	elapsed := time.Since(p.StartedAt).Round(time.Millisecond)
	switch {
	case p.killed.Load():
		log.Info("build stopped", "operation", "reap", "elapsed", elapsed)
		m.sink.Status(model.StatusStopped, "build %s killed after %s", p.ID, elapsed)
	case p.exitErr != nil:
		log.Info("build exited", "operation", "reap", "elapsed", elapsed, "error", p.exitErr)
		m.sink.Status(model.StatusStopped, "build %s exited after %s: %v", p.ID, elapsed, p.exitErr)
	default:
		log.Info("build exited", "operation", "reap", "elapsed", elapsed)
		m.sink.Status(model.StatusOK, "build %s finished in %s", p.ID, elapsed)
	}
}

func (m *Manager) command(ctx context.Context, script string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, m.shell.Name(), m.shell.Args(script)...)
	cmd.Dir = m.dir
	setupProcessGroup(cmd)
	cmd.Cancel = func() error {
		return m.killProc(cmd.Process)
	}
	cmd.WaitDelay = waitDelay
	cmd.Env = os.Environ()
	if m.forceColor {
		cmd.Env = append(cmd.Env, "CLICOLOR_FORCE=1", "FORCE_COLOR=1")
	}
	return cmd
}
