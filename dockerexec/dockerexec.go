// Package dockerexec runs text snippets as shell commands inside a running
// Docker container. Each timed loop is one exec round trip, so results
// include the daemon's exec overhead.
package dockerexec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/p-arndt/benchtab/bench"
	"github.com/p-arndt/benchtab/internal/docker"
)

// ErrNotRunning is returned when the target container is not running.
var ErrNotRunning = errors.New("dockerexec: container is not running")

// DefaultShell is the interpreter used inside the container.
const DefaultShell = "/bin/sh"

// ExitError reports a snippet that exited with a non-zero status.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("dockerexec: exit status %d", e.Code)
	}
	return fmt.Sprintf("dockerexec: exit status %d: %s", e.Code, e.Stderr)
}

// Execer is the subset of the Docker client used by the runtime.
type Execer interface {
	Exec(ctx context.Context, containerID string, opts docker.ExecOpts) (*docker.ExecResult, error)
	IsContainerRunning(ctx context.Context, containerID string) (bool, error)
}

// Runtime executes snippets in Container.
type Runtime struct {
	Docker    Execer
	Container string
	Shell     string
	Dir       string
	TTY       bool
	Logger    *slog.Logger
}

// New returns a Runtime targeting container through d.
func New(d Execer, container string) *Runtime {
	return &Runtime{
		Docker:    d,
		Container: container,
		Shell:     DefaultShell,
		Logger:    slog.New(slog.DiscardHandler),
	}
}

func (r *Runtime) Name() string { return "docker" }

func (r *Runtime) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// Prepare checks the container and runs src.Setup once.
func (r *Runtime) Prepare(ctx context.Context, src bench.Source) (bench.Program, error) {
	running, err := r.Docker.IsContainerRunning(ctx, r.Container)
	if err != nil {
		return nil, fmt.Errorf("inspect container: %w", err)
	}
	if !running {
		return nil, fmt.Errorf("%w: %s", ErrNotRunning, r.Container)
	}

	p := &program{rt: r, text: src.Stmt, env: environ(src.Vars)}
	r.logger().Debug("docker prepare", "container", r.Container, "vars", len(src.Vars))
	if src.Setup != "" {
		if err := p.exec(ctx, src.Setup); err != nil {
			return nil, fmt.Errorf("docker setup: %w", err)
		}
	}
	return p, nil
}

func environ(vars []bench.Var) []string {
	env := make([]string, len(vars))
	for i, v := range vars {
		env[i] = fmt.Sprintf("%s=%v", v.Name, v.Value)
	}
	return env
}

type program struct {
	rt   *Runtime
	text string
	env  []string
}

func (p *program) Run(ctx context.Context) error {
	return p.exec(ctx, p.text)
}

func (p *program) Close() error { return nil }

func (p *program) exec(ctx context.Context, text string) error {
	shell := p.rt.Shell
	if shell == "" {
		shell = DefaultShell
	}
	res, err := p.rt.Docker.Exec(ctx, p.rt.Container, docker.ExecOpts{
		Cmd:        []string{shell, "-c", text},
		Env:        p.env,
		WorkingDir: p.rt.Dir,
		Tty:        p.rt.TTY,
	})
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		out := res.Stderr
		if p.rt.TTY {
			out = res.Stdout
		}
		return &ExitError{Code: res.ExitCode, Stderr: strings.TrimSpace(string(out))}
	}
	return nil
}
