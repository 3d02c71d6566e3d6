// Package shell runs text snippets as shell commands.
//
// Every timed loop spawns "<shell> -c <snippet>". Keyword values are exported
// to the command as environment variables, so a snippet reads them as $name.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/creack/pty"

	"github.com/p-arndt/benchtab/bench"
)

// ExitError reports a snippet that exited with a non-zero status.
type ExitError struct {
	Code   int
	Output string
}

func (e *ExitError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("shell: exit status %d", e.Code)
	}
	return fmt.Sprintf("shell: exit status %d: %s", e.Code, e.Output)
}

// waitDelay bounds how long a canceled command may keep its output open.
const waitDelay = time.Second

// Runtime executes snippets with a local shell.
type Runtime struct {
	// Shell is the interpreter path; empty picks bash, falling back to sh.
	Shell string
	// Dir is the working directory of every command.
	Dir string
	// Env is added to the inherited environment.
	Env []string
	// TTY attaches commands to a pseudo-terminal instead of pipes.
	TTY    bool
	Logger *slog.Logger
}

// New returns a Runtime using the default shell.
func New() *Runtime {
	return &Runtime{Logger: slog.New(slog.DiscardHandler)}
}

func (r *Runtime) Name() string { return "shell" }

// FindShell returns /bin/bash when present, /bin/sh otherwise.
func FindShell() string {
	shell := "/bin/bash"
	if _, err := os.Stat(shell); err != nil {
		shell = "/bin/sh"
	}
	return shell
}

func (r *Runtime) shell() string {
	if r.Shell != "" {
		return r.Shell
	}
	return FindShell()
}

func (r *Runtime) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// Prepare runs src.Setup once and returns the command of src.Stmt.
func (r *Runtime) Prepare(ctx context.Context, src bench.Source) (bench.Program, error) {
	p := &program{
		rt:   r,
		text: src.Stmt,
		env:  r.environ(src.Vars),
		out:  newTailBuffer(maxOutputBytes),
	}
	r.logger().Debug("shell prepare", "shell", r.shell(), "tty", r.TTY, "vars", len(src.Vars))

	if src.Setup != "" {
		if err := p.exec(ctx, src.Setup); err != nil {
			return nil, fmt.Errorf("shell setup: %w", err)
		}
	}
	return p, nil
}

func (r *Runtime) environ(vars []bench.Var) []string {
	env := append(os.Environ(), r.Env...)
	for _, v := range vars {
		env = append(env, fmt.Sprintf("%s=%v", v.Name, v.Value))
	}
	return env
}

type program struct {
	rt   *Runtime
	text string
	env  []string
	out  *tailBuffer
}

func (p *program) Run(ctx context.Context) error {
	return p.exec(ctx, p.text)
}

func (p *program) Close() error { return nil }

func (p *program) exec(ctx context.Context, text string) error {
	cmd := exec.CommandContext(ctx, p.rt.shell(), "-c", text)
	cmd.Dir = p.rt.Dir
	cmd.Env = p.env
	cmd.WaitDelay = waitDelay
	p.out.Reset()

	var err error
	if p.rt.TTY {
		err = p.runTTY(cmd)
	} else {
		cmd.Stdout = p.out
		cmd.Stderr = p.out
		err = cmd.Run()
	}
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Code: exitErr.ExitCode(), Output: p.out.String()}
	}
	return err
}

func (p *program) runTTY(cmd *exec.Cmd) error {
	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: 40, Cols: 120})
	if err != nil {
		return fmt.Errorf("pty start: %w", err)
	}
	// Reading the master fails with EIO once the child side closes.
	_, _ = io.Copy(p.out, ptmx)
	ptmx.Close()
	return cmd.Wait()
}
