package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/p-arndt/benchtab/bench"
	"github.com/p-arndt/benchtab/dockerexec"
	"github.com/p-arndt/benchtab/internal/config"
	"github.com/p-arndt/benchtab/internal/docker"
	"github.com/p-arndt/benchtab/shell"
	"github.com/p-arndt/benchtab/sqlite"
)

var errVarSyntax = errors.New("--var expects name=value")

type runFlags struct {
	suite      string
	runtime    string
	setup      string
	vars       []string
	repeat     int
	maxLoop    int
	verbose    int
	memory     bool
	jsonOut    bool
	shellPath  string
	dir        string
	tty        bool
	container  string
	sqlitePath string
}

func newRunCmd(logger func(*cobra.Command) *slog.Logger) *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run [snippet...]",
		Short: "Time snippets for every combination of --var values",
		Long: `Times each snippet for every combination of the declared variables.
A --var value is parsed as YAML: a list is swept, anything else is fixed.
Snippets given on the command line replace those of the suite file.`,
		Example: `  benchtab run 'sort -n <<< "$n"' --var 'n=[1, 10, 100]'
  benchtab run --runtime sqlite --setup 'CREATE TABLE t(v)' 'SELECT count(*) FROM t'
  benchtab run -f suite.yaml --json > report.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSuite(cmd, f, args)
			if err != nil {
				return err
			}
			return runSuite(cmd, cfg, f.jsonOut, logger(cmd))
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.suite, "suite", "f", "", "YAML suite file")
	fl.StringVar(&f.runtime, "runtime", "", "snippet runtime: shell, sqlite or docker")
	fl.StringVar(&f.setup, "setup", "", "text run once per combination before timing")
	fl.StringArrayVar(&f.vars, "var", nil, "variable as name=value (YAML; lists are swept)")
	fl.IntVar(&f.repeat, "repeat", bench.DefaultRepeat, "timed samples per combination")
	fl.IntVar(&f.maxLoop, "maxloop", bench.DefaultMaxLoop, "maximum loops per sample")
	fl.IntVarP(&f.verbose, "verbose", "v", int(bench.Brief), "0 silent, 1 brief, 2 detailed")
	fl.BoolVar(&f.memory, "memory", false, "record memory deltas from /proc")
	fl.BoolVar(&f.jsonOut, "json", false, "write a JSON report to stdout")
	fl.StringVar(&f.shellPath, "shell", "", "shell interpreter (shell runtime)")
	fl.StringVar(&f.dir, "dir", "", "working directory of commands")
	fl.BoolVar(&f.tty, "tty", false, "run shell commands on a pseudo-terminal")
	fl.StringVar(&f.container, "container", "", "target container (docker runtime)")
	fl.StringVar(&f.sqlitePath, "sqlite-path", "", "database file (sqlite runtime)")
	return cmd
}

// loadSuite merges the suite file, environment and explicitly set flags.
func loadSuite(cmd *cobra.Command, f runFlags, args []string) (*config.Config, error) {
	cfg, err := config.Load(f.suite)
	if err != nil {
		return nil, fmt.Errorf("loading suite: %w", err)
	}

	fl := cmd.Flags()
	if fl.Changed("runtime") {
		cfg.Runtime = f.runtime
	}
	if fl.Changed("setup") {
		cfg.Setup = f.setup
	}
	if fl.Changed("repeat") {
		cfg.Repeat = f.repeat
	}
	if fl.Changed("maxloop") {
		cfg.MaxLoop = f.maxLoop
	}
	if fl.Changed("verbose") {
		cfg.Verbose = f.verbose
	}
	if fl.Changed("memory") {
		cfg.MemoryUsage = f.memory
	}
	if fl.Changed("shell") {
		cfg.Shell.Path = f.shellPath
		cfg.Docker.Shell = f.shellPath
	}
	if fl.Changed("dir") {
		cfg.Shell.Dir = f.dir
		cfg.Docker.Dir = f.dir
	}
	if fl.Changed("tty") {
		cfg.Shell.TTY = f.tty
	}
	if fl.Changed("container") {
		cfg.Docker.Container = f.container
	}
	if fl.Changed("sqlite-path") {
		cfg.SQLite.Path = f.sqlitePath
	}

	switch len(args) {
	case 0:
	case 1:
		cfg.Snippet, cfg.Snippets = args[0], nil
	default:
		cfg.Snippet, cfg.Snippets = "", args
	}

	if cfg.Vars == nil {
		cfg.Vars = make(map[string]any)
	}
	for _, kv := range f.vars {
		name, value, err := parseVar(kv)
		if err != nil {
			return nil, err
		}
		cfg.Vars[name] = value
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseVar splits "name=value" and decodes value as YAML.
func parseVar(kv string) (string, any, error) {
	name, raw, ok := strings.Cut(kv, "=")
	if !ok || name == "" {
		return "", nil, fmt.Errorf("%w: %q", errVarSyntax, kv)
	}
	var value any
	if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
		return "", nil, fmt.Errorf("--var %s: %w", name, err)
	}
	return name, value, nil
}

// newRuntime builds the runtime named by the suite. The returned function
// releases its resources.
func newRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger) (bench.Runtime, func(), error) {
	switch cfg.Runtime {
	case config.RuntimeSQLite:
		rt := sqlite.New(cfg.SQLite.Path)
		rt.Logger = logger
		return rt, func() {}, nil
	case config.RuntimeDocker:
		cli, err := docker.New()
		if err != nil {
			return nil, nil, err
		}
		if err := cli.Ping(ctx); err != nil {
			cli.Close()
			return nil, nil, fmt.Errorf("docker daemon unreachable: %w", err)
		}
		rt := dockerexec.New(cli, cfg.Docker.Container)
		rt.Shell = cfg.Docker.Shell
		rt.Dir = cfg.Docker.Dir
		rt.Logger = logger
		return rt, func() { cli.Close() }, nil
	}
	rt := shell.New()
	rt.Shell = cfg.Shell.Path
	rt.Dir = cfg.Shell.Dir
	rt.TTY = cfg.Shell.TTY
	rt.Logger = logger
	return rt, func() {}, nil
}

func runSuite(cmd *cobra.Command, cfg *config.Config, jsonOut bool, logger *slog.Logger) error {
	rt, release, err := newRuntime(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer release()

	// Keep stdout clean for the JSON report.
	var lines io.Writer = cmd.OutOrStdout()
	if jsonOut {
		lines = cmd.ErrOrStderr()
	}

	opts := append(cfg.Options(),
		bench.WithRuntime(rt),
		bench.WithOutput(lines),
		bench.WithLogger(logger))

	start := time.Now()
	res, err := bench.Run(cmd.Context(), cfg.Stmts(), opts...)
	if err != nil {
		return err
	}
	logger.Debug("benchmark finished", "run_id", res.RunID, "elapsed", time.Since(start))

	if !jsonOut {
		return nil
	}
	rep := benchmarkReport{
		GeneratedAt: start.UTC(),
		Hardware:    collectHardware(),
		Runtime:     rt.Name(),
		Result:      res,
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
