package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/p-arndt/benchtab/bench"
)

// Runtime names accepted in a suite.
const (
	RuntimeShell  = "shell"
	RuntimeSQLite = "sqlite"
	RuntimeDocker = "docker"
)

var (
	ErrUnknownRuntime = errors.New("unknown runtime")
	ErrNoSnippet      = errors.New("suite has no snippet")
	ErrSnippetTwice   = errors.New("suite sets both snippet and snippets")
	ErrNoContainer    = errors.New("docker runtime needs a container")
)

type ShellConfig struct {
	Path string `yaml:"path"`
	Dir  string `yaml:"dir"`
	TTY  bool   `yaml:"tty"`
}

type DockerConfig struct {
	Container string `yaml:"container"`
	Shell     string `yaml:"shell"`
	Dir       string `yaml:"dir"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Config is a benchmark suite. YAML lists under vars are swept.
type Config struct {
	Runtime     string         `yaml:"runtime"`
	Snippet     string         `yaml:"snippet"`
	Snippets    []string       `yaml:"snippets"`
	Setup       string         `yaml:"setup"`
	Vars        map[string]any `yaml:"vars"`
	Repeat      int            `yaml:"repeat"`
	MaxLoop     int            `yaml:"maxloop"`
	MemoryUsage bool           `yaml:"memory_usage"`
	MemoryKeys  []string       `yaml:"memory_keys"`
	Verbose     int            `yaml:"verbose"`
	Shell       ShellConfig    `yaml:"shell"`
	Docker      DockerConfig   `yaml:"docker"`
	SQLite      SQLiteConfig   `yaml:"sqlite"`
}

func Load(yamlPath string) (*Config, error) {
	cfg := &Config{
		Runtime: RuntimeShell,
		Repeat:  bench.DefaultRepeat,
		MaxLoop: bench.DefaultMaxLoop,
		Verbose: int(bench.Brief),
		Vars:    make(map[string]any),
		Docker: DockerConfig{
			Shell: "/bin/sh",
		},
		SQLite: SQLiteConfig{
			Path: ":memory:",
		},
	}

	if yamlPath != "" {
		data, err := os.ReadFile(yamlPath)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BENCHTAB_RUNTIME"); v != "" {
		cfg.Runtime = v
	}
	if v := os.Getenv("BENCHTAB_REPEAT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Repeat = n
		}
	}
	if v := os.Getenv("BENCHTAB_MAXLOOP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxLoop = n
		}
	}
	if v := os.Getenv("BENCHTAB_VERBOSE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Verbose = n
		}
	}
	if v := os.Getenv("BENCHTAB_MEMORY_USAGE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.MemoryUsage = b
		}
	}
	if v := os.Getenv("BENCHTAB_MEMORY_KEYS"); v != "" {
		cfg.MemoryKeys = strings.Split(v, ",")
	}
	if v := os.Getenv("BENCHTAB_SHELL"); v != "" {
		cfg.Shell.Path = v
	}
	if v := os.Getenv("BENCHTAB_CONTAINER"); v != "" {
		cfg.Docker.Container = v
	}
	if v := os.Getenv("BENCHTAB_SQLITE_PATH"); v != "" {
		cfg.SQLite.Path = v
	}
}

// Validate checks the fields bench.Run does not see. Numeric limits are
// left to bench so both report the same errors.
func (c *Config) Validate() error {
	switch c.Runtime {
	case RuntimeShell, RuntimeSQLite:
	case RuntimeDocker:
		if c.Docker.Container == "" {
			return ErrNoContainer
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownRuntime, c.Runtime)
	}
	if c.Snippet != "" && len(c.Snippets) > 0 {
		return ErrSnippetTwice
	}
	if c.Snippet == "" && len(c.Snippets) == 0 {
		return ErrNoSnippet
	}
	return nil
}

// Stmts returns the snippet, or the list of snippets when several are given.
func (c *Config) Stmts() any {
	if len(c.Snippets) > 0 {
		return c.Snippets
	}
	return c.Snippet
}

// Options translates the suite into benchmark options. The runtime is built
// by the caller.
func (c *Config) Options() []bench.Option {
	opts := []bench.Option{
		bench.WithRepeat(c.Repeat),
		bench.WithMaxLoop(c.MaxLoop),
		bench.WithVerbose(bench.Verbosity(c.Verbose)),
		bench.WithMemoryUsage(c.MemoryUsage),
		bench.WithVars(c.Vars),
	}
	if c.Setup != "" {
		opts = append(opts, bench.WithSetup(c.Setup))
	}
	if len(c.MemoryKeys) > 0 {
		opts = append(opts, bench.WithMemoryKeys(c.MemoryKeys...))
	}
	return opts
}
