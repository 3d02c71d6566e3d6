package bench

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"regexp"
	"slices"
	"time"

	"github.com/p-arndt/benchtab/procstat"
)

// Verbosity controls the lines printed while benchmarking.
type Verbosity int

const (
	// Silent prints nothing.
	Silent Verbosity = iota
	// Brief prints one "<label> <time> <unit>" line per combination.
	Brief
	// Detailed is Brief plus the chosen loop and repeat counts.
	Detailed
)

const (
	DefaultRepeat           = 3
	DefaultMaxLoop          = 100
	DefaultCalibrationFloor = 100 * time.Millisecond
)

// reservedNames are the configuration keys of the benchmark call; they cannot
// be used as variable names.
var reservedNames = map[string]bool{
	"repeat":       true,
	"setup":        true,
	"memory_usage": true,
	"maxloop":      true,
	"verbose":      true,
	"stmts":        true,
}

var identRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// MemorySampler returns the current memory counters in MiB.
type MemorySampler func() (procstat.Snapshot, error)

type config struct {
	repeat     int
	maxLoop    int
	floor      time.Duration
	verbose    Verbosity
	memory     bool
	memoryKeys []string
	sampler    MemorySampler
	setup      any
	runtime    Runtime
	out        io.Writer
	logger     *slog.Logger
	labeler    *Labeler
	args       []any
	vars       map[string]any
	err        error
}

func defaultConfig() *config {
	return &config{
		repeat:     DefaultRepeat,
		maxLoop:    DefaultMaxLoop,
		floor:      DefaultCalibrationFloor,
		verbose:    Brief,
		memoryKeys: procstat.DefaultKeys,
		out:        os.Stdout,
		logger:     slog.New(slog.DiscardHandler),
		labeler:    NewLabeler(),
		vars:       make(map[string]any),
	}
}

func (c *config) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

func (c *config) validate() error {
	if c.err != nil {
		return c.err
	}
	if c.repeat < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidRepeat, c.repeat)
	}
	if c.maxLoop < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxLoop, c.maxLoop)
	}
	if c.floor <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidFloor, c.floor)
	}
	if c.verbose < Silent || c.verbose > Detailed {
		return fmt.Errorf("%w: %d", ErrInvalidVerbosity, c.verbose)
	}
	return nil
}

// Option configures a benchmark run.
type Option func(*config)

// WithArgs appends positional input values. A slice, array, Sweep, Range or
// iterator function is swept; any other value is fixed.
func WithArgs(values ...any) Option {
	return func(c *config) {
		c.args = append(c.args, values...)
	}
}

// WithVar declares the keyword input name.
func WithVar(name string, value any) Option {
	return func(c *config) {
		if !identRegex.MatchString(name) {
			c.fail(fmt.Errorf("%w: %q", ErrInvalidName, name))
			return
		}
		if reservedNames[name] {
			c.fail(fmt.Errorf("%w: %q", ErrReservedName, name))
			return
		}
		if _, ok := c.vars[name]; ok {
			c.fail(fmt.Errorf("%w: %q", ErrDuplicateName, name))
			return
		}
		c.vars[name] = value
	}
}

// WithVars declares several keyword inputs at once.
func WithVars(vars map[string]any) Option {
	return func(c *config) {
		for _, name := range slices.Sorted(maps.Keys(vars)) {
			WithVar(name, vars[name])(c)
		}
	}
}

// WithRepeat sets how many timed samples are taken per combination.
func WithRepeat(n int) Option {
	return func(c *config) { c.repeat = n }
}

// WithMaxLoop caps the number of loops per timed sample.
func WithMaxLoop(n int) Option {
	return func(c *config) { c.maxLoop = n }
}

// WithSetup runs v once per combination before timing. v is source text
// (run by the configured Runtime) or an executable.
func WithSetup(v any) Option {
	return func(c *config) { c.setup = v }
}

// WithMemoryUsage records memory deltas for every combination.
func WithMemoryUsage(enabled bool) Option {
	return func(c *config) { c.memory = enabled }
}

// WithMemoryKeys selects the /proc status fields sampled by WithMemoryUsage.
func WithMemoryKeys(keys ...string) Option {
	return func(c *config) { c.memoryKeys = keys }
}

// WithMemorySampler replaces the /proc status reader.
func WithMemorySampler(s MemorySampler) Option {
	return func(c *config) { c.sampler = s }
}

func WithVerbose(v Verbosity) Option {
	return func(c *config) { c.verbose = v }
}

// WithOutput sets where verbose lines are written (stdout by default).
func WithOutput(w io.Writer) Option {
	return func(c *config) { c.out = w }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithRuntime sets the engine executing text snippets and text setup.
func WithRuntime(rt Runtime) Option {
	return func(c *config) { c.runtime = rt }
}

// WithDescriber registers a label override consulted before the defaults.
func WithDescriber(d Describer) Option {
	return func(c *config) { c.labeler = c.labeler.With(d) }
}

// WithCalibrationFloor sets the elapsed time a calibration sample must reach
// before the loop count stops growing.
func WithCalibrationFloor(d time.Duration) Option {
	return func(c *config) { c.floor = d }
}
