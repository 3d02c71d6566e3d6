package bench

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"sort"

	"github.com/google/uuid"

	"github.com/p-arndt/benchtab/procstat"
)

// plan is a validated benchmark, ready to execute.
type plan struct {
	cfg     *config
	stmts   []stmt
	space   space
	setup   setupStep
	labels  labelFormat
	metrics []string
}

// Run times every combination of the declared inputs and snippets.
//
// stmts is one snippet or a sequence of snippets. A snippet is source text
// (executed by the Runtime given with WithRuntime), a Snippet, a NamedFunc,
// func(), func() error, func(Binding) error, func(context.Context, Binding) error,
// or any other function, which is called with the positional values.
//
// Configuration errors are returned before anything runs. An error returned
// (or a panic raised) by a snippet aborts the whole run.
func Run(ctx context.Context, stmts any, opts ...Option) (*Result, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	p, err := newPlan(stmts, cfg)
	if err != nil {
		return nil, err
	}
	return p.execute(ctx)
}

func newPlan(v any, cfg *config) (*plan, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	stmts, multi, err := normalizeStmts(v, cfg.labeler)
	if err != nil {
		return nil, err
	}
	setup, err := normalizeSetup(cfg.setup, cfg.labeler)
	if err != nil {
		return nil, err
	}
	args, kws, err := normalizeInputs(cfg.args, cfg.vars)
	if err != nil {
		return nil, err
	}

	if err := setup.checkInputs(args); err != nil {
		return nil, err
	}
	needsRuntime := setup.isText
	for _, s := range stmts {
		if err := s.checkInputs(args, kws); err != nil {
			return nil, err
		}
		needsRuntime = needsRuntime || s.isText
	}
	if needsRuntime && cfg.runtime == nil {
		return nil, ErrNoRuntime
	}

	sp := space{args: args, kws: kws, nstmts: len(stmts), multi: multi}
	return &plan{
		cfg:    cfg,
		stmts:  stmts,
		space:  sp,
		setup:  setup,
		labels: newLabelFormat(cfg.labeler, sp, stmts),
	}, nil
}

func (p *plan) variables() Variables {
	vars := Variables{Stmts: make([]string, len(p.stmts))}
	for i, s := range p.stmts {
		vars.Stmts[i] = s.name
	}
	echo := func(in input) Variable {
		v := Variable{Name: in.name, Values: in.values, Swept: in.swept}
		for _, x := range in.values {
			v.Labels = append(v.Labels, p.cfg.labeler.Describe(x))
		}
		return v
	}
	for _, a := range p.space.args {
		vars.Args = append(vars.Args, echo(a))
	}
	for _, k := range p.space.kws {
		vars.Keywords = append(vars.Keywords, echo(k))
	}
	return vars
}

// startMemory takes the first snapshot. A missing status file disables
// sampling for the run; any other failure is returned.
func (p *plan) startMemory() (MemorySampler, error) {
	if !p.cfg.memory {
		return nil, nil
	}
	sampler := p.cfg.sampler
	if sampler == nil {
		sampler = procstat.NewReader(p.cfg.memoryKeys...).Read
	}
	snap, err := sampler()
	if err != nil {
		var pathErr *fs.PathError
		if errors.Is(err, fs.ErrNotExist) || errors.As(err, &pathErr) {
			p.cfg.logger.Warn("memory usage unavailable, sampling disabled", "error", err)
			return nil, nil
		}
		return nil, fmt.Errorf("sampling memory: %w", err)
	}
	p.metrics = metricOrder(snap, p.cfg.memoryKeys)
	return sampler, nil
}

// metricOrder lists the snapshot's metrics: configured keys first, in their
// order, then any others sorted by name.
func metricOrder(snap procstat.Snapshot, keys []string) []string {
	out := make([]string, 0, len(snap))
	for _, k := range keys {
		if _, ok := snap[k]; ok && !slices.Contains(out, k) {
			out = append(out, k)
		}
	}
	var rest []string
	for k := range snap {
		if !slices.Contains(out, k) {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func (p *plan) execute(ctx context.Context) (*Result, error) {
	sampler, err := p.startMemory()
	if err != nil {
		return nil, err
	}

	res := &Result{
		RunID:     uuid.New().String(),
		Variables: p.variables(),
		Setup:     p.setup.desc,
	}
	n := p.space.size()
	buf := newBuffers(n, p.metrics)
	tm := timer{floor: p.cfg.floor, maxLoop: p.cfg.maxLoop, repeat: p.cfg.repeat}
	log := p.cfg.logger.With("run_id", res.RunID)
	log.Debug("benchmark starting", "combinations", n, "shape", p.space.shape(), "memory", sampler != nil)

	for c := range p.space.combinations() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		label := p.labels.format(p.space, p.stmts, c)
		s, mem, err := p.runOne(ctx, tm, c, sampler)
		if err != nil {
			return nil, &SnippetError{Label: label, Err: err}
		}
		log.Debug("combination timed", "index", c.index, "label", label, "loops", s.loops, "repeats", s.repeats, "best", s.best)

		buf.record(c.index, label, s, mem)
		if p.cfg.verbose > Silent {
			fmt.Fprintln(p.cfg.out, formatLine(p.cfg.verbose, label, s, mem))
		}
	}

	if err := buf.assemble(res, p.space); err != nil {
		return nil, fmt.Errorf("assembling results: %w", err)
	}
	return res, nil
}

// runOne prepares, times and tears down a single combination.
func (p *plan) runOne(ctx context.Context, tm timer, c combination, sampler MemorySampler) (s sample, mem []metric, err error) {
	fn, closeFn, err := p.prepare(ctx, c)
	if err != nil {
		return sample{}, nil, err
	}
	defer func() {
		if closeFn != nil {
			if cerr := closeFn(); cerr != nil && err == nil {
				err = fmt.Errorf("closing program: %w", cerr)
			}
		}
	}()

	var before procstat.Snapshot
	var hook func() error
	if sampler != nil {
		hook = func() (err error) {
			before, err = sampler()
			return err
		}
	}
	if s, err = tm.measure(ctx, fn, hook); err != nil {
		return sample{}, nil, err
	}
	if sampler != nil {
		after, err := sampler()
		if err != nil {
			return sample{}, nil, fmt.Errorf("sampling memory: %w", err)
		}
		delta := after.Since(before)
		for _, name := range p.metrics {
			if v, ok := delta[name]; ok {
				mem = append(mem, metric{name: name, value: v})
			}
		}
	}
	return s, mem, nil
}

// prepare runs the setup of c and returns its timed closure plus an optional
// release function.
func (p *plan) prepare(ctx context.Context, c combination) (func(context.Context) error, func() error, error) {
	st := p.stmts[c.stmt]
	b := p.space.binding(c)
	vars := p.space.vars(c)

	if p.setup.executable() {
		if err := p.setup.run(ctx, b); err != nil {
			return nil, nil, fmt.Errorf("setup: %w", err)
		}
	}

	if !st.isText {
		if p.setup.isText {
			if err := runOnce(ctx, p.cfg.runtime, Source{Stmt: p.setup.text, Vars: vars}); err != nil {
				return nil, nil, fmt.Errorf("setup: %w", err)
			}
		}
		fn, err := st.bind(b)
		return fn, nil, err
	}

	src := Source{Stmt: st.text, Vars: vars}
	if p.setup.isText {
		src.Setup = p.setup.text
	}
	prog, err := p.cfg.runtime.Prepare(ctx, src)
	if err != nil {
		return nil, nil, err
	}
	return prog.Run, prog.Close, nil
}
