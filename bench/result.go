package bench

import (
	"github.com/p-arndt/benchtab/tensor"
)

// Variable echoes one normalised input declaration.
type Variable struct {
	Name   string   `json:"name"`
	Values []any    `json:"-"`
	Labels []string `json:"values"`
	Swept  bool     `json:"swept"`
}

// Variables echoes the declarations a Result was produced from.
type Variables struct {
	Stmts    []string   `json:"stmts"`
	Args     []Variable `json:"args,omitempty"`
	Keywords []Variable `json:"keywords,omitempty"`
}

// Result holds one benchmark run. Every tensor has Shape: swept positional
// inputs in declaration order, swept keyword inputs in name order, then the
// snippet axis when a sequence of snippets was given.
type Result struct {
	RunID     string                             `json:"run_id"`
	Variables Variables                          `json:"variables"`
	Setup     string                             `json:"setup"`
	Shape     []int                              `json:"shape"`
	Info      *tensor.Tensor[string]             `json:"info"`
	Time      *tensor.Tensor[float64]            `json:"time"`
	Loops     *tensor.Tensor[int]                `json:"loops"`
	Repeats   *tensor.Tensor[int]                `json:"repeats"`
	Memory    map[string]*tensor.Tensor[float64] `json:"memory,omitempty"`
}

// Table returns the result as a flat mapping: "variables", "setup", "info",
// "time" and one key per memory metric (MiB).
func (r *Result) Table() map[string]any {
	t := map[string]any{
		"variables": r.Variables,
		"setup":     r.Setup,
		"info":      r.Info,
		"time":      r.Time,
	}
	for k, v := range r.Memory {
		t[k] = v
	}
	return t
}

// buffers accumulate results in enumeration order.
type buffers struct {
	info    []string
	time    []float64
	loops   []int
	repeats []int
	memory  map[string][]float64
}

func newBuffers(n int, metrics []string) *buffers {
	b := &buffers{
		info:    make([]string, n),
		time:    make([]float64, n),
		loops:   make([]int, n),
		repeats: make([]int, n),
	}
	if metrics != nil {
		b.memory = make(map[string][]float64, len(metrics))
		for _, m := range metrics {
			b.memory[m] = make([]float64, n)
		}
	}
	return b
}

func (b *buffers) record(i int, label string, s sample, mem []metric) {
	b.info[i] = label
	b.time[i] = s.perLoop()
	b.loops[i] = s.loops
	b.repeats[i] = s.repeats
	for _, m := range mem {
		b.memory[m.name][i] = m.value
	}
}

// arrange reshapes a flat enumeration-order buffer and transposes it into
// declaration order.
func arrange[T any](flat []T, sp space) (*tensor.Tensor[T], error) {
	t, err := tensor.FromSlice(flat, len(flat))
	if err != nil {
		return nil, err
	}
	if t, err = t.Reshape(sp.enumShape()...); err != nil {
		return nil, err
	}
	return t.Transpose(sp.perm()...)
}

func (b *buffers) assemble(r *Result, sp space) error {
	var err error
	if r.Info, err = arrange(b.info, sp); err != nil {
		return err
	}
	if r.Time, err = arrange(b.time, sp); err != nil {
		return err
	}
	if r.Loops, err = arrange(b.loops, sp); err != nil {
		return err
	}
	if r.Repeats, err = arrange(b.repeats, sp); err != nil {
		return err
	}
	if b.memory != nil {
		r.Memory = make(map[string]*tensor.Tensor[float64], len(b.memory))
		for k, flat := range b.memory {
			if r.Memory[k], err = arrange(flat, sp); err != nil {
				return err
			}
		}
	}
	r.Shape = sp.shape()
	return nil
}
