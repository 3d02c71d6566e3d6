package bench

import "iter"

// combination is one selection of a value per input plus one snippet.
// Positions are relative to the declared inputs (keywords in sorted order).
type combination struct {
	index  int
	argIdx []int
	kwIdx  []int
	stmt   int
}

// space describes the Cartesian product being enumerated.
//
// Enumeration order: positional inputs in declaration order (first slowest),
// then keyword inputs in reverse sorted order (last name slowest, first name
// fastest), then snippets (fastest). The flat result buffers are filled in
// this order, reshaped with enumShape and transposed with perm so that the
// result axes follow declaration order.
type space struct {
	args   []input
	kws    []input
	nstmts int
	multi  bool
}

// dims returns the odometer dimensions in enumeration order.
func (s space) dims() []int {
	dims := make([]int, 0, len(s.args)+len(s.kws)+1)
	for _, a := range s.args {
		dims = append(dims, len(a.values))
	}
	for j := len(s.kws) - 1; j >= 0; j-- {
		dims = append(dims, len(s.kws[j].values))
	}
	return append(dims, s.nstmts)
}

// size is the number of combinations.
func (s space) size() int {
	n := 1
	for _, d := range s.dims() {
		n *= d
	}
	return n
}

// axis identifies a result axis by input kind and position.
type axis struct {
	kind byte // 'a' positional, 'k' keyword, 's' snippet
	pos  int
}

func (s space) enumAxes() []axis {
	var axes []axis
	for i, a := range s.args {
		if a.swept {
			axes = append(axes, axis{'a', i})
		}
	}
	for j := len(s.kws) - 1; j >= 0; j-- {
		if s.kws[j].swept {
			axes = append(axes, axis{'k', j})
		}
	}
	if s.multi {
		axes = append(axes, axis{'s', 0})
	}
	return axes
}

func (s space) declaredAxes() []axis {
	var axes []axis
	for i, a := range s.args {
		if a.swept {
			axes = append(axes, axis{'a', i})
		}
	}
	for j, k := range s.kws {
		if k.swept {
			axes = append(axes, axis{'k', j})
		}
	}
	if s.multi {
		axes = append(axes, axis{'s', 0})
	}
	return axes
}

func (s space) axisLen(a axis) int {
	switch a.kind {
	case 'a':
		return len(s.args[a.pos].values)
	case 'k':
		return len(s.kws[a.pos].values)
	}
	return s.nstmts
}

// enumShape is the shape of the flat buffers in enumeration order. Fixed
// inputs have length one and are left out.
func (s space) enumShape() []int {
	axes := s.enumAxes()
	shape := make([]int, len(axes))
	for i, a := range axes {
		shape[i] = s.axisLen(a)
	}
	return shape
}

// shape is the result shape in declaration order.
func (s space) shape() []int {
	axes := s.declaredAxes()
	shape := make([]int, len(axes))
	for i, a := range axes {
		shape[i] = s.axisLen(a)
	}
	return shape
}

// perm maps result axes to enumeration axes for tensor.Transpose.
func (s space) perm() []int {
	enum := s.enumAxes()
	pos := make(map[axis]int, len(enum))
	for i, a := range enum {
		pos[a] = i
	}
	decl := s.declaredAxes()
	perm := make([]int, len(decl))
	for i, a := range decl {
		perm[i] = pos[a]
	}
	return perm
}

// combinations yields every combination once, in enumeration order.
func (s space) combinations() iter.Seq[combination] {
	return func(yield func(combination) bool) {
		dims := s.dims()
		for _, d := range dims {
			if d == 0 {
				return
			}
		}
		nargs, nkws := len(s.args), len(s.kws)
		idx := make([]int, len(dims))
		for n := 0; ; n++ {
			c := combination{
				index:  n,
				argIdx: make([]int, nargs),
				kwIdx:  make([]int, nkws),
				stmt:   idx[len(idx)-1],
			}
			copy(c.argIdx, idx[:nargs])
			for j := range nkws {
				c.kwIdx[j] = idx[nargs+nkws-1-j]
			}
			if !yield(c) {
				return
			}

			axis := len(idx) - 1
			for ; axis >= 0; axis-- {
				idx[axis]++
				if idx[axis] < dims[axis] {
					break
				}
				idx[axis] = 0
			}
			if axis < 0 {
				return
			}
		}
	}
}

// binding materialises the values selected by c.
func (s space) binding(c combination) Binding {
	b := Binding{
		Args:   make([]any, len(s.args)),
		Kwargs: make(map[string]any, len(s.kws)),
	}
	for i, a := range s.args {
		b.Args[i] = a.values[c.argIdx[i]]
	}
	for j, k := range s.kws {
		b.Kwargs[k.name] = k.values[c.kwIdx[j]]
	}
	return b
}

// vars returns the keyword values of c in sorted name order.
func (s space) vars(c combination) []Var {
	out := make([]Var, len(s.kws))
	for j, k := range s.kws {
		out[j] = Var{Name: k.name, Value: k.values[c.kwIdx[j]]}
	}
	return out
}
