package bench

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
)

// fixed marks a value that must not be swept even if it is a slice.
type fixed struct{ v any }

// Fixed wraps v so it is passed unchanged to every combination instead of
// being iterated, e.g. a []float64 input vector.
func Fixed(v any) any { return fixed{v} }

// Sweep groups values into one swept input.
func Sweep(values ...any) []any { return values }

// Range returns start, start+step, ... up to but excluding stop.
// A zero step yields no values.
func Range(start, stop, step int) []int {
	var out []int
	switch {
	case step > 0:
		for i := start; i < stop; i += step {
			out = append(out, i)
		}
	case step < 0:
		for i := start; i > stop; i += step {
			out = append(out, i)
		}
	}
	return out
}

// input is one normalised positional or keyword input. Fixed inputs hold a
// single value and never contribute a result axis.
type input struct {
	name   string
	values []any
	swept  bool
}

// classify turns a raw declaration into a uniform value sequence.
func classify(name string, v any) (input, error) {
	if f, ok := v.(fixed); ok {
		return input{name: name, values: []any{f.v}}, nil
	}
	if v == nil {
		return input{name: name, values: []any{nil}}, nil
	}
	if _, ok := v.([]byte); ok {
		return input{name: name, values: []any{v}}, nil
	}

	rv := reflect.ValueOf(v)
	var values []any
	switch {
	case rv.Kind() == reflect.Array && rv.Type().Elem().Kind() == reflect.Uint8:
		// [N]byte values (digests, uuid.UUID) are single values.
		return input{name: name, values: []any{v}}, nil
	case rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array:
		values = make([]any, rv.Len())
		for i := range values {
			values[i] = rv.Index(i).Interface()
		}
	case isIterator(rv.Type()):
		values = drain(rv)
	default:
		return input{name: name, values: []any{v}}, nil
	}
	if len(values) == 0 {
		return input{}, fmt.Errorf("%w: %s", ErrEmptySweep, name)
	}
	return input{name: name, values: values, swept: true}, nil
}

// isIterator reports whether t has the shape of an iter.Seq:
// func(yield func(V) bool).
func isIterator(t reflect.Type) bool {
	if t.Kind() != reflect.Func || t.NumIn() != 1 || t.NumOut() != 0 {
		return false
	}
	y := t.In(0)
	return y.Kind() == reflect.Func && y.NumIn() == 1 && y.NumOut() == 1 && y.Out(0).Kind() == reflect.Bool
}

func drain(seq reflect.Value) []any {
	yt := seq.Type().In(0)
	more := reflect.ValueOf(true).Convert(yt.Out(0))
	var out []any
	yield := reflect.MakeFunc(yt, func(args []reflect.Value) []reflect.Value {
		out = append(out, args[0].Interface())
		return []reflect.Value{more}
	})
	seq.Call([]reflect.Value{yield})
	return out
}

// normalizeInputs classifies positional values in declaration order and
// keyword values in lexicographic name order.
func normalizeInputs(args []any, vars map[string]any) ([]input, []input, error) {
	pos := make([]input, len(args))
	for i, a := range args {
		in, err := classify(fmt.Sprintf("arg%d", i), a)
		if err != nil {
			return nil, nil, err
		}
		pos[i] = in
	}

	names := slices.Sorted(maps.Keys(vars))
	kws := make([]input, len(names))
	for i, name := range names {
		in, err := classify(name, vars[name])
		if err != nil {
			return nil, nil, err
		}
		kws[i] = in
	}
	return pos, kws, nil
}
