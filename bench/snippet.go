package bench

import (
	"context"
	"errors"
	"fmt"
	"reflect"
)

// Binding carries the values of one combination to an executable snippet.
type Binding struct {
	Args   []any
	Kwargs map[string]any
}

// Snippet is an executable unit with its own label.
type Snippet interface {
	Name() string
	Call(ctx context.Context, b Binding) error
}

// NamedFunc labels an executable. Func accepts the same forms as Run.
type NamedFunc struct {
	Name string
	Func any
}

// Var is one keyword value bound into a text snippet.
type Var struct {
	Name  string
	Value any
}

// Source is the text handed to a Runtime for one combination.
type Source struct {
	Stmt  string
	Setup string
	Vars  []Var
}

// Lookup returns the value bound to name.
func (s Source) Lookup(name string) (any, bool) {
	for _, v := range s.Vars {
		if v.Name == name {
			return v.Value, true
		}
	}
	return nil, false
}

// Runtime compiles source text bound to a set of keyword values into a
// Program. Prepare runs once per combination, before timing; its Setup text
// (if any) must have been executed when Prepare returns.
type Runtime interface {
	Name() string
	Prepare(ctx context.Context, src Source) (Program, error)
}

// Program is the timed unit of a text snippet.
type Program interface {
	Run(ctx context.Context) error
	Close() error
}

// callFunc is the normalised form of every executable snippet.
type callFunc func(ctx context.Context, b Binding) error

// stmt is a normalised snippet.
type stmt struct {
	name   string
	text   string
	isText bool
	// keywords reports whether call consumes Binding.Kwargs.
	keywords bool
	call     callFunc
	// fn is set for plain Go functions called with positional values.
	fn reflect.Value
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// normalizeStmts accepts one snippet or a sequence of snippets. multi reports
// whether a sequence was given, which adds the snippet axis to the result.
func normalizeStmts(v any, lb *Labeler) (stmts []stmt, multi bool, err error) {
	if s, ok, err := normalizeStmt(v, lb); err != nil {
		return nil, false, err
	} else if ok {
		return []stmt{s}, false, nil
	}

	rv := reflect.ValueOf(v)
	if v == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) || rv.Len() == 0 {
		return nil, false, fmt.Errorf("%w: %T", ErrInvalidSnippet, v)
	}
	stmts = make([]stmt, rv.Len())
	for i := range stmts {
		elem := rv.Index(i).Interface()
		s, ok, err := normalizeStmt(elem, lb)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, fmt.Errorf("%w: element %d is %T", ErrInvalidSnippet, i, elem)
		}
		stmts[i] = s
	}
	return stmts, true, nil
}

// normalizeStmt handles a single snippet. ok is false when v is not a
// snippet (it may still be a sequence of snippets).
func normalizeStmt(v any, lb *Labeler) (stmt, bool, error) {
	switch s := v.(type) {
	case nil:
		return stmt{}, false, nil
	case string:
		return stmt{name: truncate(s), text: s, isText: true}, true, nil
	case Snippet:
		return stmt{name: s.Name(), call: s.Call, keywords: true}, true, nil
	case NamedFunc:
		inner, ok, err := normalizeStmt(s.Func, lb)
		if err != nil {
			return stmt{}, false, err
		}
		if !ok || inner.isText {
			return stmt{}, false, fmt.Errorf("%w: NamedFunc %q wraps %T", ErrInvalidSnippet, s.Name, s.Func)
		}
		inner.name = s.Name
		return inner, true, nil
	}

	call, keywords, ok := asCallFunc(v)
	if ok {
		return stmt{name: lb.Describe(v), call: call, keywords: keywords}, true, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Func && !rv.IsNil() {
		return stmt{name: lb.Describe(v), fn: rv}, true, nil
	}
	return stmt{}, false, nil
}

// asCallFunc recognises the executable signatures that need no reflection.
// keywords is true for signatures that receive a Binding.
func asCallFunc(v any) (call callFunc, keywords, ok bool) {
	switch f := v.(type) {
	case func():
		return func(context.Context, Binding) error { f(); return nil }, false, true
	case func() error:
		return func(context.Context, Binding) error { return f() }, false, true
	case func(Binding) error:
		return func(_ context.Context, b Binding) error { return f(b) }, true, true
	case func(context.Context, Binding) error:
		return f, true, true
	case callFunc:
		return f, true, true
	}
	return nil, false, false
}

// checkInputs rejects signatures that cannot receive the declared inputs.
func (s stmt) checkInputs(args, kws []input) error {
	if s.isText {
		if len(args) > 0 {
			return ErrPositionalText
		}
		return nil
	}
	if s.keywords {
		return nil
	}
	if len(kws) > 0 {
		return fmt.Errorf("%w: %s takes no keyword values; use func(bench.Binding) error", ErrArgumentMismatch, s.name)
	}
	return s.checkArgs(args)
}

// checkArgs checks the positional values against the snippet's parameters.
func (s stmt) checkArgs(args []input) error {
	if !s.fn.IsValid() {
		if len(args) > 0 {
			return fmt.Errorf("%w: %s takes no arguments, %d declared", ErrArgumentMismatch, s.name, len(args))
		}
		return nil
	}

	ft := s.fn.Type()
	if ft.IsVariadic() {
		if len(args) < ft.NumIn()-1 {
			return fmt.Errorf("%w: %s needs at least %d arguments, %d declared", ErrArgumentMismatch, s.name, ft.NumIn()-1, len(args))
		}
	} else if len(args) != ft.NumIn() {
		return fmt.Errorf("%w: %s needs %d arguments, %d declared", ErrArgumentMismatch, s.name, ft.NumIn(), len(args))
	}
	for i, in := range args {
		pt := paramType(ft, i)
		for _, v := range in.values {
			if _, err := convertArg(v, pt); err != nil {
				return fmt.Errorf("%w: %s argument %d: %v", ErrArgumentMismatch, s.name, i, err)
			}
		}
	}
	return nil
}

func paramType(ft reflect.Type, i int) reflect.Type {
	if ft.IsVariadic() && i >= ft.NumIn()-1 {
		return ft.In(ft.NumIn() - 1).Elem()
	}
	return ft.In(i)
}

func convertArg(v any, pt reflect.Type) (reflect.Value, error) {
	if v == nil {
		switch pt.Kind() {
		case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
			return reflect.Zero(pt), nil
		}
		return reflect.Value{}, fmt.Errorf("nil is not a valid %s", pt)
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(pt) {
		return rv, nil
	}
	// int -> string is a legal Go conversion but never what a caller means
	if pt.Kind() == reflect.String && rv.Kind() != reflect.String {
		return reflect.Value{}, fmt.Errorf("%T is not a %s", v, pt)
	}
	if rv.Type().ConvertibleTo(pt) {
		return rv.Convert(pt), nil
	}
	return reflect.Value{}, fmt.Errorf("%T is not a %s", v, pt)
}

// bind returns the timed closure of an executable snippet for one binding.
func (s stmt) bind(b Binding) (func(context.Context) error, error) {
	if s.call != nil {
		call := s.call
		return func(ctx context.Context) error { return call(ctx, b) }, nil
	}

	ft := s.fn.Type()
	in := make([]reflect.Value, len(b.Args))
	for i, a := range b.Args {
		v, err := convertArg(a, paramType(ft, i))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrArgumentMismatch, err)
		}
		in[i] = v
	}
	fn := s.fn
	returnsErr := ft.NumOut() > 0 && ft.Out(ft.NumOut()-1) == errorType
	return func(context.Context) error {
		out := fn.Call(in)
		if returnsErr {
			if err, _ := out[len(out)-1].Interface().(error); err != nil {
				return err
			}
		}
		return nil
	}, nil
}

// setupStep is the normalised setup of a run. An executable setup is either
// a call form or a plain function given the positional values.
type setupStep struct {
	text   string
	isText bool
	call   callFunc
	fn     reflect.Value
	desc   string
}

func (s setupStep) executable() bool {
	return s.call != nil || s.fn.IsValid()
}

// checkInputs rejects a plain function setup that cannot take the positional
// values. Keyword values are not passed to it.
func (s setupStep) checkInputs(args []input) error {
	if !s.fn.IsValid() {
		return nil
	}
	if err := (stmt{name: "setup " + s.desc, fn: s.fn}).checkArgs(args); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSetup, err)
	}
	return nil
}

func (s setupStep) run(ctx context.Context, b Binding) error {
	if s.call != nil {
		return s.call(ctx, b)
	}
	fn, err := stmt{name: s.desc, fn: s.fn}.bind(b)
	if err != nil {
		return err
	}
	return fn(ctx)
}

func normalizeSetup(v any, lb *Labeler) (setupStep, error) {
	switch s := v.(type) {
	case nil:
		return setupStep{desc: "pass"}, nil
	case string:
		return setupStep{text: s, isText: true, desc: s}, nil
	}
	if call, _, ok := asCallFunc(v); ok {
		return setupStep{call: call, desc: lb.Describe(v)}, nil
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Func && !rv.IsNil() {
		return setupStep{fn: rv, desc: lb.Describe(v)}, nil
	}
	return setupStep{}, fmt.Errorf("%w: %T", ErrInvalidSetup, v)
}

// runOnce executes text through rt outside of any timing.
func runOnce(ctx context.Context, rt Runtime, src Source) (err error) {
	prog, err := rt.Prepare(ctx, src)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, prog.Close())
	}()
	return prog.Run(ctx)
}
