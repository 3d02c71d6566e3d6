package bench

import (
	"fmt"
	"reflect"
	"regexp"
	"runtime"
	"strings"
	"unicode/utf8"
)

// maxLabelRunes is the length after which a value's text is cut.
const maxLabelRunes = 15

// Describer returns a short label for v, or false to defer to the next one.
type Describer func(v any) (string, bool)

// Labeler turns input values into short labels. Registered overrides are
// consulted in order before the built-in strategies.
type Labeler struct {
	overrides []Describer
}

// NewLabeler returns a Labeler with only the built-in strategies.
func NewLabeler(overrides ...Describer) *Labeler {
	return &Labeler{overrides: overrides}
}

// With returns a copy of l that consults d first.
func (l *Labeler) With(d Describer) *Labeler {
	overrides := make([]Describer, 0, len(l.overrides)+1)
	overrides = append(overrides, d)
	overrides = append(overrides, l.overrides...)
	return &Labeler{overrides: overrides}
}

// Describe returns the label of v.
func (l *Labeler) Describe(v any) string {
	for _, d := range l.overrides {
		if s, ok := d(v); ok {
			return s
		}
	}
	for _, d := range builtinDescribers {
		if s, ok := d(v); ok {
			return s
		}
	}
	if s, ok := v.(string); ok {
		return truncate(fmt.Sprintf("%q", s))
	}
	return truncate(fmt.Sprintf("%v", v))
}

var builtinDescribers = []Describer{
	describeType,
	describeNamed,
	describeFunc,
	describeDocumented,
}

type named interface{ Name() string }

// nilPointer reports whether v is a typed nil pointer. Methods on such values
// are not called.
func nilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

func describeNamed(v any) (string, bool) {
	if n, ok := v.(named); ok && !nilPointer(v) {
		return n.Name(), true
	}
	return "", false
}

func describeFunc(v any) (string, bool) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Func || rv.IsNil() {
		return "", false
	}
	fn := runtime.FuncForPC(rv.Pointer())
	if fn == nil {
		return "func", true
	}
	return shortFuncName(fn.Name()), true
}

// shortFuncName strips the import path and package from a symbol name:
// "github.com/x/y.(*T).Run-fm" becomes "(*T).Run".
func shortFuncName(full string) string {
	name := full
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.Index(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, "-fm")
}

func describeType(v any) (string, bool) {
	if t, ok := v.(reflect.Type); ok {
		return t.String(), true
	}
	return "", false
}

// Documented is implemented by wrapped native routines whose documentation
// starts with their call signature, e.g. "y = dgemv(alpha, a, x)".
type Documented interface {
	Doc() string
}

var signatureRegex = regexp.MustCompile(`(?i)^([a-z0-9,_ ]+ = )?([a-z0-9_]+)\(`)

func describeDocumented(v any) (string, bool) {
	d, ok := v.(Documented)
	if !ok || nilPointer(v) {
		return "", false
	}
	if m := signatureRegex.FindStringSubmatch(d.Doc()); m != nil {
		return m[2], true
	}
	return reflect.TypeOf(v).String(), true
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) <= maxLabelRunes {
		return s
	}
	return string([]rune(s)[:maxLabelRunes]) + "..."
}
