package bench

import (
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type namedThing struct{}

func (namedThing) Name() string { return "thing" }

type ptrNamed struct{ s string }

func (n *ptrNamed) Name() string { return n.s }

type ptrDocumented struct{ doc string }

func (d *ptrDocumented) Doc() string { return d.doc }

type dgemv struct{}

func (dgemv) Doc() string { return "y = dgemv(alpha, a, x[, beta, y])\n\nMatrix-vector product." }

type undocumented struct{}

func (undocumented) Doc() string { return "no signature here" }

func sampleFunc() {}

func TestDescribe(t *testing.T) {
	lb := NewLabeler()
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"int", 42, "42"},
		{"float", 0.5, "0.5"},
		{"string quoted", "abc", `"abc"`},
		{"long string", strings.Repeat("x", 20), `"` + strings.Repeat("x", 14) + "..."},
		{"long value", []int{1, 2, 3, 4, 5, 6, 7, 8, 9}, "[1 2 3 4 5 6 7 ..."},
		{"type", reflect.TypeOf(int64(0)), "int64"},
		{"named", namedThing{}, "thing"},
		{"func", sampleFunc, "sampleFunc"},
		{"documented", dgemv{}, "dgemv"},
		{"documented fallback", undocumented{}, "bench.undocumented"},
		{"named pointer", &ptrNamed{"a"}, "a"},
		{"nil named pointer", (*ptrNamed)(nil), "<nil>"},
		{"nil documented pointer", (*ptrDocumented)(nil), "<nil>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lb.Describe(tt.value))
		})
	}
}

func TestDescribeOverride(t *testing.T) {
	lb := NewLabeler().With(func(v any) (string, bool) {
		if n, ok := v.(int); ok && n > 1000 {
			return "big", true
		}
		return "", false
	})
	assert.Equal(t, "big", lb.Describe(5000))
	assert.Equal(t, "5", lb.Describe(5))
}

func TestShortFuncName(t *testing.T) {
	assert.Equal(t, "(*T).Run", shortFuncName("github.com/x/y.(*T).Run-fm"))
	assert.Equal(t, "Ints", shortFuncName("sort.Ints"))
	assert.Equal(t, "TestX.func1", shortFuncName("example.com/p.TestX.func1"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short"))
	assert.Equal(t, strings.Repeat("ä", 15)+"...", truncate(strings.Repeat("ä", 16)))
}
