package bench

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSpace(t *testing.T, args []any, vars map[string]any, nstmts int, multi bool) space {
	t.Helper()
	pos, kws, err := normalizeInputs(args, vars)
	require.NoError(t, err)
	return space{args: pos, kws: kws, nstmts: nstmts, multi: multi}
}

func TestCombinationOrder(t *testing.T) {
	sp := testSpace(t,
		[]any{[]int{1, 2}},
		map[string]any{"a": []string{"x", "y"}, "b": []string{"p", "q"}},
		2, true)

	var got []string
	for c := range sp.combinations() {
		b := sp.binding(c)
		got = append(got, fmt.Sprintf("%v%v%v%d", b.Args[0], b.Kwargs["a"], b.Kwargs["b"], c.stmt))
	}

	// positional slowest, then keywords with the last name slower than the
	// first, snippets fastest
	want := []string{
		"1xp0", "1xp1", "1yp0", "1yp1", "1xq0", "1xq1", "1yq0", "1yq1",
		"2xp0", "2xp1", "2yp0", "2yp1", "2xq0", "2xq1", "2yq0", "2yq1",
	}
	assert.Equal(t, want, got)
	assert.Equal(t, 16, sp.size())
}

func TestCombinationIndexIsSequential(t *testing.T) {
	sp := testSpace(t, []any{[]int{1, 2, 3}}, map[string]any{"k": []int{4, 5}}, 1, false)
	i := 0
	for c := range sp.combinations() {
		assert.Equal(t, i, c.index)
		i++
	}
	assert.Equal(t, 6, i)
}

func TestCombinationStopsEarly(t *testing.T) {
	sp := testSpace(t, []any{[]int{1, 2, 3}}, nil, 1, false)
	n := 0
	for range sp.combinations() {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestShapeSkipsFixedInputs(t *testing.T) {
	sp := testSpace(t,
		[]any{[]int{1, 2, 3}, "fixed"},
		map[string]any{"b": []int{1, 2}, "a": 7, "c": []int{1, 2, 3, 4}},
		2, true)

	assert.Equal(t, []int{3, 2, 4, 2}, sp.shape())
	assert.Equal(t, []int{3, 4, 2, 2}, sp.enumShape())
	assert.Equal(t, []int{0, 2, 1, 3}, sp.perm())
}

func TestShapeScalar(t *testing.T) {
	sp := testSpace(t, []any{1}, map[string]any{"k": "v"}, 1, false)
	assert.Empty(t, sp.shape())
	assert.Equal(t, 1, sp.size())

	var n int
	for c := range sp.combinations() {
		b := sp.binding(c)
		assert.Equal(t, []any{1}, b.Args)
		assert.Equal(t, map[string]any{"k": "v"}, b.Kwargs)
		n++
	}
	assert.Equal(t, 1, n)
}

func TestArrangeFollowsDeclarationOrder(t *testing.T) {
	sp := testSpace(t,
		nil,
		map[string]any{"a": []int{0, 1}, "b": []int{0, 1, 2}},
		1, false)

	flat := make([]string, sp.size())
	for c := range sp.combinations() {
		b := sp.binding(c)
		flat[c.index] = fmt.Sprintf("a%v b%v", b.Kwargs["a"], b.Kwargs["b"])
	}
	got, err := arrange(flat, sp)
	require.NoError(t, err)

	assert.Equal(t, []int{2, 3}, got.Shape())
	for a := range 2 {
		for b := range 3 {
			assert.Equal(t, fmt.Sprintf("a%d b%d", a, b), got.MustAt(a, b))
		}
	}
}

func TestVarsSortedByName(t *testing.T) {
	sp := testSpace(t, nil, map[string]any{"z": 1, "a": []int{2, 3}}, 1, false)
	var all [][]Var
	for c := range sp.combinations() {
		all = append(all, sp.vars(c))
	}
	assert.Equal(t, [][]Var{
		{{Name: "a", Value: 2}, {Name: "z", Value: 1}},
		{{Name: "a", Value: 3}, {Name: "z", Value: 1}},
	}, all)
}
