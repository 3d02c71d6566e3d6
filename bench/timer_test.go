package bench

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(context.Context) error { return nil }

func TestMeasureCapsLoopsAtMaxLoop(t *testing.T) {
	tm := timer{floor: time.Hour, maxLoop: 100, repeat: 3}
	s, err := tm.measure(context.Background(), noop, nil)
	require.NoError(t, err)

	assert.Equal(t, 100, s.loops)
	assert.Equal(t, 3, s.repeats)
	assert.Greater(t, s.best, time.Duration(0))
}

func TestMeasureMaxLoopBetweenPowers(t *testing.T) {
	tm := timer{floor: time.Hour, maxLoop: 50, repeat: 2}
	s, err := tm.measure(context.Background(), noop, nil)
	require.NoError(t, err)

	assert.Equal(t, 50, s.loops)
	assert.Equal(t, 2, s.repeats)
}

func TestMeasureSlowSnippetRunsOnce(t *testing.T) {
	var calls int
	slow := func(context.Context) error {
		calls++
		time.Sleep(2 * time.Millisecond)
		return nil
	}
	tm := timer{floor: time.Millisecond, maxLoop: 100, repeat: 3}
	s, err := tm.measure(context.Background(), slow, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, s.loops)
	assert.Equal(t, 3, s.repeats)
	// the calibration run counts as the first repeat
	assert.Equal(t, 3, calls)
	assert.GreaterOrEqual(t, s.best, 2*time.Millisecond)
}

func TestMeasureCountsCalls(t *testing.T) {
	var calls int
	fn := func(context.Context) error { calls++; return nil }
	tm := timer{floor: time.Hour, maxLoop: 10, repeat: 2}
	_, err := tm.measure(context.Background(), fn, nil)
	require.NoError(t, err)

	// calibration 1 + 10, then 2 repeats of 10
	assert.Equal(t, 1+10+2*10, calls)
}

func TestMeasureHookRunsBeforeRepeats(t *testing.T) {
	var calls, atHook int
	fn := func(context.Context) error { calls++; return nil }
	hook := func() error { atHook = calls; return nil }

	tm := timer{floor: time.Hour, maxLoop: 1, repeat: 3}
	_, err := tm.measure(context.Background(), fn, hook)
	require.NoError(t, err)
	assert.Equal(t, 1, atHook)
	assert.Equal(t, 3, calls)
}

func TestMeasureErrors(t *testing.T) {
	boom := errors.New("boom")
	tm := timer{floor: time.Hour, maxLoop: 10, repeat: 3}

	_, err := tm.measure(context.Background(), func(context.Context) error { return boom }, nil)
	assert.ErrorIs(t, err, boom)

	hookErr := errors.New("hook")
	_, err = tm.measure(context.Background(), noop, func() error { return hookErr })
	assert.ErrorIs(t, err, hookErr)
}

func TestSamplePerLoop(t *testing.T) {
	s := sample{best: 2 * time.Second, loops: 4}
	assert.InDelta(t, 0.5, s.perLoop(), 1e-12)
}

func TestPow10(t *testing.T) {
	assert.Equal(t, 1, pow10(0))
	assert.Equal(t, 1000, pow10(3))
	assert.Equal(t, 1_000_000_000, pow10(9))
}
