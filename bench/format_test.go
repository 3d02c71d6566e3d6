package bench

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScaleSeconds(t *testing.T) {
	tests := []struct {
		sec  float64
		want float64
		unit string
	}{
		{5e-9, 5, "ns"},
		{2.5e-6, 2.5, "us"},
		{0.0125, 12.5, "ms"},
		{3, 3, "s"},
	}
	for _, tt := range tests {
		v, unit := scaleSeconds(tt.sec)
		assert.InDelta(t, tt.want, v, 1e-9)
		assert.Equal(t, tt.unit, unit)
	}
}

func TestFormatLine(t *testing.T) {
	s := sample{best: 25 * time.Millisecond, loops: 10, repeats: 3}

	assert.Equal(t, "n=1   2.50 ms", formatLine(Brief, "n=1", s, nil))
	assert.Equal(t, "n=1: 10 loops, best of 3:   2.50 ms per loop", formatLine(Detailed, "n=1", s, nil))
	assert.Equal(t, "10 loops, best of 3:   2.50 ms per loop", formatLine(Detailed, "", s, nil))

	mem := []metric{{"VmRSS", 1.5}, {"VmSize", 0}}
	assert.Equal(t, "n=1   2.50 ms. VmRSS:1.5MiB, VmSize:0MiB", formatLine(Brief, "n=1", s, mem))
}
