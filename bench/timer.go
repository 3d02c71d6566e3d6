package bench

import (
	"context"
	"runtime"
	"slices"
	"time"
)

// maxCalibrationSteps bounds the loop count search to 10^0 .. 10^9.
const maxCalibrationSteps = 10

// sample is the timing of one combination.
type sample struct {
	best    time.Duration
	loops   int
	repeats int
}

// perLoop returns the best time per loop in seconds.
func (s sample) perLoop() float64 {
	return s.best.Seconds() / float64(s.loops)
}

// timer picks a loop count for one combination and reduces the repeated
// timings to their minimum. Interference only ever adds time, so the minimum
// is the best estimate of the cost.
type timer struct {
	floor   time.Duration
	maxLoop int
	repeat  int
}

// timeit runs fn number times and returns the elapsed wall time. The first
// error aborts the measurement.
func timeit(ctx context.Context, fn func(context.Context) error, number int) (time.Duration, error) {
	start := time.Now()
	for range number {
		if err := fn(ctx); err != nil {
			return 0, err
		}
	}
	return time.Since(start), nil
}

// measure times fn. beforeRepeats runs after calibration and the forced
// collection, right before the timed repeats.
func (t timer) measure(ctx context.Context, fn func(context.Context) error, beforeRepeats func() error) (sample, error) {
	var (
		number  int
		elapsed time.Duration
		err     error
	)
	for i := range maxCalibrationSteps {
		number = pow10(i)
		if number > t.maxLoop {
			break
		}
		if elapsed, err = timeit(ctx, fn, number); err != nil {
			return sample{}, err
		}
		if elapsed >= t.floor {
			break
		}
	}
	number = min(number, t.maxLoop)

	runtime.GC()
	if beforeRepeats != nil {
		if err := beforeRepeats(); err != nil {
			return sample{}, err
		}
	}

	var samples []time.Duration
	if number == 1 {
		// The single-loop calibration run is kept as the first repeat. A slow
		// snippet gets fewer repeats so the total stays near repeat seconds.
		remaining := t.repeat - 1
		if elapsed > time.Second {
			remaining = int(float64(t.repeat) / elapsed.Seconds())
		}
		samples = append(samples, elapsed)
		for range remaining {
			d, err := timeit(ctx, fn, 1)
			if err != nil {
				return sample{}, err
			}
			samples = append(samples, d)
		}
	} else {
		for range t.repeat {
			d, err := timeit(ctx, fn, number)
			if err != nil {
				return sample{}, err
			}
			samples = append(samples, d)
		}
	}

	return sample{best: slices.Min(samples), loops: number, repeats: len(samples)}, nil
}

func pow10(i int) int {
	n := 1
	for range i {
		n *= 10
	}
	return n
}
