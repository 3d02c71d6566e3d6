// Package bench times code over the Cartesian product of its inputs.
//
// A run takes one snippet or a sequence of snippets plus any number of
// positional and keyword inputs. Inputs given as a slice, array, Range or
// iterator are swept; anything else (or a value wrapped with Fixed) is passed
// unchanged to every combination. Each combination is calibrated to a loop
// count, timed repeat times and reduced to its best per-loop time:
//
//	res, err := bench.Run(ctx, sort.Ints,
//		bench.WithArgs(bench.Sweep(small, large)),
//		bench.WithVerbose(bench.Detailed))
//
// Results are tensors whose axes follow the declared swept inputs, then the
// snippet axis when several snippets were given. Text snippets need a
// Runtime; see the shell, sqlite and dockerexec packages.
package bench
