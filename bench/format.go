package bench

import (
	"fmt"
	"strings"
)

// scaleSeconds picks a display unit for a per-loop time.
func scaleSeconds(sec float64) (float64, string) {
	usec := sec * 1e6
	switch {
	case usec < 1:
		return usec * 1000, "ns"
	case usec < 1000:
		return usec, "us"
	case usec < 1e6:
		return usec / 1000, "ms"
	}
	return usec / 1e6, "s"
}

type metric struct {
	name  string
	value float64
}

// formatLine renders the verbose line of one combination.
func formatLine(v Verbosity, label string, s sample, mem []metric) string {
	value, unit := scaleSeconds(s.perLoop())

	var b strings.Builder
	if v == Brief {
		fmt.Fprintf(&b, "%s %6.2f %s", label, value, unit)
	} else {
		sep := ""
		if label != "" {
			sep = ": "
		}
		fmt.Fprintf(&b, "%s%s%d loops, best of %d: %6.2f %s per loop", label, sep, s.loops, s.repeats, value, unit)
	}
	if len(mem) > 0 {
		b.WriteString(". ")
		for i, m := range mem {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s:%gMiB", m.name, m.value)
		}
	}
	return b.String()
}
