// Package procstat samples process memory counters from the Linux
// /proc/<pid>/status pseudo-file.
package procstat

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/docker/go-units"
)

// ErrMalformed indicates a status file whose requested field cannot be parsed.
var ErrMalformed = errors.New("procstat: malformed status data")

// DefaultKeys are the resident, data and virtual memory sizes.
var DefaultKeys = []string{"VmRSS", "VmData", "VmSize"}

// Snapshot maps a status field name to its value in MiB.
type Snapshot map[string]float64

// StatusPath returns the status pseudo-file of the process pid.
func StatusPath(pid int) string {
	return fmt.Sprintf("/proc/%d/status", pid)
}

// Reader reads selected fields from a status file.
type Reader struct {
	Path string
	Keys []string
}

// NewReader returns a Reader for the current process. With no keys, DefaultKeys are used.
func NewReader(keys ...string) *Reader {
	if len(keys) == 0 {
		keys = DefaultKeys
	}
	return &Reader{Path: StatusPath(os.Getpid()), Keys: keys}
}

// Read returns the current values. An unreadable file is reported with the
// underlying *fs.PathError so callers can detect platforms without /proc.
func (r *Reader) Read() (Snapshot, error) {
	data, err := os.ReadFile(r.Path)
	if err != nil {
		return nil, err
	}
	return Parse(string(data), r.Keys)
}

// Parse extracts keys from status text. Every key must be present as
// "<key>: <value> <unit>" with a unit understood by go-units (kB, mB, ...).
func Parse(status string, keys []string) (Snapshot, error) {
	lines := strings.Split(status, "\n")
	out := make(Snapshot, len(keys))
	for _, key := range keys {
		v, err := parseField(lines, key)
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, nil
}

func parseField(lines []string, key string) (float64, error) {
	prefix := key + ":"
	for _, ln := range lines {
		if !strings.HasPrefix(ln, prefix) {
			continue
		}
		fields := strings.Fields(ln[len(prefix):])
		if len(fields) < 2 {
			return 0, fmt.Errorf("%w: field %s: %q", ErrMalformed, key, ln)
		}
		b, err := units.RAMInBytes(fields[0] + fields[1])
		if err != nil {
			return 0, fmt.Errorf("%w: field %s: %v", ErrMalformed, key, err)
		}
		return float64(b) / units.MiB, nil
	}
	return 0, fmt.Errorf("%w: field %s not found", ErrMalformed, key)
}

// Since returns the difference s - prev for metrics present in both snapshots.
func (s Snapshot) Since(prev Snapshot) Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		if p, ok := prev[k]; ok {
			out[k] = v - p
		}
	}
	return out
}
