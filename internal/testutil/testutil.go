package testutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/p-arndt/benchtab/bench"
)

// Logger returns a logger that only reports errors.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// FastOptions returns benchmark options that time every combination with a
// single loop and a single repeat.
func FastOptions(out io.Writer) []bench.Option {
	return []bench.Option{
		bench.WithCalibrationFloor(time.Millisecond),
		bench.WithRepeat(1),
		bench.WithMaxLoop(1),
		bench.WithOutput(out),
		bench.WithLogger(Logger()),
	}
}

// RequireShell skips t on systems without a POSIX shell.
func RequireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("no POSIX shell")
	}
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available")
	}
}

// WriteFile writes content to name inside a fresh temp dir and returns the path.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}
