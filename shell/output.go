package shell

import (
	"regexp"
	"strings"
	"sync"
)

// maxOutputBytes bounds the output kept for error reports.
const maxOutputBytes = 4096

var ansiRegex = regexp.MustCompile("[\u001b\u009b][[\\]()#;?]*(?:(?:(?:[a-zA-Z\\d]*(?:;[a-zA-Z\\d]*)*)?\u0007)|(?:(?:\\d{1,4}(?:;\\d{0,4})*)?[\\dA-PRZcf-ntqry=><~]))")

// tailBuffer keeps the last cap bytes written to it. Output of a timed
// command is never inspected unless it fails.
type tailBuffer struct {
	mu   sync.Mutex
	data []byte
	cap  int
}

func newTailBuffer(cap int) *tailBuffer {
	return &tailBuffer{data: make([]byte, 0, cap), cap: cap}
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = append(b.data, p...)
	if len(b.data) > b.cap {
		b.data = b.data[len(b.data)-b.cap:]
	}
	return len(p), nil
}

// String returns the kept output with terminal escapes and carriage returns
// removed.
func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := strings.ReplaceAll(string(b.data), "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "")
	return strings.TrimSpace(ansiRegex.ReplaceAllString(s, ""))
}

func (b *tailBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = b.data[:0]
}
