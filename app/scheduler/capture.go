package scheduler

import (
	"bytes"
	"strings"
	"sync"
)

// tailWriter keeps last lines written to it, used to attach run output to failure notifications
type tailWriter struct {
	max   int
	lines []string
	mu    sync.Mutex
}

func newTailWriter(maxLines int) *tailWriter {
	return &tailWriter{max: maxLines}
}

// Write implements io.Writer, empty lines skipped
func (w *tailWriter) Write(p []byte) (int, error) {
	if w.max <= 0 {
		return len(p), nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	for line := range bytes.SplitSeq(p, []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		if len(w.lines) >= w.max {
			w.lines = w.lines[1:]
		}
		w.lines = append(w.lines, string(line))
	}
	return len(p), nil
}

func (w *tailWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return strings.Join(w.lines, "\n")
}
