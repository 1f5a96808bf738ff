package store

import (
	"context"
	"errors"
	"os"
	"time"

	log "github.com/go-pkgz/lgr"
)

// Watcher reports modifications of the jobs document made outside of the process
type Watcher struct {
	path     string
	interval time.Duration
}

// NewWatcher makes Watcher checking path every interval
func NewWatcher(path string, interval time.Duration) *Watcher {
	return &Watcher{path: path, interval: interval}
}

// Changes returns channel getting a value each time document modification time changed.
// Changes younger than half of the interval postponed to the next check, so partial writes skipped.
// Missing document is not an error, its creation reported as a change. Channel closed on ctx done.
func (w *Watcher) Changes(ctx context.Context) <-chan struct{} {
	ch := make(chan struct{})
	lastMtime := w.mtime()

	go func() {
		defer close(ch)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m := w.mtime()
				if m.Equal(lastMtime) || time.Since(m) < w.interval/2 {
					continue
				}
				lastMtime = m
				log.Printf("[DEBUG] %s changed", w.path)
				select {
				case ch <- struct{}{}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch
}

// mtime returns document modification time, zero time for missing document
func (w *Watcher) mtime() time.Time {
	st, err := os.Stat(w.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("[WARN] can't get info about %s, %v", w.path, err)
		}
		return time.Time{}
	}
	return st.ModTime()
}
