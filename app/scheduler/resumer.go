package scheduler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	log "github.com/go-pkgz/lgr"
)

const resumeExt = ".rbackup"

// Resumer keeps a marker file per active run. Markers left by runs interrupted with the process
// listed on the next start, so the runs could be restarted.
type Resumer struct {
	location string
	maxAge   time.Duration
	seq      uint64
}

// ResumeEntry is a marker of interrupted run
type ResumeEntry struct {
	Name  string // job name
	Fname string // marker file
}

// NewResumer makes Resumer keeping markers in location. Markers older than maxAge ignored and removed.
func NewResumer(location string, maxAge time.Duration) *Resumer {
	if err := os.MkdirAll(location, 0o700); err != nil {
		log.Printf("[WARN] can't make %s, %v", location, err)
	}
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}
	return &Resumer{location: location, maxAge: maxAge}
}

// OnStart makes marker file for started run of the job
func (r *Resumer) OnStart(name string) (string, error) {
	seq := atomic.AddUint64(&r.seq, 1)
	fname := filepath.Join(r.location, fmt.Sprintf("%d-%d%s", time.Now().UnixNano(), seq, resumeExt))
	log.Printf("[DEBUG] create resume marker %s for %q", fname, name)
	if err := os.WriteFile(fname, []byte(name), 0o600); err != nil {
		return "", fmt.Errorf("can't make resume marker for %q: %w", name, err)
	}
	return fname, nil
}

// OnFinish removes marker file
func (r *Resumer) OnFinish(fname string) error {
	log.Printf("[DEBUG] delete resume marker %s", fname)
	if err := os.Remove(fname); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("can't delete resume marker: %w", err)
	}
	return nil
}

// List returns markers of interrupted runs, old markers removed
func (r *Resumer) List() []ResumeEntry {
	entries, err := os.ReadDir(r.location)
	if err != nil {
		log.Printf("[WARN] can't get resume list for %s, %v", r.location, err)
		return []ResumeEntry{}
	}

	res := []ResumeEntry{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), resumeExt) {
			continue
		}
		fname := filepath.Join(r.location, entry.Name())
		info, err := entry.Info()
		if err != nil {
			log.Printf("[WARN] can't get resume info for %s, %v", fname, err)
			continue
		}
		if time.Since(info.ModTime()) > r.maxAge {
			log.Printf("[DEBUG] resume marker %s too old", fname)
			if err := os.Remove(fname); err != nil {
				log.Printf("[WARN] can't delete %s, %v", fname, err)
			}
			continue
		}
		data, err := os.ReadFile(fname) //nolint:gosec // file from resume location
		if err != nil {
			log.Printf("[WARN] failed to read resume marker %s, %v", fname, err)
			continue
		}
		res = append(res, ResumeEntry{Name: strings.TrimSpace(string(data)), Fname: fname})
	}
	return res
}

func (r *Resumer) String() string {
	return "resumer:" + r.location
}
