package scheduler

import (
	"sync"
	"time"
)

// DeDup is a thread safe set of active job runs, prevents starting the same job twice
type DeDup struct {
	active map[string]time.Time
	lock   sync.Mutex
}

// NewDeDup makes empty DeDup
func NewDeDup() *DeDup {
	return &DeDup{active: make(map[string]time.Time)}
}

// Add registers the run, returns false if job already running
func (d *DeDup) Add(name string) bool {
	d.lock.Lock()
	defer d.lock.Unlock()
	if _, found := d.active[name]; found {
		return false
	}
	d.active[name] = time.Now()
	return true
}

// Remove unregisters the run. Safe to call multiple times
func (d *DeDup) Remove(name string) {
	d.lock.Lock()
	defer d.lock.Unlock()
	delete(d.active, name)
}

// Since returns start time of the active run
func (d *DeDup) Since(name string) (time.Time, bool) {
	d.lock.Lock()
	defer d.lock.Unlock()
	ts, ok := d.active[name]
	return ts, ok
}
