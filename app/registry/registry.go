// Package registry keeps the named collection of backup jobs. It owns the in-memory jobs map,
// persists it as a single document and keeps the enabled state of each job in sync with its
// scheduler unit. Every mutation follows the same order: map, then persistence, then scheduler.
// Failed persistence or scheduler calls restore the previous state of the map and the document.
//
// Registry is not thread safe, callers serialize access.
package registry

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/rbackup/app/job"
	"github.com/umputun/rbackup/app/store"
)

//go:generate moq -out mocks/store.go -pkg mocks -skip-ensure -fmt goimports . Store
//go:generate moq -out mocks/scheduler.go -pkg mocks -skip-ensure -fmt goimports . Scheduler

// Store loads and saves the jobs document. Save must replace the document atomically.
type Store interface {
	Load() (store.Document, error)
	Save(doc store.Document) error
}

// Scheduler manages per-job schedule units
type Scheduler interface {
	CreateUnit(ctx context.Context, j job.Job) error
	EnableUnit(ctx context.Context, name string) error
	DisableUnit(ctx context.Context, name string) error
	RemoveUnit(ctx context.Context, name string) error
	TriggerRun(ctx context.Context, name string) error
}

// Params for New
type Params struct {
	Store     Store
	Scheduler Scheduler
	Paths     store.Paths
}

// Registry manages backup jobs
type Registry struct {
	store Store
	sched Scheduler
	paths store.Paths
	jobs  map[string]job.Job
}

// New makes empty registry, call LoadJobs to populate it from the store
func New(p Params) *Registry {
	return &Registry{store: p.Store, sched: p.Scheduler, paths: p.Paths, jobs: map[string]job.Job{}}
}

// Paths returns paths the registry was made with
func (r *Registry) Paths() store.Paths {
	return r.paths
}

// LoadJobs replaces all jobs with the stored document. Missing document loads as empty.
// Nothing changed if any record fails to decode.
func (r *Registry) LoadJobs() error {
	doc, err := r.store.Load()
	if err != nil {
		if errors.Is(err, store.ErrMalformed) {
			return opError("load", "", ErrMalformedDocument, err)
		}
		return opError("load", "", ErrPersistence, err)
	}

	jobs := make(map[string]job.Job, len(doc))
	for key, raw := range doc {
		j, err := job.FromJSON(raw)
		if err != nil {
			return opError("load", key, ErrMalformedDocument, err)
		}
		if j.Name != key {
			return opError("load", key, ErrMalformedDocument, fmt.Errorf("record named %q", j.Name))
		}
		jobs[key] = j
	}
	r.jobs = jobs
	log.Printf("[INFO] loaded %d jobs", len(jobs))
	return nil
}

// SaveJobs writes all jobs to the store
func (r *Registry) SaveJobs() error {
	return r.persist("save", "")
}

// AddNewJob registers new job and saves all jobs. Existing job with the same name is not touched.
func (r *Registry) AddNewJob(j job.Job) error {
	if _, ok := r.jobs[j.Name]; ok {
		return opError("add", j.Name, ErrAlreadyExists, nil)
	}
	if err := j.Validate(); err != nil {
		return opError("add", j.Name, ErrInvalidJob, err)
	}

	r.jobs[j.Name] = j
	if err := r.persist("add", j.Name); err != nil {
		delete(r.jobs, j.Name)
		return err
	}
	log.Printf("[INFO] job %q added", j.Name)
	return nil
}

// UpdateJob replaces existing job and saves all jobs
func (r *Registry) UpdateJob(j job.Job) error {
	prev, ok := r.jobs[j.Name]
	if !ok {
		return opError("update", j.Name, ErrNotFound, nil)
	}
	if err := j.Validate(); err != nil {
		return opError("update", j.Name, ErrInvalidJob, err)
	}

	r.jobs[j.Name] = j
	if err := r.persist("update", j.Name); err != nil {
		r.jobs[j.Name] = prev
		return err
	}
	log.Printf("[INFO] job %q updated", j.Name)
	return nil
}

// DeleteJob removes scheduler unit of the job, then the job itself. Failed unit removal is logged
// and doesn't prevent the job deletion.
func (r *Registry) DeleteJob(ctx context.Context, name string) error {
	prev, ok := r.jobs[name]
	if !ok {
		return opError("delete", name, ErrNotFound, nil)
	}

	if err := r.sched.RemoveUnit(ctx, name); err != nil {
		log.Printf("[WARN] can't remove unit of %q, %v", name, err)
	}

	delete(r.jobs, name)
	if err := r.persist("delete", name); err != nil {
		r.jobs[name] = prev
		return err
	}
	log.Printf("[INFO] job %q deleted", name)
	return nil
}

// GetJob returns a copy of the job
func (r *Registry) GetJob(name string) (job.Job, error) {
	j, ok := r.jobs[name]
	if !ok {
		return job.Job{}, opError("get", name, ErrNotFound, nil)
	}
	return j, nil
}

// GetJobNames returns sorted names of all jobs
func (r *Registry) GetJobNames() []string {
	return slices.Sorted(maps.Keys(r.jobs))
}

// GetJobText returns indented json record of the job
func (r *Registry) GetJobText(name string) (string, error) {
	j, ok := r.jobs[name]
	if !ok {
		return "", opError("text", name, ErrNotFound, nil)
	}
	text, err := job.Text(j)
	if err != nil {
		return "", opError("text", name, ErrPersistence, err)
	}
	return text, nil
}

// EnableJob marks the job enabled, saves all jobs, creates the job unit if missing and enables it
func (r *Registry) EnableJob(ctx context.Context, name string) error {
	return r.setEnabled(ctx, "enable", name, true)
}

// DisableJob marks the job disabled, saves all jobs and disables the job unit
func (r *Registry) DisableJob(ctx context.Context, name string) error {
	return r.setEnabled(ctx, "disable", name, false)
}

// RunJob starts the job immediately regardless of its enabled state. The job unit created if missing.
func (r *Registry) RunJob(ctx context.Context, name string) error {
	j, ok := r.jobs[name]
	if !ok {
		return opError("run", name, ErrNotFound, nil)
	}
	if err := r.sched.CreateUnit(ctx, j); err != nil {
		return opError("run", name, ErrScheduler, err)
	}
	if err := r.sched.TriggerRun(ctx, name); err != nil {
		return opError("run", name, ErrScheduler, err)
	}
	log.Printf("[INFO] job %q started", name)
	return nil
}

// CreateSystemdObjects makes scheduler unit of the job, repeated calls don't change anything
func (r *Registry) CreateSystemdObjects(ctx context.Context, name string) error {
	j, ok := r.jobs[name]
	if !ok {
		return opError("create", name, ErrNotFound, nil)
	}
	if err := r.sched.CreateUnit(ctx, j); err != nil {
		return opError("create", name, ErrScheduler, err)
	}
	return nil
}

func (r *Registry) setEnabled(ctx context.Context, op, name string, enabled bool) error {
	prev, ok := r.jobs[name]
	if !ok {
		return opError(op, name, ErrNotFound, nil)
	}

	upd := prev
	upd.Enabled = enabled
	r.jobs[name] = upd
	if err := r.persist(op, name); err != nil {
		r.jobs[name] = prev
		return err
	}

	if err := r.syncUnit(ctx, upd); err != nil {
		r.jobs[name] = prev
		if e := r.persist(op, name); e != nil {
			log.Printf("[WARN] can't restore saved state of %q, %v", name, e)
		}
		return opError(op, name, ErrScheduler, err)
	}
	log.Printf("[INFO] job %q %sd", name, op)
	return nil
}

// syncUnit makes scheduler unit state match the enabled flag of the job
func (r *Registry) syncUnit(ctx context.Context, j job.Job) error {
	if !j.Enabled {
		return r.sched.DisableUnit(ctx, j.Name)
	}
	if err := r.sched.CreateUnit(ctx, j); err != nil {
		return err
	}
	return r.sched.EnableUnit(ctx, j.Name)
}

// persist saves all jobs, op and name used for error reporting
func (r *Registry) persist(op, name string) error {
	doc := make(store.Document, len(r.jobs))
	for n, j := range r.jobs {
		raw, err := job.ToJSON(j)
		if err != nil {
			return opError(op, name, ErrPersistence, err)
		}
		doc[n] = raw
	}
	if err := r.store.Save(doc); err != nil {
		return opError(op, name, ErrPersistence, err)
	}
	return nil
}
