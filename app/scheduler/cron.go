package scheduler

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/syncs"
	"github.com/robfig/cron/v3"

	"github.com/umputun/rbackup/app/job"
)

// CronEngine defines subset of robfig/cron used by the Cron scheduler
type CronEngine interface {
	Start()
	Stop() context.Context
	Entries() []cron.Entry
	Schedule(schedule cron.Schedule, cmd cron.Job) cron.EntryID
	Remove(id cron.EntryID)
}

// CronParams defines Cron settings, Executor is required
type CronParams struct {
	Engine      CronEngine    // robfig/cron instance by default
	Executor    Executor      // runs the job
	Notifier    Notifier      // optional, notified on completed and failed runs
	Concurrency int           // max number of jobs running at the same time
	RunTimeout  time.Duration // max duration of a single run
	MaxLogLines int           // number of output lines attached to the failure notification
	HostName    string
	Resumer     *Resumer // optional, interrupted runs restarted on Start
}

// Cron schedules jobs in process. Each enabled unit has one cron entry, runs executed in a bounded group
// and the same job never runs twice at the same time.
type Cron struct {
	CronParams
	group *syncs.SizedGroup
	dedup *DeDup

	lock  sync.Mutex
	units map[string]*cronUnit
}

type cronUnit struct {
	job     job.Job
	entry   cron.EntryID
	enabled bool
}

// NewCron makes Cron with defaults for optional params
func NewCron(p CronParams) *Cron {
	if p.Engine == nil {
		p.Engine = cron.New()
	}
	if p.Concurrency <= 0 {
		p.Concurrency = 4
	}
	if p.RunTimeout <= 0 {
		p.RunTimeout = 24 * time.Hour
	}
	return &Cron{
		CronParams: p,
		group:      syncs.NewSizedGroup(p.Concurrency),
		dedup:      NewDeDup(),
		units:      map[string]*cronUnit{},
	}
}

// Start activates cron engine and restarts runs interrupted by the previous process
func (c *Cron) Start() {
	c.resume()
	c.Engine.Start()
	log.Printf("[INFO] cron scheduler started, concurrency %d", c.Concurrency)
}

// Stop deactivates cron engine and waits for all active runs
func (c *Cron) Stop() {
	<-c.Engine.Stop().Done()
	c.group.Wait()
	log.Printf("[INFO] cron scheduler stopped")
}

// CreateUnit registers the job, enabled unit rescheduled to the job's current time and days
func (c *Cron) CreateUnit(_ context.Context, j job.Job) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	u, ok := c.units[j.Name]
	if !ok {
		c.units[j.Name] = &cronUnit{job: j}
		log.Printf("[DEBUG] cron unit for %q created", j.Name)
		return nil
	}
	u.job = j
	if u.enabled {
		return c.schedule(u)
	}
	return nil
}

// EnableUnit adds cron entry for the job
func (c *Cron) EnableUnit(_ context.Context, name string) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	u, ok := c.units[name]
	if !ok {
		return fmt.Errorf("can't enable %q: %w", name, ErrNoUnit)
	}
	if err := c.schedule(u); err != nil {
		return err
	}
	u.enabled = true
	return nil
}

// DisableUnit removes cron entry of the job, no-op for unknown unit
func (c *Cron) DisableUnit(_ context.Context, name string) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	u, ok := c.units[name]
	if !ok {
		return nil
	}
	c.unschedule(u)
	u.enabled = false
	return nil
}

// RemoveUnit removes cron entry and the unit, no-op for unknown unit
func (c *Cron) RemoveUnit(_ context.Context, name string) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	u, ok := c.units[name]
	if !ok {
		return nil
	}
	c.unschedule(u)
	delete(c.units, name)
	return nil
}

// TriggerRun starts the job in background, doesn't wait for completion
func (c *Cron) TriggerRun(_ context.Context, name string) error {
	c.lock.Lock()
	u, ok := c.units[name]
	c.lock.Unlock()
	if !ok {
		return fmt.Errorf("can't run %q: %w", name, ErrNoUnit)
	}
	c.dispatch(u.job)
	return nil
}

// Next returns next scheduled run of the job, false if the job has no cron entry
func (c *Cron) Next(name string) (time.Time, bool) {
	c.lock.Lock()
	u, ok := c.units[name]
	var id cron.EntryID
	if ok {
		id = u.entry
	}
	c.lock.Unlock()
	if id == 0 {
		return time.Time{}, false
	}
	for _, e := range c.Engine.Entries() {
		if e.ID == id {
			return e.Next, true
		}
	}
	return time.Time{}, false
}

// Units returns sorted names of all units
func (c *Cron) Units() []string {
	c.lock.Lock()
	defer c.lock.Unlock()
	return slices.Sorted(maps.Keys(c.units))
}

// Wait blocks until all dispatched runs are completed
func (c *Cron) Wait() {
	c.group.Wait()
}

func (c *Cron) String() string {
	return "cron"
}

// schedule replaces cron entry of the unit, must be called under lock.
// Unit left without entry if its job can't be scheduled.
func (c *Cron) schedule(u *cronUnit) error {
	spec, err := CronSpec(u.job)
	if err != nil {
		c.unschedule(u)
		return err
	}
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		c.unschedule(u)
		return fmt.Errorf("can't parse schedule %q for %q: %w", spec, u.job.Name, err)
	}
	c.unschedule(u)
	j := u.job
	u.entry = c.Engine.Schedule(sched, cron.FuncJob(func() { c.dispatch(j) }))
	log.Printf("[INFO] %q scheduled with %q", j.Name, spec)
	return nil
}

// unschedule removes cron entry of the unit, must be called under lock
func (c *Cron) unschedule(u *cronUnit) {
	if u.entry == 0 {
		return
	}
	c.Engine.Remove(u.entry)
	u.entry = 0
}

func (c *Cron) dispatch(j job.Job) {
	c.group.Go(func(ctx context.Context) {
		if err := c.run(ctx, j); err != nil {
			log.Printf("[WARN] %v", err)
		}
	})
}

// resume dispatches jobs with markers of interrupted runs, markers of unknown jobs dropped
func (c *Cron) resume() {
	if c.Resumer == nil {
		return
	}
	for _, entry := range c.Resumer.List() {
		if err := c.Resumer.OnFinish(entry.Fname); err != nil {
			log.Printf("[WARN] %v", err)
		}
		c.lock.Lock()
		u, ok := c.units[entry.Name]
		c.lock.Unlock()
		if !ok {
			log.Printf("[WARN] interrupted run of unknown job %q not resumed", entry.Name)
			continue
		}
		log.Printf("[INFO] resume interrupted run of %q", entry.Name)
		c.dispatch(u.job)
	}
}

// errAlreadyRunning returned by run for a job with active run
var errAlreadyRunning = errors.New("already running")

func (c *Cron) run(ctx context.Context, j job.Job) error {
	if !c.dedup.Add(j.Name) {
		return fmt.Errorf("skip %q: %w", j.Name, errAlreadyRunning)
	}
	defer c.dedup.Remove(j.Name)

	if c.Resumer != nil {
		fname, err := c.Resumer.OnStart(j.Name)
		if err != nil {
			log.Printf("[WARN] %v", err)
		} else {
			defer func() {
				if e := c.Resumer.OnFinish(fname); e != nil {
					log.Printf("[WARN] %v", e)
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.RunTimeout)
	defer cancel()

	st := time.Now()
	out := newTailWriter(c.MaxLogLines)
	log.Printf("[INFO] run %q", j.Name)
	err := c.Executor.Execute(ctx, j.Name, out)
	errLog := ""
	if err != nil {
		errLog = err.Error()
		if tail := out.String(); tail != "" {
			errLog += "\n\n" + tail
		}
		log.Printf("[ERROR] %q failed after %v, %v", j.Name, time.Since(st).Truncate(time.Millisecond), err)
	} else {
		log.Printf("[INFO] %q completed in %v", j.Name, time.Since(st).Truncate(time.Millisecond))
	}

	if e := c.notify(ctx, j, errLog); e != nil {
		log.Printf("[WARN] can't send notification for %q, %v", j.Name, e)
	}
	if err != nil {
		return fmt.Errorf("run %q: %w", j.Name, err)
	}
	return nil
}

func (c *Cron) notify(ctx context.Context, j job.Job, errLog string) error {
	if c.Notifier == nil || reflect.ValueOf(c.Notifier).IsNil() {
		return nil
	}
	sched, _ := CronSpec(j)

	if errLog != "" && c.Notifier.IsOnError() {
		msg, err := c.Notifier.MakeErrorHTML(sched, j.Name, errLog)
		if err != nil {
			return fmt.Errorf("can't make html email: %w", err)
		}
		if err := c.Notifier.Send(ctx, fmt.Sprintf("backup %q failed on %s", j.Name, c.HostName), msg); err != nil {
			return fmt.Errorf("failed to send error notification: %w", err)
		}
		return nil
	}

	if errLog == "" && c.Notifier.IsOnCompletion() {
		msg, err := c.Notifier.MakeCompletionHTML(sched, j.Name)
		if err != nil {
			return fmt.Errorf("can't make html email: %w", err)
		}
		if err := c.Notifier.Send(ctx, fmt.Sprintf("backup %q completed on %s", j.Name, c.HostName), msg); err != nil {
			return fmt.Errorf("failed to send completion notification: %w", err)
		}
	}
	return nil
}

// CronSpec returns standard 5-field cron spec for the job, i.e. "30 2 * * 1,3,5"
func CronSpec(j job.Job) (string, error) {
	hour, minute, err := j.Clock()
	if err != nil {
		return "", err
	}
	days := j.Days.Weekdays()
	if len(days) == 0 {
		return "", fmt.Errorf("no days scheduled for %q", j.Name)
	}
	dow := make([]string, 0, len(days))
	for _, d := range days {
		dow = append(dow, strconv.Itoa(int(d)))
	}
	return fmt.Sprintf("%d %d * * %s", minute, hour, strings.Join(dow, ",")), nil
}
