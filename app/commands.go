package main

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/rbackup/app/config"
	"github.com/umputun/rbackup/app/job"
	"github.com/umputun/rbackup/app/scheduler"
	"github.com/umputun/rbackup/app/store"
	"github.com/umputun/rbackup/app/web"
)

// envSetter implemented by commands working with the registry
type envSetter interface {
	setEnv(env *runtimeEnv)
}

type envCmd struct {
	env *runtimeEnv
}

func (c *envCmd) setEnv(env *runtimeEnv) { c.env = env }

type nameArg struct {
	Args struct {
		Name string `positional-arg-name:"name" required:"yes" description:"job name"`
	} `positional-args:"yes" required:"yes"`
}

type listCmd struct {
	envCmd
}

// Execute prints one line per job: name, state, days and time
func (c *listCmd) Execute(_ []string) error {
	for _, name := range c.env.registry.GetJobNames() {
		j, err := c.env.registry.GetJob(name)
		if err != nil {
			return err
		}
		state := "disabled"
		if j.Enabled {
			state = "enabled"
		}
		days := j.Days.String()
		if days == "" {
			days = "-"
		}
		t := j.Time
		if t == "" {
			t = job.DefaultTime
		}
		fmt.Fprintf(c.env.out, "%-24s %-8s %-28s %s\n", name, state, days, t)
	}
	return nil
}

type showCmd struct {
	envCmd
	nameArg
}

// Execute prints json record of the job
func (c *showCmd) Execute(_ []string) error {
	text, err := c.env.registry.GetJobText(c.Args.Name)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.env.out, text)
	return nil
}

// jobFlags defines all fields of a job set from the command line
type jobFlags struct {
	Source      string `long:"source" required:"yes" description:"backup source"`
	Destination string `long:"dest" required:"yes" description:"backup destination"`
	Time        string `long:"time" description:"daily start time, HH:MM"`
	Days        string `long:"days" description:"comma-separated days, i.e. mon,wed,fri or all"`
	Compress    bool   `long:"compress" description:"compress data during transfer"`
	Incremental bool   `long:"incremental" description:"incremental backup"`
	Recursive   bool   `long:"recursive" description:"recurse into directories"`
	FollowLinks bool   `long:"follow-links" description:"follow symlinks"`
	Delete      bool   `long:"delete" description:"delete extraneous files from destination"`
	Compression string `long:"compression" description:"compression algorithm, gzip or zstd"`
	Enable      bool   `long:"enable" description:"enable job schedule after saving"`
}

func (f jobFlags) job(name string) (job.Job, error) {
	days, err := job.ParseDays(f.Days)
	if err != nil {
		return job.Job{}, err
	}
	compression, err := job.ParseCompression(f.Compression)
	if err != nil {
		return job.Job{}, err
	}
	return job.Job{
		Name:        name,
		Source:      f.Source,
		Destination: f.Destination,
		Time:        f.Time,
		Days:        days,
		Flags: job.Flags{
			Compress:         f.Compress,
			Incremental:      f.Incremental,
			Recursive:        f.Recursive,
			FollowLinks:      f.FollowLinks,
			DeleteExtraneous: f.Delete,
			Compression:      compression,
		},
	}, nil
}

type addCmd struct {
	envCmd
	nameArg
	jobFlags
}

// Execute adds new job, optionally enabling it
func (c *addCmd) Execute(_ []string) error {
	j, err := c.job(c.Args.Name)
	if err != nil {
		return err
	}
	if err := c.env.registry.AddNewJob(j); err != nil {
		return err
	}
	if c.Enable {
		if err := c.env.registry.EnableJob(context.Background(), j.Name); err != nil {
			return err
		}
	}
	fmt.Fprintf(c.env.out, "job %q added\n", j.Name)
	return nil
}

type updateCmd struct {
	envCmd
	nameArg
	jobFlags
}

// Execute replaces the job keeping its enabled state. Units of enabled job refreshed.
func (c *updateCmd) Execute(_ []string) error {
	prev, err := c.env.registry.GetJob(c.Args.Name)
	if err != nil {
		return err
	}
	j, err := c.job(c.Args.Name)
	if err != nil {
		return err
	}
	j.Enabled = prev.Enabled
	if err := c.env.registry.UpdateJob(j); err != nil {
		return err
	}
	if j.Enabled || c.Enable {
		if err := c.env.registry.EnableJob(context.Background(), j.Name); err != nil {
			return err
		}
	}
	fmt.Fprintf(c.env.out, "job %q updated\n", j.Name)
	return nil
}

type deleteCmd struct {
	envCmd
	nameArg
}

// Execute deletes the job
func (c *deleteCmd) Execute(_ []string) error {
	if err := c.env.registry.DeleteJob(context.Background(), c.Args.Name); err != nil {
		return err
	}
	fmt.Fprintf(c.env.out, "job %q deleted\n", c.Args.Name)
	return nil
}

type enableCmd struct {
	envCmd
	nameArg
}

// Execute enables the job
func (c *enableCmd) Execute(_ []string) error {
	if err := c.env.registry.EnableJob(context.Background(), c.Args.Name); err != nil {
		return err
	}
	fmt.Fprintf(c.env.out, "job %q enabled\n", c.Args.Name)
	return nil
}

type disableCmd struct {
	envCmd
	nameArg
}

// Execute disables the job
func (c *disableCmd) Execute(_ []string) error {
	if err := c.env.registry.DisableJob(context.Background(), c.Args.Name); err != nil {
		return err
	}
	fmt.Fprintf(c.env.out, "job %q disabled\n", c.Args.Name)
	return nil
}

type runCmd struct {
	envCmd
	nameArg
}

// Execute starts the job. In-process scheduler waits for the run to complete.
func (c *runCmd) Execute(_ []string) error {
	if err := c.env.registry.RunJob(context.Background(), c.Args.Name); err != nil {
		return err
	}
	if c.env.cron != nil {
		c.env.cron.Wait()
		fmt.Fprintf(c.env.out, "job %q completed\n", c.Args.Name)
		return nil
	}
	fmt.Fprintf(c.env.out, "job %q started\n", c.Args.Name)
	return nil
}

type unitsCmd struct {
	envCmd
	nameArg
}

// Execute creates units of the job and prints where they are
func (c *unitsCmd) Execute(_ []string) error {
	name := c.Args.Name
	if err := c.env.registry.CreateSystemdObjects(context.Background(), name); err != nil {
		return err
	}
	j, err := c.env.registry.GetJob(name)
	if err != nil {
		return err
	}

	switch s := c.env.sched.(type) {
	case *scheduler.Systemd:
		service, timer := s.UnitFiles(name)
		fmt.Fprintln(c.env.out, service)
		fmt.Fprintln(c.env.out, timer)
		if cal, err := scheduler.OnCalendar(j); err == nil && cal != "" {
			fmt.Fprintf(c.env.out, "OnCalendar=%s\n", cal)
		}
	default:
		spec, err := scheduler.CronSpec(j)
		if err != nil {
			spec = "-"
		}
		fmt.Fprintf(c.env.out, "%s unit %q, schedule %s\n", s, name, spec)
	}
	return nil
}

type schemaCmd struct{}

// Execute prints json schema of the jobs document
func (c *schemaCmd) Execute(_ []string) error {
	data, err := job.Schema()
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

type serverCmd struct {
	envCmd
	Listen string        `long:"listen" env:"RBACKUP_LISTEN" description:"listen address, overrides settings"`
	Passwd string        `long:"passwd" env:"RBACKUP_PASSWD" description:"bcrypt hash of api password, overrides settings"`
	Watch  time.Duration `long:"watch" env:"RBACKUP_WATCH" default:"10s" description:"jobs file check interval, 0 to disable"`
}

// Execute runs api server until SIGTERM. In-process scheduler started with all enabled jobs,
// changes of the jobs file made outside of the server reloaded.
func (c *serverCmd) Execute(_ []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	signals(cancel)
	return c.run(ctx)
}

func (c *serverCmd) run(ctx context.Context) error {
	srv, err := web.New(web.Config{
		Registry:     c.env.registry,
		PasswordHash: c.passwordHash(),
		Version:      revision,
		RateLimit:    c.env.settings.Web.RateLimit,
	})
	if err != nil {
		return err
	}

	if c.env.cron != nil {
		if err := srv.Do(syncCron(ctx, c.env.cron)); err != nil {
			log.Printf("[WARN] some jobs not scheduled, %v", err)
		}
		c.env.cron.Start()
		defer c.env.cron.Stop()
	}

	if c.Watch > 0 && c.env.settings.Store == config.StoreJSON {
		go c.watch(ctx, srv)
	}

	addr := c.Listen
	if addr == "" {
		addr = c.env.settings.Web.Address
	}
	return srv.Run(ctx, addr)
}

func (c *serverCmd) passwordHash() string {
	if c.Passwd != "" {
		return c.Passwd
	}
	return c.env.settings.Web.Password
}

// watch reloads jobs on each change of the jobs file until ctx done
func (c *serverCmd) watch(ctx context.Context, srv *web.Server) {
	path := c.env.paths.ConfigPath
	for range store.NewWatcher(path, c.Watch).Changes(ctx) {
		if err := srv.Reload(); err != nil {
			log.Printf("[WARN] jobs not reloaded from %s, %v", path, err)
			continue
		}
		log.Printf("[INFO] jobs reloaded from %s", path)
		if c.env.cron == nil {
			continue
		}
		if err := srv.Do(syncCron(ctx, c.env.cron)); err != nil {
			log.Printf("[WARN] some jobs not rescheduled, %v", err)
		}
	}
}

// syncCron makes cron units match registry jobs: units created for all jobs, enabled for enabled jobs
// and removed for jobs not in registry anymore.
func syncCron(ctx context.Context, c *scheduler.Cron) func(r web.Registry) error {
	return func(r web.Registry) error {
		names := r.GetJobNames()
		var errs []error
		for _, name := range names {
			j, err := r.GetJob(name)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if err := c.CreateUnit(ctx, j); err != nil {
				errs = append(errs, err)
				continue
			}
			if j.Enabled {
				err = c.EnableUnit(ctx, name)
			} else {
				err = c.DisableUnit(ctx, name)
			}
			if err != nil {
				errs = append(errs, err)
			}
		}
		for _, name := range c.Units() {
			if slices.Contains(names, name) {
				continue
			}
			if err := c.RemoveUnit(ctx, name); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
}
