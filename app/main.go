package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	log "github.com/go-pkgz/lgr"
	gonotify "github.com/go-pkgz/notify"
	"github.com/umputun/go-flags"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/umputun/rbackup/app/config"
	"github.com/umputun/rbackup/app/notify"
	"github.com/umputun/rbackup/app/registry"
	"github.com/umputun/rbackup/app/scheduler"
	"github.com/umputun/rbackup/app/store"
)

var opts struct {
	Config    string `short:"c" long:"config" env:"RBACKUP_CONFIG" description:"yaml settings file"`
	Jobs      string `short:"f" long:"jobs" env:"RBACKUP_JOBS" description:"jobs document location"`
	Backups   string `long:"backups" env:"RBACKUP_BACKUPS" description:"default backup output root"`
	UnitDir   string `long:"unit-dir" env:"RBACKUP_UNIT_DIR" description:"systemd user units directory"`
	Scheduler string `long:"scheduler" env:"RBACKUP_SCHEDULER" description:"scheduler, systemd, cron or memory"`
	Store     string `long:"store" env:"RBACKUP_STORE" description:"jobs store, json or sqlite"`
	Exec      string `long:"exec" env:"RBACKUP_EXEC" description:"command started for a job, job name appended"`
	Dry       bool   `long:"dry" env:"RBACKUP_DRY" description:"dry mode, units kept in memory only"`
	Dbg       bool   `long:"dbg" env:"RBACKUP_DEBUG" description:"debug mode"`

	Log struct {
		Enabled         bool   `long:"enabled" env:"ENABLED" description:"enable logging to file"`
		Filename        string `long:"filename" env:"FILENAME" default:"rbackup.log" description:"file to log to"`
		MaxSize         int    `long:"max-size" env:"MAX_SIZE" default:"100" description:"max size of log file in megabytes"`
		MaxBackups      int    `long:"max-backups" env:"MAX_BACKUPS" default:"7" description:"max number of old log files"`
		MaxAge          int    `long:"max-age" env:"MAX_AGE" default:"0" description:"max days to keep old log files"`
		EnabledCompress bool   `long:"enabled-compress" env:"ENABLED_COMPRESS" description:"compress rotated log files"`
	} `group:"log" namespace:"log" env-namespace:"RBACKUP_LOG"`

	Notify struct {
		EnabledError       bool          `long:"enabled-error" env:"ENABLED_ERROR" description:"enable email notifications on errors"`
		EnabledCompletion  bool          `long:"enabled-complete" env:"ENABLED_COMPLETE" description:"enable completion notifications"`
		SMTPHost           string        `long:"smtp-host" env:"SMTP_HOST" description:"SMTP host"`
		SMTPPort           int           `long:"smtp-port" env:"SMTP_PORT" description:"SMTP port"`
		SMTPUsername       string        `long:"smtp-username" env:"SMTP_USERNAME" description:"SMTP user name"`
		SMTPPassword       string        `long:"smtp-password" env:"SMTP_PASSWORD" description:"SMTP password"`
		SMTPTLS            bool          `long:"smtp-tls" env:"SMTP_TLS" description:"enable SMTP TLS"`
		SMTPStartTLS       bool          `long:"smtp-starttls" env:"SMTP_STARTTLS" description:"enable SMTP StartTLS"`
		SMTPTimeOut        time.Duration `long:"smtp-timeout" env:"SMTP_TIMEOUT" description:"SMTP TCP connection timeout"`
		FromEmail          string        `long:"from" env:"FROM" description:"SMTP from email"`
		ToEmails           []string      `long:"to" env:"TO" description:"SMTP to email(s)" env-delim:","`
		ErrorTemplate      string        `long:"err-template" env:"ERR_TEMPLATE" description:"html template file for failed runs"`
		CompletionTemplate string        `long:"complete-template" env:"COMPLETE_TEMPLATE" description:"html template file for completed runs"`
		HostName           string        `long:"host" env:"HOSTNAME" description:"host name running rbackup"`
	} `group:"notify" namespace:"notify" env-namespace:"RBACKUP_NOTIFY"`

	List    listCmd    `command:"list" description:"list all jobs"`
	Show    showCmd    `command:"show" description:"show job record"`
	Add     addCmd     `command:"add" description:"add new job"`
	Update  updateCmd  `command:"update" description:"replace existing job"`
	Delete  deleteCmd  `command:"delete" description:"delete job and its units"`
	Enable  enableCmd  `command:"enable" description:"enable job schedule"`
	Disable disableCmd `command:"disable" description:"disable job schedule"`
	Run     runCmd     `command:"run" description:"run job now"`
	Units   unitsCmd   `command:"units" description:"create scheduler units of the job"`
	Schema  schemaCmd  `command:"schema" description:"print json schema of the jobs document"`
	Server  serverCmd  `command:"server" description:"run api server"`
}

var revision = "unknown"

func main() {
	p := flags.NewParser(&opts, flags.Default)
	p.CommandHandler = func(cmd flags.Commander, args []string) error {
		setupLogs()
		log.Printf("[DEBUG] rbackup %s", revision)
		if es, ok := cmd.(envSetter); ok {
			env, err := makeEnv()
			if err != nil {
				if errors.Is(err, registry.ErrHomeDirectory) {
					log.Fatalf("[ERROR] %v", err)
				}
				return err
			}
			defer env.close()
			es.setEnv(env)
		}
		return cmd.Execute(args)
	}

	defer func() {
		if x := recover(); x != nil {
			log.Printf("[WARN] run time panic:\n%v", x)
			panic(x)
		}
	}()

	if _, err := p.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}

// runtimeEnv keeps everything commands need, made once per invocation
type runtimeEnv struct {
	settings config.Settings
	paths    store.Paths
	registry *registry.Registry
	sched    registry.Scheduler
	cron     *scheduler.Cron // set for in-process scheduler only
	closers  []io.Closer
	out      io.Writer
}

// makeEnv loads settings, makes store, scheduler and registry, then loads all jobs
func makeEnv() (*runtimeEnv, error) {
	settings, err := config.Load(opts.Config)
	if err != nil {
		return nil, err
	}
	mergeSettings(&settings)
	if err = settings.Validate(); err != nil {
		return nil, err
	}

	home, err := store.FindHomeDirectory()
	if err != nil {
		return nil, err
	}

	res := &runtimeEnv{settings: settings, paths: settings.Paths(home), out: os.Stdout}
	st, err := res.makeStore()
	if err != nil {
		return nil, err
	}
	res.sched = res.makeScheduler()
	res.registry = registry.New(registry.Params{Store: st, Scheduler: res.sched, Paths: res.paths})
	if err := res.registry.LoadJobs(); err != nil {
		res.close()
		return nil, err
	}
	log.Printf("[DEBUG] jobs %s, scheduler %v", st, res.sched)
	return res, nil
}

type namedStore interface {
	registry.Store
	fmt.Stringer
}

func (e *runtimeEnv) makeStore() (namedStore, error) {
	if e.settings.Store != config.StoreSQLite {
		return store.NewJSONFile(e.paths.ConfigPath), nil
	}
	dbPath := strings.TrimSuffix(e.paths.ConfigPath, filepath.Ext(e.paths.ConfigPath)) + ".db"
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("can't make directory for %s: %w", dbPath, err)
	}
	db, err := store.NewSQLite(dbPath)
	if err != nil {
		return nil, err
	}
	e.closers = append(e.closers, db)
	return db, nil
}

func (e *runtimeEnv) makeScheduler() registry.Scheduler {
	switch e.settings.Scheduler {
	case config.SchedulerMemory:
		return scheduler.NewMemory()
	case config.SchedulerCron:
		var resumer *scheduler.Resumer
		if e.settings.Cron.ResumeDir != "" {
			resumer = scheduler.NewResumer(e.settings.Cron.ResumeDir, 0)
		}
		e.cron = scheduler.NewCron(scheduler.CronParams{
			Executor:    scheduler.ShellExecutor{Command: e.settings.ExecCommand},
			Notifier:    makeNotifier(),
			Concurrency: e.settings.Cron.Concurrency,
			RunTimeout:  e.settings.Cron.RunTimeout,
			MaxLogLines: e.settings.Cron.MaxLogLines,
			HostName:    makeHostName(),
			Resumer:     resumer,
		})
		return e.cron
	default:
		return scheduler.NewSystemd(scheduler.SystemdParams{UnitDir: e.paths.UnitDir, ExecCommand: e.settings.ExecCommand})
	}
}

func (e *runtimeEnv) close() {
	for _, c := range e.closers {
		if err := c.Close(); err != nil {
			log.Printf("[WARN] can't close %v, %v", c, err)
		}
	}
	e.closers = nil
}

// mergeSettings applies command line and environment options over loaded settings.
// Notification options not set from the command line taken from settings.
func mergeSettings(s *config.Settings) {
	if opts.Jobs != "" {
		s.ConfigPath = opts.Jobs
	}
	if opts.Backups != "" {
		s.BackupPath = opts.Backups
	}
	if opts.UnitDir != "" {
		s.UnitDir = opts.UnitDir
	}
	if opts.Scheduler != "" {
		s.Scheduler = opts.Scheduler
	}
	if opts.Store != "" {
		s.Store = opts.Store
	}
	if opts.Exec != "" {
		s.ExecCommand = opts.Exec
	}
	if opts.Dry {
		s.Scheduler = config.SchedulerMemory
	}

	n := &opts.Notify
	n.EnabledError = n.EnabledError || s.Notify.OnError
	n.EnabledCompletion = n.EnabledCompletion || s.Notify.OnCompletion
	n.SMTPTLS = n.SMTPTLS || s.Notify.SMTPTLS
	n.SMTPStartTLS = n.SMTPStartTLS || s.Notify.SMTPStartTLS
	if n.SMTPHost == "" {
		n.SMTPHost = s.Notify.SMTPHost
	}
	if n.SMTPPort == 0 {
		n.SMTPPort = s.Notify.SMTPPort
	}
	if n.SMTPUsername == "" {
		n.SMTPUsername = s.Notify.SMTPUsername
	}
	if n.SMTPPassword == "" {
		n.SMTPPassword = s.Notify.SMTPPassword
	}
	if n.SMTPTimeOut == 0 {
		n.SMTPTimeOut = s.Notify.Timeout
	}
	if n.FromEmail == "" {
		n.FromEmail = s.Notify.From
	}
	if len(n.ToEmails) == 0 {
		n.ToEmails = s.Notify.To
	}
}

func makeNotifier() *notify.Service {
	if !opts.Notify.EnabledError && !opts.Notify.EnabledCompletion {
		return nil
	}

	if opts.Notify.FromEmail == "" {
		opts.Notify.FromEmail = "rbackup@" + makeHostName()
	}

	return notify.NewService(
		notify.Params{
			EnabledError:       opts.Notify.EnabledError,
			EnabledCompletion:  opts.Notify.EnabledCompletion,
			ErrorTemplate:      opts.Notify.ErrorTemplate,
			CompletionTemplate: opts.Notify.CompletionTemplate,
			HostName:           makeHostName(),
		},
		notify.SendersParams{
			SMTP: gonotify.SMTPParams{
				Host:        opts.Notify.SMTPHost,
				Port:        opts.Notify.SMTPPort,
				TLS:         opts.Notify.SMTPTLS,
				StartTLS:    opts.Notify.SMTPStartTLS,
				ContentType: "text/html",
				Username:    opts.Notify.SMTPUsername,
				Password:    opts.Notify.SMTPPassword,
				TimeOut:     opts.Notify.SMTPTimeOut,
			},
			FromEmail: opts.Notify.FromEmail,
			ToEmails:  opts.Notify.ToEmails,
		},
	)
}

func makeHostName() string {
	if opts.Notify.HostName != "" {
		return opts.Notify.HostName
	}
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return host
}

// setupLogs configures lgr and returns the log destination, rotated file if logging to file enabled
func setupLogs() io.Writer {
	var out io.Writer = os.Stdout
	if opts.Log.Enabled {
		out = &lumberjack.Logger{
			Filename:   opts.Log.Filename,
			MaxSize:    opts.Log.MaxSize,
			MaxBackups: opts.Log.MaxBackups,
			MaxAge:     opts.Log.MaxAge,
			Compress:   opts.Log.EnabledCompress,
		}
	}

	logOpts := []log.Option{log.Msec, log.Out(out)}
	if opts.Dbg {
		logOpts = append(logOpts, log.Debug, log.CallerFunc, log.CallerPkg, log.CallerFile)
	}
	log.Setup(logOpts...)
	return out
}

func signals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	go func() {
		stacktrace := make([]byte, 8192)
		for sig := range sigChan {
			if sig == syscall.SIGQUIT { // catch SIGQUIT and print stack traces
				length := runtime.Stack(stacktrace, true)
				fmt.Println(string(stacktrace[:length]))
				continue
			}
			cancel() // terminate on SIGTERM and SIGINT
		}
	}()
	signal.Notify(sigChan, syscall.SIGQUIT, syscall.SIGTERM, os.Interrupt)
}
