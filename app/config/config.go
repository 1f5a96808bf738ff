// Package config loads optional yaml settings file
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/umputun/rbackup/app/store"
)

// enum of supported schedulers
const (
	SchedulerSystemd = "systemd"
	SchedulerCron    = "cron"
	SchedulerMemory  = "memory"
)

// enum of supported stores
const (
	StoreJSON   = "json"
	StoreSQLite = "sqlite"
)

// Settings defines all values of the settings file, empty values replaced by defaults
type Settings struct {
	ConfigPath  string `yaml:"config_path"`
	BackupPath  string `yaml:"backup_path"`
	UnitDir     string `yaml:"unit_dir"`
	Scheduler   string `yaml:"scheduler"`
	Store       string `yaml:"store"`
	ExecCommand string `yaml:"exec_command"`
	Cron        Cron   `yaml:"cron"`
	Notify      Notify `yaml:"notify"`
	Web         Web    `yaml:"web"`
}

// Cron defines in-process scheduler settings
type Cron struct {
	Concurrency int           `yaml:"concurrency"`
	RunTimeout  time.Duration `yaml:"run_timeout"`
	MaxLogLines int           `yaml:"max_log_lines"`
	ResumeDir   string        `yaml:"resume_dir"` // markers of active runs, no resume if empty
}

// Notify defines email notifications of in-process runs
type Notify struct {
	OnError      bool          `yaml:"on_error"`
	OnCompletion bool          `yaml:"on_completion"`
	From         string        `yaml:"from"`
	To           []string      `yaml:"to"`
	SMTPHost     string        `yaml:"smtp_host"`
	SMTPPort     int           `yaml:"smtp_port"`
	SMTPUsername string        `yaml:"smtp_username"`
	SMTPPassword string        `yaml:"smtp_password"`
	SMTPTLS      bool          `yaml:"smtp_tls"`
	SMTPStartTLS bool          `yaml:"smtp_starttls"`
	Timeout      time.Duration `yaml:"timeout"`
}

// Web defines http api server settings
type Web struct {
	Address   string  `yaml:"address"`
	Password  string  `yaml:"password"` // bcrypt hash
	RateLimit float64 `yaml:"rate_limit"`
}

// Load reads settings from yaml file. Unknown fields rejected. Empty path returns defaults.
func Load(path string) (Settings, error) {
	res := Settings{}
	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // user defined settings file
		if err != nil {
			return Settings{}, fmt.Errorf("can't read settings %s: %w", path, err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&res); err != nil && !errors.Is(err, io.EOF) {
			return Settings{}, fmt.Errorf("can't parse settings %s: %w", path, err)
		}
	}
	res.setDefaults()
	if err := res.Validate(); err != nil {
		return Settings{}, err
	}
	return res, nil
}

// Validate checks enum values
func (s Settings) Validate() error {
	switch s.Scheduler {
	case SchedulerSystemd, SchedulerCron, SchedulerMemory:
	default:
		return fmt.Errorf("unknown scheduler %q", s.Scheduler)
	}
	switch s.Store {
	case StoreJSON, StoreSQLite:
	default:
		return fmt.Errorf("unknown store %q", s.Store)
	}
	if s.Cron.Concurrency < 0 {
		return fmt.Errorf("negative cron concurrency %d", s.Cron.Concurrency)
	}
	return nil
}

// Paths returns paths from settings, unset paths taken from store.DefaultPaths for home
func (s Settings) Paths(home string) store.Paths {
	res := store.DefaultPaths(home)
	if s.ConfigPath != "" {
		res.ConfigPath = s.ConfigPath
	}
	if s.BackupPath != "" {
		res.BackupPath = s.BackupPath
	}
	if s.UnitDir != "" {
		res.UnitDir = s.UnitDir
	}
	return res
}

func (s *Settings) setDefaults() {
	if s.Scheduler == "" {
		s.Scheduler = SchedulerSystemd
	}
	if s.Store == "" {
		s.Store = StoreJSON
	}
	if s.ExecCommand == "" {
		s.ExecCommand = "rbackup-exec"
	}
	if s.Cron.Concurrency == 0 {
		s.Cron.Concurrency = 4
	}
	if s.Cron.RunTimeout == 0 {
		s.Cron.RunTimeout = 12 * time.Hour
	}
	if s.Cron.MaxLogLines == 0 {
		s.Cron.MaxLogLines = 100
	}
	if s.Notify.SMTPPort == 0 {
		s.Notify.SMTPPort = 25
	}
	if s.Notify.Timeout == 0 {
		s.Notify.Timeout = 10 * time.Second
	}
	if s.Web.Address == "" {
		s.Web.Address = "127.0.0.1:8080"
	}
	if s.Web.RateLimit == 0 {
		s.Web.RateLimit = 10
	}
}
