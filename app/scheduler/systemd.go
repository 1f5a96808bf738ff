package scheduler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater"
	"github.com/go-pkgz/repeater/strategy"

	"github.com/umputun/rbackup/app/job"
)

//go:generate moq -out mocks/runner.go -pkg mocks -skip-ensure -fmt goimports . CommandRunner

// UnitPrefix used for all unit names made by Systemd
const UnitPrefix = "rbackup-"

// CommandRunner runs external command and returns combined output
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Repeater repeats failed function
type Repeater interface {
	Do(ctx context.Context, fun func() error, errors ...error) (err error)
}

// SystemdParams defines Systemd settings, only UnitDir and ExecCommand are required
type SystemdParams struct {
	UnitDir     string        // user unit directory, i.e. ~/.config/systemd/user
	ExecCommand string        // command started by the service, job name appended
	Timeout     time.Duration // per systemctl call
	Repeater    Repeater      // retries for failed systemctl calls
	Runner      CommandRunner // runs systemctl, exec by default
}

// Systemd maintains a service and a timer unit per job in the systemd user instance.
// Unit files written to UnitDir, units managed by systemctl --user.
type Systemd struct {
	SystemdParams
}

// NewSystemd makes Systemd with defaults for optional params
func NewSystemd(p SystemdParams) *Systemd {
	if p.Timeout <= 0 {
		p.Timeout = 30 * time.Second
	}
	if p.Repeater == nil {
		p.Repeater = repeater.New(&strategy.Backoff{Repeats: 3, Duration: 500 * time.Millisecond, Factor: 2, Jitter: true})
	}
	if p.Runner == nil {
		p.Runner = ExecRunner{}
	}
	return &Systemd{SystemdParams: p}
}

// CreateUnit writes service and timer files for the job. Files rewritten only if content changed,
// daemon-reload called only after a change.
func (s *Systemd) CreateUnit(ctx context.Context, j job.Job) error {
	service, err := s.serviceText(j)
	if err != nil {
		return err
	}
	timer, err := s.timerText(j)
	if err != nil {
		return err
	}

	if err = os.MkdirAll(s.UnitDir, 0o750); err != nil {
		return fmt.Errorf("can't make unit directory %s: %w", s.UnitDir, err)
	}

	name := UnitName(j.Name)
	changed := false
	for file, text := range map[string]string{name + ".service": service, name + ".timer": timer} {
		updated, err := writeIfChanged(filepath.Join(s.UnitDir, file), text)
		if err != nil {
			return err
		}
		changed = changed || updated
	}
	if !changed {
		log.Printf("[DEBUG] units for %q unchanged", j.Name)
		return nil
	}
	log.Printf("[INFO] units for %q written to %s", j.Name, s.UnitDir)
	return s.systemctl(ctx, "daemon-reload")
}

// EnableUnit enables and starts the job timer
func (s *Systemd) EnableUnit(ctx context.Context, name string) error {
	data, err := os.ReadFile(s.timerPath(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("can't enable %q: %w", name, ErrNoUnit)
		}
		return fmt.Errorf("can't read timer for %q: %w", name, err)
	}
	if !bytes.Contains(data, []byte("OnCalendar=")) {
		return fmt.Errorf("can't enable %q: no days scheduled", name)
	}
	return s.systemctl(ctx, "enable", "--now", UnitName(name)+".timer")
}

// DisableUnit stops and disables the job timer, no-op if timer file missing
func (s *Systemd) DisableUnit(ctx context.Context, name string) error {
	if !fileExists(s.timerPath(name)) {
		log.Printf("[DEBUG] no timer for %q, nothing to disable", name)
		return nil
	}
	return s.systemctl(ctx, "disable", "--now", UnitName(name)+".timer")
}

// RemoveUnit disables the timer and deletes both unit files, no-op if no files
func (s *Systemd) RemoveUnit(ctx context.Context, name string) error {
	timerPath, servicePath := s.timerPath(name), s.servicePath(name)
	if !fileExists(timerPath) && !fileExists(servicePath) {
		return nil
	}
	if fileExists(timerPath) {
		if err := s.systemctl(ctx, "disable", "--now", UnitName(name)+".timer"); err != nil {
			return err
		}
	}
	for _, path := range []string{timerPath, servicePath} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("can't remove unit file %s: %w", path, err)
		}
	}
	log.Printf("[INFO] units for %q removed", name)
	return s.systemctl(ctx, "daemon-reload")
}

// TriggerRun starts the job service without waiting for completion
func (s *Systemd) TriggerRun(ctx context.Context, name string) error {
	if !fileExists(s.servicePath(name)) {
		return fmt.Errorf("can't run %q: %w", name, ErrNoUnit)
	}
	return s.systemctl(ctx, "start", "--no-block", UnitName(name)+".service")
}

// UnitFiles returns paths of the service and timer files for the job
func (s *Systemd) UnitFiles(name string) (service, timer string) {
	return s.servicePath(name), s.timerPath(name)
}

func (s *Systemd) String() string {
	return "systemd:" + s.UnitDir
}

// systemctl runs systemctl --user with args, each attempt limited by Timeout
func (s *Systemd) systemctl(ctx context.Context, args ...string) error {
	args = append([]string{"--user"}, args...)
	return s.Repeater.Do(ctx, func() error {
		cctx, cancel := context.WithTimeout(ctx, s.Timeout)
		defer cancel()
		out, err := s.Runner.Run(cctx, "systemctl", args...)
		if err != nil {
			return fmt.Errorf("systemctl %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
		}
		log.Printf("[DEBUG] systemctl %s", strings.Join(args, " "))
		return nil
	})
}

func (s *Systemd) servicePath(name string) string {
	return filepath.Join(s.UnitDir, UnitName(name)+".service")
}

func (s *Systemd) timerPath(name string) string {
	return filepath.Join(s.UnitDir, UnitName(name)+".timer")
}

var serviceTmpl = template.Must(template.New("service").Parse(`[Unit]
Description=rbackup job {{.Name}}

[Service]
Type=oneshot
ExecStart={{.Exec}}
`))

var timerTmpl = template.Must(template.New("timer").Parse(`[Unit]
Description=rbackup timer for job {{.Name}}

[Timer]
{{- if .Calendar}}
OnCalendar={{.Calendar}}
{{- end}}
Persistent=true
Unit={{.Unit}}.service

[Install]
WantedBy=timers.target
`))

func (s *Systemd) serviceText(j job.Job) (string, error) {
	if s.ExecCommand == "" {
		return "", errors.New("exec command not defined")
	}
	data := struct{ Name, Exec string }{Name: j.Name, Exec: s.ExecCommand + " " + quoteExecArg(j.Name)}
	buf := bytes.Buffer{}
	if err := serviceTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("can't make service for %q: %w", j.Name, err)
	}
	return buf.String(), nil
}

func (s *Systemd) timerText(j job.Job) (string, error) {
	calendar, err := OnCalendar(j)
	if err != nil {
		return "", err
	}
	data := struct{ Name, Unit, Calendar string }{Name: j.Name, Unit: UnitName(j.Name), Calendar: calendar}
	buf := bytes.Buffer{}
	if err := timerTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("can't make timer for %q: %w", j.Name, err)
	}
	return buf.String(), nil
}

// OnCalendar returns systemd calendar expression for the job, i.e. "Mon,Wed,Fri *-*-* 02:30:00".
// Empty string returned for a job without days.
func OnCalendar(j job.Job) (string, error) {
	hour, minute, err := j.Clock()
	if err != nil {
		return "", err
	}
	if !j.Days.Any() {
		return "", nil
	}
	return fmt.Sprintf("%s *-*-* %02d:%02d:00", j.Days.String(), hour, minute), nil
}

// UnitName makes unit name for the job. Bytes outside of [A-Za-z0-9.-] are escaped as _xx,
// so different job names always give different units.
func UnitName(name string) string {
	var sb strings.Builder
	sb.WriteString(UnitPrefix)
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '.', c == '-':
			sb.WriteByte(c)
		default:
			fmt.Fprintf(&sb, "_%02x", c)
		}
	}
	return sb.String()
}

// quoteExecArg quotes argument for ExecStart, escapes specifiers and variable expansion
func quoteExecArg(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "%", "%%", "$", "$$", "\n", `\n`)
	return `"` + r.Replace(s) + `"`
}

// writeIfChanged writes text to path unless the file already has the same content
func writeIfChanged(path, text string) (bool, error) {
	existing, err := os.ReadFile(path) //nolint:gosec // path built from unit dir
	if err == nil && string(existing) == text {
		return false, nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("can't read %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		return false, fmt.Errorf("can't write %s: %w", path, err)
	}
	return true, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ExecRunner runs commands with os/exec
type ExecRunner struct{}

// Run executes command and returns combined output
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput() //nolint:gosec // systemctl only
}
