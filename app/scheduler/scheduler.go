// Package scheduler provides implementations of per-job schedule units. Systemd maintains a
// service/timer pair for each job in the user's systemd instance, Cron schedules jobs in process
// with robfig/cron and Memory keeps unit state in memory for tests and dry runs.
//
// All implementations share the same contract: CreateUnit is idempotent, DisableUnit and RemoveUnit
// of a missing unit are no-ops, EnableUnit and TriggerRun fail for a missing unit.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

//go:generate moq -out mocks/executor.go -pkg mocks -skip-ensure -fmt goimports . Executor
//go:generate moq -out mocks/notifier.go -pkg mocks -skip-ensure -fmt goimports . Notifier

// ErrNoUnit returned for operations requiring an existing unit
var ErrNoUnit = errors.New("unit not found")

// Executor runs the backup for the named job, writing its output to out
type Executor interface {
	Execute(ctx context.Context, name string, out io.Writer) error
}

// Notifier defines notification delivery on completed and failed runs
type Notifier interface {
	Send(ctx context.Context, subj, text string) error
	IsOnError() bool
	IsOnCompletion() bool
	MakeErrorHTML(schedule, name, errorLog string) (string, error)
	MakeCompletionHTML(schedule, name string) (string, error)
}

// ShellExecutor runs Command with the job name appended as the last argument, via sh -c
type ShellExecutor struct {
	Command string
}

// Execute runs the command for job name
func (e ShellExecutor) Execute(ctx context.Context, name string, out io.Writer) error {
	if e.Command == "" {
		return errors.New("exec command not defined")
	}
	line := e.Command + " " + shellQuote(name)
	cmd := exec.CommandContext(ctx, "sh", "-c", line) //nolint:gosec // command from configuration
	cmd.Stdout = out
	cmd.Stderr = out
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to execute %q: %w", line, err)
	}
	return nil
}

// shellQuote wraps s in single quotes for sh
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
