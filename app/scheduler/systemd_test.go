package scheduler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-pkgz/repeater"
	"github.com/go-pkgz/repeater/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/rbackup/app/job"
	"github.com/umputun/rbackup/app/scheduler/mocks"
)

func newTestSystemd(t *testing.T, runErr error) (*Systemd, *mocks.CommandRunnerMock) {
	t.Helper()
	runner := &mocks.CommandRunnerMock{
		RunFunc: func(_ context.Context, _ string, _ ...string) ([]byte, error) {
			if runErr != nil {
				return []byte("Failed to connect to bus"), runErr
			}
			return nil, nil
		},
	}
	s := NewSystemd(SystemdParams{
		UnitDir:     filepath.Join(t.TempDir(), "systemd", "user"),
		ExecCommand: "/usr/bin/rbackup-exec --quiet",
		Runner:      runner,
		Repeater:    repeater.New(&strategy.Once{}),
	})
	return s, runner
}

func systemctlArgs(runner *mocks.CommandRunnerMock) [][]string {
	res := [][]string{}
	for _, c := range runner.RunCalls() {
		res = append(res, append([]string{c.Name}, c.Args...))
	}
	return res
}

func TestSystemd_CreateUnit(t *testing.T) {
	s, runner := newTestSystemd(t, nil)
	j := job.Job{Name: "nightly", Source: "/home", Destination: "/mnt/backup", Time: "02:30",
		Days: job.NewDays(time.Monday, time.Wednesday, time.Friday)}

	require.NoError(t, s.CreateUnit(context.Background(), j))

	servicePath, timerPath := s.UnitFiles("nightly")
	assert.Equal(t, filepath.Join(s.UnitDir, "rbackup-nightly.service"), servicePath)
	service, err := os.ReadFile(servicePath)
	require.NoError(t, err)
	assert.Contains(t, string(service), "Type=oneshot\n")
	assert.Contains(t, string(service), `ExecStart=/usr/bin/rbackup-exec --quiet "nightly"`)

	timer, err := os.ReadFile(timerPath)
	require.NoError(t, err)
	assert.Contains(t, string(timer), "OnCalendar=Mon,Wed,Fri *-*-* 02:30:00\n")
	assert.Contains(t, string(timer), "Unit=rbackup-nightly.service\n")
	assert.Contains(t, string(timer), "WantedBy=timers.target\n")

	assert.Equal(t, [][]string{{"systemctl", "--user", "daemon-reload"}}, systemctlArgs(runner))
}

func TestSystemd_CreateUnitIdempotent(t *testing.T) {
	s, runner := newTestSystemd(t, nil)
	j := job.Job{Name: "nightly", Source: "/home", Destination: "/mnt/backup", Days: job.NewDays(time.Sunday)}
	ctx := context.Background()

	require.NoError(t, s.CreateUnit(ctx, j))
	_, timerPath := s.UnitFiles("nightly")
	before, err := os.ReadFile(timerPath)
	require.NoError(t, err)

	require.NoError(t, s.CreateUnit(ctx, j))
	after, err := os.ReadFile(timerPath)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Len(t, runner.RunCalls(), 1, "no reload for unchanged units")

	j.Time = "04:15"
	require.NoError(t, s.CreateUnit(ctx, j))
	assert.Len(t, runner.RunCalls(), 2, "reload after change")
	changed, err := os.ReadFile(timerPath)
	require.NoError(t, err)
	assert.Contains(t, string(changed), "OnCalendar=Sun *-*-* 04:15:00")
}

func TestSystemd_CreateUnitErrors(t *testing.T) {
	s, runner := newTestSystemd(t, nil)
	ctx := context.Background()

	err := s.CreateUnit(ctx, job.Job{Name: "bad", Time: "25:00", Days: job.NewDays(time.Monday)})
	require.ErrorIs(t, err, job.ErrInvalid)

	s.ExecCommand = ""
	err = s.CreateUnit(ctx, job.Job{Name: "nightly"})
	require.EqualError(t, err, "exec command not defined")
	assert.Empty(t, runner.RunCalls())
}

func TestSystemd_EnableDisable(t *testing.T) {
	s, runner := newTestSystemd(t, nil)
	ctx := context.Background()

	err := s.EnableUnit(ctx, "nightly")
	require.ErrorIs(t, err, ErrNoUnit)
	require.NoError(t, s.DisableUnit(ctx, "nightly"), "disable of missing unit is no-op")
	assert.Empty(t, runner.RunCalls())

	j := job.Job{Name: "nightly", Source: "/home", Destination: "/mnt/backup", Days: job.NewDays(time.Monday)}
	require.NoError(t, s.CreateUnit(ctx, j))
	require.NoError(t, s.EnableUnit(ctx, "nightly"))
	require.NoError(t, s.DisableUnit(ctx, "nightly"))

	assert.Equal(t, [][]string{
		{"systemctl", "--user", "daemon-reload"},
		{"systemctl", "--user", "enable", "--now", "rbackup-nightly.timer"},
		{"systemctl", "--user", "disable", "--now", "rbackup-nightly.timer"},
	}, systemctlArgs(runner))
}

func TestSystemd_EnableWithoutDays(t *testing.T) {
	s, runner := newTestSystemd(t, nil)
	ctx := context.Background()

	require.NoError(t, s.CreateUnit(ctx, job.Job{Name: "manual", Source: "/a", Destination: "/b"}))
	_, timerPath := s.UnitFiles("manual")
	timer, err := os.ReadFile(timerPath)
	require.NoError(t, err)
	assert.NotContains(t, string(timer), "OnCalendar=")

	err = s.EnableUnit(ctx, "manual")
	require.EqualError(t, err, `can't enable "manual": no days scheduled`)
	assert.Len(t, runner.RunCalls(), 1)
}

func TestSystemd_RemoveUnit(t *testing.T) {
	s, runner := newTestSystemd(t, nil)
	ctx := context.Background()

	require.NoError(t, s.RemoveUnit(ctx, "nightly"), "remove of missing unit is no-op")
	assert.Empty(t, runner.RunCalls())

	require.NoError(t, s.CreateUnit(ctx, job.Job{Name: "nightly", Source: "/a", Destination: "/b"}))
	require.NoError(t, s.RemoveUnit(ctx, "nightly"))

	servicePath, timerPath := s.UnitFiles("nightly")
	assert.NoFileExists(t, servicePath)
	assert.NoFileExists(t, timerPath)
	assert.Equal(t, [][]string{
		{"systemctl", "--user", "daemon-reload"},
		{"systemctl", "--user", "disable", "--now", "rbackup-nightly.timer"},
		{"systemctl", "--user", "daemon-reload"},
	}, systemctlArgs(runner))
}

func TestSystemd_TriggerRun(t *testing.T) {
	s, runner := newTestSystemd(t, nil)
	ctx := context.Background()

	err := s.TriggerRun(ctx, "nightly")
	require.ErrorIs(t, err, ErrNoUnit)

	require.NoError(t, s.CreateUnit(ctx, job.Job{Name: "nightly", Source: "/a", Destination: "/b"}))
	require.NoError(t, s.TriggerRun(ctx, "nightly"))
	calls := systemctlArgs(runner)
	require.Len(t, calls, 2)
	assert.Equal(t, []string{"systemctl", "--user", "start", "--no-block", "rbackup-nightly.service"}, calls[1])
}

func TestSystemd_SystemctlRetries(t *testing.T) {
	s, runner := newTestSystemd(t, errors.New("exit status 1"))
	s.Repeater = repeater.New(&strategy.Backoff{Repeats: 3, Duration: time.Millisecond, Factor: 1})

	err := s.CreateUnit(context.Background(), job.Job{Name: "nightly", Source: "/a", Destination: "/b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "systemctl --user daemon-reload: exit status 1: Failed to connect to bus")
	assert.Len(t, runner.RunCalls(), 3)
}

func TestSystemd_SystemctlTimeout(t *testing.T) {
	s, runner := newTestSystemd(t, nil)
	s.Timeout = 10 * time.Millisecond
	runner.RunFunc = func(ctx context.Context, _ string, _ ...string) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	err := s.CreateUnit(context.Background(), job.Job{Name: "nightly", Source: "/a", Destination: "/b"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestUnitName(t *testing.T) {
	tbl := []struct {
		name, unit string
	}{
		{"nightly", "rbackup-nightly"},
		{"home-docs.v2", "rbackup-home-docs.v2"},
		{"my job", "rbackup-my_20job"},
		{"my_job", "rbackup-my_5fjob"},
		{"фото", "rbackup-_d1_84_d0_be_d1_82_d0_be"},
	}
	for _, tt := range tbl {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.unit, UnitName(tt.name))
		})
	}
	assert.NotEqual(t, UnitName("a b"), UnitName("a_20b"))
}

func TestOnCalendar(t *testing.T) {
	res, err := OnCalendar(job.Job{Name: "n", Days: job.NewDays(time.Saturday, time.Sunday)})
	require.NoError(t, err)
	assert.Equal(t, "Sun,Sat *-*-* 00:00:00", res)

	res, err = OnCalendar(job.Job{Name: "n"})
	require.NoError(t, err)
	assert.Empty(t, res)

	_, err = OnCalendar(job.Job{Name: "n", Time: "7:5"})
	require.Error(t, err)
}

func TestQuoteExecArg(t *testing.T) {
	assert.Equal(t, `"nightly"`, quoteExecArg("nightly"))
	assert.Equal(t, `"a \"b\" 100%% $$HOME \\n"`, quoteExecArg(`a "b" 100% $HOME \n`))
}
