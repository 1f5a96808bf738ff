package scheduler

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/rbackup/app/job"
	"github.com/umputun/rbackup/app/scheduler/mocks"
)

func TestResumer_OnStartFinish(t *testing.T) {
	r := NewResumer(filepath.Join(t.TempDir(), "resume"), time.Hour)

	fname, err := r.OnStart("nightly")
	require.NoError(t, err)
	data, err := os.ReadFile(fname) //nolint:gosec // test file
	require.NoError(t, err)
	assert.Equal(t, "nightly", string(data))

	require.NoError(t, r.OnFinish(fname))
	assert.NoFileExists(t, fname)
	require.NoError(t, r.OnFinish(fname), "missing marker ignored")
}

func TestResumer_List(t *testing.T) {
	dir := t.TempDir()
	r := NewResumer(dir, time.Hour)

	_, err := r.OnStart("nightly")
	require.NoError(t, err)
	_, err = r.OnStart("weekly")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("skip"), 0o600))

	old := filepath.Join(dir, "old"+resumeExt)
	require.NoError(t, os.WriteFile(old, []byte("monthly"), 0o600))
	ts := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(old, ts, ts))

	res := r.List()
	require.Len(t, res, 2)
	names := []string{res[0].Name, res[1].Name}
	assert.ElementsMatch(t, []string{"nightly", "weekly"}, names)
	assert.NoFileExists(t, old, "old marker removed")
	assert.Equal(t, "resumer:"+dir, r.String())

	assert.Empty(t, NewResumer(filepath.Join(dir, "other.txt", "sub"), 0).List(), "bad location")
}

func TestCron_ResumeInterrupted(t *testing.T) {
	dir := t.TempDir()
	r := NewResumer(dir, time.Hour)
	_, err := r.OnStart("nightly") // left by interrupted run
	require.NoError(t, err)
	_, err = r.OnStart("gone")
	require.NoError(t, err)

	var runs int32
	exec := &mocks.ExecutorMock{ExecuteFunc: func(_ context.Context, name string, _ io.Writer) error {
		assert.Equal(t, "nightly", name)
		entries, err := os.ReadDir(dir)
		assert.NoError(t, err)
		assert.Len(t, entries, 1, "marker of active run only")
		atomic.AddInt32(&runs, 1)
		return nil
	}}
	c := NewCron(CronParams{Engine: cron.New(), Executor: exec, Resumer: r})
	require.NoError(t, c.CreateUnit(context.Background(), job.Job{Name: "nightly", Source: "/a", Destination: "/b"}))

	c.Start()
	c.Stop()
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))
	assert.Empty(t, r.List(), "all markers removed")
}
