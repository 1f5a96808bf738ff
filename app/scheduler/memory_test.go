package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/rbackup/app/job"
)

func TestMemory_Lifecycle(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	j := job.Job{Name: "nightly", Source: "/home", Destination: "/mnt/backup", Time: "02:30"}

	assert.Equal(t, UnitAbsent, m.State("nightly"))
	require.NoError(t, m.CreateUnit(ctx, j))
	assert.Equal(t, UnitCreated, m.State("nightly"))

	require.NoError(t, m.EnableUnit(ctx, "nightly"))
	assert.Equal(t, UnitEnabled, m.State("nightly"))

	require.NoError(t, m.TriggerRun(ctx, "nightly"))
	require.NoError(t, m.TriggerRun(ctx, "nightly"))
	assert.Equal(t, 2, m.Runs("nightly"))

	require.NoError(t, m.DisableUnit(ctx, "nightly"))
	assert.Equal(t, UnitDisabled, m.State("nightly"))

	require.NoError(t, m.RemoveUnit(ctx, "nightly"))
	assert.Equal(t, UnitAbsent, m.State("nightly"))

	assert.Equal(t, []Call{{OpCreate, "nightly"}, {OpEnable, "nightly"}, {OpRun, "nightly"}, {OpRun, "nightly"},
		{OpDisable, "nightly"}, {OpRemove, "nightly"}}, m.Calls())
}

func TestMemory_CreateIdempotent(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	j := job.Job{Name: "nightly", Source: "/home", Destination: "/mnt/backup"}

	require.NoError(t, m.CreateUnit(ctx, j))
	require.NoError(t, m.EnableUnit(ctx, "nightly"))
	j.Time = "03:00"
	require.NoError(t, m.CreateUnit(ctx, j))
	assert.Equal(t, UnitEnabled, m.State("nightly"), "state kept by repeated create")

	stored, ok := m.Unit("nightly")
	require.True(t, ok)
	assert.Equal(t, "03:00", stored.Time)
}

func TestMemory_MissingUnit(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	err := m.EnableUnit(ctx, "missing")
	require.ErrorIs(t, err, ErrNoUnit)
	err = m.TriggerRun(ctx, "missing")
	require.ErrorIs(t, err, ErrNoUnit)

	assert.NoError(t, m.DisableUnit(ctx, "missing"))
	assert.NoError(t, m.RemoveUnit(ctx, "missing"))
	assert.Len(t, m.Calls(), 4)
}

func TestMemory_Fail(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.CreateUnit(ctx, job.Job{Name: "nightly"}))

	m.Fail(OpEnable, errors.New("systemd is down"))
	err := m.EnableUnit(ctx, "nightly")
	require.EqualError(t, err, "systemd is down")
	assert.Equal(t, UnitCreated, m.State("nightly"))

	m.Fail(OpEnable, nil)
	require.NoError(t, m.EnableUnit(ctx, "nightly"))
	assert.Equal(t, UnitEnabled, m.State("nightly"))

	m.Reset()
	assert.Empty(t, m.Calls())
	assert.Equal(t, "memory", m.String())
}
