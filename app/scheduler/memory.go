package scheduler

import (
	"context"
	"fmt"
	"sync"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/rbackup/app/job"
)

// UnitState is the state of a unit kept by Memory
type UnitState string

// enum of unit states
const (
	UnitAbsent   UnitState = "absent"
	UnitCreated  UnitState = "created"
	UnitEnabled  UnitState = "enabled"
	UnitDisabled UnitState = "disabled"
)

// Call records a single operation made on Memory
type Call struct {
	Op   string
	Name string
}

// Memory keeps units in memory and records all calls. Errors set with Fail returned by the
// matching operation until cleared with Fail(op, nil). Thread safe.
type Memory struct {
	mu     sync.Mutex
	units  map[string]memUnit
	calls  []Call
	errors map[string]error
}

type memUnit struct {
	job   job.Job
	state UnitState
	runs  int
}

// operations recorded by Memory
const (
	OpCreate  = "create"
	OpEnable  = "enable"
	OpDisable = "disable"
	OpRemove  = "remove"
	OpRun     = "run"
)

// NewMemory makes empty Memory scheduler
func NewMemory() *Memory {
	return &Memory{units: map[string]memUnit{}, errors: map[string]error{}}
}

// CreateUnit makes unit for the job, existing unit keeps its state and gets updated job
func (m *Memory) CreateUnit(_ context.Context, j job.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpCreate, j.Name); err != nil {
		return err
	}
	u, ok := m.units[j.Name]
	if !ok {
		u = memUnit{state: UnitCreated}
	}
	u.job = j
	m.units[j.Name] = u
	return nil
}

// EnableUnit activates unit's schedule
func (m *Memory) EnableUnit(_ context.Context, name string) error {
	return m.setState(OpEnable, name, UnitEnabled, true)
}

// DisableUnit deactivates unit's schedule
func (m *Memory) DisableUnit(_ context.Context, name string) error {
	return m.setState(OpDisable, name, UnitDisabled, false)
}

// RemoveUnit deletes the unit
func (m *Memory) RemoveUnit(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpRemove, name); err != nil {
		return err
	}
	delete(m.units, name)
	return nil
}

// TriggerRun counts a run of the unit
func (m *Memory) TriggerRun(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpRun, name); err != nil {
		return err
	}
	u, ok := m.units[name]
	if !ok {
		return fmt.Errorf("can't run %q: %w", name, ErrNoUnit)
	}
	u.runs++
	m.units[name] = u
	log.Printf("[INFO] dry run of %q", name)
	return nil
}

// Fail makes operation op return err, nil err clears it
func (m *Memory) Fail(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.errors, op)
		return
	}
	m.errors[op] = err
}

// Calls returns all recorded calls in order
func (m *Memory) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := make([]Call, len(m.calls))
	copy(res, m.calls)
	return res
}

// Reset clears recorded calls, units are kept
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// State returns unit state, UnitAbsent for unknown name
func (m *Memory) State(name string) UnitState {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.units[name]
	if !ok {
		return UnitAbsent
	}
	return u.state
}

// Unit returns the job the unit was created for
func (m *Memory) Unit(name string) (job.Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.units[name]
	return u.job, ok
}

// Runs returns number of triggered runs for the unit
func (m *Memory) Runs(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.units[name].runs
}

func (m *Memory) setState(op, name string, state UnitState, required bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(op, name); err != nil {
		return err
	}
	u, ok := m.units[name]
	if !ok {
		if required {
			return fmt.Errorf("can't %s %q: %w", op, name, ErrNoUnit)
		}
		return nil
	}
	u.state = state
	m.units[name] = u
	return nil
}

// record adds call and returns injected error for op, must be called under lock
func (m *Memory) record(op, name string) error {
	m.calls = append(m.calls, Call{Op: op, Name: name})
	return m.errors[op]
}

func (m *Memory) String() string {
	return "memory"
}
