package registry

import (
	"errors"
	"strconv"

	"github.com/umputun/rbackup/app/store"
)

// error kinds reported by registry operations, use errors.Is to check
var (
	ErrNotFound          = errors.New("job not found")
	ErrAlreadyExists     = errors.New("job already exists")
	ErrInvalidJob        = errors.New("invalid job")
	ErrMalformedDocument = errors.New("malformed jobs document")
	ErrPersistence       = errors.New("persistence failure")
	ErrScheduler         = errors.New("scheduler failure")
	ErrHomeDirectory     = store.ErrHomeDirectory
)

// OpError describes failed registry operation
type OpError struct {
	Op   string // operation, i.e. "enable"
	Name string // job name, empty for operations on the whole registry
	Kind error  // one of Err* kinds
	Err  error  // underlying error, may be nil
}

func (e *OpError) Error() string {
	res := e.Op
	if e.Name != "" {
		res += " " + strconv.Quote(e.Name)
	}
	res += ": " + e.Kind.Error()
	if e.Err != nil {
		res += ": " + e.Err.Error()
	}
	return res
}

// Unwrap returns the kind and the underlying error
func (e *OpError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func opError(op, name string, kind, err error) *OpError {
	return &OpError{Op: op, Name: name, Kind: kind, Err: err}
}
