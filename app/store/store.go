// Package store persists the jobs document. The document is a single json object mapping job name
// to the job record, JSONFile keeps it in a file replaced atomically on each save, SQLite keeps
// records in a table rewritten in a single transaction.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrMalformed returned for stored documents which can't be parsed
var ErrMalformed = errors.New("malformed document")

// ErrHomeDirectory returned if the user's home directory can't be determined
var ErrHomeDirectory = errors.New("home directory unresolvable")

// Document maps job name to the json record of the job
type Document map[string]json.RawMessage

// Paths defines locations used by the registry and the scheduler
type Paths struct {
	ConfigPath string // jobs document
	BackupPath string // default root for backup output
	UnitDir    string // systemd user units
}

// FindHomeDirectory returns the current user's home directory
func FindHomeDirectory() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHomeDirectory, err)
	}
	if home == "" {
		return "", fmt.Errorf("%w: empty home", ErrHomeDirectory)
	}
	st, err := os.Stat(home)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHomeDirectory, err)
	}
	if !st.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrHomeDirectory, home)
	}
	return home, nil
}

// DefaultPaths makes Paths relative to the home directory
func DefaultPaths(home string) Paths {
	return Paths{
		ConfigPath: filepath.Join(home, ".config", "rbackup", "jobs.json"),
		BackupPath: filepath.Join(home, ".local", "share", "rbackup"),
		UnitDir:    filepath.Join(home, ".config", "systemd", "user"),
	}
}

// LoadDocument reads and parses the document. Missing file is not an error, it returns an empty document.
func LoadDocument(path string) (Document, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is from configuration
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Document{}, nil
		}
		return nil, fmt.Errorf("can't read %s: %w", path, err)
	}

	doc := Document{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}
	if doc == nil { // "null" document
		doc = Document{}
	}
	return doc, nil
}
