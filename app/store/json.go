package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/go-pkgz/lgr"
)

// JSONFile keeps the document in a single json file
type JSONFile struct {
	path string
}

// NewJSONFile makes JSONFile for given path. Neither the file nor its directory have to exist.
func NewJSONFile(path string) *JSONFile {
	log.Printf("[DEBUG] jobs file %s", path)
	return &JSONFile{path: path}
}

// Load makes the directory of the file if missing and reads the document.
// Returns empty document if file doesn't exist yet.
func (f *JSONFile) Load() (Document, error) {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return nil, fmt.Errorf("can't make jobs directory: %w", err)
	}
	return LoadDocument(f.path)
}

// Save writes the document to a temporary file in the same directory, syncs it and renames over the
// target. Readers see either the old or the new content, never a partial one.
func (f *JSONFile) Save(doc Document) (err error) {
	if doc == nil {
		doc = Document{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("can't marshal document: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err = os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("can't make directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("can't create temporary file in %s: %w", dir, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			if e := os.Remove(tmp.Name()); e != nil && !os.IsNotExist(e) {
				log.Printf("[WARN] can't remove temporary file %s, %v", tmp.Name(), e)
			}
		}
	}()

	if _, err = tmp.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("can't write %s: %w", tmp.Name(), err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("can't sync %s: %w", tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("can't close %s: %w", tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("can't replace %s: %w", f.path, err)
	}

	// sync directory to persist the rename, not supported everywhere
	if d, e := os.Open(dir); e == nil { //nolint:gosec // dir of configured path
		if e = d.Sync(); e != nil {
			log.Printf("[DEBUG] can't sync directory %s, %v", dir, e)
		}
		_ = d.Close()
	}

	log.Printf("[DEBUG] saved %d jobs to %s", len(doc), f.path)
	return nil
}

func (f *JSONFile) String() string {
	return f.path
}
