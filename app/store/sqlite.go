package store

import (
	"encoding/json"
	"fmt"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // sqlite driver
)

// SQLite keeps job records in a sqlite table, one row per job
type SQLite struct {
	db   *sqlx.DB
	path string
}

type recordRow struct {
	Name      string `db:"name"`
	Record    string `db:"record"`
	UpdatedAt int64  `db:"updated_at"`
}

// NewSQLite opens (or creates) the database and makes the schema
func NewSQLite(dbPath string) (*SQLite, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to set WAL mode: %w (also failed to close db: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	res := &SQLite{db: db, path: dbPath}
	if err := res.initialize(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("%w (also failed to close db: %v)", err, closeErr)
		}
		return nil, err
	}
	log.Printf("[DEBUG] jobs database %s", dbPath)
	return res, nil
}

func (s *SQLite) initialize() error {
	query := `CREATE TABLE IF NOT EXISTS jobs (
		name TEXT PRIMARY KEY,
		record TEXT NOT NULL,
		updated_at INTEGER
	)`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create jobs table: %w", err)
	}
	return nil
}

// Load reads all records. An empty table is an empty document.
func (s *SQLite) Load() (Document, error) {
	rows := []recordRow{}
	if err := s.db.Select(&rows, `SELECT name, record, updated_at FROM jobs`); err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}

	doc := make(Document, len(rows))
	for _, r := range rows {
		if !json.Valid([]byte(r.Record)) {
			return nil, fmt.Errorf("%w: record of %q in %s", ErrMalformed, r.Name, s.path)
		}
		doc[r.Name] = json.RawMessage(r.Record)
	}
	return doc, nil
}

// Save replaces all records in a single transaction
func (s *SQLite) Save(doc Document) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(`DELETE FROM jobs`); err != nil {
		return fmt.Errorf("failed to clear jobs: %w", err)
	}

	now := time.Now().Unix()
	for name, rec := range doc {
		if !json.Valid(rec) {
			return fmt.Errorf("invalid record for job %q", name)
		}
		row := recordRow{Name: name, Record: string(rec), UpdatedAt: now}
		if _, err := tx.NamedExec(`INSERT INTO jobs (name, record, updated_at) VALUES (:name, :record, :updated_at)`, row); err != nil {
			return fmt.Errorf("failed to save job %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	log.Printf("[DEBUG] saved %d jobs to %s", len(doc), s.path)
	return nil
}

// Close closes the database connection
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) String() string {
	return "sqlite:" + s.path
}
