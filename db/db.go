package db

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	site_name TEXT NOT NULL,
	started_at TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	zones_reporting INTEGER NOT NULL,
	zones_failed INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS measurements (
	run_id TEXT NOT NULL REFERENCES runs(id),
	zone_key TEXT NOT NULL,
	sequence INTEGER NOT NULL,
	timestamp TEXT NOT NULL,
	temperature REAL,
	humidity REAL,
	mode TEXT,
	worker TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_measurements_run ON measurements(run_id, zone_key, sequence);

CREATE TABLE IF NOT EXISTS zone_errors (
	run_id TEXT NOT NULL REFERENCES runs(id),
	zone_key TEXT NOT NULL,
	message TEXT NOT NULL,
	worker TEXT NOT NULL,
	timestamp TEXT NOT NULL
);
`

// Open opens the run-history database and applies the schema.
func Open(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite handles one writer at a time; a single pooled connection
	// also keeps :memory: databases coherent across calls.
	conn.SetMaxOpenConns(1)
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return conn, nil
}
