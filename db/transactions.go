package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/cjkrolak/thermostat-supervisor/internal/model"
)

// SaveReport archives one supervision run and its report atomically.
func SaveReport(conn *sql.DB, runID, siteName string, startedAt, finishedAt time.Time, report model.Report) error {
	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO runs (id, site_name, started_at, finished_at, zones_reporting, zones_failed) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, siteName, startedAt.Format(time.RFC3339), finishedAt.Format(time.RFC3339), len(report.Results), len(report.Errors))
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", runID, err)
	}

	for zoneKey, measurements := range report.Results {
		for _, m := range measurements {
			_, err = tx.Exec(`INSERT INTO measurements (run_id, zone_key, sequence, timestamp, temperature, humidity, mode, worker) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				runID, zoneKey, m.Sequence, m.Timestamp.Format(time.RFC3339), m.Temperature, m.Humidity, string(m.Mode), m.Worker)
			if err != nil {
				return fmt.Errorf("failed to insert measurement %s/%d: %w", zoneKey, m.Sequence, err)
			}
		}
	}

	for zoneKey, zerr := range report.Errors {
		_, err = tx.Exec(`INSERT INTO zone_errors (run_id, zone_key, message, worker, timestamp) VALUES (?, ?, ?, ?, ?)`,
			runID, zoneKey, zerr.Message, zerr.Worker, zerr.Timestamp.Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("failed to insert zone error %s: %w", zoneKey, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit report transaction: %w", err)
	}
	return nil
}
