package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/cjkrolak/thermostat-supervisor/internal/model"
)

// RunSummary is one archived supervision run.
type RunSummary struct {
	ID             string
	SiteName       string
	StartedAt      time.Time
	FinishedAt     time.Time
	ZonesReporting int
	ZonesFailed    int
}

// RecentRuns returns the most recent archived runs, newest first.
func RecentRuns(conn *sql.DB, limit int) ([]RunSummary, error) {
	rows, err := conn.Query(`SELECT id, site_name, started_at, finished_at, zones_reporting, zones_failed FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var started, finished string
		if err := rows.Scan(&r.ID, &r.SiteName, &started, &finished, &r.ZonesReporting, &r.ZonesFailed); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339, started)
		r.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// MeasurementsForRun reloads a run's measurements keyed by zone key, in
// sequence order.
func MeasurementsForRun(conn *sql.DB, runID string) (map[string][]model.Measurement, error) {
	rows, err := conn.Query(`SELECT zone_key, sequence, timestamp, temperature, humidity, mode, worker FROM measurements WHERE run_id = ? ORDER BY zone_key, sequence`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query measurements for run %s: %w", runID, err)
	}
	defer rows.Close()

	out := make(map[string][]model.Measurement)
	for rows.Next() {
		var (
			zoneKey, ts, mode string
			m                 model.Measurement
			temp, humidity    sql.NullFloat64
		)
		if err := rows.Scan(&zoneKey, &m.Sequence, &ts, &temp, &humidity, &mode, &m.Worker); err != nil {
			return nil, fmt.Errorf("failed to scan measurement: %w", err)
		}
		m.Timestamp, _ = time.Parse(time.RFC3339, ts)
		if temp.Valid {
			v := temp.Float64
			m.Temperature = &v
		}
		if humidity.Valid {
			v := humidity.Float64
			m.Humidity = &v
		}
		m.Mode = model.ThermostatMode(mode)
		out[zoneKey] = append(out[zoneKey], m)
	}
	return out, rows.Err()
}

// ErrorsForRun reloads a run's zone errors keyed by zone key.
func ErrorsForRun(conn *sql.DB, runID string) (map[string]model.ZoneError, error) {
	rows, err := conn.Query(`SELECT zone_key, message, worker, timestamp FROM zone_errors WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query zone errors for run %s: %w", runID, err)
	}
	defer rows.Close()

	out := make(map[string]model.ZoneError)
	for rows.Next() {
		var (
			zoneKey, ts string
			e           model.ZoneError
		)
		if err := rows.Scan(&zoneKey, &e.Message, &e.Worker, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan zone error: %w", err)
		}
		e.Timestamp, _ = time.Parse(time.RFC3339, ts)
		out[zoneKey] = e
	}
	return out, rows.Err()
}
