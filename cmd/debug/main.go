package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/cjkrolak/thermostat-supervisor/db"
)

func main() {
	var dbPath, runID string
	var limit int
	flag.StringVar(&dbPath, "db", "data/history.db", "Path to the SQLite history database file")
	flag.StringVar(&runID, "run", "", "Run ID to dump measurements for")
	flag.IntVar(&limit, "limit", 10, "Number of recent runs to list")
	flag.Parse()

	conn, err := db.Open(dbPath)
	if err != nil {
		fmt.Printf("Failed to open %s: %v\n", dbPath, err)
		os.Exit(1)
	}
	defer conn.Close()

	if runID != "" {
		if err := dumpRun(conn, runID); err != nil {
			fmt.Printf("Failed to dump run %s: %v\n", runID, err)
			os.Exit(1)
		}
		return
	}

	runs, err := db.RecentRuns(conn, limit)
	if err != nil {
		fmt.Printf("Failed to list runs: %v\n", err)
		os.Exit(1)
	}
	if len(runs) == 0 {
		fmt.Println("No archived runs")
		return
	}
	for _, r := range runs {
		fmt.Printf("%s  %s  started=%s  reporting=%d  failed=%d\n",
			r.ID, r.SiteName, r.StartedAt.Format(time.RFC3339), r.ZonesReporting, r.ZonesFailed)
	}
}

func dumpRun(conn *sql.DB, runID string) error {
	measurements, err := db.MeasurementsForRun(conn, runID)
	if err != nil {
		return err
	}
	zoneErrors, err := db.ErrorsForRun(conn, runID)
	if err != nil {
		return err
	}

	for zoneKey, ms := range measurements {
		fmt.Printf("%s:\n", zoneKey)
		for _, m := range ms {
			temp := "n/a"
			if m.Temperature != nil {
				temp = fmt.Sprintf("%.1f", *m.Temperature)
			}
			humidity := "n/a"
			if m.Humidity != nil {
				humidity = fmt.Sprintf("%.1f", *m.Humidity)
			}
			fmt.Printf("  #%d  %s  temp=%s  humidity=%s  mode=%s\n",
				m.Sequence, m.Timestamp.Format(time.RFC3339), temp, humidity, m.Mode)
		}
	}
	for zoneKey, e := range zoneErrors {
		fmt.Printf("%s: ERROR %s (worker %s)\n", zoneKey, e.Message, e.Worker)
	}
	return nil
}
