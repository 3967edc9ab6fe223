package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cjkrolak/thermostat-supervisor/internal/model"
)

func testReport() model.Report {
	temp := 70.5
	humidity := 42.0
	ts := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	return model.Report{
		Results: map[string][]model.Measurement{
			"emulator_zone0": {
				{Timestamp: ts, Sequence: 1, Temperature: &temp, Humidity: &humidity, Mode: model.ModeHeat, Worker: "supervise_emulator_zone0"},
				{Timestamp: ts.Add(time.Minute), Sequence: 2, Temperature: &temp, Mode: model.ModeHeat, Worker: "supervise_emulator_zone0"},
			},
		},
		Errors: map[string]model.ZoneError{
			"sht31_zone1": {Message: "zone sht31_zone1 unavailable after 3 attempts", Worker: "supervise_sht31_zone1", Timestamp: ts},
		},
	}
}

func TestSaveReportRoundTrip(t *testing.T) {
	conn, err := Open(":memory:")
	assert.NoError(t, err)
	defer conn.Close()

	started := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	finished := started.Add(2 * time.Minute)
	err = SaveReport(conn, "run-1", "test-site", started, finished, testReport())
	assert.NoError(t, err)

	runs, err := RecentRuns(conn, 10)
	assert.NoError(t, err)
	assert.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Equal(t, "test-site", runs[0].SiteName)
	assert.Equal(t, 1, runs[0].ZonesReporting)
	assert.Equal(t, 1, runs[0].ZonesFailed)
	assert.True(t, runs[0].StartedAt.Equal(started))

	measurements, err := MeasurementsForRun(conn, "run-1")
	assert.NoError(t, err)
	ms := measurements["emulator_zone0"]
	assert.Len(t, ms, 2)
	assert.Equal(t, 1, ms[0].Sequence)
	assert.Equal(t, 70.5, *ms[0].Temperature)
	assert.Equal(t, 42.0, *ms[0].Humidity)
	assert.Nil(t, ms[1].Humidity, "absent humidity survives the round trip")
	assert.Equal(t, model.ModeHeat, ms[0].Mode)

	zoneErrors, err := ErrorsForRun(conn, "run-1")
	assert.NoError(t, err)
	assert.Contains(t, zoneErrors["sht31_zone1"].Message, "unavailable after 3 attempts")
}

func TestRecentRunsOrdering(t *testing.T) {
	conn, err := Open(":memory:")
	assert.NoError(t, err)
	defer conn.Close()

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	empty := model.Report{Results: map[string][]model.Measurement{}, Errors: map[string]model.ZoneError{}}
	assert.NoError(t, SaveReport(conn, "run-old", "s", base, base, empty))
	assert.NoError(t, SaveReport(conn, "run-new", "s", base.Add(time.Hour), base.Add(time.Hour), empty))

	runs, err := RecentRuns(conn, 1)
	assert.NoError(t, err)
	assert.Len(t, runs, 1)
	assert.Equal(t, "run-new", runs[0].ID)
}

func TestMeasurementsForUnknownRun(t *testing.T) {
	conn, err := Open(":memory:")
	assert.NoError(t, err)
	defer conn.Close()

	measurements, err := MeasurementsForRun(conn, "nope")
	assert.NoError(t, err)
	assert.Empty(t, measurements)
}
