package model

import "time"

type ThermostatMode string

const (
	ModeOff  ThermostatMode = "off"
	ModeHeat ThermostatMode = "heat"
	ModeCool ThermostatMode = "cool"
	ModeDry  ThermostatMode = "dry"
	ModeAuto ThermostatMode = "auto"
)

// ZoneInfo is a single reading returned by a hardware backend.
// Pointer fields are nil when the backend did not report the value.
type ZoneInfo struct {
	Temperature *float64       `json:"temperature"`
	Humidity    *float64       `json:"humidity"`
	Mode        ThermostatMode `json:"mode"`
	Timestamp   time.Time      `json:"timestamp"`
}

// Measurement is one collected sample for a zone. Sequence is 1-based
// and strictly increasing within a single zone's run.
type Measurement struct {
	Timestamp   time.Time      `json:"timestamp"`
	Sequence    int            `json:"sequence"`
	Temperature *float64       `json:"temperature"`
	Humidity    *float64       `json:"humidity"`
	Mode        ThermostatMode `json:"mode"`
	Worker      string         `json:"worker"`
}

// ZoneError records the failure that terminated a zone's worker.
type ZoneError struct {
	Message   string    `json:"message"`
	Worker    string    `json:"worker"`
	Timestamp time.Time `json:"timestamp"`
}

// Report is the consolidated outcome of one supervision run, keyed by
// zone key ("{type}_zone{n}").
type Report struct {
	Results map[string][]Measurement `json:"results"`
	Errors  map[string]ZoneError     `json:"errors"`
}
