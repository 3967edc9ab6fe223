package results

import (
	"sync"

	"github.com/cjkrolak/thermostat-supervisor/internal/model"
)

// Store is the shared result sink for one supervision run. Workers
// append measurements and record errors under the store's lock; the
// orchestrator resets it at the start of a run and snapshots it at the
// end. All methods are safe for concurrent use.
type Store struct {
	mu           sync.Mutex
	measurements map[string][]model.Measurement
	errors       map[string]model.ZoneError
}

func NewStore() *Store {
	return &Store{
		measurements: make(map[string][]model.Measurement),
		errors:       make(map[string]model.ZoneError),
	}
}

// Reset discards all measurements and errors from prior runs.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.measurements = make(map[string][]model.Measurement)
	s.errors = make(map[string]model.ZoneError)
}

// Append records one measurement for a zone key.
func (s *Store) Append(zoneKey string, m model.Measurement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.measurements[zoneKey] = append(s.measurements[zoneKey], m)
}

// Fail records the error that terminated a zone's worker. Last write
// wins; with one worker per zone there is only ever one write.
func (s *Store) Fail(zoneKey string, e model.ZoneError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors[zoneKey] = e
}

// Snapshot returns a deep copy of the store as a Report. Taking the
// snapshot under the lock avoids racing a worker that is still finishing
// its last write when a join timeout fires.
func (s *Store) Snapshot() model.Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := model.Report{
		Results: make(map[string][]model.Measurement, len(s.measurements)),
		Errors:  make(map[string]model.ZoneError, len(s.errors)),
	}
	for key, ms := range s.measurements {
		copied := make([]model.Measurement, len(ms))
		copy(copied, ms)
		report.Results[key] = copied
	}
	for key, e := range s.errors {
		report.Errors[key] = e
	}
	return report
}
