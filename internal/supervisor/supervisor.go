// Package supervisor implements the concurrent site-supervision engine:
// one polling worker per enabled zone, a shared lock-protected result
// store, and a join bounded by the slowest zone's worst-case budget.
package supervisor

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cjkrolak/thermostat-supervisor/internal/backend"
	"github.com/cjkrolak/thermostat-supervisor/internal/config"
	"github.com/cjkrolak/thermostat-supervisor/internal/datadog"
	"github.com/cjkrolak/thermostat-supervisor/internal/model"
	"github.com/cjkrolak/thermostat-supervisor/internal/notifications"
	"github.com/cjkrolak/thermostat-supervisor/internal/reader"
	"github.com/cjkrolak/thermostat-supervisor/internal/results"
)

// SafetyMargin pads every zone's join budget beyond its nominal
// connection and polling allowance.
const SafetyMargin = 60 * time.Second

type Supervisor struct {
	registry *backend.Registry
	reader   *reader.Reader
	store    *results.Store
}

func New(registry *backend.Registry, notifier notifications.Notifier) *Supervisor {
	return NewWithReader(registry, reader.New(notifier))
}

// NewWithReader builds a Supervisor around an explicit reader, letting
// tests inject a retry policy without real backoff sleeps.
func NewWithReader(registry *backend.Registry, rdr *reader.Reader) *Supervisor {
	return &Supervisor{
		registry: registry,
		reader:   rdr,
		store:    results.NewStore(),
	}
}

// SuperviseAll runs one supervision pass over the site: it validates
// that every enabled zone has a registered backend, clears results from
// prior runs, fans out one worker per enabled zone (or runs them in
// configuration order when parallel is false), joins under the derived
// timeout, and returns the consolidated report.
//
// Per-zone failures are contained in that zone's ZoneError entry and
// never abort siblings. Only an unresolvable thermostat type aborts the
// run, before any worker starts.
func (s *Supervisor) SuperviseAll(ctx context.Context, site *config.SiteConfig, measurementDefault int, parallel bool) (model.Report, error) {
	start := time.Now()
	s.store.Reset()

	enabled := site.EnabledZones()
	if len(enabled) == 0 {
		log.Info().Str("site", site.SiteName).Msg("No enabled zones, nothing to supervise")
		return s.store.Snapshot(), nil
	}

	// Resolve every backend before concurrency begins so an unknown
	// zone type fails the whole run up front.
	backends := make([]backend.Backend, len(enabled))
	for i, zone := range enabled {
		b, err := s.registry.Resolve(zone.ThermostatType)
		if err != nil {
			return model.Report{}, fmt.Errorf("cannot supervise site %q: %w", site.SiteName, err)
		}
		backends[i] = b
	}

	timeout := joinBudget(enabled, measurementDefault)
	log.Info().
		Str("site", site.SiteName).
		Int("zones", len(enabled)).
		Bool("parallel", parallel).
		Dur("join_timeout", timeout).
		Msg("Starting site supervision")

	if parallel {
		workers := make([]Worker, len(enabled))
		for i, zone := range enabled {
			zone := zone
			b := backends[i]
			label := workerLabel(zone)
			count := zone.EffectiveMeasurements(measurementDefault)
			workers[i] = Worker{
				Label: label,
				Run:   func() { s.runZone(ctx, zone, label, count, b) },
			}
		}
		for _, status := range LaunchAndJoin(workers, timeout) {
			if !status.Completed {
				log.Warn().
					Str("worker", status.Label).
					Dur("timeout", timeout).
					Msg("Worker did not complete within timeout")
				datadog.Count("supervision.worker_timeouts", 1, "worker:"+status.Label)
			}
		}
	} else {
		for i, zone := range enabled {
			s.runZone(ctx, zone, workerLabel(zone), zone.EffectiveMeasurements(measurementDefault), backends[i])
		}
	}

	report := s.store.Snapshot()

	datadog.Timing("supervision.duration", float64(time.Since(start).Milliseconds()), "site:"+site.SiteName)
	datadog.Gauge("supervision.zones", float64(len(enabled)), "site:"+site.SiteName)
	datadog.Gauge("supervision.errors", float64(len(report.Errors)), "site:"+site.SiteName)

	log.Info().
		Str("site", site.SiteName).
		Int("zones_reporting", len(report.Results)).
		Int("zones_failed", len(report.Errors)).
		Dur("elapsed", time.Since(start)).
		Msg("Site supervision finished")

	return report, nil
}

func workerLabel(zone config.ZoneConfig) string {
	return "supervise_" + zone.Key()
}

// zoneBudget is a zone's worst-case allowance: connection budget plus
// one poll interval per measurement plus the safety margin.
func zoneBudget(zone config.ZoneConfig, measurementDefault int) time.Duration {
	count := zone.EffectiveMeasurements(measurementDefault)
	return zone.ConnectionBudget() + zone.PollInterval()*time.Duration(count) + SafetyMargin
}

// joinBudget is the orchestrator's wait bound: the maximum zone budget,
// not the sum. The slowest zone's worst case governs the join without
// starving fast zones.
func joinBudget(zones []config.ZoneConfig, measurementDefault int) time.Duration {
	var longest time.Duration
	for _, zone := range zones {
		if b := zoneBudget(zone, measurementDefault); b > longest {
			longest = b
		}
	}
	return longest
}
