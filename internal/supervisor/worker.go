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
)

// runZone is the per-zone measurement loop. It opens the zone's backend
// handle once, takes count sequential measurements with the configured
// poll sleep between them, and terminates on the first unrecoverable
// error after recording exactly one ZoneError. The handle is released on
// every exit path.
func (s *Supervisor) runZone(ctx context.Context, zone config.ZoneConfig, label string, count int, b backend.Backend) {
	key := zone.Key()
	logger := log.With().Str("worker", label).Str("zone_key", key).Logger()

	logger.Info().Int("measurements", count).Msg("Starting zone worker")

	h, err := b.Open(ctx, zone.Zone)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open zone backend")
		s.store.Fail(key, model.ZoneError{
			Message:   fmt.Sprintf("failed to open backend: %v", err),
			Worker:    label,
			Timestamp: time.Now(),
		})
		datadog.Count("supervision.zone_errors", 1, "zone_key:"+key)
		return
	}
	defer func() {
		if cerr := h.Close(); cerr != nil {
			logger.Warn().Err(cerr).Msg("Failed to close zone handle")
		}
	}()

	for seq := 1; seq <= count; seq++ {
		info, err := s.reader.Refresh(ctx, key, h)
		if err != nil {
			logger.Error().Err(err).Int("sequence", seq).Msg("Zone refresh failed, stopping worker")
			s.store.Fail(key, model.ZoneError{
				Message:   err.Error(),
				Worker:    label,
				Timestamp: time.Now(),
			})
			datadog.Count("supervision.zone_errors", 1, "zone_key:"+key)
			return
		}

		ts := info.Timestamp
		if ts.IsZero() {
			ts = time.Now()
		}
		s.store.Append(key, model.Measurement{
			Timestamp:   ts,
			Sequence:    seq,
			Temperature: info.Temperature,
			Humidity:    info.Humidity,
			Mode:        info.Mode,
			Worker:      label,
		})

		if info.Temperature != nil {
			datadog.Gauge("zone.temperature", *info.Temperature, "zone_key:"+key)
		}
		if info.Humidity != nil {
			datadog.Gauge("zone.humidity", *info.Humidity, "zone_key:"+key)
		}
		logger.Debug().
			Int("sequence", seq).
			Str("mode", string(info.Mode)).
			Msg("Recorded measurement")

		// No sleep after the final measurement.
		if seq < count {
			select {
			case <-time.After(zone.PollInterval()):
			case <-ctx.Done():
				logger.Warn().Err(ctx.Err()).Msg("Context done during poll sleep, stopping worker")
				return
			}
		}
	}

	logger.Info().Int("measurements", count).Msg("Zone worker completed")
}
