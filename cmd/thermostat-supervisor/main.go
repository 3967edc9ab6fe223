package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/cjkrolak/thermostat-supervisor/db"
	"github.com/cjkrolak/thermostat-supervisor/internal/backend"
	"github.com/cjkrolak/thermostat-supervisor/internal/config"
	"github.com/cjkrolak/thermostat-supervisor/internal/datadog"
	"github.com/cjkrolak/thermostat-supervisor/internal/logging"
	"github.com/cjkrolak/thermostat-supervisor/internal/model"
	"github.com/cjkrolak/thermostat-supervisor/internal/notifications"
	"github.com/cjkrolak/thermostat-supervisor/internal/supervisor"
)

func main() {
	cfg := config.Load()
	logging.Init(cfg.LogLevel, cfg.LogFile)

	log.Info().
		Str("site_file", cfg.SiteFile).
		Bool("parallel", cfg.Parallel).
		Msg("Starting thermostat supervisor")

	datadog.InitMetrics(cfg.DDAgentAddr, cfg.DDNamespace, cfg.EnableDatadog)

	site, err := config.LoadSiteFile(cfg.SiteFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Refusing to start with invalid site config")
	}

	log.Info().
		Str("site", site.SiteName).
		Int("zones", len(site.Zones)).
		Int("enabled", len(site.EnabledZones())).
		Msg("Loaded site config")

	registry := buildRegistry(cfg)
	notifier := buildNotifier(cfg)

	sup := supervisor.New(registry, notifier)

	startedAt := time.Now()
	report, err := sup.SuperviseAll(context.Background(), site, cfg.MeasurementDefault, cfg.Parallel)
	if err != nil {
		log.Fatal().Err(err).Msg("Supervision aborted")
	}
	finishedAt := time.Now()

	logReport(report)

	if cfg.HistoryDB != "" {
		archiveReport(cfg.HistoryDB, site.SiteName, startedAt, finishedAt, report)
	}
}

func buildRegistry(cfg config.Config) *backend.Registry {
	registry := backend.NewRegistry()
	registry.Register("emulator", backend.NewEmulator())

	if cfg.SensorBaseURL != "" {
		registry.Register("sht31", backend.NewHTTPSensor(cfg.SensorBaseURL, 10*time.Second))
	}
	if cfg.MQTTBroker != "" {
		registry.Register("mqtt", backend.NewMQTTSensor(cfg.MQTTBroker, cfg.MQTTTopic))
	}

	log.Info().Strs("backends", registry.Types()).Msg("Hardware backends registered")
	return registry
}

func buildNotifier(cfg config.Config) notifications.Notifier {
	if cfg.NtfyTopic == "" {
		log.Warn().Msg("Ntfy topic not configured - notifications disabled")
		return notifications.Nop{}
	}
	log.Info().Str("topic", cfg.NtfyTopic).Msg("Ntfy notifications initialized")
	return notifications.NewNtfy(cfg.NtfyTopic)
}

func logReport(report model.Report) {
	for zoneKey, measurements := range report.Results {
		last := measurements[len(measurements)-1]
		event := log.Info().
			Str("zone_key", zoneKey).
			Int("measurements", len(measurements)).
			Str("mode", string(last.Mode))
		if last.Temperature != nil {
			event = event.Float64("temperature", *last.Temperature)
		}
		if last.Humidity != nil {
			event = event.Float64("humidity", *last.Humidity)
		}
		event.Msg("Zone report")
	}
	for zoneKey, zerr := range report.Errors {
		log.Error().
			Str("zone_key", zoneKey).
			Str("worker", zerr.Worker).
			Str("error", zerr.Message).
			Msg("Zone failed")
	}
}

func archiveReport(path, siteName string, startedAt, finishedAt time.Time, report model.Report) {
	conn, err := db.Open(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to open history database, skipping archive")
		return
	}
	defer conn.Close()

	runID := uuid.NewString()
	if err := db.SaveReport(conn, runID, siteName, startedAt, finishedAt, report); err != nil {
		log.Warn().Err(err).Str("run_id", runID).Msg("Failed to archive supervision run")
		return
	}
	log.Info().Str("run_id", runID).Str("path", path).Msg("Archived supervision run")
}
