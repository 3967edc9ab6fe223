package config

import (
	"flag"

	"github.com/rs/zerolog"
)

// Config is the process-level supervisor configuration, assembled from
// CLI flags. Site topology lives in a separate JSON file (see
// LoadSiteFile); everything here is passed by value into constructors —
// no package-level state.
type Config struct {
	SiteFile string
	LogLevel zerolog.Level
	LogFile  string

	MeasurementDefault int
	Parallel           bool

	HistoryDB string

	NtfyTopic string

	DDAgentAddr   string
	DDNamespace   string
	EnableDatadog bool

	SensorBaseURL string
	MQTTBroker    string
	MQTTTopic     string
}

func Load() Config {
	var cfg Config
	var logLevel string

	flag.StringVar(&cfg.SiteFile, "site-file", "site.json", "Path to site config file")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.StringVar(&cfg.LogFile, "log-file", "", "Log file path (stderr when empty)")
	flag.IntVar(&cfg.MeasurementDefault, "measurements", 1, "Default measurement count per zone")
	flag.BoolVar(&cfg.Parallel, "parallel", true, "Supervise zones concurrently")
	flag.StringVar(&cfg.HistoryDB, "history-db", "", "SQLite run-history database (disabled when empty)")
	flag.StringVar(&cfg.NtfyTopic, "ntfy-topic", "", "Ntfy topic for failure alerts")
	flag.StringVar(&cfg.DDAgentAddr, "dd-agent", "127.0.0.1:8125", "DogStatsD agent address")
	flag.StringVar(&cfg.DDNamespace, "dd-namespace", "thermostat_supervisor.", "DogStatsD metric namespace")
	flag.BoolVar(&cfg.EnableDatadog, "enable-datadog", false, "Emit DogStatsD metrics")
	flag.StringVar(&cfg.SensorBaseURL, "sensor-url", "", "Base URL for the local HTTP sensor backend")
	flag.StringVar(&cfg.MQTTBroker, "mqtt-broker", "", "MQTT broker URL for the MQTT sensor backend")
	flag.StringVar(&cfg.MQTTTopic, "mqtt-topic", "sensors", "MQTT topic prefix for zone telemetry")
	flag.Parse()

	cfg.LogLevel = parseLogLevel(logLevel)
	return cfg
}

func parseLogLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
