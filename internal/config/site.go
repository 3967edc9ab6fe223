package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cjkrolak/thermostat-supervisor/internal/model"
)

const (
	DefaultPollTimeSec       = 60
	DefaultConnectionTimeSec = 300
)

// ConfigError reports a malformed site configuration. It is raised
// before any supervision worker starts.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "invalid site config: " + e.Reason
}

// ZoneConfig describes one supervised zone. Immutable once supervision
// starts.
type ZoneConfig struct {
	ThermostatType    string               `json:"thermostat_type"`
	Zone              int                  `json:"zone"`
	Enabled           bool                 `json:"enabled"`
	PollTimeSec       int                  `json:"poll_time"`
	ConnectionTimeSec int                  `json:"connection_time"`
	ToleranceDegrees  int                  `json:"tolerance"`
	TargetMode        model.ThermostatMode `json:"target_mode"`
	Measurements      int                  `json:"measurements"`
}

// Key returns the zone key used to index results and errors.
func (z ZoneConfig) Key() string {
	return fmt.Sprintf("%s_zone%d", z.ThermostatType, z.Zone)
}

// PollInterval is the sleep between consecutive measurements.
func (z ZoneConfig) PollInterval() time.Duration {
	return time.Duration(z.PollTimeSec) * time.Second
}

// ConnectionBudget is the worst-case allowance for opening and querying
// the zone's backend.
func (z ZoneConfig) ConnectionBudget() time.Duration {
	return time.Duration(z.ConnectionTimeSec) * time.Second
}

// EffectiveMeasurements resolves the measurement count for a run: the
// zone's own count when set, otherwise the supervision default, floored
// at one measurement.
func (z ZoneConfig) EffectiveMeasurements(deflt int) int {
	n := z.Measurements
	if n <= 0 {
		n = deflt
	}
	if n <= 0 {
		n = 1
	}
	return n
}

// SiteConfig is a validated, immutable description of a supervised site.
type SiteConfig struct {
	SiteName string       `json:"site_name"`
	Zones    []ZoneConfig `json:"zones"`
}

// EnabledZones returns the zones that participate in supervision, in
// configuration order. Disabled zones stay in Zones for display.
func (s *SiteConfig) EnabledZones() []ZoneConfig {
	enabled := make([]ZoneConfig, 0, len(s.Zones))
	for _, z := range s.Zones {
		if z.Enabled {
			enabled = append(enabled, z)
		}
	}
	return enabled
}

// ValidateSite checks a decoded JSON document and builds a SiteConfig
// with defaults applied. It is pure: no zone is contacted and no worker
// is created here.
func ValidateSite(raw any) (*SiteConfig, error) {
	doc, ok := raw.(map[string]any)
	if !ok {
		return nil, &ConfigError{Reason: fmt.Sprintf("top-level value must be an object, got %T", raw)}
	}

	site := &SiteConfig{}
	if name, ok := doc["site_name"].(string); ok {
		site.SiteName = name
	}

	zonesRaw, ok := doc["zones"]
	if !ok {
		return nil, &ConfigError{Reason: "missing required field \"zones\""}
	}
	zoneList, ok := zonesRaw.([]any)
	if !ok {
		return nil, &ConfigError{Reason: fmt.Sprintf("field \"zones\" must be a list, got %T", zonesRaw)}
	}

	site.Zones = make([]ZoneConfig, 0, len(zoneList))
	for i, entry := range zoneList {
		zoneDoc, ok := entry.(map[string]any)
		if !ok {
			return nil, &ConfigError{Reason: fmt.Sprintf("zones[%d] must be an object, got %T", i, entry)}
		}
		zone, err := validateZone(i, zoneDoc)
		if err != nil {
			return nil, err
		}
		site.Zones = append(site.Zones, zone)
	}

	return site, nil
}

func validateZone(idx int, doc map[string]any) (ZoneConfig, error) {
	zone := ZoneConfig{
		Enabled:           true,
		PollTimeSec:       DefaultPollTimeSec,
		ConnectionTimeSec: DefaultConnectionTimeSec,
	}

	thermostatType, ok := doc["thermostat_type"].(string)
	if !ok || thermostatType == "" {
		return zone, &ConfigError{Reason: fmt.Sprintf("zones[%d] missing required field \"thermostat_type\"", idx)}
	}
	zone.ThermostatType = thermostatType

	zoneID, ok := intField(doc, "zone")
	if !ok {
		return zone, &ConfigError{Reason: fmt.Sprintf("zones[%d] missing required field \"zone\"", idx)}
	}
	zone.Zone = zoneID

	if v, ok := doc["enabled"].(bool); ok {
		zone.Enabled = v
	}
	if v, ok := intField(doc, "poll_time"); ok {
		zone.PollTimeSec = v
	}
	if v, ok := intField(doc, "connection_time"); ok {
		zone.ConnectionTimeSec = v
	}
	if v, ok := intField(doc, "tolerance"); ok {
		zone.ToleranceDegrees = v
	}
	if v, ok := doc["target_mode"].(string); ok {
		zone.TargetMode = model.ThermostatMode(v)
	}
	if v, ok := intField(doc, "measurements"); ok {
		zone.Measurements = v
	}

	return zone, nil
}

// intField reads a numeric field that may arrive as float64 (decoded
// JSON) or int (in-memory construction).
func intField(doc map[string]any, key string) (int, bool) {
	switch v := doc[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}

// LoadSiteFile reads and validates a site config JSON file.
func LoadSiteFile(path string) (*SiteConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open site config: %w", err)
	}
	defer f.Close()
	return ReadSite(f)
}

// ReadSite decodes and validates a site config JSON document.
func ReadSite(r io.Reader) (*SiteConfig, error) {
	var raw any
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, &ConfigError{Reason: "failed to parse site config: " + err.Error()}
	}
	return ValidateSite(raw)
}
