package backend

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cjkrolak/thermostat-supervisor/internal/model"
)

// Emulator is an in-memory backend producing synthetic readings around a
// base setpoint. It stands in for a vendor cloud during development and
// in the default demo site.
type Emulator struct {
	BaseTemp     float64
	BaseHumidity float64
	Mode         model.ThermostatMode

	// Jitter bounds the random walk applied to each reading, in degrees.
	Jitter float64
}

func NewEmulator() *Emulator {
	return &Emulator{
		BaseTemp:     70.0,
		BaseHumidity: 45.0,
		Mode:         model.ModeOff,
		Jitter:       1.5,
	}
}

func (e *Emulator) Open(ctx context.Context, zone int) (Handle, error) {
	log.Debug().Int("zone", zone).Msg("Opening emulator zone")
	return &emulatorHandle{emu: e, zone: zone}, nil
}

type emulatorHandle struct {
	emu  *Emulator
	zone int
}

func (h *emulatorHandle) Query(ctx context.Context) (model.ZoneInfo, error) {
	// Per-zone offset keeps zones distinguishable in reports.
	temp := h.emu.BaseTemp + float64(h.zone) + (rand.Float64()*2-1)*h.emu.Jitter
	humidity := h.emu.BaseHumidity + (rand.Float64()*2-1)*h.emu.Jitter

	return model.ZoneInfo{
		Temperature: &temp,
		Humidity:    &humidity,
		Mode:        h.emu.Mode,
		Timestamp:   time.Now(),
	}, nil
}

func (h *emulatorHandle) Close() error { return nil }
