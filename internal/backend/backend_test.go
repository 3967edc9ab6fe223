package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cjkrolak/thermostat-supervisor/internal/model"
)

func TestRegistryResolve(t *testing.T) {
	r := NewRegistry()
	emu := NewEmulator()
	r.Register("emulator", emu)

	b, err := r.Resolve("emulator")
	assert.NoError(t, err)
	assert.Equal(t, emu, b)

	_, err = r.Resolve("honeywell")
	assert.ErrorIs(t, err, ErrUnknownZoneType)
	assert.Contains(t, err.Error(), "honeywell")
}

func TestRegistryTypesSorted(t *testing.T) {
	r := NewRegistry()
	r.Register("sht31", NewEmulator())
	r.Register("emulator", NewEmulator())
	r.Register("mqtt", NewEmulator())

	assert.Equal(t, []string{"emulator", "mqtt", "sht31"}, r.Types())
}

func TestEmulatorReadings(t *testing.T) {
	emu := NewEmulator()
	emu.Mode = model.ModeCool

	h, err := emu.Open(context.Background(), 2)
	assert.NoError(t, err)
	defer h.Close()

	info, err := h.Query(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, model.ModeCool, info.Mode)
	assert.NotNil(t, info.Temperature)
	assert.NotNil(t, info.Humidity)
	assert.InDelta(t, emu.BaseTemp+2, *info.Temperature, emu.Jitter)
	assert.InDelta(t, emu.BaseHumidity, *info.Humidity, emu.Jitter)
	assert.False(t, info.Timestamp.IsZero())
}

func TestHTTPSensorQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/zone/3", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"temperature": 21.5, "humidity": 40.0, "mode": "heat"}`))
	}))
	defer srv.Close()

	sensor := NewHTTPSensor(srv.URL, time.Second)
	h, err := sensor.Open(context.Background(), 3)
	assert.NoError(t, err)
	defer h.Close()

	info, err := h.Query(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 21.5, *info.Temperature)
	assert.Equal(t, 40.0, *info.Humidity)
	assert.Equal(t, model.ModeHeat, info.Mode)
}

func TestHTTPSensorNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	sensor := NewHTTPSensor(srv.URL, time.Second)
	h, _ := sensor.Open(context.Background(), 0)

	_, err := h.Query(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "non-success status: 500")
}

func TestHTTPSensorMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	sensor := NewHTTPSensor(srv.URL, time.Second)
	h, _ := sensor.Open(context.Background(), 0)

	_, err := h.Query(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode sensor response")
}
