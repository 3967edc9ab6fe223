package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cjkrolak/thermostat-supervisor/internal/model"
)

// HTTPSensor reads zones from a local JSON sensor endpoint (an sht31
// board or similar). Each zone maps to GET {baseURL}/zone/{n}.
type HTTPSensor struct {
	baseURL string
	client  *http.Client
}

func NewHTTPSensor(baseURL string, timeout time.Duration) *HTTPSensor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSensor{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSensor) Open(ctx context.Context, zone int) (Handle, error) {
	return &httpSensorHandle{
		url:    fmt.Sprintf("%s/zone/%d", s.baseURL, zone),
		client: s.client,
	}, nil
}

type httpSensorHandle struct {
	url    string
	client *http.Client
}

// sensorDocument is the wire format served by the sensor board.
type sensorDocument struct {
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	Mode        string   `json:"mode"`
}

func (h *httpSensorHandle) Query(ctx context.Context) (model.ZoneInfo, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", h.url, nil)
	if err != nil {
		return model.ZoneInfo{}, fmt.Errorf("failed to create sensor request: %w", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return model.ZoneInfo{}, fmt.Errorf("sensor request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.ZoneInfo{}, fmt.Errorf("sensor returned non-success status: %d", resp.StatusCode)
	}

	var doc sensorDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return model.ZoneInfo{}, fmt.Errorf("failed to decode sensor response: %w", err)
	}

	return model.ZoneInfo{
		Temperature: doc.Temperature,
		Humidity:    doc.Humidity,
		Mode:        model.ThermostatMode(doc.Mode),
		Timestamp:   time.Now(),
	}, nil
}

func (h *httpSensorHandle) Close() error { return nil }
