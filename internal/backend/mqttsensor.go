package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/cjkrolak/thermostat-supervisor/internal/model"
)

// MQTTSensor reads zones from telemetry published to an MQTT broker.
// Each zone subscribes to {topicPrefix}/zone/{n} and Query returns the
// most recent retained or live reading.
type MQTTSensor struct {
	broker      string
	topicPrefix string
	waitTimeout time.Duration
}

func NewMQTTSensor(broker, topicPrefix string) *MQTTSensor {
	return &MQTTSensor{
		broker:      broker,
		topicPrefix: topicPrefix,
		waitTimeout: 30 * time.Second,
	}
}

// telemetryDocument is the payload published by zone sensors.
type telemetryDocument struct {
	Temperature *float64  `json:"temperature"`
	Humidity    *float64  `json:"humidity"`
	Mode        string    `json:"mode"`
	Timestamp   time.Time `json:"timestamp"`
}

func (s *MQTTSensor) Open(ctx context.Context, zone int) (Handle, error) {
	topic := fmt.Sprintf("%s/zone/%d", s.topicPrefix, zone)

	h := &mqttSensorHandle{
		topic:       topic,
		waitTimeout: s.waitTimeout,
		first:       make(chan struct{}),
	}

	opts := mqtt.NewClientOptions().
		AddBroker(s.broker).
		SetClientID(fmt.Sprintf("thermostat-supervisor-%d-%s", zone, uuid.NewString()[:8])).
		SetConnectTimeout(10 * time.Second).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); !token.WaitTimeout(15*time.Second) || token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to mqtt broker %s: %w", s.broker, tokenErr(token))
	}

	if token := client.Subscribe(topic, 1, h.onMessage); !token.WaitTimeout(10*time.Second) || token.Error() != nil {
		client.Disconnect(250)
		return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, tokenErr(token))
	}

	h.client = client
	log.Debug().Str("topic", topic).Msg("Subscribed to zone telemetry")
	return h, nil
}

func tokenErr(token mqtt.Token) error {
	if err := token.Error(); err != nil {
		return err
	}
	return fmt.Errorf("timed out")
}

type mqttSensorHandle struct {
	client      mqtt.Client
	topic       string
	waitTimeout time.Duration

	mu        sync.Mutex
	latest    *model.ZoneInfo
	first     chan struct{}
	firstOnce sync.Once
}

func (h *mqttSensorHandle) onMessage(_ mqtt.Client, msg mqtt.Message) {
	var doc telemetryDocument
	if err := json.Unmarshal(msg.Payload(), &doc); err != nil {
		log.Warn().Err(err).Str("topic", msg.Topic()).Msg("Dropping malformed telemetry payload")
		return
	}

	ts := doc.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	info := model.ZoneInfo{
		Temperature: doc.Temperature,
		Humidity:    doc.Humidity,
		Mode:        model.ThermostatMode(doc.Mode),
		Timestamp:   ts,
	}

	h.mu.Lock()
	h.latest = &info
	h.mu.Unlock()
	h.firstOnce.Do(func() { close(h.first) })
}

func (h *mqttSensorHandle) Query(ctx context.Context) (model.ZoneInfo, error) {
	h.mu.Lock()
	latest := h.latest
	h.mu.Unlock()

	if latest != nil {
		return *latest, nil
	}

	// No reading yet; wait for the first publication.
	select {
	case <-h.first:
	case <-ctx.Done():
		return model.ZoneInfo{}, fmt.Errorf("waiting for telemetry on %s: %w", h.topic, ctx.Err())
	case <-time.After(h.waitTimeout):
		return model.ZoneInfo{}, fmt.Errorf("no telemetry received on %s within %s", h.topic, h.waitTimeout)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return *h.latest, nil
}

func (h *mqttSensorHandle) Close() error {
	h.client.Disconnect(250)
	return nil
}
