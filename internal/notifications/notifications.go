package notifications

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Notifier is the alerting channel used by supervision workers to report
// degraded-but-recovered and fatal conditions. Implementations must be
// safe for concurrent use; failures of the channel itself are logged and
// swallowed by callers, never escalated.
type Notifier interface {
	Notify(subject, body string) error
}

// Ntfy sends alerts to an ntfy.sh topic.
type Ntfy struct {
	client *http.Client
	topic  string
}

func NewNtfy(topic string) *Ntfy {
	return &Ntfy{
		client: &http.Client{Timeout: 10 * time.Second},
		topic:  topic,
	}
}

func (n *Ntfy) Notify(subject, body string) error {
	alertID := uuid.NewString()
	url := fmt.Sprintf("https://ntfy.sh/%s", n.topic)

	payload := map[string]interface{}{
		"topic":   n.topic,
		"title":   subject,
		"message": fmt.Sprintf("%s\n\nalert_id: %s", body, alertID),
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ntfy returned non-success status: %d", resp.StatusCode)
	}

	log.Debug().
		Str("title", subject).
		Str("alert_id", alertID).
		Int("status", resp.StatusCode).
		Msg("Notification sent successfully")

	return nil
}

// Nop discards alerts. Used when no alerting channel is configured.
type Nop struct{}

func (Nop) Notify(subject, body string) error { return nil }
