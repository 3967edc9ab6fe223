package reader

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cjkrolak/thermostat-supervisor/internal/backend"
	"github.com/cjkrolak/thermostat-supervisor/internal/model"
	"github.com/cjkrolak/thermostat-supervisor/internal/notifications"
)

const (
	// DefaultAttempts bounds transient-failure retries for one refresh.
	DefaultAttempts = 3
	// DefaultRetryDelay is the pause between attempts.
	DefaultRetryDelay = 30 * time.Second
)

// ZoneUnavailableError reports that a zone's backend could not be
// reached after retry exhaustion.
type ZoneUnavailableError struct {
	ZoneKey  string
	Attempts int
	Err      error
}

func (e *ZoneUnavailableError) Error() string {
	return fmt.Sprintf("zone %s unavailable after %d attempts: %v", e.ZoneKey, e.Attempts, e.Err)
}

func (e *ZoneUnavailableError) Unwrap() error { return e.Err }

// Reader makes a single zone refresh resilient to transient failures:
// connection errors and malformed responses are retried with a fixed
// delay, and recovery or exhaustion is escalated through the alerting
// channel. The policy is backend-agnostic.
type Reader struct {
	notifier notifications.Notifier
	attempts int
	delay    time.Duration
}

func New(notifier notifications.Notifier) *Reader {
	return NewWithPolicy(notifier, DefaultAttempts, DefaultRetryDelay)
}

// NewWithPolicy builds a Reader with an explicit retry budget. Tests use
// this to avoid real backoff sleeps.
func NewWithPolicy(notifier notifications.Notifier, attempts int, delay time.Duration) *Reader {
	if attempts < 1 {
		attempts = 1
	}
	return &Reader{notifier: notifier, attempts: attempts, delay: delay}
}

// Refresh queries the handle, retrying transient failures. A success
// after at least one failure emits a mitigated-failure alert; exhausting
// all attempts emits a fatal-failure alert and returns
// ZoneUnavailableError.
func (r *Reader) Refresh(ctx context.Context, zoneKey string, h backend.Handle) (model.ZoneInfo, error) {
	var lastErr error

	for attempt := 1; attempt <= r.attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(r.delay):
			case <-ctx.Done():
				return model.ZoneInfo{}, fmt.Errorf("refresh of %s interrupted: %w", zoneKey, ctx.Err())
			}
		}

		info, err := h.Query(ctx)
		if err == nil {
			if attempt > 1 {
				log.Warn().
					Str("zone_key", zoneKey).
					Int("attempt", attempt).
					Msg("Zone refresh recovered after retry")
				r.notify(
					fmt.Sprintf("Mitigated failure on %s", zoneKey),
					fmt.Sprintf("Zone %s recovered on attempt %d of %d. Last error: %v", zoneKey, attempt, r.attempts, lastErr),
				)
			}
			return info, nil
		}

		lastErr = err
		log.Warn().
			Err(err).
			Str("zone_key", zoneKey).
			Int("attempt", attempt).
			Int("max_attempts", r.attempts).
			Msg("Zone refresh attempt failed")
	}

	r.notify(
		fmt.Sprintf("Fatal failure on %s", zoneKey),
		fmt.Sprintf("Zone %s failed all %d refresh attempts. Last error: %v", zoneKey, r.attempts, lastErr),
	)

	return model.ZoneInfo{}, &ZoneUnavailableError{ZoneKey: zoneKey, Attempts: r.attempts, Err: lastErr}
}

// notify sends an alert, swallowing channel failures. A broken alerting
// channel must never take down a worker.
func (r *Reader) notify(subject, body string) {
	if r.notifier == nil {
		return
	}
	if err := r.notifier.Notify(subject, body); err != nil {
		log.Warn().Err(err).Str("subject", subject).Msg("Failed to send notification")
	}
}
