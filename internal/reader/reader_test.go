package reader

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cjkrolak/thermostat-supervisor/internal/model"
)

type fakeHandle struct {
	failures int // initial Query calls that fail
	calls    int
}

func (h *fakeHandle) Query(ctx context.Context) (model.ZoneInfo, error) {
	h.calls++
	if h.calls <= h.failures {
		return model.ZoneInfo{}, errors.New("connection refused")
	}
	temp := 70.5
	return model.ZoneInfo{Temperature: &temp, Mode: model.ModeHeat, Timestamp: time.Now()}, nil
}

func (h *fakeHandle) Close() error { return nil }

type recordingNotifier struct {
	mu       sync.Mutex
	subjects []string
	err      error
}

func (n *recordingNotifier) Notify(subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subjects = append(n.subjects, subject)
	return n.err
}

func TestRefreshSucceedsWithoutAlerts(t *testing.T) {
	notifier := &recordingNotifier{}
	r := NewWithPolicy(notifier, 3, 0)

	info, err := r.Refresh(context.Background(), "honeywell_zone0", &fakeHandle{})
	assert.NoError(t, err)
	assert.Equal(t, 70.5, *info.Temperature)
	assert.Empty(t, notifier.subjects)
}

func TestRefreshMitigatedFailure(t *testing.T) {
	notifier := &recordingNotifier{}
	r := NewWithPolicy(notifier, 3, 0)
	h := &fakeHandle{failures: 1}

	info, err := r.Refresh(context.Background(), "honeywell_zone0", h)
	assert.NoError(t, err)
	assert.Equal(t, 70.5, *info.Temperature)
	assert.Equal(t, 2, h.calls)
	assert.Len(t, notifier.subjects, 1)
	assert.Contains(t, notifier.subjects[0], "Mitigated failure on honeywell_zone0")
}

func TestRefreshFatalFailure(t *testing.T) {
	notifier := &recordingNotifier{}
	r := NewWithPolicy(notifier, 3, 0)
	h := &fakeHandle{failures: 10}

	_, err := r.Refresh(context.Background(), "honeywell_zone0", h)
	assert.Error(t, err)
	assert.Equal(t, 3, h.calls, "retry budget is exhausted, not exceeded")

	var unavailable *ZoneUnavailableError
	assert.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "honeywell_zone0", unavailable.ZoneKey)
	assert.Equal(t, 3, unavailable.Attempts)

	assert.Len(t, notifier.subjects, 1)
	assert.Contains(t, notifier.subjects[0], "Fatal failure on honeywell_zone0")
}

func TestRefreshSwallowsNotifierErrors(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("ntfy down")}
	r := NewWithPolicy(notifier, 3, 0)

	info, err := r.Refresh(context.Background(), "honeywell_zone0", &fakeHandle{failures: 1})
	assert.NoError(t, err, "a broken alerting channel must not fail the refresh")
	assert.NotNil(t, info.Temperature)
}

func TestRefreshNilNotifier(t *testing.T) {
	r := NewWithPolicy(nil, 3, 0)
	_, err := r.Refresh(context.Background(), "honeywell_zone0", &fakeHandle{failures: 10})
	var unavailable *ZoneUnavailableError
	assert.ErrorAs(t, err, &unavailable)
}

func TestRefreshStopsOnContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	notifier := &recordingNotifier{}
	r := NewWithPolicy(notifier, 3, time.Hour)

	_, err := r.Refresh(ctx, "honeywell_zone0", &fakeHandle{failures: 10})
	assert.ErrorIs(t, err, context.Canceled)
}
