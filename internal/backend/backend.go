package backend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/cjkrolak/thermostat-supervisor/internal/model"
)

// ErrUnknownZoneType is returned when a site config names a thermostat
// type that no backend was registered for.
var ErrUnknownZoneType = errors.New("unknown zone type")

// Handle is an open connection to one zone. A handle is used by exactly
// one worker and needs no external synchronization.
type Handle interface {
	// Query takes one reading from the zone. Errors are treated as
	// transient by the retrying reader.
	Query(ctx context.Context) (model.ZoneInfo, error)
	Close() error
}

// Backend is the hardware capability for one thermostat type. Open must
// be safe to call from any worker goroutine.
type Backend interface {
	Open(ctx context.Context, zone int) (Handle, error)
}

// Registry maps thermostat type tags to backends. It replaces dynamic
// lookup of vendor modules by string key: backends are registered at
// startup and resolved by tag.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Backend
}

func NewRegistry() *Registry {
	return &Registry{backends: make(map[string]Backend)}
}

func (r *Registry) Register(zoneType string, b Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[zoneType] = b
}

func (r *Registry) Resolve(zoneType string) (Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.backends[zoneType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownZoneType, zoneType)
	}
	return b, nil
}

// Types returns the registered thermostat type tags, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.backends))
	for t := range r.backends {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
