package planner

import (
	"context"
	"sync"
	"time"
)

// Registry maps session ids to their controllers and forgets sessions that
// stay idle longer than the TTL.
type Registry struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	factory func() *Controller
	entries map[string]*registryEntry
}

type registryEntry struct {
	ctrl     *Controller
	lastSeen time.Time
}

// RegistryOption customizes a Registry.
type RegistryOption func(*Registry)

// WithClock overrides the time source.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRegistry constructs a registry creating controllers with factory.
func NewRegistry(ttl time.Duration, factory func() *Controller, opts ...RegistryOption) *Registry {
	r := &Registry{
		ttl:     ttl,
		now:     time.Now,
		factory: factory,
		entries: make(map[string]*registryEntry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the controller for id, creating it on first use.
func (r *Registry) Get(id string) *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	if e, ok := r.entries[id]; ok && (r.ttl <= 0 || now.Sub(e.lastSeen) <= r.ttl) {
		e.lastSeen = now
		return e.ctrl
	}
	e := &registryEntry{ctrl: r.factory(), lastSeen: now}
	r.entries[id] = e
	return e.ctrl
}

// Len returns the number of tracked sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep removes idle sessions and returns how many were evicted.
func (r *Registry) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	evicted := 0
	for id, e := range r.entries {
		if now.Sub(e.lastSeen) > r.ttl {
			delete(r.entries, id)
			evicted++
		}
	}
	return evicted
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}
