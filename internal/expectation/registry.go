package expectation

import (
	"sync"

	"eventcheck/internal/clock"
	"eventcheck/pkg/logging"
)

// Registry is the ordered, append-only collection of expectations of one
// test session. Iteration order is registration order, which the reconciler
// relies on to tell repeated firings of the same event apart.
type Registry struct {
	mu           sync.RWMutex
	clock        clock.Clock
	expectations []*Expectation
}

// NewRegistry creates an empty registry timestamping with c.
// A nil clock falls back to clock.RealClock.
func NewRegistry(c clock.Clock) *Registry {
	if c == nil {
		c = clock.RealClock{}
	}
	return &Registry{clock: c}
}

// Register records that each named event should occur for the object.
//
// The registration time is captured once per call, so every event named in
// one call shares the same timestamp.
func (r *Registry) Register(systemType SystemType, objectType ObjectType, objectID string, events ...string) {
	registeredAt := r.clock.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, event := range events {
		e := New(Identity{
			SystemType: systemType,
			ObjectType: objectType,
			ObjectID:   objectID,
			Event:      event,
		}, registeredAt)
		r.expectations = append(r.expectations, e)
		logging.Info("Registry", "Registered expectation %s at %s", e.Identity, registeredAt.Format("2006-01-02 15:04:05"))
	}
}

// Add appends an already constructed expectation, keeping its timestamps.
// It is used to restore a registry saved by another process.
func (r *Registry) Add(e *Expectation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expectations = append(r.expectations, e)
}

// Count returns the number of registered expectations.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.expectations)
}

// All returns the expectations in registration order. The slice is a copy;
// the expectations themselves are shared so reconciliation can mark them.
func (r *Registry) All() []*Expectation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Expectation, len(r.expectations))
	copy(out, r.expectations)
	return out
}
