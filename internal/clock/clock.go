// Package clock supplies the normalized time source shared by expectation
// registration, the reconciler and retry waits.
//
// Timestamps are always UTC with whole-second precision because the listener
// stores event times as "YYYY-MM-DD HH:MM:SS" in UTC; anything finer would
// only produce spurious ordering differences against stored events.
package clock

import (
	"context"
	"sync"
	"time"
)

// Clock provides the current time and a way to wait, so retry and settle
// logic can be tested without real sleeps.
type Clock interface {
	// Now returns the current time, normalized to UTC whole seconds.
	Now() time.Time

	// Sleep waits for d or until ctx is done, returning ctx.Err() in the
	// latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

// Normalize converts t to UTC and drops sub-second precision.
func Normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// RealClock implements Clock using the actual system time.
type RealClock struct{}

// Now returns the current UTC time truncated to the second.
func (RealClock) Now() time.Time {
	return Normalize(time.Now())
}

// Sleep blocks for d or until ctx is cancelled.
func (RealClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// MockClock implements Clock with a controllable time value. Sleep advances
// the clock instead of blocking and remembers every requested duration.
type MockClock struct {
	mu      sync.RWMutex
	current time.Time
	sleeps  []time.Duration

	// OnSleep, when set, runs after each Sleep has advanced the clock. Tests
	// use it to make events "arrive" while a caller is waiting.
	OnSleep func(now time.Time)
}

// NewMockClock creates a new mock clock initialized to the given time.
// If t is zero, the clock is initialized to the current time.
func NewMockClock(t time.Time) *MockClock {
	if t.IsZero() {
		t = time.Now()
	}
	return &MockClock{current: Normalize(t)}
}

// Now returns the current time according to this mock clock.
func (m *MockClock) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Sleep advances the clock by d and records the call.
func (m *MockClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	m.current = m.current.Add(d)
	m.sleeps = append(m.sleeps, d)
	now := m.current
	hook := m.OnSleep
	m.mu.Unlock()

	if hook != nil {
		hook(now)
	}
	return nil
}

// Sleeps returns the durations passed to Sleep so far.
func (m *MockClock) Sleeps() []time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]time.Duration, len(m.sleeps))
	copy(out, m.sleeps)
	return out
}

// Advance moves the clock forward by the given duration.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.current.Add(d)
}

// Set sets the clock to a specific time.
func (m *MockClock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = Normalize(t)
}
