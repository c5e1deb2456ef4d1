package reconciler

import (
	"time"

	"eventcheck/internal/expectation"
)

// ComputeWindow returns the range e is matched in during a pass that
// started at start.
//
// The window opens at e's registration and closes at the next registration
// of a logically equal expectation, or at start when there is none. Repeated
// firings of one event for one object thus get adjacent, disjoint windows
// and each firing is attributed to at most one expectation.
//
// Equal expectations registered in the same second share a window.
func ComputeWindow(e *expectation.Expectation, all []*expectation.Expectation, start time.Time) Window {
	w := Window{Lower: e.RegisteredAt, Upper: start}

	for _, other := range all {
		if other == e || !other.Equal(e) {
			continue
		}
		if other.RegisteredAt.After(e.RegisteredAt) && other.RegisteredAt.Before(w.Upper) {
			w.Upper = other.RegisteredAt
		}
	}

	// Registered after the pass began: nothing can match.
	if w.Upper.Before(w.Lower) {
		w.Upper = w.Lower
	}
	return w
}
