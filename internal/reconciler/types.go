package reconciler

import (
	"context"
	"fmt"
	"time"

	"eventcheck/internal/eventstore"
)

// Querier looks up recorded events. The event store client implements it.
type Querier interface {
	Query(ctx context.Context, req eventstore.Request) (eventstore.QueryResult, error)
}

// Window is the half-open time range [Lower, Upper) an expectation is
// matched in.
type Window struct {
	Lower time.Time
	Upper time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Lower) && t.Before(w.Upper)
}

// Overlaps reports whether w and other share any instant.
func (w Window) Overlaps(other Window) bool {
	return w.Lower.Before(other.Upper) && other.Lower.Before(w.Upper)
}

func (w Window) String() string {
	return fmt.Sprintf("[%s, %s)", w.Lower.Format(time.RFC3339), w.Upper.Format(time.RFC3339))
}
