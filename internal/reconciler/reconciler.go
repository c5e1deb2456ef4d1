package reconciler

import (
	"context"
	"fmt"

	"eventcheck/internal/clock"
	"eventcheck/internal/eventstore"
	"eventcheck/internal/expectation"
	"eventcheck/pkg/logging"
)

// Reconciler matches registered expectations against recorded events.
type Reconciler struct {
	querier Querier
	clock   clock.Clock
	metrics *Metrics
}

// New creates a Reconciler. A nil clock uses the real clock.
func New(querier Querier, clk clock.Clock) *Reconciler {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Reconciler{
		querier: querier,
		clock:   clk,
		metrics: NewMetrics(),
	}
}

// Metrics returns the counters of all passes run by r.
func (r *Reconciler) Metrics() *Metrics {
	return r.metrics
}

// Reconcile runs one pass over expectations in order and sets the arrival
// time of every expectation whose event was recorded inside its window.
// The slice is returned for convenience.
//
// Unmatched expectations and unreachable listeners do not stop the pass.
// A configuration or listener lifecycle error does, and is returned with
// the expectations processed so far left as they are.
func (r *Reconciler) Reconcile(ctx context.Context, expectations []*expectation.Expectation) ([]*expectation.Expectation, error) {
	start := r.clock.Now()
	logging.Info("Reconciler", "Checking %d expectations", len(expectations))

	var matched, unmatched, failed int

	for _, e := range expectations {
		window := ComputeWindow(e, expectations, start)
		logging.Debug("Reconciler", "Checking %s in %s", e.Identity, window)

		r.metrics.RecordQuery(e.Identity)
		result, err := r.querier.Query(ctx, eventstore.Request{
			Identity: e.Identity,
			After:    window.Lower,
			Before:   window.Upper,
		})
		if err != nil {
			logging.Error("Reconciler", err, "Reconciliation aborted at %s", e.Identity)
			return expectations, fmt.Errorf("failed to check %s: %w", e.Identity, err)
		}

		switch result.Status {
		case eventstore.StatusFound:
			e.MarkArrived(result.EventTime)
			r.metrics.RecordMatch(e.Identity, result.EventTime)
			matched++
		case eventstore.StatusTransportError:
			r.metrics.RecordTransportError(e.Identity, start, result.Err)
			failed++
		default:
			r.metrics.RecordUnmatched(e.Identity, start)
			unmatched++
		}
	}

	r.metrics.RecordPass(start, r.clock.Now().Sub(start))
	logging.Info("Reconciler", "Reconciliation finished: %d matched, %d unmatched, %d transport errors",
		matched, unmatched, failed)
	return expectations, nil
}
