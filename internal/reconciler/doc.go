// Package reconciler matches registered expectations against the events the
// listener recorded.
//
// A pass captures the current time once and then walks the expectations in
// registration order. Each expectation is looked up inside its own Window:
// from its registration up to the next registration of a logically equal
// expectation, or up to the start of the pass. When the same event is
// expected for the same object several times (power on, power off, power on)
// each firing is attributed to at most one expectation, greedily in
// registration order.
//
//	rec := reconciler.New(client, clock.RealClock{})
//	if _, err := rec.Reconcile(ctx, registry.All()); err != nil {
//	    return err
//	}
//
// Missing events and transport failures leave an expectation unmatched and
// are counted in Metrics. Configuration and listener lifecycle errors abort
// the pass.
package reconciler
