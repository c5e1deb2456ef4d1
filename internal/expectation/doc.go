// Package expectation models event expectations registered by tests and the
// session-scoped registry that keeps them in registration order.
//
// An expectation says "this event should occur for this object". Its
// Identity (system type, object type, object ID, event name) is what makes
// two expectations the same logical expectation; the registration timestamp
// is kept separately and is what lets the reconciler distinguish repeated
// firings, such as a VM that is powered on, off and on again:
//
//	reg := expectation.NewRegistry(clock.RealClock{})
//	reg.Register(expectation.SystemVirtualCenter, expectation.ObjectVM, "vm123", "power_on")
//	// ... trigger the power cycle ...
//	reg.Register(expectation.SystemVirtualCenter, expectation.ObjectVM, "vm123", "power_off", "power_on")
package expectation
