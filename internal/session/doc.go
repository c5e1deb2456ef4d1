// Package session runs one event testing session.
//
// A Session owns everything a run needs: the expectation registry, the
// clock, the event store client, the reconciler and the listener process.
// Tests call Register whenever they do something that should make a managed
// system raise an event. Collect then waits for late events, matches every
// expectation and writes the report:
//
//	s, err := session.New(cfg.EventTesting, session.Options{})
//	if err := s.Start(ctx); err != nil {
//	    return err
//	}
//	s.Register(expectation.SystemRHEVM, expectation.ObjectVM, "vm-1", "vm_start")
//	// ... run tests ...
//	if _, err := s.Collect(ctx); err != nil {
//	    return err
//	}
package session
