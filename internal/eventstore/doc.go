// Package eventstore queries the event listener for recorded events.
//
// The listener stores every event the management systems post to it. A
// Client translates an expectation's system and object type into the
// listener's target type (WireType), discovers the listener address through
// a Resolver and asks for events of one name in a time range:
//
//	GET /events/VmRedhat/vm-1?event=vm_start&from_time=2024-03-01-12-00-00&to_time=2024-03-01-12-01-00
//
// An empty answer is retried a bounded number of times with a pause between
// attempts. Query returns a QueryResult with one of three states: found,
// not found, or transport error. Only configuration and liveness problems
// are returned as errors.
package eventstore
