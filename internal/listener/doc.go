// Package listener implements the event listener service.
//
// Management systems under test are configured to post every event they
// raise to the listener:
//
//	POST /events/VmRedhat/vm-1?event=vm_start
//
// The listener stamps the event with its own UTC clock and stores it in
// SQLite. The event store client later asks which events arrived in a time
// range:
//
//	GET /events/VmRedhat/vm-1?event=vm_start&from_time=2024-03-01-12-00-00&to_time=2024-03-01-12-01-00
//
// GET /events lists everything, /healthz reports liveness and /metrics
// exposes Prometheus counters. Run writes an optional ready file and
// notifies systemd once the socket accepts connections.
package listener
