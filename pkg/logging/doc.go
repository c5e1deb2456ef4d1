// Package logging provides the structured logger used across eventcheck.
//
// It is a thin layer over Go's log/slog: every record carries a subsystem
// attribute so output from the registry, the event store client, the
// reconciler and the listener process can be told apart in one stream.
//
// # Log Levels
//   - **Debug**: request URLs, raw listener responses, retry waits
//   - **Info**: registrations, lifecycle transitions, report locations
//   - **Warn**: transport failures that were folded into "not found"
//   - **Error**: lifecycle and configuration failures
//
// # Usage
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("Registry", "Registered %s for %s", event, objectID)
//	logging.Error("Controller", err, "Listener died prematurely")
//
// A session may instead log to a file, mirroring the test_events.log of
// earlier event-testing setups:
//
//	if err := logging.InitForFile(logging.LevelInfo, "test_events.log"); err != nil {
//	    return err
//	}
//	defer logging.Close()
//
// # Subsystems
//
//   - **Registry**: expectation registration
//   - **EventStore**: listener queries and address discovery
//   - **Reconciler**: window computation and matching
//   - **Listener**: the listener service itself
//   - **Controller**: listener process lifecycle
//   - **Session**: collection and teardown
//   - **Report**: report rendering
//   - **ConfigLoader**: configuration loading
//
// Before any Init call, Debug and Info are dropped and Warn/Error go to
// stderr, so the packages can be used as a library without setup.
package logging
