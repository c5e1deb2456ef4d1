// Package controller owns the lifecycle of the listener process.
//
// Start spawns the listener in its own process group and waits until it is
// ready: either the listener writes its ready file, or it is still alive
// after a short grace period. Stop sends SIGTERM to the group, waits for the
// shutdown timeout and then kills it. Misuse (starting twice, stopping a
// listener that is not running) and a listener found dead are reported as
// ListenerLifecycleError.
package controller
