package controller

import "fmt"

// ListenerLifecycleError reports that the listener process is not in the
// state an operation needs: started twice, stopped while not running, or
// found dead when it should be alive.
type ListenerLifecycleError struct {
	Op     string // start, stop, check
	Reason string
	Err    error
}

func (e *ListenerLifecycleError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("listener %s: %s: %v", e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("listener %s: %s", e.Op, e.Reason)
}

func (e *ListenerLifecycleError) Unwrap() error {
	return e.Err
}
