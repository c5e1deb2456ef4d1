package eventstore

import "fmt"

// TransportError reports a failed request to the listener: the connection
// failed, timed out, or the listener answered with a non-2xx status.
type TransportError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("listener request %s failed with status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("listener request %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
