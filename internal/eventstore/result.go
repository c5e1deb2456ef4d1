package eventstore

import "time"

// Status is the outcome of a query against the listener.
type Status int

const (
	// StatusNotFound means the listener answered but held no matching event.
	StatusNotFound Status = iota
	// StatusFound means at least one matching event was recorded.
	StatusFound
	// StatusTransportError means the last attempt could not reach the listener.
	StatusTransportError
)

func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusNotFound:
		return "not found"
	case StatusTransportError:
		return "transport error"
	default:
		return "unknown"
	}
}

// QueryResult is the answer to one Query, after retries.
type QueryResult struct {
	Status Status

	// EventTime is the earliest matching event_time. Set when Status is
	// StatusFound.
	EventTime time.Time

	// Attempts is the number of requests issued.
	Attempts int

	// Err is the transport error of the final attempt when Status is
	// StatusTransportError.
	Err error
}

// Found reports whether a matching event was recorded.
func (r QueryResult) Found() bool {
	return r.Status == StatusFound
}
