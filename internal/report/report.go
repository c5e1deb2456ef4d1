package report

import (
	"fmt"
	"strconv"
	"time"

	"eventcheck/internal/expectation"
)

// NotArrivedMarker replaces the time to arrival of unmatched expectations.
const NotArrivedMarker = "did not arrive"

const timeFormat = "2006-01-02 15:04:05"

// Entry is one report line.
type Entry struct {
	SystemType   string     `json:"systemType"`
	ObjectType   string     `json:"objectType"`
	ObjectID     string     `json:"objectId"`
	Event        string     `json:"event"`
	RegisteredAt time.Time  `json:"registeredAt"`
	ArrivedAt    *time.Time `json:"arrivedAt,omitempty"`
	Matched      bool       `json:"matched"`

	// TimeToArrival is the delay in whole seconds, nil when unmatched.
	TimeToArrival *int `json:"timeToArrival,omitempty"`

	// Colour is green for matched and red for unmatched entries.
	Colour string `json:"colour"`

	// Status is success or failed.
	Status string `json:"status"`
}

// Registered formats the registration time.
func (e Entry) Registered() string {
	return e.RegisteredAt.UTC().Format(timeFormat)
}

// Arrival returns the time to arrival in seconds or NotArrivedMarker.
func (e Entry) Arrival() string {
	if e.TimeToArrival == nil {
		return NotArrivedMarker
	}
	return strconv.Itoa(*e.TimeToArrival)
}

// NewEntry builds the report line for e.
func NewEntry(e *expectation.Expectation) Entry {
	entry := Entry{
		SystemType:   string(e.SystemType),
		ObjectType:   string(e.ObjectType),
		ObjectID:     e.ObjectID,
		Event:        e.Event,
		RegisteredAt: e.RegisteredAt,
		Colour:       "red",
		Status:       "failed",
	}
	if seconds, ok := e.TimeToArrival(); ok {
		arrived := *e.ArrivedAt
		entry.ArrivedAt = &arrived
		entry.Matched = true
		entry.TimeToArrival = &seconds
		entry.Colour = "green"
		entry.Status = "success"
	}
	return entry
}

// Report is the outcome of one session.
type Report struct {
	SessionID   string    `json:"sessionId,omitempty"`
	GeneratedAt time.Time `json:"generatedAt"`
	Total       int       `json:"total"`
	Matched     int       `json:"matched"`
	Entries     []Entry   `json:"entries"`
}

// New builds a report over expectations in their given order.
func New(sessionID string, generatedAt time.Time, expectations []*expectation.Expectation) Report {
	r := Report{
		SessionID:   sessionID,
		GeneratedAt: generatedAt,
		Total:       len(expectations),
		Entries:     make([]Entry, 0, len(expectations)),
	}
	for _, e := range expectations {
		entry := NewEntry(e)
		if entry.Matched {
			r.Matched++
		}
		r.Entries = append(r.Entries, entry)
	}
	return r
}

// Unmatched returns the number of entries without an arrival.
func (r Report) Unmatched() int {
	return r.Total - r.Matched
}

// Summary is a one-line description of the result.
func (r Report) Summary() string {
	return fmt.Sprintf("%d of %d expected events arrived", r.Matched, r.Total)
}
