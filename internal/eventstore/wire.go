package eventstore

import (
	"fmt"
	"time"

	"eventcheck/internal/config"
	"eventcheck/internal/expectation"
)

const (
	// EventTimeFormat is the layout of event_time in listener records.
	EventTimeFormat = "2006-01-02 15:04:05"

	// QueryTimeFormat is the layout of the from_time and to_time parameters.
	QueryTimeFormat = "2006-01-02-15-04-05"
)

// Record is one event as returned by the listener.
type Record struct {
	ID         int64  `json:"id,omitempty"`
	TargetType string `json:"target_type"`
	TargetID   string `json:"target_id"`
	EventType  string `json:"event_type"`
	EventTime  string `json:"event_time"`
}

// Time parses EventTime. Listener times are UTC.
func (r Record) Time() (time.Time, error) {
	t, err := time.ParseInLocation(EventTimeFormat, r.EventTime, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid event_time %q: %w", r.EventTime, err)
	}
	return t, nil
}

type wireKey struct {
	system expectation.SystemType
	object expectation.ObjectType
}

// wireTypes maps (vendor family, object type) to the target type used by the
// listener's event log.
var wireTypes = map[wireKey]string{
	{expectation.SystemRHEVM, expectation.ObjectEMS}:         "EmsRedhat",
	{expectation.SystemVirtualCenter, expectation.ObjectEMS}: "EmsVmware",
	{expectation.SystemRHEVM, expectation.ObjectVM}:          "VmRedhat",
	{expectation.SystemVirtualCenter, expectation.ObjectVM}:  "VmVmware",
}

// WireType translates a system and object type into the listener's target
// type. Pairs without a mapping are a configuration error.
func WireType(systemType expectation.SystemType, objectType expectation.ObjectType) (string, error) {
	if wire, ok := wireTypes[wireKey{systemType, objectType}]; ok {
		return wire, nil
	}
	return "", config.NewConfigurationErrorWithDetails(
		"wireTypes", config.ErrorTypeMissing,
		fmt.Sprintf("no event target type for system %q and object type %q", systemType, objectType),
		"events can only be checked for rhevm and virtualcenter management systems and VMs",
		nil,
	)
}
