package expectation

import (
	"fmt"
	"math"
	"time"
)

// SystemType is the category of managed system an object lives in.
type SystemType string

const (
	SystemRHEVM         SystemType = "rhevm"
	SystemVirtualCenter SystemType = "virtualcenter"
	SystemOpenStack     SystemType = "openstack"
	SystemEC2           SystemType = "ec2"
	SystemSCVMM         SystemType = "scvmm"
)

// ObjectType is the kind of object an event is raised for.
type ObjectType string

const (
	// ObjectEMS is the management system (compute node / provider) itself.
	ObjectEMS ObjectType = "ems"

	// ObjectVM is a virtual machine instance.
	ObjectVM ObjectType = "vm"
)

// Identity is the logical identity of an expectation. Two expectations with
// the same Identity describe the same event for the same object, possibly
// firing at different times. Identity is comparable, so == is the logical
// equality; timestamps are deliberately not part of it.
type Identity struct {
	SystemType SystemType `json:"systemType" yaml:"systemType"`
	ObjectType ObjectType `json:"objectType" yaml:"objectType"`
	ObjectID   string     `json:"objectId" yaml:"objectId"`
	Event      string     `json:"event" yaml:"event"`
}

// String renders the identity as system/objectType/object:event.
func (id Identity) String() string {
	return fmt.Sprintf("%s/%s/%s:%s", id.SystemType, id.ObjectType, id.ObjectID, id.Event)
}

// Expectation records that an event should occur for an object.
//
// RegisteredAt is set at creation and never changes. ArrivedAt is nil until
// reconciliation matches the expectation, and is set at most once.
type Expectation struct {
	Identity     `yaml:",inline"`
	RegisteredAt time.Time  `json:"registeredAt" yaml:"registeredAt"`
	ArrivedAt    *time.Time `json:"arrivedAt,omitempty" yaml:"arrivedAt,omitempty"`
}

// New creates an expectation registered at the given time.
func New(id Identity, registeredAt time.Time) *Expectation {
	return &Expectation{Identity: id, RegisteredAt: registeredAt}
}

// Equal reports whether e and other are the same logical expectation.
func (e *Expectation) Equal(other *Expectation) bool {
	if e == nil || other == nil {
		return false
	}
	return e.Identity == other.Identity
}

// Arrived reports whether a matching event has been found.
func (e *Expectation) Arrived() bool {
	return e.ArrivedAt != nil
}

// MarkArrived records the arrival time. It returns false and leaves the
// expectation untouched when an arrival time is already set.
func (e *Expectation) MarkArrived(t time.Time) bool {
	if e.ArrivedAt != nil {
		return false
	}
	arrived := t
	e.ArrivedAt = &arrived
	return true
}

// TimeToArrival returns the delay between registration and arrival rounded
// to whole seconds. ok is false when the event did not arrive.
func (e *Expectation) TimeToArrival() (seconds int, ok bool) {
	if e.ArrivedAt == nil {
		return 0, false
	}
	d := e.ArrivedAt.Sub(e.RegisteredAt)
	return int(math.Round(d.Seconds())), true
}
