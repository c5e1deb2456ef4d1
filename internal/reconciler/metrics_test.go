package reconciler

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"eventcheck/internal/expectation"
)

func TestMetrics(t *testing.T) {
	m := NewMetrics()
	vm := powerOn
	ems := expectation.Identity{SystemType: expectation.SystemRHEVM, ObjectType: expectation.ObjectEMS, ObjectID: "rhevm-1", Event: "host_add"}

	m.RecordQuery(vm)
	m.RecordMatch(vm, t0.Add(3*time.Second))
	m.RecordQuery(vm)
	m.RecordUnmatched(vm, t0)
	m.RecordQuery(ems)
	m.RecordTransportError(ems, t0, errors.New("connection refused"))
	m.RecordPass(t0, 2*time.Second)

	summary := m.GetSummary()
	assert.Equal(t, int64(1), summary.Passes)
	assert.Equal(t, int64(3), summary.TotalQueries)
	assert.Equal(t, int64(1), summary.TotalMatched)
	assert.Equal(t, int64(1), summary.TotalUnmatched)
	assert.Equal(t, int64(1), summary.TotalTransportErrors)
	assert.Equal(t, 2*time.Second, summary.LastPassDuration)
	assert.InDelta(t, 1.0/3.0, summary.MatchRate, 0.0001)

	assert.Len(t, summary.PerObjectType, 2)
	assert.Equal(t, expectation.ObjectEMS, summary.PerObjectType[0].ObjectType)
	assert.Equal(t, int64(1), summary.PerObjectType[0].TransportErrors)
	assert.Equal(t, expectation.ObjectVM, summary.PerObjectType[1].ObjectType)
	assert.Equal(t, int64(2), summary.PerObjectType[1].Queries)
	assert.Equal(t, t0.Add(3*time.Second), summary.PerObjectType[1].LastMatchAt)

	empty := NewMetrics().GetSummary()
	assert.Zero(t, empty.MatchRate)
	assert.Empty(t, empty.PerObjectType)
}
