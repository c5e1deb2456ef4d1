package expectation

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventcheck/internal/clock"
)

func TestRegistry_RegisterSingle(t *testing.T) {
	c := clock.NewMockClock(t0)
	r := NewRegistry(c)

	r.Register(SystemVirtualCenter, ObjectVM, "vm123", "power_on")

	require.Equal(t, 1, r.Count())
	e := r.All()[0]
	assert.Equal(t, vmPowerOn("vm123"), e.Identity)
	assert.Equal(t, t0, e.RegisteredAt)
	assert.Nil(t, e.ArrivedAt)
}

func TestRegistry_RegisterManySharesTimestamp(t *testing.T) {
	c := clock.NewMockClock(t0)
	r := NewRegistry(c)

	r.Register(SystemRHEVM, ObjectVM, "vm1", "vm_create", "vm_start", "vm_power_on")

	all := r.All()
	require.Len(t, all, 3)
	for i, event := range []string{"vm_create", "vm_start", "vm_power_on"} {
		assert.Equal(t, event, all[i].Event, "registration order must be preserved")
		assert.Equal(t, t0, all[i].RegisteredAt, "one timestamp per call")
	}
}

func TestRegistry_OrderAcrossCalls(t *testing.T) {
	c := clock.NewMockClock(t0)
	r := NewRegistry(c)

	r.Register(SystemVirtualCenter, ObjectVM, "vm123", "power_on")
	c.Advance(5 * time.Second)
	r.Register(SystemVirtualCenter, ObjectVM, "vm123", "power_off")
	c.Advance(5 * time.Second)
	r.Register(SystemVirtualCenter, ObjectVM, "vm123", "power_on")

	all := r.All()
	require.Len(t, all, 3)
	assert.Equal(t, []time.Time{t0, t0.Add(5 * time.Second), t0.Add(10 * time.Second)},
		[]time.Time{all[0].RegisteredAt, all[1].RegisteredAt, all[2].RegisteredAt})
	assert.True(t, all[0].Equal(all[2]))
	assert.False(t, all[0].Equal(all[1]))
}

func TestRegistry_RegisterNoEvents(t *testing.T) {
	r := NewRegistry(clock.NewMockClock(t0))
	r.Register(SystemVirtualCenter, ObjectVM, "vm123")
	assert.Equal(t, 0, r.Count())
}

func TestRegistry_AllReturnsCopy(t *testing.T) {
	r := NewRegistry(clock.NewMockClock(t0))
	r.Register(SystemVirtualCenter, ObjectVM, "vm123", "power_on")

	all := r.All()
	all[0] = nil

	assert.Equal(t, 1, r.Count())
	assert.NotNil(t, r.All()[0])

	// Marks made through All are visible to later readers
	r.All()[0].MarkArrived(t0.Add(time.Second))
	assert.True(t, r.All()[0].Arrived())
}

func TestRegistry_DefaultClock(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(SystemVirtualCenter, ObjectVM, "vm123", "power_on")

	e := r.All()[0]
	assert.Equal(t, time.UTC, e.RegisteredAt.Location())
	assert.WithinDuration(t, time.Now(), e.RegisteredAt, 5*time.Second)
}

func TestRegistry_SaveLoad(t *testing.T) {
	c := clock.NewMockClock(t0)
	r := NewRegistry(c)
	r.Register(SystemVirtualCenter, ObjectVM, "vm123", "power_on", "power_off")
	c.Advance(5 * time.Second)
	r.Register(SystemRHEVM, ObjectEMS, "rhevm-1", "ems_refresh")
	r.All()[0].MarkArrived(t0.Add(2 * time.Second))

	path := filepath.Join(t.TempDir(), "expectations.yaml")
	require.NoError(t, r.Save(path, "session-1"))

	restored := NewRegistry(nil)
	sessionID, err := restored.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "session-1", sessionID)
	require.Equal(t, 3, restored.Count())
	for i, e := range restored.All() {
		orig := r.All()[i]
		assert.Equal(t, orig.Identity, e.Identity)
		assert.True(t, orig.RegisteredAt.Equal(e.RegisteredAt))
	}
	require.NotNil(t, restored.All()[0].ArrivedAt)
	assert.True(t, restored.All()[0].ArrivedAt.Equal(t0.Add(2*time.Second)))
	assert.Nil(t, restored.All()[1].ArrivedAt)
}

func TestRegistry_LoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := NewRegistry(nil).Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("expectations: {"), 0644))
	_, err = NewRegistry(nil).Load(bad)
	assert.Error(t, err)

	noTime := filepath.Join(dir, "notime.yaml")
	require.NoError(t, os.WriteFile(noTime, []byte(`
expectations:
  - systemType: virtualcenter
    objectType: vm
    objectId: vm123
    event: power_on
`), 0644))
	_, err = NewRegistry(nil).Load(noTime)
	assert.ErrorContains(t, err, "no registration time")
}
