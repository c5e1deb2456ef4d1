package listener

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventcheck/internal/clock"
	"eventcheck/internal/eventstore"
)

func newTestServer(t *testing.T) (*httptest.Server, *clock.MockClock) {
	t.Helper()
	clk := clock.NewMockClock(t0)
	srv := NewServer(newMemoryStore(t), Options{Clock: clk})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, clk
}

func post(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", nil)
	require.NoError(t, err)
	return resp
}

func getRecords(t *testing.T, url string) []eventstore.Record {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var records []eventstore.Record
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&records))
	return records
}

func TestServer_RecordAndQuery(t *testing.T) {
	ts, clk := newTestServer(t)

	clk.Advance(1 * time.Second)
	resp := post(t, ts.URL+"/events/VmVmware/vm123?event=power_on")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var created eventstore.Record
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	assert.Equal(t, "2024-03-01 12:00:01", created.EventTime)
	assert.Equal(t, "VmVmware", created.TargetType)

	clk.Advance(5 * time.Second)
	post(t, ts.URL+"/events/VmVmware/vm123?event=power_on").Body.Close()

	all := getRecords(t, ts.URL+"/events/VmVmware/vm123?event=power_on")
	require.Len(t, all, 2)

	windowed := getRecords(t, ts.URL+"/events/VmVmware/vm123?event=power_on&from_time=2024-03-01-12-00-00&to_time=2024-03-01-12-00-05")
	require.Len(t, windowed, 1)
	assert.Equal(t, "2024-03-01 12:00:01", windowed[0].EventTime)

	later := getRecords(t, ts.URL+"/events/VmVmware/vm123?event=power_on&from_time=2024-03-01-12-00-05")
	require.Len(t, later, 1)
	assert.Equal(t, "2024-03-01 12:00:06", later[0].EventTime)

	none := getRecords(t, ts.URL+"/events/VmVmware/vm999?event=power_on")
	assert.Empty(t, none)

	assert.Len(t, getRecords(t, ts.URL+"/events"), 2)
}

func TestServer_BadRequests(t *testing.T) {
	ts, _ := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		status int
	}{
		{name: "record without event", method: http.MethodPost, path: "/events/VmRedhat/vm-1", status: http.StatusBadRequest},
		{name: "malformed from_time", method: http.MethodGet, path: "/events/VmRedhat/vm-1?event=x&from_time=2024-03-01T12:00:00", status: http.StatusBadRequest},
		{name: "malformed to_time", method: http.MethodGet, path: "/events/VmRedhat/vm-1?event=x&to_time=yesterday", status: http.StatusBadRequest},
		{name: "unknown route", method: http.MethodGet, path: "/nothing", status: http.StatusNotFound},
		{name: "wrong method", method: http.MethodDelete, path: "/events/VmRedhat/vm-1", status: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, ts.URL+tt.path, nil)
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestServer_HealthAndMetrics(t *testing.T) {
	ts, _ := newTestServer(t)
	post(t, ts.URL+"/events/EmsRedhat/rhevm-1?event=host_add").Body.Close()
	getRecords(t, ts.URL+"/events/EmsRedhat/rhevm-1?event=host_add")

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)

	assert.Contains(t, string(body), `eventcheck_listener_events_received_total{target_type="EmsRedhat"} 1`)
	assert.Contains(t, string(body), `eventcheck_listener_queries_total{result="found"} 1`)
}

type failingStore struct{ err error }

func (f failingStore) Add(context.Context, string, string, string, time.Time) (eventstore.Record, error) {
	return eventstore.Record{}, f.err
}
func (f failingStore) Find(context.Context, Filter) ([]eventstore.Record, error) { return nil, f.err }
func (f failingStore) All(context.Context) ([]eventstore.Record, error)          { return nil, f.err }
func (f failingStore) Close() error                                              { return nil }

func TestServer_StoreFailures(t *testing.T) {
	srv := NewServer(failingStore{err: errors.New("database is locked")}, Options{})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp := post(t, ts.URL+"/events/VmRedhat/vm-1?event=vm_start")
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	for _, path := range []string{"/events/VmRedhat/vm-1?event=vm_start", "/events"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode, path)
	}
}

func TestServer_Run(t *testing.T) {
	readyFile := filepath.Join(t.TempDir(), "listener.ready")
	srv := NewServer(newMemoryStore(t), Options{Addr: "127.0.0.1:0", ReadyFile: readyFile})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	select {
	case <-srv.Ready():
	case err := <-done:
		t.Fatalf("server exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not become ready")
	}

	data, err := os.ReadFile(readyFile)
	require.NoError(t, err)
	assert.Equal(t, srv.Addr(), strings.TrimSpace(string(data)))

	resp, err := http.Get("http://" + srv.Addr() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
	_, err = os.Stat(readyFile)
	assert.True(t, os.IsNotExist(err), "ready file must be removed on shutdown")
}

func TestServer_RunPortInUse(t *testing.T) {
	first := NewServer(newMemoryStore(t), Options{Addr: "127.0.0.1:0"})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = first.Run(ctx) }()
	<-first.Ready()

	second := NewServer(newMemoryStore(t), Options{Addr: first.Addr()})
	err := second.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to listen")
}
