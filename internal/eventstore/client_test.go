package eventstore

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventcheck/internal/clock"
	"eventcheck/internal/config"
	"eventcheck/internal/expectation"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func vmStart(id string) Request {
	return Request{Identity: expectation.Identity{
		SystemType: expectation.SystemRHEVM,
		ObjectType: expectation.ObjectVM,
		ObjectID:   id,
		Event:      "vm_start",
	}}
}

// newTestClient points a client at srv with a mock clock.
func newTestClient(t *testing.T, srv *httptest.Server, clk clock.Clock, mutate ...func(*Options)) *Client {
	t.Helper()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	opts := Options{
		Port:       port,
		Resolver:   StaticResolver{Host: host},
		Retry:      DefaultRetryPolicy(),
		Clock:      clk,
		HTTPClient: srv.Client(),
	}
	for _, m := range mutate {
		m(&opts)
	}
	return NewClient(opts)
}

func jsonHandler(requests *atomic.Int32, body func(n int32) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := requests.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body(n))
	}
}

func TestWireType(t *testing.T) {
	tests := []struct {
		system  expectation.SystemType
		object  expectation.ObjectType
		want    string
		wantErr bool
	}{
		{expectation.SystemRHEVM, expectation.ObjectEMS, "EmsRedhat", false},
		{expectation.SystemVirtualCenter, expectation.ObjectEMS, "EmsVmware", false},
		{expectation.SystemRHEVM, expectation.ObjectVM, "VmRedhat", false},
		{expectation.SystemVirtualCenter, expectation.ObjectVM, "VmVmware", false},
		{expectation.SystemOpenStack, expectation.ObjectVM, "", true},
		{expectation.SystemEC2, expectation.ObjectEMS, "", true},
		{expectation.SystemRHEVM, "host", "", true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.system, tt.object), func(t *testing.T) {
			got, err := WireType(tt.system, tt.object)
			if tt.wantErr {
				var cfgErr config.ConfigurationError
				require.True(t, errors.As(err, &cfgErr))
				assert.Equal(t, config.ErrorTypeMissing, cfgErr.ErrorType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuery_RequestShape(t *testing.T) {
	var gotPath string
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		fmt.Fprint(w, `[{"target_type":"VmRedhat","target_id":"vm-1","event_type":"vm_start","event_time":"2024-03-01 12:00:03"}]`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv, clock.NewMockClock(t0))
	req := vmStart("vm-1")
	req.After = t0
	req.Before = t0.Add(time.Minute)

	result, err := client.Query(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "/events/VmRedhat/vm-1", gotPath)
	assert.Equal(t, "vm_start", gotQuery.Get("event"))
	assert.Equal(t, "2024-03-01-12-00-00", gotQuery.Get("from_time"))
	assert.Equal(t, "2024-03-01-12-01-00", gotQuery.Get("to_time"))
	assert.True(t, result.Found())
	assert.Equal(t, t0.Add(3*time.Second), result.EventTime)
	assert.Equal(t, 1, result.Attempts)
}

func TestQuery_OpenRangeOmitsTimeParameters(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv, clock.NewMockClock(t0), func(o *Options) { o.Retry.MaxAttempts = 1 })
	_, err := client.Query(context.Background(), vmStart("vm-1"))
	require.NoError(t, err)

	assert.False(t, gotQuery.Has("from_time"))
	assert.False(t, gotQuery.Has("to_time"))
}

func TestQuery_EarliestRecordWins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"event_type":"vm_start","event_time":"2024-03-01 12:00:09"},
			{"event_type":"vm_start","event_time":"2024-03-01 12:00:04"},
			{"event_type":"vm_start","event_time":"2024-03-01 12:00:07"}
		]`)
	}))
	defer srv.Close()

	result, err := newTestClient(t, srv, clock.NewMockClock(t0)).Query(context.Background(), vmStart("vm-1"))
	require.NoError(t, err)
	assert.Equal(t, t0.Add(4*time.Second), result.EventTime)
}

func TestQuery_RetryBound(t *testing.T) {
	for _, maxAttempts := range []int{1, 2, 3, 5} {
		t.Run(fmt.Sprintf("max_%d", maxAttempts), func(t *testing.T) {
			var requests atomic.Int32
			srv := httptest.NewServer(jsonHandler(&requests, func(int32) string { return `[]` }))
			defer srv.Close()

			clk := clock.NewMockClock(t0)
			client := newTestClient(t, srv, clk, func(o *Options) {
				o.Retry = RetryPolicy{MaxAttempts: maxAttempts, Interval: 5 * time.Second}
			})

			result, err := client.Query(context.Background(), vmStart("vm-1"))
			require.NoError(t, err)

			assert.Equal(t, StatusNotFound, result.Status)
			assert.Equal(t, maxAttempts, result.Attempts)
			assert.Equal(t, int32(maxAttempts), requests.Load())
			assert.Len(t, clk.Sleeps(), maxAttempts-1)
			for _, d := range clk.Sleeps() {
				assert.Equal(t, 5*time.Second, d)
			}
		})
	}
}

func TestQuery_FoundOnSecondAttempt(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(jsonHandler(&requests, func(n int32) string {
		if n == 1 {
			return `[]`
		}
		return `[{"event_type":"vm_start","event_time":"2024-03-01 12:00:02"}]`
	}))
	defer srv.Close()

	clk := clock.NewMockClock(t0)
	result, err := newTestClient(t, srv, clk).Query(context.Background(), vmStart("vm-1"))
	require.NoError(t, err)

	assert.True(t, result.Found())
	assert.Equal(t, 2, result.Attempts)
	assert.Equal(t, []time.Duration{5 * time.Second}, clk.Sleeps())
}

func TestQuery_TransportErrorsAreRetriedAndReported(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	result, err := newTestClient(t, srv, clock.NewMockClock(t0)).Query(context.Background(), vmStart("vm-1"))
	require.NoError(t, err)

	assert.Equal(t, StatusTransportError, result.Status)
	assert.Equal(t, int32(2), requests.Load())

	var transportErr *TransportError
	require.True(t, errors.As(result.Err, &transportErr))
	assert.Equal(t, http.StatusInternalServerError, transportErr.StatusCode)
	assert.Contains(t, transportErr.URL, "/events/VmRedhat/vm-1")
}

func TestQuery_RecoversAfterTransportError(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			http.Error(w, "starting", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	result, err := newTestClient(t, srv, clock.NewMockClock(t0)).Query(context.Background(), vmStart("vm-1"))
	require.NoError(t, err)
	assert.Equal(t, StatusNotFound, result.Status)
	assert.NoError(t, result.Err)
}

func TestQuery_MalformedBodyIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"not":"a list"}`)
	}))
	defer srv.Close()

	result, err := newTestClient(t, srv, clock.NewMockClock(t0)).Query(context.Background(), vmStart("vm-1"))
	require.NoError(t, err)
	assert.Equal(t, StatusTransportError, result.Status)
}

func TestQuery_UnknownWireTypeIssuesNoRequest(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(jsonHandler(&requests, func(int32) string { return `[]` }))
	defer srv.Close()

	req := vmStart("vm-1")
	req.SystemType = expectation.SystemSCVMM

	_, err := newTestClient(t, srv, clock.NewMockClock(t0)).Query(context.Background(), req)

	var cfgErr config.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, int32(0), requests.Load())
}

func TestQuery_MissingIPEchoIsConfigurationError(t *testing.T) {
	client := NewClient(Options{Resolver: IPEchoResolver{}, Clock: clock.NewMockClock(t0)})

	_, err := client.Query(context.Background(), vmStart("vm-1"))

	var cfgErr config.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "eventTesting.ipEcho", cfgErr.Section)
}

func TestQuery_LivenessFailureAborts(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(jsonHandler(&requests, func(int32) string { return `[]` }))
	defer srv.Close()

	dead := errors.New("listener exited")
	calls := 0
	client := newTestClient(t, srv, clock.NewMockClock(t0), func(o *Options) {
		o.Liveness = func() error {
			calls++
			if calls > 1 {
				return dead
			}
			return nil
		}
	})

	_, err := client.Query(context.Background(), vmStart("vm-1"))
	assert.ErrorIs(t, err, dead)
	assert.Equal(t, int32(1), requests.Load())
}

func TestQuery_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(t, srv, clock.NewMockClock(t0)).Query(ctx, vmStart("vm-1"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestListEvents(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(jsonHandler(&requests, func(int32) string {
		return `[{"id":1,"target_type":"EmsVmware","target_id":"vc-1","event_type":"host_connect","event_time":"2024-03-01 12:00:00"}]`
	}))
	defer srv.Close()

	req := Request{Identity: expectation.Identity{
		SystemType: expectation.SystemVirtualCenter,
		ObjectType: expectation.ObjectEMS,
		ObjectID:   "vc-1",
		Event:      "host_connect",
	}}
	records, err := newTestClient(t, srv, clock.NewMockClock(t0)).ListEvents(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "EmsVmware", records[0].TargetType)
	assert.Equal(t, int32(1), requests.Load())

	ts, err := records[0].Time()
	require.NoError(t, err)
	assert.Equal(t, t0, ts)
}

func TestNewClientFromConfig(t *testing.T) {
	cfg := config.GetDefaultConfig().EventTesting
	cfg.ListenerHost = "listener.example.com"
	cfg.Port = 9000

	client := NewClientFromConfig(cfg, clock.NewMockClock(t0), nil)
	base, err := client.BaseURL(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "http://listener.example.com:9000", base)
	assert.Nil(t, client.limiter)

	cfg.QueriesPerSecond = 2
	assert.NotNil(t, NewClientFromConfig(cfg, nil, nil).limiter)
}
