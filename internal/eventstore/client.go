package eventstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"golang.org/x/time/rate"

	"eventcheck/internal/clock"
	"eventcheck/internal/config"
	"eventcheck/internal/expectation"
	"eventcheck/pkg/logging"
)

// maxResponseSize caps the listener response body read per request.
const maxResponseSize = 8 << 20

// RetryPolicy bounds how often an empty answer is retried.
type RetryPolicy struct {
	MaxAttempts int
	Interval    time.Duration
}

// DefaultRetryPolicy returns two attempts five seconds apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: config.DefaultMaxAttempts,
		Interval:    config.DefaultRetryInterval,
	}
}

// Request selects events for one object. A zero After or Before leaves that
// side of the time range open.
type Request struct {
	expectation.Identity

	After  time.Time
	Before time.Time
}

// Options configures a Client.
type Options struct {
	// Port is the listener's TCP port.
	Port int

	// Scheme defaults to http.
	Scheme string

	// Resolver discovers the listener host. Required.
	Resolver Resolver

	Retry RetryPolicy

	// Clock is used for retry sleeps. Defaults to the real clock.
	Clock clock.Clock

	// HTTPClient defaults to a cleanhttp pooled client with Timeout.
	HTTPClient *http.Client
	Timeout    time.Duration

	// Limiter paces outgoing requests. Nil means unlimited.
	Limiter *rate.Limiter

	// Liveness is called before every request. A non-nil error aborts
	// the query and is returned unchanged.
	Liveness func() error
}

// Client queries the listener's event log.
type Client struct {
	port     int
	scheme   string
	resolver Resolver
	retry    RetryPolicy
	clock    clock.Clock
	http     *http.Client
	limiter  *rate.Limiter
	liveness func() error
}

// NewClient creates a client from opts, filling in defaults.
func NewClient(opts Options) *Client {
	c := &Client{
		port:     opts.Port,
		scheme:   opts.Scheme,
		resolver: opts.Resolver,
		retry:    opts.Retry,
		clock:    opts.Clock,
		http:     opts.HTTPClient,
		limiter:  opts.Limiter,
		liveness: opts.Liveness,
	}
	if c.port == 0 {
		c.port = config.DefaultListenerPort
	}
	if c.scheme == "" {
		c.scheme = "http"
	}
	if c.retry.MaxAttempts < 1 {
		c.retry.MaxAttempts = config.DefaultMaxAttempts
	}
	if c.clock == nil {
		c.clock = clock.RealClock{}
	}
	if c.http == nil {
		c.http = cleanhttp.DefaultPooledClient()
		c.http.Timeout = opts.Timeout
		if c.http.Timeout <= 0 {
			c.http.Timeout = config.DefaultRequestTimeout
		}
	}
	return c
}

// NewClientFromConfig builds a client for the configured listener. The
// listener host is ListenerHost when set, otherwise the ip-echo answer.
func NewClientFromConfig(cfg config.EventTestingConfig, clk clock.Clock, liveness func() error) *Client {
	var resolver Resolver
	if cfg.ListenerHost != "" {
		resolver = StaticResolver{Host: cfg.ListenerHost}
	} else {
		resolver = IPEchoResolver{Host: cfg.IPEcho.Host, Port: cfg.IPEcho.Port, Timeout: cfg.RequestTimeout}
	}

	var limiter *rate.Limiter
	if cfg.QueriesPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.QueriesPerSecond), 1)
	}

	return NewClient(Options{
		Port:     cfg.Port,
		Resolver: NewCachedResolver(resolver),
		Retry:    RetryPolicy{MaxAttempts: cfg.Retry.MaxAttempts, Interval: cfg.Retry.Interval},
		Clock:    clk,
		Timeout:  cfg.RequestTimeout,
		Limiter:  limiter,
		Liveness: liveness,
	})
}

// Query asks the listener for events matching req, retrying an empty or
// failed answer until the retry policy is exhausted. Exactly MaxAttempts
// requests are issued unless an event is found first.
//
// The returned error is non-nil only for problems retrying cannot fix:
// a configuration error, a liveness failure or a cancelled context.
func (c *Client) Query(ctx context.Context, req Request) (QueryResult, error) {
	path, err := eventsPath(req)
	if err != nil {
		return QueryResult{}, err
	}

	result := QueryResult{Status: StatusNotFound}
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		if c.liveness != nil {
			if err := c.liveness(); err != nil {
				return QueryResult{}, err
			}
		}

		result.Attempts = attempt
		records, err := c.get(ctx, path)
		switch {
		case err == nil:
			result.Status = StatusNotFound
			result.Err = nil
			if earliest, ok, err := earliestTime(records); err != nil {
				result.Status = StatusTransportError
				result.Err = err
			} else if ok {
				logging.Info("EventStore", "Event found for %s at %s", req.Identity, earliest.Format(EventTimeFormat))
				result.Status = StatusFound
				result.EventTime = earliest
				return result, nil
			}
		case isFatal(err):
			return QueryResult{}, err
		case ctx.Err() != nil:
			return QueryResult{}, ctx.Err()
		default:
			logging.Warn("EventStore", "Query for %s failed (attempt %d/%d): %v", req.Identity, attempt, c.retry.MaxAttempts, err)
			result.Status = StatusTransportError
			result.Err = err
		}

		if attempt < c.retry.MaxAttempts {
			logging.Debug("EventStore", "No event for %s yet, retrying in %s", req.Identity, c.retry.Interval)
			if err := c.clock.Sleep(ctx, c.retry.Interval); err != nil {
				return QueryResult{}, err
			}
		}
	}

	logging.Info("EventStore", "Query for %s failed. Max attempts: %d", req.Identity, c.retry.MaxAttempts)
	return result, nil
}

// ListEvents issues a single request and returns the raw records.
func (c *Client) ListEvents(ctx context.Context, req Request) ([]Record, error) {
	path, err := eventsPath(req)
	if err != nil {
		return nil, err
	}
	return c.get(ctx, path)
}

// BaseURL returns scheme://host:port for the listener.
func (c *Client) BaseURL(ctx context.Context) (string, error) {
	if c.resolver == nil {
		return "", config.NewConfigurationError("eventTesting.listenerHost", config.ErrorTypeMissing, "no listener address resolver configured")
	}
	host, err := c.resolver.ResolveAddress(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s://%s", c.scheme, net.JoinHostPort(host, strconv.Itoa(c.port))), nil
}

func (c *Client) get(ctx context.Context, path string) ([]Record, error) {
	base, err := c.BaseURL(ctx)
	if err != nil {
		if isFatal(err) {
			return nil, err
		}
		return nil, &TransportError{URL: path, Err: err}
	}
	target := base + path

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{URL: target, Err: err}
		}
	}

	logging.Debug("EventStore", "Checking api: %s", target)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &TransportError{URL: target, Err: err}
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &TransportError{URL: target, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &TransportError{URL: target, StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{
			URL:        target,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected response: %s", string(body)),
		}
	}

	var records []Record
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, &TransportError{URL: target, StatusCode: resp.StatusCode, Err: fmt.Errorf("invalid response body: %w", err)}
	}
	logging.Debug("EventStore", "Response: %d records", len(records))
	return records, nil
}

func eventsPath(req Request) (string, error) {
	wire, err := WireType(req.SystemType, req.ObjectType)
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("event", req.Event)
	if !req.After.IsZero() {
		params.Set("from_time", req.After.UTC().Format(QueryTimeFormat))
	}
	if !req.Before.IsZero() {
		params.Set("to_time", req.Before.UTC().Format(QueryTimeFormat))
	}

	return fmt.Sprintf("/events/%s/%s?%s", url.PathEscape(wire), url.PathEscape(req.ObjectID), params.Encode()), nil
}

func earliestTime(records []Record) (time.Time, bool, error) {
	var earliest time.Time
	for _, r := range records {
		t, err := r.Time()
		if err != nil {
			return time.Time{}, false, err
		}
		if earliest.IsZero() || t.Before(earliest) {
			earliest = t
		}
	}
	return earliest, !earliest.IsZero(), nil
}

// isFatal reports errors that retrying cannot fix.
func isFatal(err error) bool {
	var cfgErr config.ConfigurationError
	return errors.As(err, &cfgErr)
}
