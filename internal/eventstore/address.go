package eventstore

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"eventcheck/internal/config"
	"eventcheck/pkg/logging"
)

// maxAddressLength is the longest textual IP address (IPv6) the ip-echo
// service can return.
const maxAddressLength = 39

// Resolver returns the network address the listener can be reached at.
type Resolver interface {
	ResolveAddress(ctx context.Context) (string, error)
}

// StaticResolver always returns Host.
type StaticResolver struct {
	Host string
}

// ResolveAddress returns the configured host.
func (r StaticResolver) ResolveAddress(ctx context.Context) (string, error) {
	if r.Host == "" {
		return "", config.NewConfigurationError("eventTesting.listenerHost", config.ErrorTypeMissing, "no listener host configured")
	}
	return r.Host, nil
}

// IPEchoResolver asks an ip-echo service for this host's externally visible
// address: it connects, reads one short text answer and closes.
type IPEchoResolver struct {
	Host    string
	Port    int
	Timeout time.Duration
}

// ResolveAddress connects to the ip-echo service and returns its answer.
func (r IPEchoResolver) ResolveAddress(ctx context.Context) (string, error) {
	if r.Host == "" || r.Port == 0 {
		return "", config.NewConfigurationErrorWithDetails(
			"eventTesting.ipEcho", config.ErrorTypeMissing,
			"could not read ip echo host and port",
			"the listener address is discovered through the ip echo service",
			[]string{"set eventTesting.ipEcho.host and eventTesting.ipEcho.port", "or set eventTesting.listenerHost"},
		)
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	dialer := net.Dialer{Timeout: timeout}
	target := net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
	conn, err := dialer.DialContext(ctx, "tcp", target)
	if err != nil {
		return "", fmt.Errorf("failed to connect to ip echo service %s: %w", target, err)
	}
	defer conn.Close()

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return "", fmt.Errorf("failed to set read deadline: %w", err)
	}

	buf := make([]byte, maxAddressLength)
	n, err := conn.Read(buf)
	if n == 0 {
		if err == nil {
			err = errors.New("empty response")
		}
		return "", fmt.Errorf("failed to read address from ip echo service %s: %w", target, err)
	}

	address := strings.TrimSpace(string(buf[:n]))
	if address == "" {
		return "", fmt.Errorf("ip echo service %s returned a blank address", target)
	}
	logging.Debug("EventStore", "ip echo service %s reported address %s", target, address)
	return address, nil
}

// CachedResolver remembers the first address its inner resolver returns.
// Concurrent lookups share one call to the inner resolver.
type CachedResolver struct {
	inner Resolver
	group singleflight.Group

	mu      sync.RWMutex
	address string
}

// NewCachedResolver wraps inner with memoization.
func NewCachedResolver(inner Resolver) *CachedResolver {
	return &CachedResolver{inner: inner}
}

// ResolveAddress returns the cached address or resolves it once.
func (c *CachedResolver) ResolveAddress(ctx context.Context) (string, error) {
	c.mu.RLock()
	cached := c.address
	c.mu.RUnlock()
	if cached != "" {
		return cached, nil
	}

	v, err, _ := c.group.Do("address", func() (interface{}, error) {
		address, err := c.inner.ResolveAddress(ctx)
		if err != nil {
			return "", err
		}
		c.mu.Lock()
		c.address = address
		c.mu.Unlock()
		return address, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}
