package config

import "time"

// Config is the top-level configuration structure for eventcheck.
type Config struct {
	EventTesting EventTestingConfig `yaml:"eventTesting"`
	Logging      LoggingConfig      `yaml:"logging,omitempty"`
}

// EventTestingConfig is the session configuration surface of event testing.
type EventTestingConfig struct {
	Enabled    bool          `yaml:"enabled"`              // Start the listener and collect results (default: false)
	Result     string        `yaml:"result,omitempty"`     // Report output path (default: events.html)
	Port       int           `yaml:"port,omitempty"`       // Listener port (default: 65432)
	SettleTime time.Duration `yaml:"settleTime,omitempty"` // Wait after the last test action before reconciling (default: 60s)

	// IPEcho is the address-discovery service returning this host's
	// externally visible address.
	IPEcho IPEchoConfig `yaml:"ipEcho,omitempty"`

	// ListenerHost, when set, is used as the listener address instead of
	// asking the ip-echo service.
	ListenerHost string `yaml:"listenerHost,omitempty"`

	Retry            RetryConfig    `yaml:"retry,omitempty"`
	RequestTimeout   time.Duration  `yaml:"requestTimeout,omitempty"`   // Per-request HTTP timeout (default: 10s)
	QueriesPerSecond float64        `yaml:"queriesPerSecond,omitempty"` // Query pacing, 0 means unlimited
	Listener         ListenerConfig `yaml:"listener,omitempty"`
}

// IPEchoConfig points at the address-discovery service.
type IPEchoConfig struct {
	Host string `yaml:"host,omitempty"`
	Port int    `yaml:"port,omitempty"`
}

// RetryConfig is the bounded retry policy applied when the listener reports
// no matching events yet.
type RetryConfig struct {
	MaxAttempts int           `yaml:"maxAttempts,omitempty"` // default: 2
	Interval    time.Duration `yaml:"interval,omitempty"`    // default: 5s
}

// ListenerConfig describes how the listener process is started.
type ListenerConfig struct {
	// Command overrides the listener command line. When empty the current
	// executable is started with "listen".
	Command []string `yaml:"command,omitempty"`

	// Database is the SQLite file the listener records events into.
	Database string `yaml:"database,omitempty"`

	// ReadyFile is written by the listener once it accepts connections.
	ReadyFile string `yaml:"readyFile,omitempty"`

	StartupGrace    time.Duration `yaml:"startupGrace,omitempty"`    // default: 3s
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout,omitempty"` // default: 10s
}

// LoggingConfig configures the diagnostic log.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"` // debug, info, warn, error (default: info)
	File  string `yaml:"file,omitempty"`  // Log to this file instead of stderr
}
