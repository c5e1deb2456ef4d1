package config

import "time"

const (
	// DefaultResultPath is the default report output file.
	DefaultResultPath = "events.html"

	// DefaultListenerPort is the default port of the event listener.
	DefaultListenerPort = 65432

	// DefaultSettleTime is how long to wait for late events before reconciling.
	DefaultSettleTime = 60 * time.Second

	// DefaultMaxAttempts is how many times an empty query is issued before
	// an expectation is reported as not arrived.
	DefaultMaxAttempts = 2

	// DefaultRetryInterval is the wait between query attempts.
	DefaultRetryInterval = 5 * time.Second

	DefaultRequestTimeout  = 10 * time.Second
	DefaultStartupGrace    = 3 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultDatabase        = "events.db"
)

// GetDefaultConfig returns the default configuration.
func GetDefaultConfig() Config {
	return Config{
		EventTesting: EventTestingConfig{
			Enabled:    false, // Disabled by default, requires explicit enablement
			Result:     DefaultResultPath,
			Port:       DefaultListenerPort,
			SettleTime: DefaultSettleTime,
			Retry: RetryConfig{
				MaxAttempts: DefaultMaxAttempts,
				Interval:    DefaultRetryInterval,
			},
			RequestTimeout: DefaultRequestTimeout,
			Listener: ListenerConfig{
				Database:        DefaultDatabase,
				StartupGrace:    DefaultStartupGrace,
				ShutdownTimeout: DefaultShutdownTimeout,
			},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
