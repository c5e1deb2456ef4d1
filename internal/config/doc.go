// Package config provides configuration management for eventcheck.
//
// Configuration is read from a single directory containing config.yaml. The
// default directory is ~/.config/eventcheck; commands accept --config-path to
// point elsewhere. A missing file is not an error: the defaults below apply.
//
// # File Format
//
//	eventTesting:
//	  enabled: true
//	  result: events.html
//	  port: 65432
//	  settleTime: 60s
//	  ipEcho:
//	    host: ipecho.example.com
//	    port: 8888
//	  retry:
//	    maxAttempts: 2
//	    interval: 5s
//	  listener:
//	    database: events.db
//	    readyFile: /tmp/eventcheck.ready
//	logging:
//	  level: info
//	  file: test_events.log
//
// # Errors
//
// ConfigurationError describes a single missing or invalid value.
// Validate gathers every problem in a ConfigurationErrorCollection so a user
// can fix the whole file in one pass. Other packages return
// ConfigurationError when data they need at the point of use (the ip-echo
// endpoint, a wire type mapping) is missing.
package config
